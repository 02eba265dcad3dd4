package adapters

import (
	"context"

	"hxms_backend/internal/catalog/transport"
	"hxms_backend/internal/leads/ports"
)

// ProductReferenceResolver is the catalog lookup for lead product references.
type ProductReferenceResolver interface {
	ResolveReference(ctx context.Context, id *int64, name string) (*transport.Reference, error)
}

// CatalogProductResolver resolves lead product references against the catalog.
type CatalogProductResolver struct {
	catalog ProductReferenceResolver
}

// NewCatalogProductResolver creates a CatalogProductResolver.
func NewCatalogProductResolver(catalog ProductReferenceResolver) *CatalogProductResolver {
	return &CatalogProductResolver{catalog: catalog}
}

// ResolveProduct implements ports.ProductResolver.
func (a *CatalogProductResolver) ResolveProduct(ctx context.Context, id *int64, name string) (*ports.ProductRef, error) {
	ref, err := a.catalog.ResolveReference(ctx, id, name)
	if err != nil || ref == nil {
		return nil, err
	}
	return &ports.ProductRef{ID: ref.ID, Name: ref.Name}, nil
}

var _ ports.ProductResolver = (*CatalogProductResolver)(nil)
