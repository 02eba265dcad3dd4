package adapters

import (
	"context"

	"hxms_backend/internal/leads/ports"
	"hxms_backend/internal/org"
)

// AncestorResolver is the org lookup the adapter needs.
type AncestorResolver interface {
	ResolveAncestors(ctx context.Context, storeID int64) org.Ancestors
}

// OrgAttributionAdapter derives lead region and brand from the org tree.
type OrgAttributionAdapter struct {
	resolver AncestorResolver
}

// NewOrgAttributionAdapter creates an OrgAttributionAdapter.
func NewOrgAttributionAdapter(resolver AncestorResolver) *OrgAttributionAdapter {
	return &OrgAttributionAdapter{resolver: resolver}
}

// ResolveAttribution implements ports.OrgResolver.
func (a *OrgAttributionAdapter) ResolveAttribution(ctx context.Context, storeID int64) ports.OrgAttribution {
	anc := a.resolver.ResolveAncestors(ctx, storeID)
	return ports.OrgAttribution{RegionID: anc.RegionID, BrandID: anc.BrandID}
}

var _ ports.OrgResolver = (*OrgAttributionAdapter)(nil)
