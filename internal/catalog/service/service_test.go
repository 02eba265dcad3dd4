package service

import (
	"context"
	"testing"

	"hxms_backend/internal/catalog/repository"
	"hxms_backend/internal/catalog/transport"
	"hxms_backend/platform/apperr"
)

type fakeRepo struct {
	products []repository.Product
}

func (f *fakeRepo) GetProductByID(_ context.Context, id int64) (repository.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return repository.Product{}, apperr.NotFound("product not found")
}

func (f *fakeRepo) FindProductByName(_ context.Context, name string) (repository.Product, error) {
	for _, p := range f.products {
		if p.Name == name {
			return p, nil
		}
	}
	return repository.Product{}, apperr.NotFound("product not found")
}

func (f *fakeRepo) ListProducts(_ context.Context, params repository.ListProductsParams) ([]repository.Product, int, error) {
	end := params.Offset + params.Limit
	if end > len(f.products) {
		end = len(f.products)
	}
	if params.Offset > end {
		return nil, len(f.products), nil
	}
	return f.products[params.Offset:end], len(f.products), nil
}

func newService() *Service {
	return New(&fakeRepo{products: []repository.Product{
		{ID: 1, Name: "Model Y", Series: "Y", Active: true},
		{ID: 2, Name: "Model 3", Series: "3", Active: true},
	}}, nil)
}

func TestResolveReferenceByID(t *testing.T) {
	id := int64(2)
	ref, err := newService().ResolveReference(context.Background(), &id, "typo")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.ID == nil || *ref.ID != 2 || ref.Name != "Model 3" {
		t.Fatalf("expected catalog name to win, got %+v", ref)
	}
}

func TestResolveReferenceUnknownIDIsValidationError(t *testing.T) {
	id := int64(99)
	_, err := newService().ResolveReference(context.Background(), &id, "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveReferenceByName(t *testing.T) {
	svc := newService()

	ref, err := svc.ResolveReference(context.Background(), nil, " Model Y ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.ID == nil || *ref.ID != 1 {
		t.Fatalf("expected name match, got %+v", ref)
	}

	ref, err = svc.ResolveReference(context.Background(), nil, "Cybertruck")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.ID != nil || ref.Name != "Cybertruck" {
		t.Fatalf("expected free-text reference, got %+v", ref)
	}

	ref, err = svc.ResolveReference(context.Background(), nil, "")
	if err != nil || ref != nil {
		t.Fatalf("expected nil reference, got %+v, %v", ref, err)
	}
}

func TestListProductsClampsPaging(t *testing.T) {
	result, err := newService().ListProducts(context.Background(), transport.ListProductsRequest{Page: 0, PageSize: 1000}, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.PageSize != 1 || result.TotalPages != 2 || len(result.Items) != 1 {
		t.Fatalf("unexpected page: %+v", result)
	}
}
