package service

import (
	"context"
	"strings"

	"hxms_backend/internal/catalog/repository"
	"hxms_backend/internal/catalog/transport"
	"hxms_backend/internal/scope"
	"hxms_backend/platform/apperr"
	"hxms_backend/platform/logger"
)

// Service provides business logic for catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log}
}

// GetProductByID retrieves a product by ID.
func (s *Service) GetProductByID(ctx context.Context, id int64) (transport.ProductResponse, error) {
	p, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return transport.ProductResponse{}, err
	}
	return toProductResponse(p), nil
}

// ListProducts retrieves products with search and pagination.
func (s *Service) ListProducts(ctx context.Context, req transport.ListProductsRequest, maxPageSize int) (transport.ProductListResponse, error) {
	page := scope.NewPage(req.Page, req.PageSize, maxPageSize)

	items, total, err := s.repo.ListProducts(ctx, repository.ListProductsParams{
		Search:     strings.TrimSpace(req.Search),
		ActiveOnly: req.ActiveOnly,
		Offset:     page.Offset(),
		Limit:      page.PageSize,
	})
	if err != nil {
		return transport.ProductListResponse{}, err
	}

	resp := make([]transport.ProductResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, toProductResponse(p))
	}

	return transport.ProductListResponse{
		Items:      resp,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(total),
	}, nil
}

// ResolveReference turns a lead's product id and/or name into a reference.
// An id must exist and its catalog name wins; a bare name is matched exactly
// and kept as free text when unknown. Returns nil when neither is given.
func (s *Service) ResolveReference(ctx context.Context, id *int64, name string) (*transport.Reference, error) {
	name = strings.TrimSpace(name)

	if id != nil && *id > 0 {
		p, err := s.repo.GetProductByID(ctx, *id)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.Validation("unknown product").WithDetails(map[string]int64{"productId": *id})
			}
			return nil, err
		}
		pid := p.ID
		return &transport.Reference{ID: &pid, Name: p.Name}, nil
	}

	if name == "" {
		return nil, nil
	}

	p, err := s.repo.FindProductByName(ctx, name)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return &transport.Reference{Name: name}, nil
		}
		return nil, err
	}
	pid := p.ID
	return &transport.Reference{ID: &pid, Name: p.Name}, nil
}

func toProductResponse(p repository.Product) transport.ProductResponse {
	return transport.ProductResponse{
		ID:     p.ID,
		Name:   p.Name,
		Series: p.Series,
		Active: p.Active,
	}
}
