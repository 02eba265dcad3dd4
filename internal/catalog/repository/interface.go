package repository

import (
	"context"
	"time"
)

// Product is a vehicle model leads can reference.
type Product struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Series    string    `db:"series"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ListProductsParams defines filters for listing products.
type ListProductsParams struct {
	Search     string
	ActiveOnly bool
	Offset     int
	Limit      int
}

// Repository defines the catalog persistence operations.
type Repository interface {
	GetProductByID(ctx context.Context, id int64) (Product, error)
	// FindProductByName matches the exact name; active products win over inactive ones.
	FindProductByName(ctx context.Context, name string) (Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]Product, int, error)
}
