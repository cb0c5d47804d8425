package domain

import (
	"context"
	"time"
)

// Product is a catalog entry. The catalog is a plain CRUD collaborator of the
// system; only admins may mutate it.
type Product struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// ProductRepository defines the storage contract for the catalog.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, id string, p *Product) (*Product, error)
	Delete(ctx context.Context, id string) error
}
