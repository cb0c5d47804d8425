package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mfuentes/plaza/internal/domain"
	"github.com/samber/lo"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type productRecord struct {
	ID          *surrealmodels.RecordID `json:"id,omitempty"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Price       float64                 `json:"price"`
	Stock       int                     `json:"stock"`
	CreatedAt   time.Time               `json:"createdAt"`
}

func (r productRecord) toDomain() domain.Product {
	p := domain.Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt,
	}
	if r.ID != nil {
		p.ID = r.ID.String()
	}
	return p
}

// SurrealProductStore handles catalog persistence.
type SurrealProductStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewSurrealProductStore creates a new SurrealProductStore.
func NewSurrealProductStore(db *surrealdb.DB, ns, dbName string) *SurrealProductStore {
	return &SurrealProductStore{db: db, ns: ns, dbName: dbName}
}

// Create saves a new product.
func (s *SurrealProductStore) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		CREATE product CONTENT {
			name: $name,
			description: $description,
			price: $price,
			stock: $stock,
			createdAt: time::now()
		} RETURN AFTER
	`
	params := map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
	}

	created, err := QueryOne[productRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("product was not created or could not be fetched")
	}

	result := created.toDomain()
	return &result, nil
}

// FindByID retrieves a product by its full record id.
func (s *SurrealProductStore) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	record, err := QueryOne[productRecord](ctx, s.db,
		"SELECT * FROM type::record($id)", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	result := record.toDomain()
	return &result, nil
}

// List returns all products, newest first.
func (s *SurrealProductStore) List(ctx context.Context) ([]domain.Product, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	records, err := Query[productRecord](ctx, s.db,
		"SELECT * FROM product ORDER BY createdAt DESC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	return lo.Map(records, func(r productRecord, _ int) domain.Product {
		return r.toDomain()
	}), nil
}

// Update merges the mutable fields of a product.
func (s *SurrealProductStore) Update(ctx context.Context, id string, p *domain.Product) (*domain.Product, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		UPDATE type::record($id) MERGE {
			name: $name,
			description: $description,
			price: $price,
			stock: $stock
		} RETURN AFTER
	`
	params := map[string]any{
		"id":          id,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"stock":       p.Stock,
	}

	updated, err := QueryOne[productRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	result := updated.toDomain()
	return &result, nil
}

// Delete removes a product by id.
func (s *SurrealProductStore) Delete(ctx context.Context, id string) error {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}

	existing, err := QueryOne[productRecord](ctx, s.db,
		"SELECT * FROM type::record($id)", map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	if existing == nil {
		return domain.ErrNotFound
	}

	return Execute(ctx, s.db, "DELETE type::record($id)", map[string]any{"id": id})
}
