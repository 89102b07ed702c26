package products

import (
	"context"
	"fmt"

	"onlyhate/internal/catalog"
)

// Store captures the catalog operations needed for product workflows.
type Store interface {
	ListProducts(f catalog.ProductFilter) []catalog.Product
	Product(id string) (catalog.Product, bool)
	UpsertProduct(id string, patch catalog.ProductPatch) (catalog.Product, error)
	RemoveProduct(id string) bool
}

// Service coordinates product-related operations.
type Service interface {
	List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, patch catalog.ProductPatch) (catalog.Product, error)
	Update(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListProducts(filter), nil
}

func (s *service) Get(ctx context.Context, id string) (catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Product{}, err
	}
	product, ok := s.store.Product(id)
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %q: %w", id, catalog.ErrNotFound)
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, patch catalog.ProductPatch) (catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Product{}, err
	}
	return s.store.UpsertProduct("", patch)
}

func (s *service) Update(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Product{}, err
	}
	if id == "" {
		return catalog.Product{}, fmt.Errorf("product id is required: %w", catalog.ErrNotFound)
	}
	return s.store.UpsertProduct(id, patch)
}

func (s *service) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.RemoveProduct(id), nil
}
