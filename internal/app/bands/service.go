package bands

import (
	"context"
	"fmt"

	"onlyhate/internal/catalog"
)

// Store captures the catalog operations needed for band workflows.
type Store interface {
	ListBands(f catalog.BandFilter) []catalog.Band
	Band(id string) (catalog.Band, bool)
	UpsertBand(id string, patch catalog.BandPatch) (catalog.Band, error)
	RemoveBand(id string) bool
}

// Service coordinates band-related operations.
type Service interface {
	List(ctx context.Context, filter catalog.BandFilter) ([]catalog.Band, error)
	Get(ctx context.Context, id string) (catalog.Band, error)
	Create(ctx context.Context, patch catalog.BandPatch) (catalog.Band, error)
	Update(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, filter catalog.BandFilter) ([]catalog.Band, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListBands(filter), nil
}

func (s *service) Get(ctx context.Context, id string) (catalog.Band, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Band{}, err
	}
	band, ok := s.store.Band(id)
	if !ok {
		return catalog.Band{}, fmt.Errorf("band %q: %w", id, catalog.ErrNotFound)
	}
	return band, nil
}

func (s *service) Create(ctx context.Context, patch catalog.BandPatch) (catalog.Band, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Band{}, err
	}
	return s.store.UpsertBand("", patch)
}

func (s *service) Update(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Band{}, err
	}
	if id == "" {
		return catalog.Band{}, fmt.Errorf("band id is required: %w", catalog.ErrNotFound)
	}
	return s.store.UpsertBand(id, patch)
}

func (s *service) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.RemoveBand(id), nil
}
