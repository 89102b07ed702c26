package releases

import (
	"context"
	"fmt"

	"onlyhate/internal/catalog"
)

// Store captures the catalog operations needed for release workflows.
type Store interface {
	ListReleases(f catalog.ReleaseFilter) []catalog.Release
	Release(id string) (catalog.Release, bool)
	UpsertRelease(id string, patch catalog.ReleasePatch) (catalog.Release, error)
	RemoveRelease(id string) bool
}

// Service coordinates release-related operations.
type Service interface {
	List(ctx context.Context, filter catalog.ReleaseFilter) ([]catalog.Release, error)
	Get(ctx context.Context, id string) (catalog.Release, error)
	Create(ctx context.Context, patch catalog.ReleasePatch) (catalog.Release, error)
	Update(ctx context.Context, id string, patch catalog.ReleasePatch) (catalog.Release, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context, filter catalog.ReleaseFilter) ([]catalog.Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListReleases(filter), nil
}

func (s *service) Get(ctx context.Context, id string) (catalog.Release, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Release{}, err
	}
	release, ok := s.store.Release(id)
	if !ok {
		return catalog.Release{}, fmt.Errorf("release %q: %w", id, catalog.ErrNotFound)
	}
	return release, nil
}

func (s *service) Create(ctx context.Context, patch catalog.ReleasePatch) (catalog.Release, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Release{}, err
	}
	return s.store.UpsertRelease("", patch)
}

func (s *service) Update(ctx context.Context, id string, patch catalog.ReleasePatch) (catalog.Release, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Release{}, err
	}
	if id == "" {
		return catalog.Release{}, fmt.Errorf("release id is required: %w", catalog.ErrNotFound)
	}
	return s.store.UpsertRelease(id, patch)
}

func (s *service) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.store.RemoveRelease(id), nil
}
