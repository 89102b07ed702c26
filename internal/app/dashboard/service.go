package dashboard

import (
	"context"

	"onlyhate/internal/catalog"
)

// Store exposes the catalog summary.
type Store interface {
	Dashboard() catalog.Dashboard
}

// Service provides the admin landing page summary.
type Service interface {
	Summary(ctx context.Context) (catalog.Dashboard, error)
}

type service struct {
	store Store
}

// New constructs a dashboard Service.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Summary(ctx context.Context) (catalog.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Dashboard{}, err
	}
	return s.store.Dashboard(), nil
}
