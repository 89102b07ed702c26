// Package admin holds the state behind the admin console: one list view per
// collection and a modal form per entity type. It has no rendering of its own;
// the terminal UI and tests drive it directly.
package admin

import (
	"context"
	"errors"

	"onlyhate/internal/catalog"
)

var (
	// ErrClosed is returned when a submitted or cancelled form is used again.
	ErrClosed = errors.New("form is closed")
	// ErrUnknownReference is returned when a selected band or release is not in the snapshot.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrInvalidInput wraps rejected raw field input such as a non-numeric year.
	ErrInvalidInput = errors.New("invalid input")
)

// Catalog is the backend the console reads from and writes to. An empty id
// passed to a Save method creates a new entity.
type Catalog interface {
	Bands(ctx context.Context) ([]catalog.Band, error)
	SaveBand(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error)
	RemoveBand(ctx context.Context, id string) (bool, error)

	Releases(ctx context.Context) ([]catalog.Release, error)
	SaveRelease(ctx context.Context, id string, patch catalog.ReleasePatch) (catalog.Release, error)
	RemoveRelease(ctx context.Context, id string) (bool, error)

	Products(ctx context.Context) ([]catalog.Product, error)
	SaveProduct(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error)
	RemoveProduct(ctx context.Context, id string) (bool, error)
}

// Local serves the console straight from an in-process catalog.
type Local struct {
	c *catalog.Catalog
}

// NewLocal wraps c.
func NewLocal(c *catalog.Catalog) *Local {
	return &Local{c: c}
}

func (l *Local) Bands(ctx context.Context) ([]catalog.Band, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.c.ListBands(catalog.BandFilter{}), nil
}

func (l *Local) SaveBand(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Band{}, err
	}
	return l.c.UpsertBand(id, patch)
}

func (l *Local) RemoveBand(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.c.RemoveBand(id), nil
}

func (l *Local) Releases(ctx context.Context) ([]catalog.Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.c.ListReleases(catalog.ReleaseFilter{}), nil
}

func (l *Local) SaveRelease(ctx context.Context, id string, patch catalog.ReleasePatch) (catalog.Release, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Release{}, err
	}
	return l.c.UpsertRelease(id, patch)
}

func (l *Local) RemoveRelease(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.c.RemoveRelease(id), nil
}

func (l *Local) Products(ctx context.Context) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.c.ListProducts(catalog.ProductFilter{}), nil
}

func (l *Local) SaveProduct(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Product{}, err
	}
	return l.c.UpsertProduct(id, patch)
}

func (l *Local) RemoveProduct(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return l.c.RemoveProduct(id), nil
}
