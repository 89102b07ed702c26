package admin

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"onlyhate/internal/catalog"
)

// ListView shows one collection and tracks a pending delete confirmation.
// Rows are re-read from the backend after every mutation.
type ListView[T any] struct {
	kind   catalog.Kind
	fetch  func(context.Context) ([]T, error)
	remove func(context.Context, string) (bool, error)
	id     func(T) string
	// reload runs after a mutation. Inside a Console it reloads every view,
	// since a rename rewrites rows in the other collections.
	reload func(context.Context) error

	rows    []T
	pending string
}

func newListView[T any](kind catalog.Kind, fetch func(context.Context) ([]T, error), remove func(context.Context, string) (bool, error), id func(T) string) *ListView[T] {
	return &ListView[T]{kind: kind, fetch: fetch, remove: remove, id: id}
}

func (v *ListView[T]) Kind() catalog.Kind { return v.kind }

// Rows returns the rows read by the last Refresh.
func (v *ListView[T]) Rows() []T { return slices.Clone(v.rows) }

// Find returns the displayed row with id.
func (v *ListView[T]) Find(id string) (T, bool) {
	for _, row := range v.rows {
		if v.id(row) == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Refresh re-reads the collection from the backend.
func (v *ListView[T]) Refresh(ctx context.Context) error {
	rows, err := v.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", v.kind, err)
	}
	v.rows = rows
	return nil
}

// RequestDelete asks for confirmation before removing id.
func (v *ListView[T]) RequestDelete(id string) error {
	if _, ok := v.Find(id); !ok {
		return fmt.Errorf("%s %q: %w", v.kind.Singular(), id, catalog.ErrNotFound)
	}
	v.pending = id
	return nil
}

// Pending returns the id awaiting delete confirmation.
func (v *ListView[T]) Pending() (string, bool) {
	return v.pending, v.pending != ""
}

// ConfirmDelete removes the pending row and refreshes. It reports false when
// nothing was pending or the backend had nothing to remove.
func (v *ListView[T]) ConfirmDelete(ctx context.Context) (bool, error) {
	id := v.pending
	if id == "" {
		return false, nil
	}
	v.pending = ""

	removed, err := v.remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove %s %q: %w", v.kind.Singular(), id, err)
	}
	return removed, v.reloadAfterWrite(ctx)
}

func (v *ListView[T]) reloadAfterWrite(ctx context.Context) error {
	if v.reload != nil {
		return v.reload(ctx)
	}
	return v.Refresh(ctx)
}

// CancelDelete drops the pending confirmation without touching the collection.
func (v *ListView[T]) CancelDelete() { v.pending = "" }

// saved returns a save callback that writes through fn and then reloads.
func saved[T, P any](v *ListView[T], fn func(context.Context, string, P) (T, error)) func(context.Context, string, P) error {
	return func(ctx context.Context, id string, patch P) error {
		if _, err := fn(ctx, id, patch); err != nil {
			return err
		}
		return v.reloadAfterWrite(ctx)
	}
}

// BandsView lists bands and opens band forms.
type BandsView struct {
	*ListView[catalog.Band]
	store Catalog
}

// Add opens an empty band form.
func (v *BandsView) Add() *BandForm {
	return NewBandForm(nil, saved(v.ListView, v.store.SaveBand))
}

// Edit opens a form pre-filled with the displayed band id.
func (v *BandsView) Edit(id string) (*BandForm, error) {
	band, ok := v.Find(id)
	if !ok {
		return nil, fmt.Errorf("band %q: %w", id, catalog.ErrNotFound)
	}
	return NewBandForm(&band, saved(v.ListView, v.store.SaveBand)), nil
}

// ReleasesView lists releases; its forms pick artists from bands.
type ReleasesView struct {
	*ListView[catalog.Release]
	store Catalog
	bands *ListView[catalog.Band]
}

func (v *ReleasesView) Add() *ReleaseForm {
	return NewReleaseForm(nil, v.bands.Rows(), saved(v.ListView, v.store.SaveRelease))
}

func (v *ReleasesView) Edit(id string) (*ReleaseForm, error) {
	release, ok := v.Find(id)
	if !ok {
		return nil, fmt.Errorf("release %q: %w", id, catalog.ErrNotFound)
	}
	return NewReleaseForm(&release, v.bands.Rows(), saved(v.ListView, v.store.SaveRelease)), nil
}

// ProductsView lists products; its forms pick artists and releases.
type ProductsView struct {
	*ListView[catalog.Product]
	store    Catalog
	bands    *ListView[catalog.Band]
	releases *ListView[catalog.Release]
}

func (v *ProductsView) Add() *ProductForm {
	return NewProductForm(nil, v.bands.Rows(), v.releases.Rows(), saved(v.ListView, v.store.SaveProduct))
}

func (v *ProductsView) Edit(id string) (*ProductForm, error) {
	product, ok := v.Find(id)
	if !ok {
		return nil, fmt.Errorf("product %q: %w", id, catalog.ErrNotFound)
	}
	return NewProductForm(&product, v.bands.Rows(), v.releases.Rows(), saved(v.ListView, v.store.SaveProduct)), nil
}

// Console groups the three list views over one backend.
type Console struct {
	Bands    *BandsView
	Releases *ReleasesView
	Products *ProductsView
}

// NewConsole builds empty views over store; call Refresh to load them.
func NewConsole(store Catalog) *Console {
	bands := newListView(catalog.KindBands, store.Bands, store.RemoveBand, func(b catalog.Band) string { return b.ID })
	releases := newListView(catalog.KindReleases, store.Releases, store.RemoveRelease, func(r catalog.Release) string { return r.ID })
	products := newListView(catalog.KindProducts, store.Products, store.RemoveProduct, func(p catalog.Product) string { return p.ID })
	c := &Console{
		Bands:    &BandsView{ListView: bands, store: store},
		Releases: &ReleasesView{ListView: releases, store: store, bands: bands},
		Products: &ProductsView{ListView: products, store: store, bands: bands, releases: releases},
	}
	bands.reload = c.Refresh
	releases.reload = c.Refresh
	products.reload = c.Refresh
	return c
}

// Refresh reloads all three views concurrently.
func (c *Console) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Bands.Refresh(ctx) })
	g.Go(func() error { return c.Releases.Refresh(ctx) })
	g.Go(func() error { return c.Products.Refresh(ctx) })
	return g.Wait()
}

// Counts returns how many rows each view currently shows.
func (c *Console) Counts() map[catalog.Kind]int {
	return map[catalog.Kind]int{
		catalog.KindBands:    len(c.Bands.rows),
		catalog.KindReleases: len(c.Releases.rows),
		catalog.KindProducts: len(c.Products.rows),
	}
}
