package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"onlyhate/internal/catalog"
)

const adminPrefix = "/api/v1/admin/"

func list[T any](ctx context.Context, c *Client, kind catalog.Kind) ([]T, error) {
	var out map[string][]T
	if _, err := c.do(ctx, request{method: http.MethodGet, path: adminPrefix + string(kind), kind: kind}, &out); err != nil {
		return nil, err
	}
	rows := out[string(kind)]
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// save creates when id is empty and otherwise updates, sending ifVersion as If-Match.
func save[T any](ctx context.Context, c *Client, kind catalog.Kind, id string, patch any, ifVersion *int64) (T, error) {
	req := request{method: http.MethodPost, path: adminPrefix + string(kind), body: patch, kind: kind}
	if id != "" {
		req.method = http.MethodPut
		req.path += "/" + url.PathEscape(id)
		req.ifMatch = ifVersion
	}

	var out T
	if _, err := c.do(ctx, req, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func remove(ctx context.Context, c *Client, kind catalog.Kind, id string) (bool, error) {
	req := request{method: http.MethodDelete, path: adminPrefix + string(kind) + "/" + url.PathEscape(id), kind: kind}
	_, err := c.do(ctx, req, nil)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Bands lists every band.
func (c *Client) Bands(ctx context.Context) ([]catalog.Band, error) {
	return list[catalog.Band](ctx, c, catalog.KindBands)
}

// SaveBand creates a band when id is empty and otherwise merges patch into it.
func (c *Client) SaveBand(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error) {
	return save[catalog.Band](ctx, c, catalog.KindBands, id, patch, patch.IfVersion)
}

// RemoveBand deletes a band, reporting false when the server had none.
func (c *Client) RemoveBand(ctx context.Context, id string) (bool, error) {
	return remove(ctx, c, catalog.KindBands, id)
}

func (c *Client) Releases(ctx context.Context) ([]catalog.Release, error) {
	return list[catalog.Release](ctx, c, catalog.KindReleases)
}

func (c *Client) SaveRelease(ctx context.Context, id string, patch catalog.ReleasePatch) (catalog.Release, error) {
	return save[catalog.Release](ctx, c, catalog.KindReleases, id, patch, patch.IfVersion)
}

func (c *Client) RemoveRelease(ctx context.Context, id string) (bool, error) {
	return remove(ctx, c, catalog.KindReleases, id)
}

func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	return list[catalog.Product](ctx, c, catalog.KindProducts)
}

func (c *Client) SaveProduct(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error) {
	return save[catalog.Product](ctx, c, catalog.KindProducts, id, patch, patch.IfVersion)
}

func (c *Client) RemoveProduct(ctx context.Context, id string) (bool, error) {
	return remove(ctx, c, catalog.KindProducts, id)
}

// Dashboard fetches the admin summary.
func (c *Client) Dashboard(ctx context.Context) (catalog.Dashboard, error) {
	var out catalog.Dashboard
	_, err := c.do(ctx, request{method: http.MethodGet, path: adminPrefix + "dashboard"}, &out)
	return out, err
}
