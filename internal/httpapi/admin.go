package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"onlyhate/internal/catalog"
	"onlyhate/internal/logging"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.dashboard.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// crudService is the shape shared by the band, release and product services.
type crudService[T, P, F any] interface {
	List(ctx context.Context, filter F) ([]T, error)
	Create(ctx context.Context, patch P) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type adminResource struct {
	kind   string
	list   http.HandlerFunc
	create http.HandlerFunc
	update http.HandlerFunc
	delete http.HandlerFunc
}

func (s *Server) adminResources() []adminResource {
	return []adminResource{
		newAdminResource(catalog.KindBands, crudService[catalog.Band, catalog.BandPatch, catalog.BandFilter](s.bands),
			func(b catalog.Band) (string, int64) { return b.ID, b.Version },
			func(p *catalog.BandPatch, v *int64) { p.IfVersion = v }),
		newAdminResource(catalog.KindReleases, crudService[catalog.Release, catalog.ReleasePatch, catalog.ReleaseFilter](s.releases),
			func(r catalog.Release) (string, int64) { return r.ID, r.Version },
			func(p *catalog.ReleasePatch, v *int64) { p.IfVersion = v }),
		newAdminResource(catalog.KindProducts, crudService[catalog.Product, catalog.ProductPatch, catalog.ProductFilter](s.products),
			func(p catalog.Product) (string, int64) { return p.ID, p.Version },
			func(p *catalog.ProductPatch, v *int64) { p.IfVersion = v }),
	}
}

func newAdminResource[T, P, F any](
	kind catalog.Kind,
	svc crudService[T, P, F],
	identify func(T) (string, int64),
	expect func(*P, *int64),
) adminResource {
	res := adminResource{kind: string(kind)}

	res.list = func(w http.ResponseWriter, r *http.Request) {
		var all F
		rows, err := svc.List(r.Context(), all)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]T{string(kind): rows})
	}

	res.create = func(w http.ResponseWriter, r *http.Request) {
		var patch P
		if err := decodeJSON(w, r, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		created, err := svc.Create(r.Context(), patch)
		if err != nil {
			writeError(w, r, err)
			return
		}

		id, version := identify(created)
		logging.FromContext(r.Context()).Info().Str("kind", string(kind)).Str("id", id).Msg("created")
		w.Header().Set("Location", fmt.Sprintf("/api/v1/%s/%s", kind, id))
		setETag(w, version)
		writeJSON(w, http.StatusCreated, created)
	}

	res.update = func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		expected, err := parseIfMatch(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		var patch P
		if err := decodeJSON(w, r, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		expect(&patch, expected)

		updated, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}

		_, version := identify(updated)
		logging.FromContext(r.Context()).Info().Str("kind", string(kind)).Str("id", id).Int64("version", version).Msg("updated")
		setETag(w, version)
		writeJSON(w, http.StatusOK, updated)
	}

	res.delete = func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		removed, err := svc.Delete(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !removed {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("%s %q not found", kind.Singular(), id)})
			return
		}

		logging.FromContext(r.Context()).Info().Str("kind", string(kind)).Str("id", id).Msg("deleted")
		w.WriteHeader(http.StatusNoContent)
	}

	return res
}
