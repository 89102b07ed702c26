package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"onlyhate/internal/auth"
	"onlyhate/internal/catalog"
	"onlyhate/internal/http/middleware"
	"onlyhate/internal/logging"
)

// UserService captures the sign-in operations needed by the HTTP handlers.
type UserService interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
	Me(ctx context.Context, token string) (auth.User, error)
}

// BandService exposes band workflows.
type BandService interface {
	List(ctx context.Context, filter catalog.BandFilter) ([]catalog.Band, error)
	Get(ctx context.Context, id string) (catalog.Band, error)
	Create(ctx context.Context, patch catalog.BandPatch) (catalog.Band, error)
	Update(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ReleaseService exposes release workflows.
type ReleaseService interface {
	List(ctx context.Context, filter catalog.ReleaseFilter) ([]catalog.Release, error)
	Get(ctx context.Context, id string) (catalog.Release, error)
	Create(ctx context.Context, patch catalog.ReleasePatch) (catalog.Release, error)
	Update(ctx context.Context, id string, patch catalog.ReleasePatch) (catalog.Release, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ProductService exposes product workflows.
type ProductService interface {
	List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	Create(ctx context.Context, patch catalog.ProductPatch) (catalog.Product, error)
	Update(ctx context.Context, id string, patch catalog.ProductPatch) (catalog.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// DashboardService summarizes the catalog for administrators.
type DashboardService interface {
	Summary(ctx context.Context) (catalog.Dashboard, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users     UserService
	bands     BandService
	releases  ReleaseService
	products  ProductService
	dashboard DashboardService
	tokens    middleware.TokenParser
	metrics   http.Handler
}

// New configures a Server. metrics may be nil to leave /metrics unrouted.
func New(
	users UserService,
	bands BandService,
	releases ReleaseService,
	products ProductService,
	dashboard DashboardService,
	tokens middleware.TokenParser,
	metrics http.Handler,
) *Server {
	return &Server{
		users:     users,
		bands:     bands,
		releases:  releases,
		products:  products,
		dashboard: dashboard,
		tokens:    tokens,
		metrics:   metrics,
	}
}

// Routes exposes the storefront and admin handlers.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAdmin(s.tokens)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/v1/auth/me", s.handleMe)

	// Storefront
	mux.HandleFunc("GET /api/v1/bands", s.handleListBands)
	mux.HandleFunc("GET /api/v1/bands/{id}", s.handleGetBand)
	mux.HandleFunc("GET /api/v1/releases", s.handleListReleases)
	mux.HandleFunc("GET /api/v1/releases/{id}", s.handleGetRelease)
	mux.HandleFunc("GET /api/v1/products", s.handleListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", s.handleGetProduct)

	// Admin
	mux.Handle("GET /api/v1/admin/dashboard", admin(http.HandlerFunc(s.handleDashboard)))
	for _, res := range s.adminResources() {
		mux.Handle("GET /api/v1/admin/"+res.kind, admin(http.HandlerFunc(res.list)))
		mux.Handle("POST /api/v1/admin/"+res.kind, admin(http.HandlerFunc(res.create)))
		mux.Handle("PUT /api/v1/admin/"+res.kind+"/{id}", admin(http.HandlerFunc(res.update)))
		mux.Handle("DELETE /api/v1/admin/"+res.kind+"/{id}", admin(http.HandlerFunc(res.delete)))
	}

	return mux
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *catalog.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Map()})
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrDuplicateID), errors.Is(err, catalog.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrInvalidCredentials.Error()})
	case errors.Is(err, auth.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	default:
		logging.FromContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON payload: trailing data")
	}
	return nil
}

func parseBoolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s parameter", name)
	}
	return &v, nil
}

// parseIfMatch reads an optional expected version from If-Match. Both 3 and
// "3" are accepted.
func parseIfMatch(r *http.Request) (*int64, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return nil, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	v, err := strconv.ParseInt(strings.Trim(raw, `"`), 10, 64)
	if err != nil || v < 1 {
		return nil, errors.New("If-Match must be a version number")
	}
	return &v, nil
}

func setETag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}
