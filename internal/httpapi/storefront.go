package httpapi

import (
	"net/http"

	"onlyhate/internal/catalog"
)

func (s *Server) handleListBands(w http.ResponseWriter, r *http.Request) {
	featured, err := parseBoolParam(r, "featured")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	bands, err := s.bands.List(r.Context(), catalog.BandFilter{Featured: featured})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Bands []catalog.Band `json:"bands"`
	}{Bands: bands})
}

func (s *Server) handleGetBand(w http.ResponseWriter, r *http.Request) {
	band, err := s.bands.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, band.Version)
	writeJSON(w, http.StatusOK, band)
}

func (s *Server) handleListReleases(w http.ResponseWriter, r *http.Request) {
	filter, err := releaseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	releases, err := s.releases.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Releases []catalog.Release `json:"releases"`
	}{Releases: releases})
}

func (s *Server) handleGetRelease(w http.ResponseWriter, r *http.Request) {
	release, err := s.releases.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, release.Version)
	writeJSON(w, http.StatusOK, release)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	products, err := s.products.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Products []catalog.Product `json:"products"`
	}{Products: products})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.products.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	setETag(w, product.Version)
	writeJSON(w, http.StatusOK, product)
}

func releaseFilter(r *http.Request) (catalog.ReleaseFilter, error) {
	featured, err := parseBoolParam(r, "featured")
	if err != nil {
		return catalog.ReleaseFilter{}, err
	}
	inStock, err := parseBoolParam(r, "inStock")
	if err != nil {
		return catalog.ReleaseFilter{}, err
	}
	query := r.URL.Query()
	return catalog.ReleaseFilter{
		Featured: featured,
		InStock:  inStock,
		ArtistID: query.Get("artistId"),
		Type:     catalog.ReleaseType(query.Get("type")),
	}, nil
}

func productFilter(r *http.Request) (catalog.ProductFilter, error) {
	featured, err := parseBoolParam(r, "featured")
	if err != nil {
		return catalog.ProductFilter{}, err
	}
	inStock, err := parseBoolParam(r, "inStock")
	if err != nil {
		return catalog.ProductFilter{}, err
	}
	query := r.URL.Query()
	return catalog.ProductFilter{
		Featured: featured,
		InStock:  inStock,
		ArtistID: query.Get("artistId"),
		Type:     catalog.ProductType(query.Get("type")),
	}, nil
}
