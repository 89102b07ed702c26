package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"onlyhate/internal/catalog"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func TestCatalogObserver(t *testing.T) {
	c := catalog.New()
	m := New(c)
	c.Observe(m)

	band, err := c.UpsertBand("", catalog.BandPatch{
		Name:     strPtr("Wolfheart"),
		Country:  strPtr("FI"),
		FormedIn: intPtr(2013),
		Genres:   &[]string{"Melodic Death Metal"},
	})
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}
	if _, err := c.UpsertRelease("", catalog.ReleasePatch{Title: strPtr("Wolves of Karelia"), ArtistID: strPtr(band.ID)}); err != nil {
		t.Fatalf("UpsertRelease: %v", err)
	}
	if _, err := c.UpsertBand(band.ID, catalog.BandPatch{Name: strPtr("Wolfheart (FI)")}); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if got := testutil.ToFloat64(m.mutations.WithLabelValues("bands", "create")); got != 1 {
		t.Errorf("band creates = %v", got)
	}
	if got := testutil.ToFloat64(m.mutations.WithLabelValues("bands", "update")); got != 1 {
		t.Errorf("band updates = %v", got)
	}
	if got := testutil.ToFloat64(m.resynced.WithLabelValues("bands")); got != 1 {
		t.Errorf("resynced rows = %v", got)
	}
	if got := testutil.ToFloat64(m.entities.WithLabelValues("releases")); got != 1 {
		t.Errorf("release gauge = %v", got)
	}

	c.RemoveBand(band.ID)
	if got := testutil.ToFloat64(m.entities.WithLabelValues("bands")); got != 0 {
		t.Errorf("band gauge after remove = %v", got)
	}
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := New(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/bands/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := m.Instrument(mux)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bands/"+id, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/v1/bands/{id}", "404")); got != 3 {
		t.Fatalf("request counter = %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := catalog.New()
	m := New(c)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `onlyhate_catalog_entities{kind="bands"} 0`) {
		t.Fatalf("missing entity gauge in output:\n%s", body)
	}
}
