package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"onlyhate/internal/kv"
)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }

func listPtr(items ...string) *[]string { return &items }

func formatPtr(items ...Format) *[]Format { return &items }

func wolfheart() BandPatch {
	return BandPatch{
		Name:     strPtr("Wolfheart"),
		Country:  strPtr("FI"),
		FormedIn: intPtr(2013),
		Genres:   listPtr("Melodic Death Metal"),
	}
}

func TestUpsertBandCreatesIntoEmptyCollection(t *testing.T) {
	c := New()

	band, err := c.UpsertBand("", wolfheart())
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}

	bands := c.ListBands(BandFilter{})
	if len(bands) != 1 {
		t.Fatalf("expected 1 band, got %d", len(bands))
	}
	if bands[0].ID == "" || bands[0].ID != band.ID {
		t.Fatalf("expected generated id %q, got %q", band.ID, bands[0].ID)
	}
	if bands[0].Name != "Wolfheart" {
		t.Fatalf("expected Wolfheart, got %q", bands[0].Name)
	}
	if bands[0].Image != DefaultImage {
		t.Fatalf("expected default image, got %q", bands[0].Image)
	}
	if bands[0].Members == nil || bands[0].Discography == nil {
		t.Fatal("expected empty list defaults, got nil")
	}
	if bands[0].Version != 1 {
		t.Fatalf("expected version 1, got %d", bands[0].Version)
	}
}

func TestUpsertCreateAssignsUniqueIDs(t *testing.T) {
	c := New()
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		p := wolfheart()
		p.Name = strPtr(fmt.Sprintf("Band %d", i))
		band, err := c.UpsertBand("", p)
		if err != nil {
			t.Fatalf("UpsertBand #%d: %v", i, err)
		}
		if seen[band.ID] {
			t.Fatalf("duplicate id %q", band.ID)
		}
		seen[band.ID] = true
	}

	if got := len(c.ListBands(BandFilter{})); got != 50 {
		t.Fatalf("expected 50 bands, got %d", got)
	}
}

func TestUpsertCreateKeepsInsertionOrder(t *testing.T) {
	c := New()
	for _, name := range []string{"Behexen", "Archgoat", "Mgła"} {
		p := wolfheart()
		p.Name = strPtr(name)
		if _, err := c.UpsertBand("", p); err != nil {
			t.Fatalf("UpsertBand: %v", err)
		}
	}

	var names []string
	for _, b := range c.ListBands(BandFilter{}) {
		names = append(names, b.Name)
	}
	if !reflect.DeepEqual(names, []string{"Behexen", "Archgoat", "Mgła"}) {
		t.Fatalf("unexpected order %v", names)
	}
}

func TestUpsertCreateWithSuppliedID(t *testing.T) {
	c := New()
	p := wolfheart()
	p.ID = strPtr("b1")

	band, err := c.UpsertBand("", p)
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}
	if band.ID != "b1" {
		t.Fatalf("expected id b1, got %q", band.ID)
	}

	if _, err := c.UpsertBand("", p); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if got := len(c.ListBands(BandFilter{})); got != 1 {
		t.Fatalf("expected 1 band after duplicate, got %d", got)
	}
}

func TestUpsertReleaseMergesPartialFields(t *testing.T) {
	c := New()
	if err := c.Restore(Snapshot{Releases: []Release{{ID: "r1", Title: "A", Type: FullLength, Format: []Format{CD}}}}); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	updated, err := c.UpsertRelease("r1", ReleasePatch{Format: formatPtr(CD, Vinyl)})
	if err != nil {
		t.Fatalf("UpsertRelease: %v", err)
	}

	if !reflect.DeepEqual(updated.Format, []Format{CD, Vinyl}) {
		t.Fatalf("expected format [CD Vinyl], got %v", updated.Format)
	}
	if updated.Title != "A" {
		t.Fatalf("expected title preserved, got %q", updated.Title)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}
	if got := len(c.ListReleases(ReleaseFilter{})); got != 1 {
		t.Fatalf("expected collection length 1, got %d", got)
	}
}

func TestUpsertBandMergePreservesAbsentFields(t *testing.T) {
	c := New()
	p := wolfheart()
	p.Bio = strPtr("Finnish melodic death metal.")
	p.Members = &[]Member{{Name: "Tuomas Saukkonen", Role: "Vocals, Guitars"}}
	created, err := c.UpsertBand("", p)
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}

	updated, err := c.UpsertBand(created.ID, BandPatch{Country: strPtr("Finland"), Featured: boolPtr(true)})
	if err != nil {
		t.Fatalf("UpsertBand merge: %v", err)
	}

	want := created
	want.Country = "Finland"
	want.Featured = true
	want.Version = 2
	if !reflect.DeepEqual(updated, want) {
		t.Fatalf("merge mismatch\n got: %+v\nwant: %+v", updated, want)
	}
}

func TestUpsertUnknownIDIsNotFound(t *testing.T) {
	c := New()
	if _, err := c.UpsertBand("", wolfheart()); err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}

	_, err := c.UpsertBand("missing", BandPatch{Name: strPtr("Ghost")})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := len(c.ListBands(BandFilter{})); got != 1 {
		t.Fatalf("expected collection unchanged, got %d bands", got)
	}
}

func TestUpsertValidationRejectsWholeWrite(t *testing.T) {
	c := New()

	_, err := c.UpsertBand("", BandPatch{Name: strPtr("  ")})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, field := range []string{"name", "country", "formedIn", "genres"} {
		if !verr.Has(field) {
			t.Errorf("expected %s to be reported, got %v", field, verr.Map())
		}
	}
	if got := len(c.ListBands(BandFilter{})); got != 0 {
		t.Fatalf("expected nothing persisted, got %d bands", got)
	}
}

func TestUpsertMergeValidationKeepsStoredRow(t *testing.T) {
	c := New()
	band, err := c.UpsertBand("", wolfheart())
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}

	if _, err := c.UpsertBand(band.ID, BandPatch{Name: strPtr("")}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	stored, ok := c.Band(band.ID)
	if !ok || stored.Name != "Wolfheart" || stored.Version != 1 {
		t.Fatalf("stored band changed: %+v", stored)
	}
}

func TestUpsertProductRejectsNegativePrice(t *testing.T) {
	c := New()
	price := decimal.RequireFromString("-1.50")

	_, err := c.UpsertProduct("", ProductPatch{Name: strPtr("Shirt"), Price: &price})
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has("price") {
		t.Fatalf("expected price validation error, got %v", err)
	}
}

func TestUpsertProductDefaults(t *testing.T) {
	c := New()

	product, err := c.UpsertProduct("", ProductPatch{Name: strPtr("Logo Patch")})
	if err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}
	if product.Type != ProductCD || !product.InStock || !product.Price.IsZero() {
		t.Fatalf("unexpected defaults %+v", product)
	}
	if product.Variants == nil {
		t.Fatal("expected empty variants list")
	}
}

func TestUpsertReleaseRejectsUnknownFormat(t *testing.T) {
	c := New()
	_, err := c.UpsertRelease("", ReleasePatch{Title: strPtr("Demo"), Format: formatPtr("8-track")})

	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has("format") {
		t.Fatalf("expected format validation error, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	c := New()
	for i := 0; i < 3; i++ {
		p := wolfheart()
		p.Name = strPtr(fmt.Sprintf("Band %d", i))
		if _, err := c.UpsertBand("", p); err != nil {
			t.Fatalf("UpsertBand: %v", err)
		}
	}
	before := c.ListBands(BandFilter{})

	if c.RemoveBand("nonexistent") {
		t.Fatal("expected RemoveBand to report false")
	}
	if after := c.ListBands(BandFilter{}); !reflect.DeepEqual(before, after) {
		t.Fatalf("collection changed after no-op remove")
	}

	if !c.RemoveBand(before[1].ID) {
		t.Fatal("expected RemoveBand to report true")
	}
	after := c.ListBands(BandFilter{})
	if len(after) != 2 || after[0].ID != before[0].ID || after[1].ID != before[2].ID {
		t.Fatalf("unexpected collection after remove: %+v", after)
	}
}

func TestReleaseCopiesArtistNameFromBand(t *testing.T) {
	c := New()
	band, err := c.UpsertBand("", wolfheart())
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}

	release, err := c.UpsertRelease("", ReleasePatch{
		Title:    strPtr("Constellation of the Black Light"),
		ArtistID: strPtr(band.ID),
		Artist:   strPtr("typo"),
	})
	if err != nil {
		t.Fatalf("UpsertRelease: %v", err)
	}
	if release.Artist != "Wolfheart" {
		t.Fatalf("expected artist copied from band, got %q", release.Artist)
	}
}

func TestBandRenameResyncsDenormalizedNames(t *testing.T) {
	c := New()
	band, _ := c.UpsertBand("", wolfheart())
	release, err := c.UpsertRelease("", ReleasePatch{Title: strPtr("Wolves of Karelia"), ArtistID: strPtr(band.ID)})
	if err != nil {
		t.Fatalf("UpsertRelease: %v", err)
	}
	product, err := c.UpsertProduct("", ProductPatch{
		Name:      strPtr("Wolves of Karelia LP"),
		Type:      (*ProductType)(strPtr(string(ProductVinyl))),
		ArtistID:  strPtr(band.ID),
		ReleaseID: strPtr(release.ID),
	})
	if err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}
	if product.Artist != "Wolfheart" || product.Release != "Wolves of Karelia" {
		t.Fatalf("expected denormalized names, got %+v", product)
	}

	var events []Event
	c.Observe(ObserverFunc(func(ev Event) { events = append(events, ev) }))

	if _, err := c.UpsertBand(band.ID, BandPatch{Name: strPtr("Wolfheart (FI)")}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := c.UpsertRelease(release.ID, ReleasePatch{Title: strPtr("Wolves of Karelia (Reissue)")}); err != nil {
		t.Fatalf("retitle: %v", err)
	}

	gotRelease, _ := c.Release(release.ID)
	gotProduct, _ := c.Product(product.ID)
	if gotRelease.Artist != "Wolfheart (FI)" {
		t.Fatalf("release artist not resynced: %q", gotRelease.Artist)
	}
	if gotProduct.Artist != "Wolfheart (FI)" || gotProduct.Release != "Wolves of Karelia (Reissue)" {
		t.Fatalf("product names not resynced: %+v", gotProduct)
	}
	if len(events) != 2 || events[0].Resynced != 2 || events[1].Resynced != 1 {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestRemoveBandDoesNotCascade(t *testing.T) {
	c := New()
	band, _ := c.UpsertBand("", wolfheart())
	release, _ := c.UpsertRelease("", ReleasePatch{Title: strPtr("Shadow World"), ArtistID: strPtr(band.ID)})

	if !c.RemoveBand(band.ID) {
		t.Fatal("expected band removed")
	}
	stale, ok := c.Release(release.ID)
	if !ok || stale.ArtistID != band.ID || stale.Artist != "Wolfheart" {
		t.Fatalf("release should keep stale reference, got %+v", stale)
	}
}

func TestIfVersionConflict(t *testing.T) {
	c := New()
	band, _ := c.UpsertBand("", wolfheart())

	stale := int64(7)
	_, err := c.UpsertBand(band.ID, BandPatch{Bio: strPtr("x"), IfVersion: &stale})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	current := band.Version
	updated, err := c.UpsertBand(band.ID, BandPatch{Bio: strPtr("x"), IfVersion: &current})
	if err != nil {
		t.Fatalf("conditional update: %v", err)
	}
	if updated.Version != current+1 {
		t.Fatalf("expected version %d, got %d", current+1, updated.Version)
	}
}

func TestListReturnsCopies(t *testing.T) {
	c := New()
	band, _ := c.UpsertBand("", wolfheart())

	listed := c.ListBands(BandFilter{})
	listed[0].Genres[0] = "Polka"
	listed[0].Name = "Changed"

	stored, _ := c.Band(band.ID)
	if stored.Name != "Wolfheart" || stored.Genres[0] != "Melodic Death Metal" {
		t.Fatalf("list leaked internal state: %+v", stored)
	}
}

func TestListFilters(t *testing.T) {
	c := New()
	err := c.Restore(Snapshot{
		Releases: []Release{
			{ID: "r1", Title: "A", Type: FullLength, ArtistID: "b1", Featured: true, InStock: true},
			{ID: "r2", Title: "B", Type: EP, ArtistID: "b2", InStock: false},
			{ID: "r3", Title: "C", Type: EP, ArtistID: "b1", Featured: true},
		},
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	tests := []struct {
		name   string
		filter ReleaseFilter
		want   []string
	}{
		{name: "all", filter: ReleaseFilter{}, want: []string{"r1", "r2", "r3"}},
		{name: "featured", filter: ReleaseFilter{Featured: boolPtr(true)}, want: []string{"r1", "r3"}},
		{name: "artist", filter: ReleaseFilter{ArtistID: "b1"}, want: []string{"r1", "r3"}},
		{name: "type", filter: ReleaseFilter{Type: EP}, want: []string{"r2", "r3"}},
		{name: "out of stock", filter: ReleaseFilter{InStock: boolPtr(false)}, want: []string{"r2", "r3"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ids []string
			for _, r := range c.ListReleases(tc.filter) {
				ids = append(ids, r.ID)
			}
			if !reflect.DeepEqual(ids, tc.want) {
				t.Fatalf("got %v, want %v", ids, tc.want)
			}
		})
	}
}

func TestRestoreRejectsDuplicateIDs(t *testing.T) {
	c := New()
	if _, err := c.UpsertBand("", wolfheart()); err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}

	band := Band{ID: "b1", Name: "A", Country: "NO", FormedIn: 1994, Genres: []string{"Black Metal"}}
	err := c.Restore(Snapshot{Bands: []Band{band, band}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if got := len(c.ListBands(BandFilter{})); got != 1 {
		t.Fatalf("expected catalog untouched, got %d bands", got)
	}
}

func TestRestoreRejectsInvalidRows(t *testing.T) {
	valid := Band{ID: "b1", Name: "Ashen Throne", Country: "NO", FormedIn: 1994, Genres: []string{"Black Metal"}}

	tests := []struct {
		name  string
		snap  Snapshot
		kind  Kind
		field string
	}{
		{name: "blank band", snap: Snapshot{Bands: []Band{{ID: "b2"}}}, kind: KindBands, field: "name"},
		{name: "band without genres", snap: Snapshot{Bands: []Band{{ID: "b2", Name: "X", Country: "SE", FormedIn: 2001}}}, kind: KindBands, field: "genres"},
		{name: "unknown release type", snap: Snapshot{Releases: []Release{{ID: "r1", Title: "A", Type: "LP"}}}, kind: KindReleases, field: "type"},
		{name: "unknown format", snap: Snapshot{Releases: []Release{{ID: "r1", Title: "A", Type: EP, Format: []Format{"8-track"}}}}, kind: KindReleases, field: "format"},
		{name: "negative price", snap: Snapshot{Products: []Product{{ID: "p1", Name: "LP", Type: ProductVinyl, Price: decimal.NewFromInt(-5)}}}, kind: KindProducts, field: "price"},
		{name: "unknown product type", snap: Snapshot{Products: []Product{{ID: "p1", Name: "LP", Type: "lp"}}}, kind: KindProducts, field: "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			if err := c.Restore(Snapshot{Bands: []Band{valid}}); err != nil {
				t.Fatalf("Restore: %v", err)
			}

			err := c.Restore(tt.snap)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Kind != tt.kind || !verr.Has(tt.field) {
				t.Fatalf("expected %s %s to be reported, got %v", tt.kind, tt.field, verr)
			}
			want := map[Kind]int{KindBands: 1, KindReleases: 0, KindProducts: 0}
			if got := c.Counts(); !reflect.DeepEqual(got, want) {
				t.Fatalf("catalog changed by a rejected restore: %v", got)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	c := New()
	for i := 0; i < 7; i++ {
		p := wolfheart()
		p.ID = strPtr(fmt.Sprintf("b%d", i))
		if _, err := c.UpsertBand("", p); err != nil {
			t.Fatalf("UpsertBand: %v", err)
		}
	}

	d := c.Dashboard()
	if d.BandCount != 7 || d.ReleaseCount != 0 || d.ProductCount != 0 {
		t.Fatalf("unexpected counts %+v", d)
	}
	var ids []string
	for _, b := range d.RecentBands {
		ids = append(ids, b.ID)
	}
	if !reflect.DeepEqual(ids, []string{"b6", "b5", "b4", "b3", "b2"}) {
		t.Fatalf("unexpected recent bands %v", ids)
	}
}

func TestConcurrentCreates(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := wolfheart()
			p.Name = strPtr(fmt.Sprintf("Band %d", i))
			if _, err := c.UpsertBand("", p); err != nil {
				t.Errorf("UpsertBand: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := c.Counts()[KindBands]; got != 20 {
		t.Fatalf("expected 20 bands, got %d", got)
	}
}

func TestPersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()

	source := New()
	persister := NewPersister(source, store)
	source.Observe(persister)

	band, err := source.UpsertBand("", wolfheart())
	if err != nil {
		t.Fatalf("UpsertBand: %v", err)
	}
	price := decimal.RequireFromString("24.90")
	if _, err := source.UpsertProduct("", ProductPatch{Name: strPtr("Shirt"), Price: &price, ArtistID: strPtr(band.ID)}); err != nil {
		t.Fatalf("UpsertProduct: %v", err)
	}

	restored := New()
	ok, err := NewPersister(restored, store).Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}

	want := source.Snapshot()
	got := restored.Snapshot()
	if !reflect.DeepEqual(got.Bands, want.Bands) || len(got.Products) != 1 {
		t.Fatalf("snapshot mismatch\n got: %+v\nwant: %+v", got, want)
	}
	if !got.Products[0].Price.Equal(price) || got.Products[0].Artist != "Wolfheart" {
		t.Fatalf("product did not round-trip: %+v", got.Products[0])
	}
}

// gatedStore holds the first Put until release is closed.
type gatedStore struct {
	kv.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Put(ctx context.Context, key string, value []byte) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.Store.Put(ctx, key, value)
}

func TestPersisterKeepsWritesInOrder(t *testing.T) {
	store := &gatedStore{Store: kv.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	c := New()
	c.Observe(NewPersister(c, store))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := c.UpsertBand("", wolfheart()); err != nil {
			t.Errorf("first write: %v", err)
		}
	}()
	<-store.entered

	second := wolfheart()
	second.Name = strPtr("Insomnium")
	go func() {
		defer wg.Done()
		if _, err := c.UpsertBand("", second); err != nil {
			t.Errorf("second write: %v", err)
		}
	}()
	// Let the second write commit before the first snapshot is stored.
	for c.Counts()[KindBands] != 2 {
		runtime.Gosched()
	}
	close(store.release)
	wg.Wait()

	restored := New()
	if _, err := NewPersister(restored, store).Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := restored.Counts()[KindBands]; n != 2 {
		t.Fatalf("stored snapshot has %d bands, catalog has 2", n)
	}
}

func TestPersisterLoadEmpty(t *testing.T) {
	ok, err := NewPersister(New(), kv.NewMemory()).Load(context.Background())
	if err != nil || ok {
		t.Fatalf("expected nothing loaded, got ok=%v err=%v", ok, err)
	}
}
