package admin

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"onlyhate/internal/catalog"
)

func testConsole(t *testing.T) (*Console, *catalog.Catalog) {
	t.Helper()
	c := catalog.New()
	err := c.Restore(catalog.Snapshot{
		Bands: []catalog.Band{
			{ID: "b1", Name: "Ashen Throne", Country: "NO", FormedIn: 1994, Genres: []string{"Black Metal"}, Bio: "Frozen."},
			{ID: "b2", Name: "Morgue Hymn", Country: "SE", FormedIn: 2001, Genres: []string{"Death Metal"}, Bio: "Rotten."},
		},
		Releases: []catalog.Release{
			{ID: "r1", Title: "Frostbound Liturgy", Artist: "Ashen Throne", ArtistID: "b1", Year: 1996, Type: catalog.FullLength, Format: []catalog.Format{catalog.CD}},
		},
		Products: []catalog.Product{
			{ID: "p1", Name: "Frostbound Liturgy LP", Type: catalog.ProductVinyl, Price: decimal.RequireFromString("24.90")},
		},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	console := NewConsole(NewLocal(c))
	if err := console.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return console, c
}

func TestConsoleRefreshLoadsEveryView(t *testing.T) {
	console, _ := testConsole(t)

	want := map[catalog.Kind]int{catalog.KindBands: 2, catalog.KindReleases: 1, catalog.KindProducts: 1}
	if got := console.Counts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("counts = %v, want %v", got, want)
	}
}

func TestAddBandAppearsAfterSubmit(t *testing.T) {
	ctx := context.Background()
	console, _ := testConsole(t)

	form := console.Bands.Add()
	if form.Editing() {
		t.Fatal("new form should not be editing")
	}
	for name, raw := range map[string]string{
		"name":     "Wolfheart",
		"country":  "FI",
		"formedIn": "2013",
		"genres":   "Melodic Death Metal, , Death Metal ",
		"bio":      "Winterborn.",
	} {
		if err := form.Set(name, raw); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	if err := form.Submit(ctx); err != nil {
		t.Fatalf("submit: %v (%v)", err, form.Errors())
	}
	if form.Open() {
		t.Fatal("form should close after a successful submit")
	}

	rows := console.Bands.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 bands, got %d", len(rows))
	}
	got := rows[2]
	if got.Name != "Wolfheart" || got.ID == "" {
		t.Fatalf("unexpected row %+v", got)
	}
	if !reflect.DeepEqual(got.Genres, []string{"Melodic Death Metal", "Death Metal"}) {
		t.Fatalf("genres = %q", got.Genres)
	}
}

func TestSubmitReportsMissingRequiredFields(t *testing.T) {
	store := &countingStore{Catalog: NewLocal(catalog.New())}
	console := NewConsole(store)

	form := console.Bands.Add()
	_ = form.SetName("Wolfheart")

	err := form.Submit(context.Background())
	var verr *catalog.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"country", "genres", "bio"} {
		if !verr.Has(field) {
			t.Errorf("expected %s to be reported, got %v", field, verr.Fields)
		}
		if form.Errors()[field] == "" {
			t.Errorf("form errors missing %s", field)
		}
	}
	if verr.Has("name") || verr.Has("formedIn") {
		t.Fatalf("name and formedIn are filled in: %v", verr.Fields)
	}
	if !form.Open() {
		t.Fatal("form should stay open on failure")
	}
	if store.saves != 0 {
		t.Fatalf("save called %d times", store.saves)
	}
}

func TestNumericInputIsGuarded(t *testing.T) {
	console, _ := testConsole(t)
	form, err := console.Bands.Edit("b1")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	err = form.SetFormedIn("nineteen")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if form.Draft().FormedIn != 1994 {
		t.Fatalf("draft changed to %d", form.Draft().FormedIn)
	}
	if form.Errors()["formedIn"] == "" {
		t.Fatal("expected a formedIn error")
	}
	if err := form.Submit(context.Background()); !errors.Is(err, catalog.ErrInvalid) {
		t.Fatalf("submit with rejected input: %v", err)
	}

	if err := form.SetFormedIn(" 1993 "); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := form.Errors()["formedIn"]; ok {
		t.Fatal("corrected input should clear the error")
	}
	if err := form.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestEditMergesIntoExistingBand(t *testing.T) {
	ctx := context.Background()
	console, c := testConsole(t)

	form, err := console.Bands.Edit("b1")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if form.Title() != "Edit Band" || form.Draft().Name != "Ashen Throne" {
		t.Fatalf("form not pre-filled: %q %+v", form.Title(), form.Draft())
	}
	_ = form.SetName("Ashen Crown")
	if err := form.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if n := len(console.Bands.Rows()); n != 2 {
		t.Fatalf("update changed the band count to %d", n)
	}
	band, _ := console.Bands.Find("b1")
	if band.Name != "Ashen Crown" || band.Country != "NO" {
		t.Fatalf("unexpected band %+v", band)
	}
	release, _ := c.Release("r1")
	if release.Artist != "Ashen Crown" {
		t.Fatalf("release artist = %q", release.Artist)
	}
}

func TestRenameRefreshesDependentViews(t *testing.T) {
	ctx := context.Background()
	console, c := testConsole(t)

	bandForm, _ := console.Bands.Edit("b1")
	_ = bandForm.SetName("Ashen Crown")
	if err := bandForm.Submit(ctx); err != nil {
		t.Fatalf("rename: %v", err)
	}

	shown, _ := console.Releases.Find("r1")
	stored, _ := c.Release("r1")
	if shown.Artist != "Ashen Crown" || shown.Version != stored.Version {
		t.Fatalf("releases view shows %q v%d, store has %q v%d", shown.Artist, shown.Version, stored.Artist, stored.Version)
	}

	form, err := console.Releases.Edit("r1")
	if err != nil {
		t.Fatalf("edit release: %v", err)
	}
	_ = form.SetTitle("Frostbound Liturgy (Remastered)")
	_ = form.SetDescription("Reissue.")
	_ = form.SetTracklist("Intro\nFrostbound")
	if err := form.Submit(ctx); err != nil {
		t.Fatalf("editing a release after its band was renamed: %v (%v)", err, form.Errors())
	}
	if got, _ := c.Release("r1"); got.Title != "Frostbound Liturgy (Remastered)" || got.Artist != "Ashen Crown" {
		t.Fatalf("unexpected release %+v", got)
	}
}

func TestEditAgainstStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	console, c := testConsole(t)

	form, _ := console.Bands.Edit("b2")
	if _, err := c.UpsertBand("b2", catalog.BandPatch{Bio: ptr("Changed elsewhere.")}); err != nil {
		t.Fatalf("concurrent update: %v", err)
	}

	_ = form.SetCountry("DK")
	if err := form.Submit(ctx); !errors.Is(err, catalog.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if !form.Open() {
		t.Fatal("form should stay open")
	}
}

func TestBackendValidationErrorsAreSurfaced(t *testing.T) {
	store := &countingStore{
		Catalog: NewLocal(catalog.New()),
		err:     &catalog.ValidationError{Kind: catalog.KindBands, Fields: []catalog.FieldError{{Field: "country", Message: "is not a country"}}},
	}
	form := NewConsole(store).Bands.Add()
	_ = form.SetName("Wolfheart")
	_ = form.SetCountry("Atlantis")
	_ = form.SetGenres("Melodic Death Metal")
	_ = form.SetBio("Winterborn.")

	if err := form.Submit(context.Background()); !errors.Is(err, catalog.ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := form.Errors()["country"]; got != "is not a country" {
		t.Fatalf("country error = %q", got)
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	console, _ := testConsole(t)
	form, _ := console.Bands.Edit("b1")
	_ = form.SetName("Something Else")

	form.Cancel()

	if form.Open() {
		t.Fatal("form should be closed")
	}
	if form.Draft().Name != "" {
		t.Fatalf("draft kept %q", form.Draft().Name)
	}
	if err := form.SetName("again"); !errors.Is(err, ErrClosed) {
		t.Fatalf("set after cancel: %v", err)
	}
	if err := form.Submit(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("submit after cancel: %v", err)
	}
	band, _ := console.Bands.Find("b1")
	if band.Name != "Ashen Throne" {
		t.Fatalf("cancel leaked into the store: %q", band.Name)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	console, _ := testConsole(t)
	view := console.Bands

	if err := view.RequestDelete("missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("request unknown: %v", err)
	}

	if err := view.RequestDelete("b2"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if id, ok := view.Pending(); !ok || id != "b2" {
		t.Fatalf("pending = %q, %v", id, ok)
	}
	view.CancelDelete()
	if _, ok := view.Pending(); ok {
		t.Fatal("cancel should clear the pending delete")
	}
	if removed, err := view.ConfirmDelete(ctx); removed || err != nil {
		t.Fatalf("confirm with nothing pending: %v, %v", removed, err)
	}
	if n := len(view.Rows()); n != 2 {
		t.Fatalf("cancelled delete removed a row: %d", n)
	}

	_ = view.RequestDelete("b2")
	removed, err := view.ConfirmDelete(ctx)
	if err != nil || !removed {
		t.Fatalf("confirm: %v, %v", removed, err)
	}
	if _, ok := view.Find("b2"); ok {
		t.Fatal("deleted band still displayed")
	}
}

func TestDeleteOfRowRemovedElsewhere(t *testing.T) {
	ctx := context.Background()
	console, c := testConsole(t)
	view := console.Products

	_ = view.RequestDelete("p1")
	c.RemoveProduct("p1")

	removed, err := view.ConfirmDelete(ctx)
	if err != nil || removed {
		t.Fatalf("confirm: %v, %v", removed, err)
	}
	if n := len(view.Rows()); n != 0 {
		t.Fatalf("view is stale: %d rows", n)
	}
}

func TestBandMembers(t *testing.T) {
	form := NewBandForm(nil, func(context.Context, string, catalog.BandPatch) error { return nil })

	first, _ := form.AddMember()
	second, _ := form.AddMember()
	_ = form.SetMember(first, "Vesh", "Vocals")
	_ = form.SetMember(second, "Krag", "Drums")
	if err := form.SetMember(5, "x", "y"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("out of range: %v", err)
	}
	_ = form.RemoveMember(first)

	want := []catalog.Member{{Name: "Krag", Role: "Drums"}}
	if got := form.Draft().Members; !reflect.DeepEqual(got, want) {
		t.Fatalf("members = %+v", got)
	}

	_ = form.Set("members", "Vesh | Vocals, Guitar\n\n  Krag|Drums  ")
	want = []catalog.Member{{Name: "Vesh", Role: "Vocals, Guitar"}, {Name: "Krag", Role: "Drums"}}
	if got := form.Draft().Members; !reflect.DeepEqual(got, want) {
		t.Fatalf("members = %+v", got)
	}
}

func TestNewFormsUseCurrentYear(t *testing.T) {
	console, _ := testConsole(t)
	year := now().Year()

	if got := console.Bands.Add().Draft().FormedIn; got != year {
		t.Fatalf("formedIn default = %d", got)
	}
	draft := console.Releases.Add().Draft()
	if draft.Year != year || draft.Type != catalog.FullLength || !draft.InStock {
		t.Fatalf("release defaults = %+v", draft)
	}
	product := console.Products.Add().Draft()
	if product.Type != catalog.ProductCD || !product.Price.IsZero() || !product.InStock {
		t.Fatalf("product defaults = %+v", product)
	}
}

type countingStore struct {
	Catalog
	saves int
	err   error
}

func (s *countingStore) SaveBand(ctx context.Context, id string, patch catalog.BandPatch) (catalog.Band, error) {
	s.saves++
	if s.err != nil {
		return catalog.Band{}, s.err
	}
	return s.Catalog.SaveBand(ctx, id, patch)
}
