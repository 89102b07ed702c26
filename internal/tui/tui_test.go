package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"onlyhate/internal/admin"
	"onlyhate/internal/auth"
	"onlyhate/internal/catalog"
)

type fakeSession struct {
	authed bool
	logins int
}

func (s *fakeSession) Login(_ context.Context, id, secret string) error {
	s.logins++
	if id != "admin@onlyhate.com" || secret != "admin123" {
		return auth.ErrInvalidCredentials
	}
	s.authed = true
	return nil
}

func (s *fakeSession) Logout(context.Context) error {
	s.authed = false
	return nil
}

func (s *fakeSession) IsAuthenticated() bool { return s.authed }

func (s *fakeSession) User() (auth.User, bool) {
	return auth.User{Email: "admin@onlyhate.com"}, s.authed
}

func newTestModel(t *testing.T, authed bool) (Model, *catalog.Catalog) {
	t.Helper()
	c := catalog.New()
	if err := c.Restore(catalog.Snapshot{
		Bands: []catalog.Band{
			{ID: "b1", Name: "Ashen Throne", Country: "NO", FormedIn: 1994, Genres: []string{"Black Metal"}, Bio: "Frozen."},
			{ID: "b2", Name: "Morgue Hymn", Country: "SE", FormedIn: 2001, Genres: []string{"Death Metal"}, Bio: "Rotten."},
		},
	}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	m := NewModel(context.Background(), admin.NewConsole(admin.NewLocal(c)), &fakeSession{authed: authed})
	if authed {
		m = drive(t, m, m.Init())
	}
	return m, c
}

// drive runs cmd and feeds the console's own messages back into the model.
// Cursor blinks and spinner ticks are dropped.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drive(t, m, c)
		}
	case loginDoneMsg, loggedOutMsg, expiredMsg, refreshDoneMsg, savedMsg, deletedMsg:
		next, follow := m.Update(msg)
		m = drive(t, next.(Model), follow)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func TestLoginFlow(t *testing.T) {
	m, _ := newTestModel(t, false)
	if m.Screen() != ScreenLogin {
		t.Fatalf("expected login screen, got %v", m.Screen())
	}

	m = press(t, m, "admin@onlyhate.com", "enter", "wrong", "enter")
	if m.Screen() != ScreenLogin || !strings.Contains(m.View(), "Invalid email or password") {
		t.Fatalf("bad login not reported:\n%s", m.View())
	}

	m = press(t, m, "admin123", "enter")
	if m.Screen() != ScreenList {
		t.Fatalf("expected list screen, got %v", m.Screen())
	}
	if !strings.Contains(m.View(), "Ashen Throne") {
		t.Fatalf("bands not listed:\n%s", m.View())
	}
}

func TestAuthenticatedSessionSkipsLogin(t *testing.T) {
	m, _ := newTestModel(t, true)
	if m.Screen() != ScreenList {
		t.Fatalf("expected list screen, got %v", m.Screen())
	}
	if !strings.Contains(m.View(), "signed in as admin@onlyhate.com") {
		t.Fatalf("user not shown:\n%s", m.View())
	}
}

func TestDeleteConfirmation(t *testing.T) {
	m, c := newTestModel(t, true)

	m = press(t, m, "down", "d")
	if m.Screen() != ScreenConfirm {
		t.Fatalf("expected confirm screen, got %v", m.Screen())
	}
	m = press(t, m, "n")
	if m.Screen() != ScreenList || len(c.ListBands(catalog.BandFilter{})) != 2 {
		t.Fatal("cancelled delete changed the catalog")
	}

	m = press(t, m, "d", "y")
	if m.Screen() != ScreenList {
		t.Fatalf("expected list screen, got %v", m.Screen())
	}
	if _, ok := c.Band("b2"); ok {
		t.Fatal("b2 not deleted")
	}
	if strings.Contains(m.View(), "Morgue Hymn") {
		t.Fatal("deleted band still rendered")
	}
}

func TestEditBandThroughForm(t *testing.T) {
	m, c := newTestModel(t, true)

	m = press(t, m, "e")
	if m.Screen() != ScreenForm {
		t.Fatalf("expected form, got %v", m.Screen())
	}
	// Name is the first field: open it, append, apply.
	m = press(t, m, "enter", " Reborn", "enter", "ctrl+s")
	if m.Screen() != ScreenList {
		t.Fatalf("expected list after save, got %v:\n%s", m.Screen(), m.View())
	}
	band, _ := c.Band("b1")
	if band.Name != "Ashen Throne Reborn" {
		t.Fatalf("name = %q", band.Name)
	}
}

func TestAddWithMissingFieldsStaysOpen(t *testing.T) {
	m, c := newTestModel(t, true)

	m = press(t, m, "a", "ctrl+s")
	if m.Screen() != ScreenForm {
		t.Fatalf("expected form to stay open, got %v", m.Screen())
	}
	view := m.View()
	if !strings.Contains(view, "fix the highlighted fields") || !strings.Contains(view, "is required") {
		t.Fatalf("errors not shown:\n%s", view)
	}

	m = press(t, m, "esc")
	if m.Screen() != ScreenList {
		t.Fatalf("cancel should return to the list, got %v", m.Screen())
	}
	if n := len(c.ListBands(catalog.BandFilter{})); n != 2 {
		t.Fatalf("cancel created a band: %d", n)
	}
}

func TestReleaseFormCyclesArtist(t *testing.T) {
	m, _ := newTestModel(t, true)

	m = press(t, m, "tab", "a")
	// title, then artist
	m = press(t, m, "down", "enter")
	form, ok := m.form.(*admin.ReleaseForm)
	if !ok {
		t.Fatalf("unexpected form %T", m.form)
	}
	if d := form.Draft(); d.ArtistID != "b1" || d.Artist != "Ashen Throne" {
		t.Fatalf("artist = %q/%q", d.ArtistID, d.Artist)
	}
	m = press(t, m, "enter")
	if d := form.Draft(); d.ArtistID != "b2" {
		t.Fatalf("artist = %q", d.ArtistID)
	}
}

func TestSignOut(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = press(t, m, "L")
	if m.Screen() != ScreenLogin {
		t.Fatalf("expected login screen, got %v", m.Screen())
	}
}

// expiringStore answers every read with ErrUnauthorized once expired is set.
type expiringStore struct {
	admin.Catalog
	expired bool
}

func (s *expiringStore) Bands(ctx context.Context) ([]catalog.Band, error) {
	if s.expired {
		return nil, auth.ErrUnauthorized
	}
	return s.Catalog.Bands(ctx)
}

func TestExpiredSessionClearsGate(t *testing.T) {
	store := &expiringStore{Catalog: admin.NewLocal(catalog.New())}
	session := &fakeSession{authed: true}
	m := NewModel(context.Background(), admin.NewConsole(store), session)
	m = drive(t, m, m.Init())
	if m.Screen() != ScreenList {
		t.Fatalf("expected list screen, got %v", m.Screen())
	}

	store.expired = true
	m = press(t, m, "r")
	if m.Screen() != ScreenLogin {
		t.Fatalf("expected login screen, got %v", m.Screen())
	}
	if session.authed {
		t.Fatal("expired session still marked authenticated")
	}
	if !strings.Contains(m.View(), "session expired") {
		t.Fatalf("expiry not reported:\n%s", m.View())
	}
}
