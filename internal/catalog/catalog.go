// Package catalog holds the label's bands, releases and products in memory.
//
// A Catalog is constructed once by the composition root and handed to every
// consumer. Writes are serialized behind a single lock, so the store behaves
// as a single writer even when HTTP handlers call it concurrently; patches
// may additionally carry an expected version for compare-and-swap updates.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotFound signals an update aimed at an id that is not in the collection.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID signals a create that supplied an id already in use.
	ErrDuplicateID = errors.New("id already exists")
	// ErrVersionConflict signals a compare-and-swap update against a stale version.
	ErrVersionConflict = errors.New("version conflict")
)

// DefaultImage is assigned to new entities created without an image.
const DefaultImage = "https://placehold.co/600x600/1a1a1a/8a0303?text=Only+Hate"

// Kind names one of the three collections.
type Kind string

const (
	KindBands    Kind = "bands"
	KindReleases Kind = "releases"
	KindProducts Kind = "products"
)

// Singular returns the entity name used in messages.
func (k Kind) Singular() string {
	return strings.TrimSuffix(string(k), "s")
}

// Op describes a committed mutation.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpRemove  Op = "remove"
	OpRestore Op = "restore"
)

// Event is delivered to observers after a mutation has been committed.
type Event struct {
	Kind Kind
	Op   Op
	ID   string
	// Resynced counts rows in other collections whose denormalized names were rewritten.
	Resynced int
}

// Observer receives catalog change events.
type Observer interface {
	CatalogChanged(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) CatalogChanged(ev Event) { f(ev) }

// Catalog is the in-memory store for the three collections.
type Catalog struct {
	mu       sync.RWMutex
	bands    *table[Band, *Band]
	releases *table[Release, *Release]
	products *table[Product, *Product]

	obsMu     sync.RWMutex
	observers []Observer

	newID func() string
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		bands:    newTable[Band, *Band](),
		releases: newTable[Release, *Release](),
		products: newTable[Product, *Product](),
		newID:    uuid.NewString,
	}
}

// Observe registers o for every future change event.
func (c *Catalog) Observe(o Observer) {
	c.obsMu.Lock()
	c.observers = append(c.observers, o)
	c.obsMu.Unlock()
}

func (c *Catalog) notify(ev Event) {
	c.obsMu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.obsMu.RUnlock()

	for _, o := range observers {
		o.CatalogChanged(ev)
	}
}

// Counts returns the size of each collection.
func (c *Catalog) Counts() map[Kind]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[Kind]int{
		KindBands:    c.bands.len(),
		KindReleases: c.releases.len(),
		KindProducts: c.products.len(),
	}
}

// Dashboard summarizes the catalog for the admin landing page.
type Dashboard struct {
	BandCount      int       `json:"bandCount"`
	ReleaseCount   int       `json:"releaseCount"`
	ProductCount   int       `json:"productCount"`
	RecentBands    []Band    `json:"recentBands"`
	RecentReleases []Release `json:"recentReleases"`
}

const dashboardRecent = 5

// Dashboard returns collection sizes and the most recently added bands and releases.
func (c *Catalog) Dashboard() Dashboard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Dashboard{
		BandCount:      c.bands.len(),
		ReleaseCount:   c.releases.len(),
		ProductCount:   c.products.len(),
		RecentBands:    c.bands.last(dashboardRecent),
		RecentReleases: c.releases.last(dashboardRecent),
	}
}

// Snapshot is the serialized form of the whole catalog.
type Snapshot struct {
	Bands    []Band    `json:"bands"`
	Releases []Release `json:"releases"`
	Products []Product `json:"products"`
}

// Snapshot copies the current state.
func (c *Catalog) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Bands:    c.bands.list(nil),
		Releases: c.releases.list(nil),
		Products: c.products.list(nil),
	}
}

// Restore replaces the whole catalog with snap. Rows without an id get one.
// Duplicate ids or rows that fail validation reject the restore and leave
// the catalog untouched.
func (c *Catalog) Restore(snap Snapshot) error {
	bands := newTable[Band, *Band]()
	if err := restoreRows(KindBands, bands, snap.Bands, c.newID, (*Band).normalize, func(b *Band) error { return ValidateBand(*b) }); err != nil {
		return err
	}
	releases := newTable[Release, *Release]()
	if err := restoreRows(KindReleases, releases, snap.Releases, c.newID, (*Release).normalize, func(r *Release) error { return ValidateRelease(*r) }); err != nil {
		return err
	}
	products := newTable[Product, *Product]()
	if err := restoreRows(KindProducts, products, snap.Products, c.newID, (*Product).normalize, func(p *Product) error { return ValidateProduct(*p) }); err != nil {
		return err
	}

	c.mu.Lock()
	c.bands, c.releases, c.products = bands, releases, products
	c.mu.Unlock()

	c.notify(Event{Op: OpRestore})
	return nil
}

// restoreRows holds restored rows to the same rules as writes; one bad row
// rejects the whole restore.
func restoreRows[T any, P row[T]](kind Kind, t *table[T, P], rows []T, newID func() string, normalize func(P), validate func(P) error) error {
	for _, v := range rows {
		p := P(&v)
		if strings.TrimSpace(p.key()) == "" {
			p.setKey(newID())
		}
		if t.has(p.key()) {
			return fmt.Errorf("restore %s: %w: %q", kind, ErrDuplicateID, p.key())
		}
		if p.rev() <= 0 {
			p.setRev(1)
		}
		normalize(p)
		if err := validate(p); err != nil {
			return fmt.Errorf("restore %s %q: %w", kind.Singular(), p.key(), err)
		}
		t.append(v)
	}
	return nil
}

// write describes one upsert against a table.
type write[T any, P row[T]] struct {
	kind      Kind
	table     *table[T, P]
	id        string
	patchID   *string
	ifVersion *int64
	defaults  func() T
	apply     func(P)
	validate  func(P) error
}

// upsertRow merges into an existing row when w.id is set, otherwise creates one.
// The caller must hold c.mu for writing.
func upsertRow[T any, P row[T]](c *Catalog, w write[T, P]) (T, Op, error) {
	var zero T

	if w.id != "" {
		cur, ok := w.table.get(w.id)
		if !ok {
			return zero, "", fmt.Errorf("%s %q: %w", w.kind.Singular(), w.id, ErrNotFound)
		}
		p := P(&cur)
		if w.ifVersion != nil && *w.ifVersion != p.rev() {
			return zero, "", fmt.Errorf("%s %q at version %d: %w", w.kind.Singular(), w.id, p.rev(), ErrVersionConflict)
		}
		w.apply(p)
		p.setKey(w.id)
		if err := w.validate(p); err != nil {
			return zero, "", err
		}
		p.setRev(p.rev() + 1)
		w.table.replace(cur)
		return p.clone(), OpUpdate, nil
	}

	v := w.defaults()
	p := P(&v)
	w.apply(p)

	id := ""
	if w.patchID != nil {
		id = strings.TrimSpace(*w.patchID)
	}
	if id == "" {
		id = c.newID()
	} else if w.table.has(id) {
		return zero, "", fmt.Errorf("%s %q: %w", w.kind.Singular(), id, ErrDuplicateID)
	}
	p.setKey(id)
	p.setRev(1)

	if err := w.validate(p); err != nil {
		return zero, "", err
	}
	w.table.append(v)
	return p.clone(), OpCreate, nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func setIf[V any](dst *V, src *V) {
	if src != nil {
		*dst = *src
	}
}

func setListIf(dst *[]string, src *[]string) {
	if src != nil {
		*dst = cloneStrings(*src)
	}
}
