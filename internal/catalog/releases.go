package catalog

import (
	"fmt"
	"strings"
)

// ReleaseType classifies a release.
type ReleaseType string

const (
	FullLength  ReleaseType = "Full-length"
	EP          ReleaseType = "EP"
	Single      ReleaseType = "Single"
	Split       ReleaseType = "Split"
	Compilation ReleaseType = "Compilation"
	Demo        ReleaseType = "Demo"
)

// ReleaseTypes lists the accepted release types in display order.
var ReleaseTypes = []ReleaseType{FullLength, EP, Single, Split, Compilation, Demo}

// Valid reports whether t is one of ReleaseTypes.
func (t ReleaseType) Valid() bool {
	for _, known := range ReleaseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Format is a physical or digital medium a release is sold on.
type Format string

const (
	Vinyl    Format = "Vinyl"
	CD       Format = "CD"
	Digital  Format = "Digital"
	Cassette Format = "Cassette"
)

// Formats lists the accepted formats in display order.
var Formats = []Format{Vinyl, CD, Digital, Cassette}

// Valid reports whether f is one of Formats.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Release is an album, EP or other record put out by the label.
type Release struct {
	ID          string      `json:"id"`
	Version     int64       `json:"version"`
	Title       string      `json:"title"`
	Artist      string      `json:"artist"`
	ArtistID    string      `json:"artistId"`
	Year        int         `json:"year"`
	Type        ReleaseType `json:"type"`
	Description string      `json:"description"`
	Tracklist   []string    `json:"tracklist"`
	Format      []Format    `json:"format"`
	InStock     bool        `json:"inStock"`
	Featured    bool        `json:"featured"`
	Image       string      `json:"image"`
}

// ReleasePatch carries the fields of a release write; nil fields are left untouched.
// When ArtistID names a known band, Artist is overwritten with the band's name.
type ReleasePatch struct {
	ID          *string      `json:"id,omitempty"`
	Title       *string      `json:"title,omitempty"`
	Artist      *string      `json:"artist,omitempty"`
	ArtistID    *string      `json:"artistId,omitempty"`
	Year        *int         `json:"year,omitempty"`
	Type        *ReleaseType `json:"type,omitempty"`
	Description *string      `json:"description,omitempty"`
	Tracklist   *[]string    `json:"tracklist,omitempty"`
	Format      *[]Format    `json:"format,omitempty"`
	InStock     *bool        `json:"inStock,omitempty"`
	Featured    *bool        `json:"featured,omitempty"`
	Image       *string      `json:"image,omitempty"`

	IfVersion *int64 `json:"-"`
}

// ReleaseFilter narrows ListReleases. Zero fields match everything.
type ReleaseFilter struct {
	Featured *bool
	InStock  *bool
	ArtistID string
	Type     ReleaseType
}

func (f ReleaseFilter) match(r *Release) bool {
	switch {
	case f.Featured != nil && r.Featured != *f.Featured:
		return false
	case f.InStock != nil && r.InStock != *f.InStock:
		return false
	case f.ArtistID != "" && r.ArtistID != f.ArtistID:
		return false
	case f.Type != "" && r.Type != f.Type:
		return false
	}
	return true
}

func (r *Release) key() string { return r.ID }
func (r *Release) setKey(id string) { r.ID = id }
func (r *Release) rev() int64 { return r.Version }
func (r *Release) setRev(v int64) { r.Version = v }
func (r *Release) clone() Release {
	out := *r
	out.Tracklist = cloneStrings(r.Tracklist)
	out.Format = make([]Format, len(r.Format))
	copy(out.Format, r.Format)
	return out
}

func (r *Release) normalize() {
	if r.Tracklist == nil {
		r.Tracklist = []string{}
	}
	if r.Format == nil {
		r.Format = []Format{}
	}
	if strings.TrimSpace(r.Image) == "" {
		r.Image = DefaultImage
	}
}

func defaultRelease() Release {
	return Release{Type: FullLength, InStock: true}
}

func (p ReleasePatch) apply(r *Release) {
	setIf(&r.Title, p.Title)
	setIf(&r.Artist, p.Artist)
	setIf(&r.ArtistID, p.ArtistID)
	setIf(&r.Year, p.Year)
	setIf(&r.Type, p.Type)
	setIf(&r.Description, p.Description)
	setListIf(&r.Tracklist, p.Tracklist)
	if p.Format != nil {
		r.Format = make([]Format, len(*p.Format))
		copy(r.Format, *p.Format)
	}
	setIf(&r.InStock, p.InStock)
	setIf(&r.Featured, p.Featured)
	setIf(&r.Image, p.Image)
	r.Title = strings.TrimSpace(r.Title)
	r.normalize()
}

// ReleaseRules are the fields every stored release must satisfy.
var ReleaseRules = []Rule[Release]{
	{Field: "title", Check: func(r *Release) string { return RequireText(r.Title) }},
	{Field: "year", Check: func(r *Release) string {
		if r.Year == 0 {
			return ""
		}
		return RequireYear(r.Year)
	}},
	{Field: "type", Check: func(r *Release) string {
		if !r.Type.Valid() {
			return fmt.Sprintf("must be one of %v", ReleaseTypes)
		}
		return ""
	}},
	{Field: "format", Check: func(r *Release) string {
		for _, f := range r.Format {
			if !f.Valid() {
				return fmt.Sprintf("has unknown format %q", f)
			}
		}
		return ""
	}},
}

// ValidateRelease checks r against ReleaseRules.
func ValidateRelease(r Release) error {
	return Validate(KindReleases, &r, ReleaseRules)
}

// ListReleases returns releases in insertion order.
func (c *Catalog) ListReleases(f ReleaseFilter) []Release {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.releases.list(f.match)
}

// Release returns the release with the given id.
func (c *Catalog) Release(id string) (Release, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.releases.get(id)
}

// UpsertRelease merges patch into the release with id, or creates a new release when id is empty.
func (c *Catalog) UpsertRelease(id string, patch ReleasePatch) (Release, error) {
	c.mu.Lock()
	before, existed := c.releases.get(id)
	release, op, err := upsertRow(c, write[Release, *Release]{
		kind:      KindReleases,
		table:     c.releases,
		id:        id,
		patchID:   patch.ID,
		ifVersion: patch.IfVersion,
		defaults:  defaultRelease,
		apply: func(r *Release) {
			patch.apply(r)
			if patch.ArtistID != nil {
				if band, ok := c.bands.get(r.ArtistID); ok {
					r.Artist = band.Name
				}
			}
		},
		validate: func(r *Release) error { return ValidateRelease(*r) },
	})
	resynced := 0
	if err == nil && existed && before.Title != release.Title {
		resynced = c.resyncRelease(release)
	}
	c.mu.Unlock()

	if err != nil {
		return Release{}, err
	}
	c.notify(Event{Kind: KindReleases, Op: op, ID: release.ID, Resynced: resynced})
	return release, nil
}

// RemoveRelease deletes the release with id and reports whether anything was removed.
func (c *Catalog) RemoveRelease(id string) bool {
	c.mu.Lock()
	removed := c.releases.remove(id)
	c.mu.Unlock()

	if removed {
		c.notify(Event{Kind: KindReleases, Op: OpRemove, ID: id})
	}
	return removed
}

func (c *Catalog) resyncRelease(release Release) int {
	return c.products.update(func(p *Product) bool {
		if p.ReleaseID != release.ID || p.Release == release.Title {
			return false
		}
		p.Release = release.Title
		return true
	})
}
