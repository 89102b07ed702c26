package catalog

import "strings"

// Member is one line-up entry of a band.
type Member struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Band is an artist on the label.
type Band struct {
	ID          string   `json:"id"`
	Version     int64    `json:"version"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	FormedIn    int      `json:"formedIn"`
	Genres      []string `json:"genres"`
	Bio         string   `json:"bio"`
	Image       string   `json:"image"`
	Members     []Member `json:"members"`
	Discography []string `json:"discography"`
	Featured    bool     `json:"featured"`
}

// BandPatch carries the fields of a band write; nil fields are left untouched.
type BandPatch struct {
	ID          *string   `json:"id,omitempty"`
	Name        *string   `json:"name,omitempty"`
	Country     *string   `json:"country,omitempty"`
	FormedIn    *int      `json:"formedIn,omitempty"`
	Genres      *[]string `json:"genres,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	Image       *string   `json:"image,omitempty"`
	Members     *[]Member `json:"members,omitempty"`
	Discography *[]string `json:"discography,omitempty"`
	Featured    *bool     `json:"featured,omitempty"`

	// IfVersion, when set, makes an update conditional on the stored version.
	IfVersion *int64 `json:"-"`
}

// BandFilter narrows ListBands.
type BandFilter struct {
	Featured *bool
}

func (b *Band) key() string { return b.ID }
func (b *Band) setKey(id string) { b.ID = id }
func (b *Band) rev() int64 { return b.Version }
func (b *Band) setRev(v int64) { b.Version = v }
func (b *Band) clone() Band {
	out := *b
	out.Genres = cloneStrings(b.Genres)
	out.Discography = cloneStrings(b.Discography)
	out.Members = make([]Member, len(b.Members))
	copy(out.Members, b.Members)
	return out
}

func (b *Band) normalize() {
	if b.Genres == nil {
		b.Genres = []string{}
	}
	if b.Members == nil {
		b.Members = []Member{}
	}
	if b.Discography == nil {
		b.Discography = []string{}
	}
	if strings.TrimSpace(b.Image) == "" {
		b.Image = DefaultImage
	}
}

func (p BandPatch) apply(b *Band) {
	setIf(&b.Name, p.Name)
	setIf(&b.Country, p.Country)
	setIf(&b.FormedIn, p.FormedIn)
	setListIf(&b.Genres, p.Genres)
	setIf(&b.Bio, p.Bio)
	setIf(&b.Image, p.Image)
	if p.Members != nil {
		b.Members = make([]Member, len(*p.Members))
		copy(b.Members, *p.Members)
	}
	setListIf(&b.Discography, p.Discography)
	setIf(&b.Featured, p.Featured)
	b.Name = strings.TrimSpace(b.Name)
	b.Country = strings.TrimSpace(b.Country)
	b.normalize()
}

// BandRules are the fields every stored band must satisfy.
var BandRules = []Rule[Band]{
	{Field: "name", Check: func(b *Band) string { return RequireText(b.Name) }},
	{Field: "country", Check: func(b *Band) string { return RequireText(b.Country) }},
	{Field: "formedIn", Check: func(b *Band) string { return RequireYear(b.FormedIn) }},
	{Field: "genres", Check: func(b *Band) string { return RequireList(b.Genres) }},
}

// ValidateBand checks b against BandRules.
func ValidateBand(b Band) error {
	return Validate(KindBands, &b, BandRules)
}

// ListBands returns bands in insertion order.
func (c *Catalog) ListBands(f BandFilter) []Band {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bands.list(func(b *Band) bool {
		return f.Featured == nil || b.Featured == *f.Featured
	})
}

// Band returns the band with the given id.
func (c *Catalog) Band(id string) (Band, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bands.get(id)
}

// UpsertBand merges patch into the band with id, or creates a new band when id is empty.
// Renaming a band rewrites the artist name copied into its releases and products.
func (c *Catalog) UpsertBand(id string, patch BandPatch) (Band, error) {
	c.mu.Lock()
	before, existed := c.bands.get(id)
	band, op, err := upsertRow(c, write[Band, *Band]{
		kind:      KindBands,
		table:     c.bands,
		id:        id,
		patchID:   patch.ID,
		ifVersion: patch.IfVersion,
		defaults:  func() Band { return Band{} },
		apply:     patch.apply,
		validate:  func(b *Band) error { return ValidateBand(*b) },
	})
	resynced := 0
	if err == nil && existed && before.Name != band.Name {
		resynced = c.resyncArtist(band)
	}
	c.mu.Unlock()

	if err != nil {
		return Band{}, err
	}
	c.notify(Event{Kind: KindBands, Op: op, ID: band.ID, Resynced: resynced})
	return band, nil
}

// RemoveBand deletes the band with id and reports whether anything was removed.
// Releases and products that reference the band keep their copied names.
func (c *Catalog) RemoveBand(id string) bool {
	c.mu.Lock()
	removed := c.bands.remove(id)
	c.mu.Unlock()

	if removed {
		c.notify(Event{Kind: KindBands, Op: OpRemove, ID: id})
	}
	return removed
}

// resyncArtist copies band's current name into every row that references it.
func (c *Catalog) resyncArtist(band Band) int {
	n := c.releases.update(func(r *Release) bool {
		if r.ArtistID != band.ID || r.Artist == band.Name {
			return false
		}
		r.Artist = band.Name
		return true
	})
	n += c.products.update(func(p *Product) bool {
		if p.ArtistID != band.ID || p.Artist == band.Name {
			return false
		}
		p.Artist = band.Name
		return true
	})
	return n
}
