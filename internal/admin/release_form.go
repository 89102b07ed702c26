package admin

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"onlyhate/internal/catalog"
)

// ReleaseFormRules are the stored release rules with year made mandatory,
// plus artist, description and tracklist.
var ReleaseFormRules = append(
	slices.DeleteFunc(slices.Clone(catalog.ReleaseRules), func(r catalog.Rule[catalog.Release]) bool { return r.Field == "year" }),
	textRule("artistId", func(r *catalog.Release) string { return r.ArtistID }),
	catalog.Rule[catalog.Release]{Field: "year", Check: func(r *catalog.Release) string { return catalog.RequireYear(r.Year) }},
	textRule("description", func(r *catalog.Release) string { return r.Description }),
	catalog.Rule[catalog.Release]{Field: "tracklist", Check: func(r *catalog.Release) string { return catalog.RequireList(r.Tracklist) }},
)

// ReleaseForm edits a single release.
type ReleaseForm struct {
	form[catalog.Release, catalog.ReleasePatch]
	bands []catalog.Band
}

// NewReleaseForm opens a form for release, or for a new release when release
// is nil. bands is the snapshot the artist selector picks from.
func NewReleaseForm(release *catalog.Release, bands []catalog.Band, save func(ctx context.Context, id string, patch catalog.ReleasePatch) error) *ReleaseForm {
	draft := catalog.Release{
		Year:      now().Year(),
		Type:      catalog.FullLength,
		Tracklist: []string{},
		Format:    []catalog.Format{},
		InStock:   true,
	}
	id := ""
	if release != nil {
		draft = *release
		id = release.ID
	}
	return &ReleaseForm{
		form:  newForm(catalog.KindReleases, id, draft, ReleaseFormRules, releasePatch, save),
		bands: bands,
	}
}

func releasePatch(r *catalog.Release, editing bool) catalog.ReleasePatch {
	p := catalog.ReleasePatch{
		Title:       ptr(r.Title),
		Artist:      ptr(r.Artist),
		ArtistID:    ptr(r.ArtistID),
		Year:        ptr(r.Year),
		Type:        ptr(r.Type),
		Description: ptr(r.Description),
		Tracklist:   ptr(slices.Clone(r.Tracklist)),
		Format:      ptr(slices.Clone(r.Format)),
		InStock:     ptr(r.InStock),
		Featured:    ptr(r.Featured),
		Image:       ptr(r.Image),
	}
	if editing {
		p.IfVersion = ptr(r.Version)
	}
	return p
}

func (f *ReleaseForm) Title() string {
	if f.Editing() {
		return "Edit Release"
	}
	return "Add New Release"
}

func (f *ReleaseForm) SetTitle(v string) error {
	return f.edit("title", func(r *catalog.Release) { r.Title = v })
}

// SelectArtist copies the chosen band's id and name into the draft. An empty
// id clears the artist.
func (f *ReleaseForm) SelectArtist(bandID string) error {
	if !f.open {
		return ErrClosed
	}
	bandID = strings.TrimSpace(bandID)
	if bandID == "" {
		return f.edit("artistId", func(r *catalog.Release) { r.ArtistID, r.Artist = "", "" })
	}
	i := slices.IndexFunc(f.bands, func(b catalog.Band) bool { return b.ID == bandID })
	if i < 0 {
		f.rejected["artistId"] = "unknown band"
		return fmt.Errorf("band %q: %w", bandID, ErrUnknownReference)
	}
	band := f.bands[i]
	return f.edit("artistId", func(r *catalog.Release) { r.ArtistID, r.Artist = band.ID, band.Name })
}

func (f *ReleaseForm) SetYear(raw string) error {
	if !f.open {
		return ErrClosed
	}
	year, err := ParseInt(raw)
	if err != nil {
		return f.reject("year", err)
	}
	return f.edit("year", func(r *catalog.Release) { r.Year = year })
}

func (f *ReleaseForm) SetType(raw string) error {
	if !f.open {
		return ErrClosed
	}
	t := catalog.ReleaseType(strings.TrimSpace(raw))
	if !t.Valid() {
		return f.reject("type", fmt.Errorf("must be one of %v", catalog.ReleaseTypes))
	}
	return f.edit("type", func(r *catalog.Release) { r.Type = t })
}

func (f *ReleaseForm) SetDescription(v string) error {
	return f.edit("description", func(r *catalog.Release) { r.Description = v })
}

// SetTracklist takes one track per line.
func (f *ReleaseForm) SetTracklist(raw string) error {
	return f.edit("tracklist", func(r *catalog.Release) { r.Tracklist = SplitLines(raw) })
}

// ToggleFormat adds format when absent and removes it when present.
func (f *ReleaseForm) ToggleFormat(format catalog.Format) error {
	if !f.open {
		return ErrClosed
	}
	if !format.Valid() {
		return f.reject("format", fmt.Errorf("has unknown format %q", format))
	}
	return f.edit("format", func(r *catalog.Release) {
		if slices.Contains(r.Format, format) {
			r.Format = slices.DeleteFunc(slices.Clone(r.Format), func(x catalog.Format) bool { return x == format })
			return
		}
		r.Format = append(slices.Clone(r.Format), format)
	})
}

// SetFormats replaces the formats from a comma separated list, keeping the
// first occurrence of each.
func (f *ReleaseForm) SetFormats(raw string) error {
	if !f.open {
		return ErrClosed
	}
	formats := []catalog.Format{}
	for _, name := range SplitList(raw) {
		format, ok := lookupFormat(name)
		if !ok {
			return f.reject("format", fmt.Errorf("has unknown format %q", name))
		}
		if !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	return f.edit("format", func(r *catalog.Release) { r.Format = formats })
}

func lookupFormat(name string) (catalog.Format, bool) {
	for _, known := range catalog.Formats {
		if strings.EqualFold(string(known), name) {
			return known, true
		}
	}
	return "", false
}

func (f *ReleaseForm) SetInStock(v bool) error {
	return f.edit("inStock", func(r *catalog.Release) { r.InStock = v })
}

func (f *ReleaseForm) SetFeatured(v bool) error {
	return f.edit("featured", func(r *catalog.Release) { r.Featured = v })
}

func (f *ReleaseForm) SetImage(v string) error {
	return f.edit("image", func(r *catalog.Release) { r.Image = strings.TrimSpace(v) })
}

func (f *ReleaseForm) Fields() []Field {
	r := f.draft
	artists := make([]Option, 0, len(f.bands))
	for _, b := range f.bands {
		artists = append(artists, Option{Value: b.ID, Label: b.Name})
	}
	types := make([]Option, 0, len(catalog.ReleaseTypes))
	for _, t := range catalog.ReleaseTypes {
		types = append(types, Option{Value: string(t), Label: string(t)})
	}
	formats := make([]Option, 0, len(catalog.Formats))
	selected := make([]string, 0, len(r.Format))
	for _, ft := range catalog.Formats {
		formats = append(formats, Option{Value: string(ft), Label: string(ft)})
	}
	for _, ft := range r.Format {
		selected = append(selected, string(ft))
	}

	fields := []Field{
		{Name: "title", Label: "Title", Input: InputText, Value: r.Title, Required: true},
		{Name: "artistId", Label: "Artist", Input: InputReference, Value: r.ArtistID, Required: true, Options: artists},
		{Name: "year", Label: "Year", Input: InputNumber, Value: yearString(r.Year), Required: true},
		{Name: "type", Label: "Type", Input: InputChoice, Value: string(r.Type), Required: true, Options: types},
		{Name: "description", Label: "Description", Input: InputLongText, Value: r.Description, Required: true},
		{Name: "tracklist", Label: "Tracklist (one per line)", Input: InputLines, Value: strings.Join(r.Tracklist, "\n"), Required: true},
		{Name: "format", Label: "Formats", Input: InputMulti, Value: strings.Join(selected, ", "), Options: formats},
		{Name: "image", Label: "Image URL", Input: InputText, Value: r.Image},
		{Name: "inStock", Label: "In Stock", Input: InputToggle, Value: formatToggle(r.InStock)},
		{Name: "featured", Label: "Featured", Input: InputToggle, Value: formatToggle(r.Featured)},
	}
	for i := range fields {
		fields[i].Error = f.fieldError(fields[i].Name)
	}
	return fields
}

func (f *ReleaseForm) Set(name, raw string) error {
	switch name {
	case "title":
		return f.SetTitle(raw)
	case "artistId":
		return f.SelectArtist(raw)
	case "year":
		return f.SetYear(raw)
	case "type":
		return f.SetType(raw)
	case "description":
		return f.SetDescription(raw)
	case "tracklist":
		return f.SetTracklist(raw)
	case "format":
		return f.SetFormats(raw)
	case "image":
		return f.SetImage(raw)
	case "inStock", "featured":
		v, err := ParseToggle(raw)
		if err != nil {
			return f.reject(name, err)
		}
		if name == "inStock" {
			return f.SetInStock(v)
		}
		return f.SetFeatured(v)
	}
	return fmt.Errorf("release form has no field %q", name)
}
