package admin

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"onlyhate/internal/catalog"
)

// BandFormRules extend the stored band rules with the fields the form insists on.
var BandFormRules = append(slices.Clone(catalog.BandRules),
	textRule("bio", func(b *catalog.Band) string { return b.Bio }),
)

// BandForm edits a single band.
type BandForm struct {
	form[catalog.Band, catalog.BandPatch]
}

// NewBandForm opens a form for band, or for a new band when band is nil.
// save receives the band id (empty when creating) and the complete patch.
func NewBandForm(band *catalog.Band, save func(ctx context.Context, id string, patch catalog.BandPatch) error) *BandForm {
	draft := catalog.Band{
		FormedIn:    now().Year(),
		Genres:      []string{},
		Members:     []catalog.Member{},
		Discography: []string{},
	}
	id := ""
	if band != nil {
		draft = *band
		id = band.ID
	}
	return &BandForm{form: newForm(catalog.KindBands, id, draft, BandFormRules, bandPatch, save)}
}

func bandPatch(b *catalog.Band, editing bool) catalog.BandPatch {
	members := make([]catalog.Member, 0, len(b.Members))
	for _, m := range b.Members {
		m.Name, m.Role = strings.TrimSpace(m.Name), strings.TrimSpace(m.Role)
		if m.Name != "" || m.Role != "" {
			members = append(members, m)
		}
	}
	p := catalog.BandPatch{
		Name:        ptr(b.Name),
		Country:     ptr(b.Country),
		FormedIn:    ptr(b.FormedIn),
		Genres:      ptr(slices.Clone(b.Genres)),
		Bio:         ptr(b.Bio),
		Image:       ptr(b.Image),
		Members:     &members,
		Discography: ptr(slices.Clone(b.Discography)),
		Featured:    ptr(b.Featured),
	}
	if editing {
		p.IfVersion = ptr(b.Version)
	}
	return p
}

// Title is the heading shown above the form.
func (f *BandForm) Title() string {
	if f.Editing() {
		return "Edit Band"
	}
	return "Add New Band"
}

func (f *BandForm) SetName(v string) error {
	return f.edit("name", func(b *catalog.Band) { b.Name = v })
}

func (f *BandForm) SetCountry(v string) error {
	return f.edit("country", func(b *catalog.Band) { b.Country = v })
}

// SetFormedIn parses raw as a year; non-numeric input leaves the draft unchanged.
func (f *BandForm) SetFormedIn(raw string) error {
	if !f.open {
		return ErrClosed
	}
	year, err := ParseInt(raw)
	if err != nil {
		return f.reject("formedIn", err)
	}
	return f.edit("formedIn", func(b *catalog.Band) { b.FormedIn = year })
}

// SetGenres takes a comma separated list.
func (f *BandForm) SetGenres(raw string) error {
	return f.edit("genres", func(b *catalog.Band) { b.Genres = SplitList(raw) })
}

func (f *BandForm) SetBio(v string) error {
	return f.edit("bio", func(b *catalog.Band) { b.Bio = v })
}

func (f *BandForm) SetImage(v string) error {
	return f.edit("image", func(b *catalog.Band) { b.Image = strings.TrimSpace(v) })
}

func (f *BandForm) SetFeatured(v bool) error {
	return f.edit("featured", func(b *catalog.Band) { b.Featured = v })
}

// AddMember appends an empty line-up row and returns its index.
func (f *BandForm) AddMember() (int, error) {
	if !f.open {
		return 0, ErrClosed
	}
	f.draft.Members = append(slices.Clone(f.draft.Members), catalog.Member{})
	return len(f.draft.Members) - 1, nil
}

// SetMember replaces row i of the line-up.
func (f *BandForm) SetMember(i int, name, role string) error {
	if i < 0 || i >= len(f.draft.Members) {
		return fmt.Errorf("member %d: %w: out of range", i, ErrInvalidInput)
	}
	return f.edit("members", func(b *catalog.Band) {
		b.Members = slices.Clone(b.Members)
		b.Members[i] = catalog.Member{Name: name, Role: role}
	})
}

// RemoveMember drops row i of the line-up.
func (f *BandForm) RemoveMember(i int) error {
	if i < 0 || i >= len(f.draft.Members) {
		return fmt.Errorf("member %d: %w: out of range", i, ErrInvalidInput)
	}
	return f.edit("members", func(b *catalog.Band) {
		members := make([]catalog.Member, 0, len(b.Members)-1)
		members = append(members, b.Members[:i]...)
		b.Members = append(members, b.Members[i+1:]...)
	})
}

// SetMembers replaces the line-up from one "name | role" entry per line.
func (f *BandForm) SetMembers(raw string) error {
	lines := SplitLines(raw)
	members := make([]catalog.Member, 0, len(lines))
	for _, line := range lines {
		name, role, _ := strings.Cut(line, "|")
		members = append(members, catalog.Member{Name: strings.TrimSpace(name), Role: strings.TrimSpace(role)})
	}
	return f.edit("members", func(b *catalog.Band) { b.Members = members })
}

// Fields lists the form fields in display order.
func (f *BandForm) Fields() []Field {
	b := f.draft
	members := make([]string, 0, len(b.Members))
	for _, m := range b.Members {
		members = append(members, m.Name+" | "+m.Role)
	}
	fields := []Field{
		{Name: "name", Label: "Band Name", Input: InputText, Value: b.Name, Required: true},
		{Name: "country", Label: "Country", Input: InputText, Value: b.Country, Required: true},
		{Name: "formedIn", Label: "Formed In", Input: InputNumber, Value: yearString(b.FormedIn), Required: true},
		{Name: "genres", Label: "Genres (comma separated)", Input: InputList, Value: strings.Join(b.Genres, ", "), Required: true},
		{Name: "bio", Label: "Biography", Input: InputLongText, Value: b.Bio, Required: true},
		{Name: "image", Label: "Image URL", Input: InputText, Value: b.Image},
		{Name: "members", Label: "Members (name | role per line)", Input: InputLines, Value: strings.Join(members, "\n")},
		{Name: "featured", Label: "Featured", Input: InputToggle, Value: formatToggle(b.Featured)},
	}
	for i := range fields {
		fields[i].Error = f.fieldError(fields[i].Name)
	}
	return fields
}

// Set applies raw input to the named field.
func (f *BandForm) Set(name, raw string) error {
	switch name {
	case "name":
		return f.SetName(raw)
	case "country":
		return f.SetCountry(raw)
	case "formedIn":
		return f.SetFormedIn(raw)
	case "genres":
		return f.SetGenres(raw)
	case "bio":
		return f.SetBio(raw)
	case "image":
		return f.SetImage(raw)
	case "members":
		return f.SetMembers(raw)
	case "featured":
		v, err := ParseToggle(raw)
		if err != nil {
			return f.reject(name, err)
		}
		return f.SetFeatured(v)
	}
	return fmt.Errorf("band form has no field %q", name)
}
