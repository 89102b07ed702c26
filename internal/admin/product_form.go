package admin

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"onlyhate/internal/catalog"
)

// ProductFormRules are the stored product rules plus a description.
var ProductFormRules = append(slices.Clone(catalog.ProductRules),
	textRule("description", func(p *catalog.Product) string { return p.Description }),
)

// ProductForm edits a single shop product.
type ProductForm struct {
	form[catalog.Product, catalog.ProductPatch]
	bands    []catalog.Band
	releases []catalog.Release
}

// NewProductForm opens a form for product, or for a new product when product
// is nil. bands and releases are the snapshots the selectors pick from.
func NewProductForm(product *catalog.Product, bands []catalog.Band, releases []catalog.Release, save func(ctx context.Context, id string, patch catalog.ProductPatch) error) *ProductForm {
	draft := catalog.Product{
		Type:     catalog.ProductCD,
		Price:    decimal.Zero,
		Variants: []string{},
		InStock:  true,
	}
	id := ""
	if product != nil {
		draft = *product
		id = product.ID
	}
	return &ProductForm{
		form:     newForm(catalog.KindProducts, id, draft, ProductFormRules, productPatch, save),
		bands:    bands,
		releases: releases,
	}
}

func productPatch(p *catalog.Product, editing bool) catalog.ProductPatch {
	pp := catalog.ProductPatch{
		Name:        ptr(p.Name),
		Type:        ptr(p.Type),
		Price:       ptr(p.Price),
		Description: ptr(p.Description),
		Artist:      ptr(p.Artist),
		ArtistID:    ptr(p.ArtistID),
		Release:     ptr(p.Release),
		ReleaseID:   ptr(p.ReleaseID),
		Variants:    ptr(slices.Clone(p.Variants)),
		InStock:     ptr(p.InStock),
		Featured:    ptr(p.Featured),
		Image:       ptr(p.Image),
	}
	if editing {
		pp.IfVersion = ptr(p.Version)
	}
	return pp
}

func (f *ProductForm) Title() string {
	if f.Editing() {
		return "Edit Product"
	}
	return "Add New Product"
}

func (f *ProductForm) SetName(v string) error {
	return f.edit("name", func(p *catalog.Product) { p.Name = v })
}

// SetType changes the product type. Merchandise carries no artist or release,
// so switching to it clears both.
func (f *ProductForm) SetType(raw string) error {
	if !f.open {
		return ErrClosed
	}
	t := catalog.ProductType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return f.reject("type", fmt.Errorf("must be one of %v", catalog.ProductTypes))
	}
	return f.edit("type", func(p *catalog.Product) {
		p.Type = t
		if t == catalog.ProductMerch {
			p.Artist, p.ArtistID, p.Release, p.ReleaseID = "", "", "", ""
		}
	})
}

// SetPrice parses raw as a decimal amount; unparsable input leaves the draft unchanged.
func (f *ProductForm) SetPrice(raw string) error {
	if !f.open {
		return ErrClosed
	}
	price, err := ParseDecimal(raw)
	if err != nil {
		return f.reject("price", err)
	}
	return f.edit("price", func(p *catalog.Product) { p.Price = price })
}

func (f *ProductForm) SetDescription(v string) error {
	return f.edit("description", func(p *catalog.Product) { p.Description = v })
}

// SelectArtist copies the chosen band's id and name into the draft.
func (f *ProductForm) SelectArtist(bandID string) error {
	if !f.open {
		return ErrClosed
	}
	bandID = strings.TrimSpace(bandID)
	if bandID == "" {
		return f.edit("artistId", func(p *catalog.Product) { p.ArtistID, p.Artist = "", "" })
	}
	i := slices.IndexFunc(f.bands, func(b catalog.Band) bool { return b.ID == bandID })
	if i < 0 {
		f.rejected["artistId"] = "unknown band"
		return fmt.Errorf("band %q: %w", bandID, ErrUnknownReference)
	}
	band := f.bands[i]
	return f.edit("artistId", func(p *catalog.Product) { p.ArtistID, p.Artist = band.ID, band.Name })
}

// SelectRelease copies the chosen release's id and title into the draft.
func (f *ProductForm) SelectRelease(releaseID string) error {
	if !f.open {
		return ErrClosed
	}
	releaseID = strings.TrimSpace(releaseID)
	if releaseID == "" {
		return f.edit("releaseId", func(p *catalog.Product) { p.ReleaseID, p.Release = "", "" })
	}
	i := slices.IndexFunc(f.releases, func(r catalog.Release) bool { return r.ID == releaseID })
	if i < 0 {
		f.rejected["releaseId"] = "unknown release"
		return fmt.Errorf("release %q: %w", releaseID, ErrUnknownReference)
	}
	release := f.releases[i]
	return f.edit("releaseId", func(p *catalog.Product) { p.ReleaseID, p.Release = release.ID, release.Title })
}

// SetVariants takes one variant per line.
func (f *ProductForm) SetVariants(raw string) error {
	return f.edit("variants", func(p *catalog.Product) { p.Variants = SplitLines(raw) })
}

func (f *ProductForm) SetInStock(v bool) error {
	return f.edit("inStock", func(p *catalog.Product) { p.InStock = v })
}

func (f *ProductForm) SetFeatured(v bool) error {
	return f.edit("featured", func(p *catalog.Product) { p.Featured = v })
}

func (f *ProductForm) SetImage(v string) error {
	return f.edit("image", func(p *catalog.Product) { p.Image = strings.TrimSpace(v) })
}

func (f *ProductForm) Fields() []Field {
	p := f.draft
	types := []Option{
		{Value: string(catalog.ProductVinyl), Label: "Vinyl"},
		{Value: string(catalog.ProductCD), Label: "CD"},
		{Value: string(catalog.ProductCassette), Label: "Cassette"},
		{Value: string(catalog.ProductMerch), Label: "Merchandise"},
	}

	fields := []Field{
		{Name: "name", Label: "Product Name", Input: InputText, Value: p.Name, Required: true},
		{Name: "type", Label: "Type", Input: InputChoice, Value: string(p.Type), Required: true, Options: types},
	}
	if p.Type != catalog.ProductMerch {
		artists := make([]Option, 0, len(f.bands))
		for _, b := range f.bands {
			artists = append(artists, Option{Value: b.ID, Label: b.Name})
		}
		releases := make([]Option, 0, len(f.releases))
		for _, r := range f.releases {
			releases = append(releases, Option{Value: r.ID, Label: r.Title})
		}
		fields = append(fields,
			Field{Name: "artistId", Label: "Artist", Input: InputReference, Value: p.ArtistID, Options: artists},
			Field{Name: "releaseId", Label: "Release", Input: InputReference, Value: p.ReleaseID, Options: releases},
		)
	}
	fields = append(fields,
		Field{Name: "price", Label: "Price", Input: InputDecimal, Value: p.Price.StringFixed(2), Required: true},
		Field{Name: "description", Label: "Description", Input: InputLongText, Value: p.Description, Required: true},
		Field{Name: "variants", Label: "Variants (one per line)", Input: InputLines, Value: strings.Join(p.Variants, "\n")},
		Field{Name: "image", Label: "Image URL", Input: InputText, Value: p.Image},
		Field{Name: "inStock", Label: "In Stock", Input: InputToggle, Value: formatToggle(p.InStock)},
		Field{Name: "featured", Label: "Featured", Input: InputToggle, Value: formatToggle(p.Featured)},
	)
	for i := range fields {
		fields[i].Error = f.fieldError(fields[i].Name)
	}
	return fields
}

func (f *ProductForm) Set(name, raw string) error {
	switch name {
	case "name":
		return f.SetName(raw)
	case "type":
		return f.SetType(raw)
	case "artistId":
		return f.SelectArtist(raw)
	case "releaseId":
		return f.SelectRelease(raw)
	case "price":
		return f.SetPrice(raw)
	case "description":
		return f.SetDescription(raw)
	case "variants":
		return f.SetVariants(raw)
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
	return fmt.Errorf("product form has no field %q", name)
}
