package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductType classifies a shop item.
type ProductType string

const (
	ProductVinyl    ProductType = "vinyl"
	ProductCD       ProductType = "cd"
	ProductCassette ProductType = "cassette"
	ProductMerch    ProductType = "merch"
)

// ProductTypes lists the accepted product types in display order.
var ProductTypes = []ProductType{ProductVinyl, ProductCD, ProductCassette, ProductMerch}

// Valid reports whether t is one of ProductTypes.
func (t ProductType) Valid() bool {
	for _, known := range ProductTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Product is an item sold in the shop.
type Product struct {
	ID          string          `json:"id"`
	Version     int64           `json:"version"`
	Name        string          `json:"name"`
	Type        ProductType     `json:"type"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Artist      string          `json:"artist,omitempty"`
	ArtistID    string          `json:"artistId,omitempty"`
	Release     string          `json:"release,omitempty"`
	ReleaseID   string          `json:"releaseId,omitempty"`
	Variants    []string        `json:"variants"`
	InStock     bool            `json:"inStock"`
	Featured    bool            `json:"featured"`
	Image       string          `json:"image"`
}

// ProductPatch carries the fields of a product write; nil fields are left untouched.
// ArtistID and ReleaseID that name known rows overwrite Artist and Release.
type ProductPatch struct {
	ID          *string          `json:"id,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Type        *ProductType     `json:"type,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Artist      *string          `json:"artist,omitempty"`
	ArtistID    *string          `json:"artistId,omitempty"`
	Release     *string          `json:"release,omitempty"`
	ReleaseID   *string          `json:"releaseId,omitempty"`
	Variants    *[]string        `json:"variants,omitempty"`
	InStock     *bool            `json:"inStock,omitempty"`
	Featured    *bool            `json:"featured,omitempty"`
	Image       *string          `json:"image,omitempty"`

	IfVersion *int64 `json:"-"`
}

// ProductFilter narrows ListProducts. Zero fields match everything.
type ProductFilter struct {
	Featured *bool
	InStock  *bool
	ArtistID string
	Type     ProductType
}

func (f ProductFilter) match(p *Product) bool {
	switch {
	case f.Featured != nil && p.Featured != *f.Featured:
		return false
	case f.InStock != nil && p.InStock != *f.InStock:
		return false
	case f.ArtistID != "" && p.ArtistID != f.ArtistID:
		return false
	case f.Type != "" && p.Type != f.Type:
		return false
	}
	return true
}

func (p *Product) key() string { return p.ID }
func (p *Product) setKey(id string) { p.ID = id }
func (p *Product) rev() int64 { return p.Version }
func (p *Product) setRev(v int64) { p.Version = v }
func (p *Product) clone() Product {
	out := *p
	out.Variants = cloneStrings(p.Variants)
	return out
}

func (p *Product) normalize() {
	if p.Variants == nil {
		p.Variants = []string{}
	}
	if strings.TrimSpace(p.Image) == "" {
		p.Image = DefaultImage
	}
}

func defaultProduct() Product {
	return Product{Type: ProductCD, Price: decimal.Zero, InStock: true}
}

func (pp ProductPatch) apply(p *Product) {
	setIf(&p.Name, pp.Name)
	setIf(&p.Type, pp.Type)
	setIf(&p.Price, pp.Price)
	setIf(&p.Description, pp.Description)
	setIf(&p.Artist, pp.Artist)
	setIf(&p.ArtistID, pp.ArtistID)
	setIf(&p.Release, pp.Release)
	setIf(&p.ReleaseID, pp.ReleaseID)
	setListIf(&p.Variants, pp.Variants)
	setIf(&p.InStock, pp.InStock)
	setIf(&p.Featured, pp.Featured)
	setIf(&p.Image, pp.Image)
	p.Name = strings.TrimSpace(p.Name)
	p.normalize()
}

// ProductRules are the fields every stored product must satisfy.
var ProductRules = []Rule[Product]{
	{Field: "name", Check: func(p *Product) string { return RequireText(p.Name) }},
	{Field: "type", Check: func(p *Product) string {
		if !p.Type.Valid() {
			return fmt.Sprintf("must be one of %v", ProductTypes)
		}
		return ""
	}},
	{Field: "price", Check: func(p *Product) string {
		if p.Price.IsNegative() {
			return "must not be negative"
		}
		return ""
	}},
}

// ValidateProduct checks p against ProductRules.
func ValidateProduct(p Product) error {
	return Validate(KindProducts, &p, ProductRules)
}

// ListProducts returns products in insertion order.
func (c *Catalog) ListProducts(f ProductFilter) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products.list(f.match)
}

// Product returns the product with the given id.
func (c *Catalog) Product(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products.get(id)
}

// UpsertProduct merges patch into the product with id, or creates a new product when id is empty.
func (c *Catalog) UpsertProduct(id string, patch ProductPatch) (Product, error) {
	c.mu.Lock()
	product, op, err := upsertRow(c, write[Product, *Product]{
		kind:      KindProducts,
		table:     c.products,
		id:        id,
		patchID:   patch.ID,
		ifVersion: patch.IfVersion,
		defaults:  defaultProduct,
		apply: func(p *Product) {
			patch.apply(p)
			if patch.ArtistID != nil {
				if band, ok := c.bands.get(p.ArtistID); ok {
					p.Artist = band.Name
				}
			}
			if patch.ReleaseID != nil {
				if release, ok := c.releases.get(p.ReleaseID); ok {
					p.Release = release.Title
				}
			}
		},
		validate: func(p *Product) error { return ValidateProduct(*p) },
	})
	c.mu.Unlock()

	if err != nil {
		return Product{}, err
	}
	c.notify(Event{Kind: KindProducts, Op: op, ID: product.ID})
	return product, nil
}

// RemoveProduct deletes the product with id and reports whether anything was removed.
func (c *Catalog) RemoveProduct(id string) bool {
	c.mu.Lock()
	removed := c.products.remove(id)
	c.mu.Unlock()

	if removed {
		c.notify(Event{Kind: KindProducts, Op: OpRemove, ID: id})
	}
	return removed
}
