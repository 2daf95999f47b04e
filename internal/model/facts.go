package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Dims is a length/width/height triple in inches.
type Dims struct {
	LengthIn float64 `json:"length_in"`
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
}

// Valid reports whether all three dimensions are positive.
func (d *Dims) Valid() bool {
	return d != nil && d.LengthIn > 0 && d.WidthIn > 0 && d.HeightIn > 0
}

// Max returns the largest of the three dimensions.
func (d *Dims) Max() float64 {
	if d == nil {
		return 0
	}
	return max(d.LengthIn, d.WidthIn, d.HeightIn)
}

// VolumeIn3 returns the raw product of the three dimensions.
func (d *Dims) VolumeIn3() float64 {
	if !d.Valid() {
		return 0
	}
	return d.LengthIn * d.WidthIn * d.HeightIn
}

// Property is one structured name/value pair scraped from a listing.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductFacts is the normalized bag of product evidence handed to the
// engine. Zero values mean "unknown": PriceUSD, WeightLb and CartonCubicFeet
// of 0 are treated as absent, nil dims as not scraped.
type ProductFacts struct {
	SKU            string     `json:"sku,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	Breadcrumbs    []string   `json:"breadcrumbs,omitempty"`
	Category       string     `json:"category,omitempty"`
	Properties     []Property `json:"properties,omitempty"`
	VariantStrings []string   `json:"variant_strings,omitempty"`
	Vendor         string     `json:"vendor,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	Domain         string     `json:"domain,omitempty"`

	PriceUSD float64 `json:"price_usd,omitempty"`
	WeightLb float64 `json:"weight_lb,omitempty"`

	AssembledDims *Dims `json:"assembled_dims,omitempty"`
	ScrapedDims   *Dims `json:"scraped_dims,omitempty"`

	// BoxesText is a free-text multi-box manifest, one box per line.
	BoxesText string `json:"boxes_text,omitempty"`
	// OverrideBoxesText is an admin-entered manifest that short-circuits
	// vendor-tier estimation.
	OverrideBoxesText string `json:"override_boxes_text,omitempty"`
	// CartonCubicFeet is a volume the caller already resolved.
	CartonCubicFeet float64 `json:"carton_cubic_feet,omitempty"`

	text string
	head string
}

// Normalize returns a copy of f with its match text computed. Callers build
// facts once at the ingestion boundary and normalize them there.
func (f ProductFacts) Normalize() ProductFacts {
	f.text = buildText(f)
	f.head = buildHead(f)
	return f
}

// Text returns the lower-cased, NFKC-normalized text used for category
// matching. It is computed on demand when Normalize was not called.
func (f ProductFacts) Text() string {
	if f.text != "" {
		return f.text
	}
	return buildText(f)
}

// HeadText returns the normalized title, category and breadcrumbs only. It
// falls back to Text when none of those are set.
func (f ProductFacts) HeadText() string {
	if f.head == "" {
		f.head = buildHead(f)
	}
	if f.head == "" {
		return f.Text()
	}
	return f.head
}

// LeafCategory returns the explicit category when set, else the leaf crumb.
func (f ProductFacts) LeafCategory() string {
	if c := strings.TrimSpace(f.Category); c != "" {
		return c
	}
	return LeafCategory(f.Breadcrumbs)
}

func buildText(f ProductFacts) string {
	parts := make([]string, 0, 8+len(f.Breadcrumbs)+len(f.Properties)+len(f.VariantStrings))
	parts = append(parts, f.Title, f.Description)
	parts = append(parts, f.Breadcrumbs...)
	parts = append(parts, f.Category)
	for _, p := range f.Properties {
		parts = append(parts, p.Name+": "+p.Value)
	}
	parts = append(parts, f.VariantStrings...)
	return normalizeJoin(parts)
}

func buildHead(f ProductFacts) string {
	parts := make([]string, 0, 2+len(f.Breadcrumbs))
	parts = append(parts, f.Title, f.Category)
	parts = append(parts, f.Breadcrumbs...)
	return normalizeJoin(parts)
}

func normalizeJoin(parts []string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	joined := norm.NFKC.String(strings.Join(nonEmpty, " | "))
	// Casers carry state and are not shared across goroutines.
	return cases.Lower(language.Und).String(joined)
}
