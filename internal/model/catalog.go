package model

import (
	"regexp"
	"strings"
)

// Product is the catalog read model consumed by the pattern learner.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Vendor      string    `json:"vendor,omitempty"`
	Breadcrumbs []string  `json:"breadcrumbs,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
}

// Variant is one sellable SKU of a product.
type Variant struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	SKU       string           `json:"sku"`
	Packaging *PackagingRecord `json:"packaging,omitempty"`

	// Breadcrumbs are the parent product's crumbs, populated on lookups.
	Breadcrumbs []string `json:"breadcrumbs,omitempty"`
}

// LeafCategory returns the variant's leaf category.
func (v Variant) LeafCategory() string {
	return LeafCategory(v.Breadcrumbs)
}

var (
	skuPrefixed = regexp.MustCompile(`(?i)^(sku|item|model|style|part)\s*(no\.?|number|#)?\s*[:#]?\s*[a-z0-9][a-z0-9._/-]*$`)
	skuToken    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{3,}$`)
	hasDigit    = regexp.MustCompile(`[0-9]`)
)

// IsSKULike reports whether a breadcrumb looks like a SKU or item code rather
// than a category label.
func IsSKULike(crumb string) bool {
	c := strings.TrimSpace(crumb)
	if c == "" {
		return true
	}
	if !hasDigit.MatchString(c) {
		return false
	}
	if skuPrefixed.MatchString(c) {
		return true
	}
	return !strings.Contains(c, " ") && skuToken.MatchString(c)
}

// LeafCategory returns the last non-SKU-like breadcrumb, trimmed, or "" when
// none qualifies.
func LeafCategory(breadcrumbs []string) string {
	for i := len(breadcrumbs) - 1; i >= 0; i-- {
		if !IsSKULike(breadcrumbs[i]) {
			return strings.TrimSpace(breadcrumbs[i])
		}
	}
	return ""
}
