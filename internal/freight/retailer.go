package freight

import (
	"strings"

	"github.com/sells-group/dimfreight/internal/model"
)

// RetailerTier groups retailers by how they crate and ship.
type RetailerTier string

const (
	RetailerHigh     RetailerTier = "high"
	RetailerValue    RetailerTier = "value"
	RetailerStandard RetailerTier = "standard"
)

// RetailerTier classifies the facts' domain, brand or breadcrumbs against the
// configured lists. High-end markers are checked first.
func (e *Engine) RetailerTier(f model.ProductFacts) RetailerTier {
	fields := retailerFields(f)
	if anyMarker(fields, e.retailers.HighEnd) {
		return RetailerHigh
	}
	if anyMarker(fields, e.retailers.Value) {
		return RetailerValue
	}
	return RetailerStandard
}

func retailerFields(f model.ProductFacts) []string {
	out := make([]string, 0, 2+len(f.Breadcrumbs))
	domain := strings.ToLower(strings.TrimSpace(f.Domain))
	domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
	domain = strings.TrimPrefix(domain, "www.")
	out = append(out, domain, strings.ToLower(strings.TrimSpace(f.Brand)))
	for _, c := range f.Breadcrumbs {
		out = append(out, strings.ToLower(strings.TrimSpace(c)))
	}
	return out
}

func anyMarker(fields, markers []string) bool {
	for _, m := range markers {
		for _, f := range fields {
			if f != "" && strings.Contains(f, m) {
				return true
			}
		}
	}
	return false
}
