package cuft

import "strings"

// FallbackOther is the volume used when no category entry applies.
const FallbackOther = 11.33

var fallbackExact = map[string]float64{
	"sofa":          56,
	"sectional":     75,
	"loveseat":      40,
	"chair":         3,
	"accent_chair":  12,
	"recliner":      20,
	"ottoman":       4,
	"bench":         6,
	"stool":         3,
	"table":         8,
	"dining_table":  12,
	"coffee_table":  6,
	"side_table":    3,
	"desk":          10,
	"bed":           20,
	"bedding":       3,
	"mattress":      8,
	"dresser":       22,
	"nightstand":    5,
	"bookcase":      12,
	"cabinet":       12,
	"media_console": 14,
	"rug":           4,
	"lamp":          3,
	"lighting":      3,
	"mirror":        5,
	"outdoor":       15,
	"decor":         2.5,
	"other":         FallbackOther,
}

// fallbackContains is checked in order when there is no exact key; longer,
// more specific names come before the words they contain.
var fallbackContains = []string{
	"sectional",
	"loveseat",
	"sofa",
	"recliner",
	"accent_chair",
	"dining_table",
	"coffee_table",
	"side_table",
	"media_console",
	"nightstand",
	"mattress",
	"bedding",
	"ottoman",
	"bookcase",
	"dresser",
	"cabinet",
	"chair",
	"stool",
	"bench",
	"table",
	"desk",
	"bed",
	"rug",
	"lamp",
	"lighting",
	"mirror",
	"outdoor",
	"decor",
}

// FallbackFor returns the fallback table key and volume for a category name.
// Unknown and empty categories map to "other".
func FallbackFor(category string) (string, float64) {
	key := normalizeKey(category)
	if key == "" {
		return "other", FallbackOther
	}
	if v, ok := fallbackExact[key]; ok {
		return key, v
	}
	for _, k := range fallbackContains {
		if strings.Contains(key, k) {
			return k, fallbackExact[k]
		}
	}
	return "other", FallbackOther
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_", "&", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	// Plural category names ("sofas", "chairs") share the singular entry.
	if strings.HasSuffix(s, "s") {
		if _, ok := fallbackExact[strings.TrimSuffix(s, "s")]; ok {
			return strings.TrimSuffix(s, "s")
		}
	}
	return s
}
