package carton

import (
	"regexp"

	"github.com/sells-group/dimfreight/internal/model"
)

// Profile describes how a coarse product family flattens into a carton.
type Profile struct {
	Name string `json:"name"`
	// Factor is the share of assembled volume kept after flattening.
	Factor float64 `json:"factor"`
	// Padding is added as a fraction of the base volume.
	Padding float64 `json:"padding"`
	// Boxes is the typical carton count.
	Boxes int `json:"boxes"`
	// ClampPct bounds the estimate to assembled×(1±ClampPct).
	ClampPct    float64 `json:"clamp_pct"`
	MinFloorFt3 float64 `json:"min_floor_ft3"`
}

type profileRule struct {
	re      *regexp.Regexp
	profile Profile
}

var profileRules = []profileRule{
	{
		re:      regexp.MustCompile(`(?i)\b(?:sofas?|sectionals?|loveseats?|couch(?:es)?|settees?|sleeper)\b`),
		profile: Profile{Name: "sofa", Factor: 0.40, Padding: 0.12, Boxes: 2, ClampPct: 0.60, MinFloorFt3: 20},
	},
	{
		re:      regexp.MustCompile(`(?i)\b(?:chairs?|stools?|armchairs?|recliners?|benches|bench|ottomans?)\b`),
		profile: Profile{Name: "chair", Factor: 0.60, Padding: 0.10, Boxes: 1, ClampPct: 0.50, MinFloorFt3: 3},
	},
	{
		re:      regexp.MustCompile(`(?i)\b(?:tables?|desks?|consoles?|sideboards?|buffets?)\b`),
		profile: Profile{Name: "table", Factor: 0.55, Padding: 0.08, Boxes: 1, ClampPct: 0.70, MinFloorFt3: 3},
	},
	{
		re:      regexp.MustCompile(`(?i)\b(?:beds?|bed ?frames?|headboards?|bunk ?beds?|daybeds?)\b`),
		profile: Profile{Name: "bed", Factor: 0.45, Padding: 0.08, Boxes: 2, ClampPct: 0.75, MinFloorFt3: 6},
	},
}

var defaultProfile = Profile{Name: "default", Factor: 0.55, Padding: 0.10, Boxes: 1, ClampPct: 0.60, MinFloorFt3: 2.2}

// ProfileFor picks the first profile whose pattern matches the facts'
// title, category or breadcrumbs.
func ProfileFor(f model.ProductFacts) Profile {
	head := f.HeadText()
	for _, r := range profileRules {
		if r.re.MatchString(head) {
			return r.profile
		}
	}
	return defaultProfile
}

// Profiles returns every profile in match order, default last.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profileRules)+1)
	for _, r := range profileRules {
		out = append(out, r.profile)
	}
	return append(out, defaultProfile)
}
