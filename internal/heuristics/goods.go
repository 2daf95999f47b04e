package heuristics

import (
	"regexp"
	"strconv"

	"github.com/sells-group/dimfreight/internal/geometry"
)

var outdoorRe = word(`patio|outdoor|garden|umbrellas?|grills?|fire ?pits?|gazebos?|pergolas?|hammocks?|planters?|deck box(?:es)?|patio heaters?`)

var outdoorRules = []rule{
	{"umbrella", word(`umbrellas?`), 2},
	{"grill", word(`grills?|smokers?`), 12},
	{"fire_pit", word(`fire ?pits?`), 5},
	{"gazebo", word(`gazebos?|pergolas?`), 25},
	{"hammock", word(`hammocks?`), 2},
	{"planter", word(`planters?`), 3},
	{"dining_set", word(`(?:dining|conversation|bistro) sets?`), 30},
	{"deck_box", word(`deck box(?:es)?`), 8},
	{"heater", word(`heaters?`), 4},
}

const outdoorDefaultFt3 = 8.0

func estimateOutdoor(in Input) *Result {
	if !outdoorRe.MatchString(in.Head) {
		return nil
	}

	subtype, cuft := "outdoor", outdoorDefaultFt3
	if r, ok := firstRule(in.Head, outdoorRules); ok {
		subtype, cuft = r.name, r.cuft
	}

	return &Result{Family: "outdoor", Cuft: cuft, Meta: map[string]any{"subtype": subtype}}
}

var (
	applianceRe     = word(`appliances?|refrigerators?|fridges?|freezers?|washers?|washing machines?|dryers?|dishwashers?|ranges?|ovens?|stoves?|cooktops?|microwaves?|air conditioners?|humidifiers?|dehumidifiers?|vacuums?|blenders?|toasters?|coffee makers?|mixers?|air fryers?|kettles?`)
	applianceWordRe = word(`appliances?`)

	// Ranges and ovens need a kitchen qualifier; "price range" and "dutch
	// oven" are not appliances.
	rangeQualifierRe = word(`(?:gas|electric|induction|dual fuel|freestanding|slide[ -]in|wall|convection) (?:ranges?|ovens?|stoves?)|ranges?\b.*\bburners?`)
)

var applianceRules = []rule{
	{"refrigerator", word(`refrigerators?|fridges?`), 45},
	{"freezer", word(`freezers?`), 25},
	{"washer", word(`washers?|washing machines?`), 25},
	{"dryer", word(`dryers?`), 25},
	{"dishwasher", word(`dishwashers?`), 18},
	{"cooktop", word(`cooktops?`), 4},
	{"microwave", word(`microwaves?`), 4},
	{"air_conditioner", word(`air conditioners?`), 8},
	{"humidifier", word(`dehumidifiers?|humidifiers?`), 3},
	{"vacuum", word(`vacuums?`), 3},
	{"small_appliance", word(`blenders?|toasters?|coffee makers?|mixers?|air fryers?|kettles?`), 1.5},
}

const (
	rangeFt3            = 30.0
	applianceDefaultFt3 = 10.0
)

func estimateAppliance(in Input) *Result {
	if !applianceRe.MatchString(in.Head) {
		return nil
	}

	if r, ok := firstRule(in.Head, applianceRules); ok {
		return &Result{Family: "appliance", Cuft: r.cuft, Meta: map[string]any{"subtype": r.name}}
	}
	if rangeQualifierRe.MatchString(in.Head) {
		return &Result{Family: "appliance", Cuft: rangeFt3, Meta: map[string]any{"subtype": "range"}}
	}
	if !applianceWordRe.MatchString(in.Head) {
		return nil
	}
	return &Result{Family: "appliance", Cuft: applianceDefaultFt3, Meta: map[string]any{"subtype": "appliance"}}
}

var (
	electronicsRe = word(`tvs?|televisions?|monitors?|speakers?|soundbars?|sound bars?|receivers?|computers?|desktops?|printers?|projectors?|laptops?|electronics`)
	tvRe          = word(`tvs?|televisions?`)
	screenSizeRe  = regexp.MustCompile(`(?i)\b(\d{2,3})\s*(?:"|″|”|''|-?\s*inch(?:es)?\b|-?in\b|\s*class\b)`)
)

var electronicsRules = []rule{
	{"monitor", word(`monitors?`), 2},
	{"speaker", word(`speakers?|soundbars?|sound bars?`), 1.5},
	{"receiver", word(`receivers?`), 2},
	{"laptop", word(`laptops?`), 1},
	{"computer", word(`computers?|desktops?`), 2.5},
	{"printer", word(`printers?`), 2},
	{"projector", word(`projectors?`), 1.5},
}

const (
	tvDefaultScreenIn  = 55.0
	tvBoxDepthIn       = 7.0
	electronicsDefault = 1.5
)

// tvScreenInches returns the first diagonal in a plausible TV range.
func tvScreenInches(text string) float64 {
	for _, m := range screenSizeRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v >= 19 && v <= 120 {
			return v
		}
	}
	return tvDefaultScreenIn
}

func estimateElectronics(in Input) *Result {
	if !electronicsRe.MatchString(in.Head) {
		return nil
	}

	if tvRe.MatchString(in.Head) {
		s := tvScreenInches(in.Text)
		// 16:9 panel plus retail box margins.
		w := 0.87*s + 6
		h := 0.49*s + 8
		return &Result{
			Family: "electronics",
			Cuft:   geometry.BoxVolumeFt3(h, w, tvBoxDepthIn),
			Meta:   map[string]any{"subtype": "tv", "screen_in": s, "fragile": true},
		}
	}

	subtype, cuft := "electronics", electronicsDefault
	if r, ok := firstRule(in.Head, electronicsRules); ok {
		subtype, cuft = r.name, r.cuft
	}
	return &Result{Family: "electronics", Cuft: cuft, Meta: map[string]any{"subtype": subtype}}
}

var gymRe = word(`treadmills?|ellipticals?|exercise bikes?|stationary bikes?|spin bikes?|rowers?|rowing machines?|weight bench(?:es)?|power racks?|squat racks?|home gyms?|dumbbells?|kettlebells?|weight plates?|yoga mats?|fitness|gym`)

var gymRules = []rule{
	{"treadmill", word(`treadmills?`), 30},
	{"elliptical", word(`ellipticals?`), 25},
	{"bike", word(`exercise bikes?|stationary bikes?|spin bikes?`), 12},
	{"rower", word(`rowers?|rowing machines?`), 14},
	{"bench", word(`weight bench(?:es)?`), 8},
	{"rack", word(`power racks?|squat racks?|home gyms?`), 30},
	{"weights", word(`dumbbells?|kettlebells?|weight plates?`), 1},
	{"mat", word(`yoga mats?`), 0.5},
}

const gymDefaultFt3 = 6.0

func estimateGym(in Input) *Result {
	if !gymRe.MatchString(in.Head) {
		return nil
	}

	subtype, cuft := "gym", gymDefaultFt3
	if r, ok := firstRule(in.Head, gymRules); ok {
		subtype, cuft = r.name, r.cuft
	}
	return &Result{Family: "gym", Cuft: cuft, Meta: map[string]any{"subtype": subtype}}
}

var babyRe = word(`baby|nursery|cribs?|changing tables?|high ?chairs?|strollers?|bassinets?|car seats?|play ?yards?|playpens?`)

var babyRules = []rule{
	{"crib", word(`cribs?`), 10},
	{"changing_table", word(`changing tables?`), 8},
	{"high_chair", word(`high ?chairs?`), 4},
	{"stroller", word(`strollers?`), 5},
	{"bassinet", word(`bassinets?`), 4},
	{"car_seat", word(`car seats?`), 4},
	{"play_yard", word(`play ?yards?|playpens?`), 3},
}

const babyDefaultFt3 = 3.0

func estimateBaby(in Input) *Result {
	if !babyRe.MatchString(in.Head) {
		return nil
	}

	subtype, cuft := "baby", babyDefaultFt3
	if r, ok := firstRule(in.Head, babyRules); ok {
		subtype, cuft = r.name, r.cuft
	}
	return &Result{Family: "baby", Cuft: cuft, Meta: map[string]any{"subtype": subtype}}
}
