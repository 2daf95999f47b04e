package model

// CuftSource tags where a cubic-foot figure came from.
type CuftSource string

const (
	CuftActualBoxes CuftSource = "actual_boxes"
	CuftScrapedDims CuftSource = "scraped_dims"
	CuftFallback    CuftSource = "fallback"
)

// CubicFootEstimate is the explainable result of resolving a single item's
// shipping volume. It is never persisted directly.
type CubicFootEstimate struct {
	Cuft          float64        `json:"cuft"`
	Source        CuftSource     `json:"source"`
	PreMinCuft    float64        `json:"pre_min_cuft"`
	PreSafetyCuft float64        `json:"pre_safety_cuft"`
	SafetyFactor  float64        `json:"safety_factor"`
	Clamped       bool           `json:"clamped"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// Freight quote modes.
const (
	ModeCartonExplicit = "carton_explicit"
	ModeWeightBased    = "weight_based"
	ModePercentOfPrice = "percent_of_price"
)

// CategoryMode returns the quote mode for a category-heuristic family.
func CategoryMode(family string) string {
	return "cat_" + family
}

// FreightQuoteLine is a per-item freight cost with its strategy trail.
type FreightQuoteLine struct {
	Amount      float64  `json:"amount"`
	Mode        string   `json:"mode"`
	Cuft        float64  `json:"cuft"`
	StrategyLog []string `json:"strategy_log"`
}
