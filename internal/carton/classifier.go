package carton

import (
	"context"
	"regexp"

	"github.com/sells-group/dimfreight/internal/model"
)

// Tier is a vendor's shipping style.
type Tier string

const (
	TierFlatpack  Tier = "flatpack"
	TierAssembled Tier = "assembled"
	TierNeutral   Tier = "neutral"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierFlatpack, TierAssembled, TierNeutral:
		return true
	}
	return false
}

// multiplier scales the flattened volume for the tier.
func (t Tier) multiplier() float64 {
	switch t {
	case TierAssembled:
		return 1.6
	case TierNeutral:
		return 1.25
	default:
		return 1.0
	}
}

// Classification is a classifier's tier verdict.
type Classification struct {
	Tier       Tier    `json:"tier"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Classifier infers a vendor tier from product text.
type Classifier interface {
	Classify(ctx context.Context, f model.ProductFacts) (Classification, error)
}

var (
	hardAssembled = regexp.MustCompile(`(?i)\b(?:appliances?|refrigerators?|fridges?|freezers?|washers?|dryers?|dishwashers?|ovens?|microwaves?|tvs?|televisions?|mattress(?:es)?|pianos?)\b`)
	flatpackHints = regexp.MustCompile(`(?i)\b(?:assembly required|requires assembly|some assembly|assembly instructions|easy assembly|self[- ]assembly|flat[- ]?pack(?:ed)?|ready[- ]to[- ]assemble|rta|knock[- ]?down)\b`)
	tvFurniture   = regexp.MustCompile(`(?i)\b(?:tv|television|media)\s+(?:stands?|consoles?|cabinets?|units?|tables?)\b`)
	assembledHint = regexp.MustCompile(`(?i)\b(?:fully assembled|arrives assembled|no assembly(?: required)?|ships assembled)\b`)
)

// HeuristicClassifier classifies by keyword. It never fails.
type HeuristicClassifier struct{}

// Classify implements Classifier.
func (HeuristicClassifier) Classify(_ context.Context, f model.ProductFacts) (Classification, error) {
	if c, ok := hardCategory(f); ok {
		return c, nil
	}
	text := f.Text()
	switch {
	case assembledHint.MatchString(text):
		return Classification{Tier: TierAssembled, Confidence: 0.7, Reason: "assembled keyword"}, nil
	case flatpackHints.MatchString(text):
		return Classification{Tier: TierFlatpack, Confidence: 0.75, Reason: "assembly keyword"}, nil
	default:
		return Classification{Tier: TierFlatpack, Confidence: 0.35, Reason: "default"}, nil
	}
}

// hardCategory catches goods that never ship flat.
func hardCategory(f model.ProductFacts) (Classification, bool) {
	head := f.HeadText()
	if hardAssembled.MatchString(head) && !tvFurniture.MatchString(head) {
		return Classification{Tier: TierAssembled, Confidence: 0.9, Reason: "hard assembled category"}, true
	}
	return Classification{}, false
}
