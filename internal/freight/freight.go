// Package freight prices per-item freight through a cascade of strategies:
// explicit carton volume, category heuristics, weight and finally price.
package freight

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/sells-group/dimfreight/internal/config"
	"github.com/sells-group/dimfreight/internal/geometry"
	"github.com/sells-group/dimfreight/internal/heuristics"
	"github.com/sells-group/dimfreight/internal/model"
)

var (
	fragileRe  = regexp.MustCompile(`(?i)\b(?:glass|mirrors?|crystal)\b`)
	oversizeRe = regexp.MustCompile(`(?i)\boversized?\b`)
)

// Engine prices freight with a fixed tuning.
type Engine struct {
	rates     config.FreightTuning
	retailers config.RetailerTuning
}

// New creates an Engine.
func New(t config.Tuning) *Engine {
	return &Engine{rates: t.Freight, retailers: t.Retailers}
}

// surcharge is one multiplicative adjustment.
type surcharge struct {
	name string
	pct  float64
}

// CalcFreightSmart prices one item. The first applicable tier wins; the
// returned strategy log records every tier considered. A nil log uses the
// global logger.
func (e *Engine) CalcFreightSmart(f model.ProductFacts, log *zap.Logger) model.FreightQuoteLine {
	if log == nil {
		log = zap.L()
	}
	log = log.With(zap.String("sku", f.SKU))

	var trail []string
	var line model.FreightQuoteLine

	if f.CartonCubicFeet > 0 {
		line = e.volumeQuote(f, model.ModeCartonExplicit, f.CartonCubicFeet, &trail)
	} else if r, ok := heuristics.Match(f); ok {
		trail = append(trail, fmt.Sprintf("category: %s matched %.2f ft3", r.Family, r.Cuft))
		line = e.volumeQuote(f, model.CategoryMode(r.Family), r.Cuft, &trail)
	} else if f.WeightLb > 0 {
		amount := geometry.Round2(f.WeightLb * e.rates.RatePerLb * (1 + e.rates.BufferPct))
		trail = append(trail, "category: no match", fmt.Sprintf("weight_based: %.2f lb x %.2f/lb x (1+%.2f) = %.2f",
			f.WeightLb, e.rates.RatePerLb, e.rates.BufferPct, amount))
		line = model.FreightQuoteLine{Amount: amount, Mode: model.ModeWeightBased}
	} else {
		amount := geometry.Round2(f.PriceUSD * e.rates.PercentOfPrice)
		trail = append(trail, "category: no match", "weight_based: no weight", fmt.Sprintf("percent_of_price: %.2f x %.2f = %.2f",
			f.PriceUSD, e.rates.PercentOfPrice, amount))
		line = model.FreightQuoteLine{Amount: amount, Mode: model.ModePercentOfPrice}
	}
	line.StrategyLog = trail

	log.Info("freight: quoted",
		zap.String("strategy", line.Mode),
		zap.Float64("cuft", line.Cuft),
		zap.Float64("amount", line.Amount),
		zap.Strings("trail", trail),
	)
	return line
}

// volumeQuote prices cuft as cuft×rate×(1+buffer)×Π(1+surcharge). Rounding
// happens once on the final amount.
func (e *Engine) volumeQuote(f model.ProductFacts, mode string, cuft float64, trail *[]string) model.FreightQuoteLine {
	amount := cuft * e.rates.RatePerFt3 * (1 + e.rates.BufferPct)
	*trail = append(*trail, fmt.Sprintf("%s: %.2f ft3 x %.2f/ft3 x (1+%.2f)", mode, cuft, e.rates.RatePerFt3, e.rates.BufferPct))

	for _, s := range e.surcharges(f, cuft) {
		amount *= 1 + s.pct
		*trail = append(*trail, fmt.Sprintf("surcharge %s: x (1+%.2f)", s.name, s.pct))
	}

	amount = geometry.Round2(amount)
	*trail = append(*trail, fmt.Sprintf("amount: %.2f", amount))
	return model.FreightQuoteLine{Amount: amount, Mode: mode, Cuft: cuft}
}

// surcharges returns the applicable surcharges in application order.
func (e *Engine) surcharges(f model.ProductFacts, cuft float64) []surcharge {
	var out []surcharge
	if cuft >= e.rates.MultiCartonThresholdFt3 {
		out = append(out, surcharge{"multi_carton", e.rates.MultiCartonPct})
	}
	if fragileRe.MatchString(f.HeadText()) {
		out = append(out, surcharge{"fragile", e.rates.FragilePct})
	}
	if f.AssembledDims.Max() > e.rates.OversizeThresholdIn || oversizeRe.MatchString(f.Text()) {
		out = append(out, surcharge{"oversize", e.rates.OversizePct})
	}
	if e.RetailerTier(f) == RetailerHigh {
		out = append(out, surcharge{"high_end_crate", e.rates.HighEndCratePct})
	}
	return out
}
