package config

import (
	"slices"
	"strings"
)

// Tuning is the immutable set of numeric constants and match lists the engine
// runs on. It is built once at startup and handed to each component by
// value; its slices are private copies.
type Tuning struct {
	Resolver  ResolverTuning
	Freight   FreightTuning
	Retailers RetailerTuning
	Carton    CartonTuning
}

// ResolverTuning drives the cubic-foot resolver.
type ResolverTuning struct {
	SafetyFactor float64
	MinChargeFt3 float64
	ClampMin     float64
	ClampMax     float64
}

// FreightTuning drives the freight pricing engine.
type FreightTuning struct {
	RatePerFt3              float64
	BufferPct               float64
	FragilePct              float64
	OversizePct             float64
	MultiCartonPct          float64
	HighEndCratePct         float64
	RatePerLb               float64
	PercentOfPrice          float64
	MultiCartonThresholdFt3 float64
	OversizeThresholdIn     float64
}

// RetailerTuning lists lower-cased retailer markers per tier.
type RetailerTuning struct {
	HighEnd []string
	Value   []string
}

// CartonTuning lists lower-cased vendor names per vendor tier.
type CartonTuning struct {
	FlatpackVendors  []string
	AssembledVendors []string
}

// DefaultTuning returns the built-in constants.
func DefaultTuning() Tuning {
	return Tuning{
		Resolver: ResolverTuning{
			SafetyFactor: 1.15,
			MinChargeFt3: 2.2,
			ClampMin:     0.8,
			ClampMax:     180,
		},
		Freight: FreightTuning{
			RatePerFt3:              12.50,
			BufferPct:               0.10,
			FragilePct:              0.15,
			OversizePct:             0.20,
			MultiCartonPct:          0.10,
			HighEndCratePct:         0.25,
			RatePerLb:               1.25,
			PercentOfPrice:          0.12,
			MultiCartonThresholdFt3: 25,
			OversizeThresholdIn:     80,
		},
	}
}

// Tuning builds the immutable tuning value from the loaded configuration.
func (c *Config) Tuning() Tuning {
	f, r := c.Freight, c.Resolver
	return Tuning{
		Resolver: ResolverTuning{
			SafetyFactor: r.SafetyFactor,
			MinChargeFt3: r.MinChargeFt3,
			ClampMin:     r.ClampMin,
			ClampMax:     r.ClampMax,
		},
		Freight: FreightTuning{
			RatePerFt3:              f.RatePerFt3,
			BufferPct:               f.BufferPct,
			FragilePct:              f.FragilePct,
			OversizePct:             f.OversizePct,
			MultiCartonPct:          f.MultiCartonPct,
			HighEndCratePct:         f.HighEndCratePct,
			RatePerLb:               f.RatePerLb,
			PercentOfPrice:          f.PercentOfPrice,
			MultiCartonThresholdFt3: f.MultiCartonThresholdFt3,
			OversizeThresholdIn:     f.OversizeThresholdIn,
		},
		Retailers: RetailerTuning{
			HighEnd: normalizeList(c.Retailers.HighEnd),
			Value:   normalizeList(c.Retailers.Value),
		},
		Carton: CartonTuning{
			FlatpackVendors:  normalizeList(c.Carton.FlatpackVendors),
			AssembledVendors: normalizeList(c.Carton.AssembledVendors),
		},
	}
}

// WithVendors returns a copy of t with extra vendor names merged in.
func (t Tuning) WithVendors(flatpack, assembled []string) Tuning {
	t.Carton = CartonTuning{
		FlatpackVendors:  normalizeList(append(slices.Clone(t.Carton.FlatpackVendors), flatpack...)),
		AssembledVendors: normalizeList(append(slices.Clone(t.Carton.AssembledVendors), assembled...)),
	}
	return t
}

// normalizeList lower-cases, trims, de-duplicates and sorts a match list.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
