package cuft

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/dimfreight/internal/config"
	"github.com/sells-group/dimfreight/internal/geometry"
	"github.com/sells-group/dimfreight/internal/model"
)

func newTestResolver() *Resolver {
	return NewResolver(config.DefaultTuning().Resolver)
}

func TestResolve_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        Input
		source    model.CuftSource
		preSafety float64
		cuft      float64
	}{
		{
			name:      "sofa fallback",
			in:        Input{Category: "sofa"},
			source:    model.CuftFallback,
			preSafety: 56,
			cuft:      64.4,
		},
		{
			name:      "chair scraped cube",
			in:        Input{Category: "chair", ScrapedDims: &model.Dims{LengthIn: 20, WidthIn: 20, HeightIn: 20}},
			source:    model.CuftScrapedDims,
			preSafety: 4.63,
			cuft:      5.32,
		},
		{
			name:      "two box manifest",
			in:        Input{BoxesText: "20 x 43 x 45\n20 x 45 x 65"},
			source:    model.CuftActualBoxes,
			preSafety: 56.25,
			cuft:      64.69,
		},
		{
			name:      "no evidence",
			in:        Input{},
			source:    model.CuftFallback,
			preSafety: 11.33,
			cuft:      13.03,
		},
		{
			name:      "small scraped box raised to minimum charge",
			in:        Input{ScrapedDims: &model.Dims{LengthIn: 10, WidthIn: 10, HeightIn: 10}},
			source:    model.CuftScrapedDims,
			preSafety: 2.2,
			cuft:      2.53,
		},
		{
			name:      "small manifest box is not raised",
			in:        Input{BoxesText: "10 x 10 x 10"},
			source:    model.CuftActualBoxes,
			preSafety: 1,
			cuft:      1.15,
		},
	}

	r := newTestResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := r.Resolve(tt.in)
			assert.Equal(t, tt.source, got.Source)
			assert.InDelta(t, tt.preSafety, got.PreSafetyCuft, 0.001)
			assert.InDelta(t, tt.cuft, got.Cuft, 0.001)
			assert.InDelta(t, 1.15, got.SafetyFactor, 0.001)
			assert.False(t, got.Clamped)
		})
	}
}

func TestResolve_ManifestWinsOverScrapedDims(t *testing.T) {
	t.Parallel()

	got := newTestResolver().Resolve(Input{
		Category:    "sofa",
		ScrapedDims: &model.Dims{LengthIn: 90, WidthIn: 40, HeightIn: 36},
		BoxesText:   "20 x 43 x 45\n20 x 45 x 65",
	})
	assert.Equal(t, model.CuftActualBoxes, got.Source)
	assert.InDelta(t, 64.69, got.Cuft, 0.001)
	assert.Equal(t, 2, got.Meta["box_count"])
}

func TestResolve_ClampsHigh(t *testing.T) {
	t.Parallel()

	got := newTestResolver().Resolve(Input{BoxesText: "100 x 100 x 100"})
	assert.True(t, got.Clamped)
	assert.InDelta(t, 180.0, got.Cuft, 0.001)
	assert.InDelta(t, 578.7, got.PreSafetyCuft, 0.001)
}

func TestResolve_ClampsLow(t *testing.T) {
	t.Parallel()

	tun := config.DefaultTuning().Resolver
	tun.ClampMin = 2.0
	got := NewResolver(tun).Resolve(Input{BoxesText: "10 x 10 x 10"})
	assert.True(t, got.Clamped)
	assert.InDelta(t, 2.0, got.Cuft, 0.001)
}

func TestResolve_Totality(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	for _, c := range []string{"", "   ", "unknown", "Sofas", "Dining Table", "zzz", "Sectional Sofa", "Bedding"} {
		got := r.Resolve(Input{Category: c})
		assert.GreaterOrEqual(t, got.Cuft, 0.8, c)
		assert.LessOrEqual(t, got.Cuft, 180.0, c)
		assert.Equal(t, model.CuftFallback, got.Source, c)
	}
}

func TestResolve_SafetyFactorAppliedOnce(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	inputs := []Input{
		{Category: "chair"},
		{Category: "table"},
		{ScrapedDims: &model.Dims{LengthIn: 30, WidthIn: 22, HeightIn: 17}},
		{BoxesText: "12 x 12 x 12; 24 x 18 x 6"},
	}
	for _, in := range inputs {
		got := r.Resolve(in)
		if got.Clamped {
			continue
		}
		assert.InDelta(t, geometry.Round2(got.PreSafetyCuft*1.15), got.Cuft, 1e-9)
	}
}

func TestResolve_IgnoresIncompleteScrapedDims(t *testing.T) {
	t.Parallel()

	got := newTestResolver().Resolve(Input{
		Category:    "chair",
		ScrapedDims: &model.Dims{LengthIn: 20, WidthIn: 0, HeightIn: 20},
	})
	assert.Equal(t, model.CuftFallback, got.Source)
	assert.InDelta(t, 3.0, got.PreMinCuft, 0.001)
	assert.InDelta(t, 3.45, got.Cuft, 0.001)
}

func TestFallbackFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category string
		key      string
		cuft     float64
	}{
		{"sofa", "sofa", 56},
		{"Sofas", "sofa", 56},
		{"chair", "chair", 3},
		{"table", "table", 8},
		{"Dining Tables", "dining_table", 12},
		{"Sectional Sofa", "sectional", 75},
		{"Armchair", "chair", 3},
		{"Bedding", "bedding", 3},
		{"Platform Beds", "bed", 20},
		{"Widgets", "other", 11.33},
		{"", "other", 11.33},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			t.Parallel()
			key, v := FallbackFor(tt.category)
			assert.Equal(t, tt.key, key)
			assert.InDelta(t, tt.cuft, v, 0.001)
		})
	}
}
