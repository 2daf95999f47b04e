package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 256, cfg.Anthropic.MaxTokens)
	assert.InDelta(t, 5.0, cfg.Anthropic.RatePerSec, 0.001)
	assert.Equal(t, 5, cfg.Anthropic.Burst)
	assert.False(t, cfg.Carton.AIClassifier)
	assert.InDelta(t, 12.50, cfg.Freight.RatePerFt3, 0.001)
	assert.InDelta(t, 0.10, cfg.Freight.BufferPct, 0.001)
	assert.InDelta(t, 25.0, cfg.Freight.MultiCartonThresholdFt3, 0.001)
	assert.InDelta(t, 80.0, cfg.Freight.OversizeThresholdIn, 0.001)
	assert.InDelta(t, 1.15, cfg.Resolver.SafetyFactor, 0.001)
	assert.InDelta(t, 2.2, cfg.Resolver.MinChargeFt3, 0.001)
	assert.InDelta(t, 0.8, cfg.Resolver.ClampMin, 0.001)
	assert.InDelta(t, 180.0, cfg.Resolver.ClampMax, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
freight:
  rate_per_ft3: 15
carton:
  flatpack_vendors: [" IKEA ", "Zinus"]
retailers:
  high_end: [rh.com]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 15.0, cfg.Freight.RatePerFt3, 0.001)
	assert.Equal(t, []string{" IKEA ", "Zinus"}, cfg.Carton.FlatpackVendors)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.15, cfg.Freight.FragilePct, 0.001)

	tun := cfg.Tuning()
	assert.Equal(t, []string{"ikea", "zinus"}, tun.Carton.FlatpackVendors)
	assert.Equal(t, []string{"rh.com"}, tun.Retailers.HighEnd)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DIMFREIGHT_STORE_DRIVER", "postgres")
	t.Setenv("DIMFREIGHT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("DIMFREIGHT_SERVER_PORT", "3000")
	t.Setenv("DIMFREIGHT_RESOLVER_SAFETY_FACTOR", "1.2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 1.2, cfg.Resolver.SafetyFactor, 0.001)
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staging.yaml")
	yaml := `
store:
  driver: memory
server:
  port: 7070
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	d := DefaultTuning()
	cfg := &Config{}
	cfg.Store.Driver = "memory"
	cfg.Server.Port = 8080
	cfg.Freight = FreightConfig{
		RatePerFt3:              d.Freight.RatePerFt3,
		BufferPct:               d.Freight.BufferPct,
		FragilePct:              d.Freight.FragilePct,
		OversizePct:             d.Freight.OversizePct,
		MultiCartonPct:          d.Freight.MultiCartonPct,
		HighEndCratePct:         d.Freight.HighEndCratePct,
		RatePerLb:               d.Freight.RatePerLb,
		PercentOfPrice:          d.Freight.PercentOfPrice,
		MultiCartonThresholdFt3: d.Freight.MultiCartonThresholdFt3,
		OversizeThresholdIn:     d.Freight.OversizeThresholdIn,
	}
	cfg.Resolver = ResolverConfig{
		SafetyFactor: d.Resolver.SafetyFactor,
		MinChargeFt3: d.Resolver.MinChargeFt3,
		ClampMin:     d.Resolver.ClampMin,
		ClampMax:     d.Resolver.ClampMax,
	}
	return cfg
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()

	cfg.Store.Driver = "sqlite"
	err := cfg.Validate("migrate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "/tmp/dimfreight.db"
	assert.NoError(t, cfg.Validate("migrate"))

	cfg.Store.Driver = "mysql"
	err = cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be postgres, sqlite or memory")
}

func TestValidatePricingIgnoresStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	assert.NoError(t, cfg.Validate("pricing"))
	assert.Error(t, cfg.Validate("cli"))

	cfg.Freight.RatePerFt3 = 0
	err := cfg.Validate("pricing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "freight.rate_per_ft3 must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidatePercentBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Freight.BufferPct = -0.1
	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "freight.buffer_pct must be between 0 and 1")

	cfg.Freight.BufferPct = 0.1
	cfg.Freight.FragilePct = 1.5
	err = cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "freight.fragile_pct")

	cfg.Freight.FragilePct = 0.15
	assert.NoError(t, cfg.Validate("cli"))
}

func TestValidateResolverBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Resolver.SafetyFactor = 0.9
	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resolver.safety_factor must be >= 1")

	cfg.Resolver.SafetyFactor = 1.15
	cfg.Resolver.ClampMax = 0.5
	err = cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resolver.clamp_min")
}

func TestValidateAIClassifierNeedsKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Carton.AIClassifier = true

	err := cfg.Validate("cli")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("cli"))
}

func TestTuning_MatchesDefaults(t *testing.T) {
	t.Parallel()

	cfg := validDefaults()
	tun := cfg.Tuning()
	d := DefaultTuning()
	assert.Equal(t, d.Resolver, tun.Resolver)
	assert.Equal(t, d.Freight, tun.Freight)
}

func TestTuning_ListsAreCopies(t *testing.T) {
	t.Parallel()

	cfg := validDefaults()
	cfg.Retailers.HighEnd = []string{"RH.com"}
	tun := cfg.Tuning()

	cfg.Retailers.HighEnd[0] = "changed"
	assert.Equal(t, []string{"rh.com"}, tun.Retailers.HighEnd)
}

func TestTuning_WithVendors(t *testing.T) {
	t.Parallel()

	base := DefaultTuning()
	base.Carton.FlatpackVendors = []string{"ikea"}

	got := base.WithVendors([]string{"Zinus", "ikea"}, []string{"Ashley"})
	assert.Equal(t, []string{"ikea", "zinus"}, got.Carton.FlatpackVendors)
	assert.Equal(t, []string{"ashley"}, got.Carton.AssembledVendors)
	assert.Equal(t, []string{"ikea"}, base.Carton.FlatpackVendors)
}
