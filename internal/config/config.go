package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Carton    CartonConfig    `yaml:"carton" mapstructure:"carton"`
	Retailers RetailerConfig  `yaml:"retailers" mapstructure:"retailers"`
	Freight   FreightConfig   `yaml:"freight" mapstructure:"freight"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for the vendor-tier classifier.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	// RatePerSec caps classifier calls; 0 disables the limit.
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`
}

// CartonConfig configures vendor-tier classification.
type CartonConfig struct {
	RulesPath        string   `yaml:"rules_path" mapstructure:"rules_path"`
	FlatpackVendors  []string `yaml:"flatpack_vendors" mapstructure:"flatpack_vendors"`
	AssembledVendors []string `yaml:"assembled_vendors" mapstructure:"assembled_vendors"`
	AIClassifier     bool     `yaml:"ai_classifier" mapstructure:"ai_classifier"`
}

// RetailerConfig lists retailer domains, brands or crumbs per tier.
type RetailerConfig struct {
	HighEnd []string `yaml:"high_end" mapstructure:"high_end"`
	Value   []string `yaml:"value" mapstructure:"value"`
}

// FreightConfig holds freight rates and surcharge percentages. Percentages
// are fractions: 0.10 means 10%.
type FreightConfig struct {
	RatePerFt3              float64 `yaml:"rate_per_ft3" mapstructure:"rate_per_ft3"`
	BufferPct               float64 `yaml:"buffer_pct" mapstructure:"buffer_pct"`
	FragilePct              float64 `yaml:"fragile_pct" mapstructure:"fragile_pct"`
	OversizePct             float64 `yaml:"oversize_pct" mapstructure:"oversize_pct"`
	MultiCartonPct          float64 `yaml:"multi_carton_pct" mapstructure:"multi_carton_pct"`
	HighEndCratePct         float64 `yaml:"high_end_crate_pct" mapstructure:"high_end_crate_pct"`
	RatePerLb               float64 `yaml:"rate_per_lb" mapstructure:"rate_per_lb"`
	PercentOfPrice          float64 `yaml:"percent_of_price" mapstructure:"percent_of_price"`
	MultiCartonThresholdFt3 float64 `yaml:"multi_carton_threshold_ft3" mapstructure:"multi_carton_threshold_ft3"`
	OversizeThresholdIn     float64 `yaml:"oversize_threshold_in" mapstructure:"oversize_threshold_in"`
}

// ResolverConfig holds the cubic-foot resolver's floor, safety factor and
// clamp bounds.
type ResolverConfig struct {
	SafetyFactor float64 `yaml:"safety_factor" mapstructure:"safety_factor"`
	MinChargeFt3 float64 `yaml:"min_charge_ft3" mapstructure:"min_charge_ft3"`
	ClampMin     float64 `yaml:"clamp_min" mapstructure:"clamp_min"`
	ClampMax     float64 `yaml:"clamp_max" mapstructure:"clamp_max"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path looks
// for an optional ./config.yaml; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("DIMFREIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	d := DefaultTuning()
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("anthropic.rate_per_sec", 5.0)
	v.SetDefault("anthropic.burst", 5)
	v.SetDefault("carton.rules_path", "")
	v.SetDefault("carton.ai_classifier", false)
	v.SetDefault("carton.flatpack_vendors", []string{})
	v.SetDefault("carton.assembled_vendors", []string{})
	v.SetDefault("retailers.high_end", []string{})
	v.SetDefault("retailers.value", []string{})
	v.SetDefault("freight.rate_per_ft3", d.Freight.RatePerFt3)
	v.SetDefault("freight.buffer_pct", d.Freight.BufferPct)
	v.SetDefault("freight.fragile_pct", d.Freight.FragilePct)
	v.SetDefault("freight.oversize_pct", d.Freight.OversizePct)
	v.SetDefault("freight.multi_carton_pct", d.Freight.MultiCartonPct)
	v.SetDefault("freight.high_end_crate_pct", d.Freight.HighEndCratePct)
	v.SetDefault("freight.rate_per_lb", d.Freight.RatePerLb)
	v.SetDefault("freight.percent_of_price", d.Freight.PercentOfPrice)
	v.SetDefault("freight.multi_carton_threshold_ft3", d.Freight.MultiCartonThresholdFt3)
	v.SetDefault("freight.oversize_threshold_in", d.Freight.OversizeThresholdIn)
	v.SetDefault("resolver.safety_factor", d.Resolver.SafetyFactor)
	v.SetDefault("resolver.min_charge_ft3", d.Resolver.MinChargeFt3)
	v.SetDefault("resolver.clamp_min", d.Resolver.ClampMin)
	v.SetDefault("resolver.clamp_max", d.Resolver.ClampMax)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields the given mode depends on. Modes: "serve",
// "cli", "pricing" (no store) and "migrate".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.storeErrors()...)
		errs = append(errs, c.tuningErrors()...)
	case "cli":
		errs = append(errs, c.storeErrors()...)
		errs = append(errs, c.tuningErrors()...)
	case "pricing":
		errs = append(errs, c.tuningErrors()...)
	case "migrate":
		errs = append(errs, c.storeErrors()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Carton.AIClassifier && c.Anthropic.Key == "" {
		errs = append(errs, "anthropic.key is required when carton.ai_classifier is set")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) storeErrors() []string {
	switch c.Store.Driver {
	case "memory":
		return nil
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("store.driver %q must be postgres, sqlite or memory", c.Store.Driver)}
	}
}

func (c *Config) tuningErrors() []string {
	var errs []string
	f := c.Freight
	for name, v := range map[string]float64{
		"freight.buffer_pct":         f.BufferPct,
		"freight.fragile_pct":        f.FragilePct,
		"freight.oversize_pct":       f.OversizePct,
		"freight.multi_carton_pct":   f.MultiCartonPct,
		"freight.high_end_crate_pct": f.HighEndCratePct,
		"freight.percent_of_price":   f.PercentOfPrice,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, name+" must be between 0 and 1")
		}
	}
	if f.RatePerFt3 <= 0 {
		errs = append(errs, "freight.rate_per_ft3 must be > 0")
	}
	if f.RatePerLb < 0 {
		errs = append(errs, "freight.rate_per_lb must be >= 0")
	}

	r := c.Resolver
	if r.SafetyFactor < 1 {
		errs = append(errs, "resolver.safety_factor must be >= 1")
	}
	if r.ClampMin <= 0 || r.ClampMax <= r.ClampMin {
		errs = append(errs, "resolver.clamp_min must be > 0 and below resolver.clamp_max")
	}
	if r.MinChargeFt3 < 0 {
		errs = append(errs, "resolver.min_charge_ft3 must be >= 0")
	}
	// Map iteration order is random; keep messages stable.
	slices.Sort(errs)
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
