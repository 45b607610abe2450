// Config loader for the matching service: defaults, optional YAML files and
// environment overrides, validated before use.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Aidin1998/pincex_matching/internal/engine"
)

// Config is everything the matching service reads at startup.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Logging LoggingConfig `mapstructure:"logging"`
	Demo    DemoConfig    `mapstructure:"demo"`
}

// EngineConfig sizes the order book.
type EngineConfig struct {
	MaxPrice      uint32 `mapstructure:"max_price" validate:"min=2"`
	MaxOrders     int    `mapstructure:"max_orders" validate:"min=1"`
	SnapshotDepth int    `mapstructure:"snapshot_depth" validate:"min=1"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// DemoConfig drives the demo binary.
type DemoConfig struct {
	// Scenarios lists which demo scenarios to run; empty runs all of them.
	Scenarios []string `mapstructure:"scenarios"`
	// Depth is how many book levels the market-depth scenario prints.
	Depth int `mapstructure:"depth" validate:"min=1"`
}

var validate = validator.New()

// Load builds the configuration from defaults, any existing config files among
// configPaths (missing ones are skipped), and PINCEX_MATCH_* environment
// variables, in ascending precedence.
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PINCEX_MATCH")

	setDefaults(v)

	for _, path := range configPaths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key with its default value. Registration also
// makes the keys visible to the environment override pass.
func setDefaults(v *viper.Viper) {
	def := engine.DefaultConfig()

	v.SetDefault("engine.max_price", def.MaxPrice)
	v.SetDefault("engine.max_orders", def.MaxOrders)
	v.SetDefault("engine.snapshot_depth", def.SnapshotDepth)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("demo.scenarios", []string{})
	v.SetDefault("demo.depth", 5)
}

// validateConfig runs struct validation plus the rules tags cannot express.
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if cfg.Engine.MaxOrders > math.MaxInt32 {
		return fmt.Errorf("engine.max_orders %d exceeds the int32 slot index space", cfg.Engine.MaxOrders)
	}

	return nil
}

// EngineSettings converts the loaded settings into the engine's own config type.
func (c *Config) EngineSettings() engine.Config {
	return engine.Config{
		MaxPrice:      c.Engine.MaxPrice,
		MaxOrders:     c.Engine.MaxOrders,
		SnapshotDepth: c.Engine.SnapshotDepth,
	}
}
