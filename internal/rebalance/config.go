package rebalance

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config bounds the number of long and short positions per rebalancing event.
type Config struct {
	MaxLong  int `yaml:"max_long" json:"max_long" jsonschema:"title=Max Long,description=Maximum number of long positions,minimum=0" validate:"min=0"`
	MaxShort int `yaml:"max_short" json:"max_short" jsonschema:"title=Max Short,description=Maximum number of short positions,minimum=0" validate:"min=0"`
	MinLong  int `yaml:"min_long" json:"min_long" jsonschema:"title=Min Long,description=Minimum number of long candidates required to trade,minimum=0" validate:"min=0,ltefield=MaxLong"`
	MinShort int `yaml:"min_short" json:"min_short" jsonschema:"title=Min Short,description=Minimum number of short candidates required to trade,minimum=0" validate:"min=0,ltefield=MaxShort"`
}

// Validate checks the bounds.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid rebalance config: %w", err)
	}

	return nil
}

// BarConfig is the symmetric configuration of the per-bar rebalancer.
type BarConfig struct {
	NPositions   int `yaml:"n_positions" json:"n_positions" jsonschema:"title=Positions,description=Maximum positions per side,minimum=1" validate:"min=1"`
	MinPositions int `yaml:"min_positions" json:"min_positions" jsonschema:"title=Min Positions,description=Minimum candidates per side required to trade,minimum=0" validate:"min=0,ltefield=NPositions"`
}

// Validate checks the bounds.
func (c BarConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid bar rebalance config: %w", err)
	}

	return nil
}

// Config expands the symmetric settings.
func (c BarConfig) Config() Config {
	return Config{
		MaxLong:  c.NPositions,
		MaxShort: c.NPositions,
		MinLong:  c.MinPositions,
		MinShort: c.MinPositions,
	}
}

// DefaultConfig mirrors the long/short book used in the research notebooks.
func DefaultConfig() Config {
	return Config{MaxLong: 25, MaxShort: 25, MinLong: 10, MinShort: 10}
}

// DefaultBarConfig returns the per-bar defaults.
func DefaultBarConfig() BarConfig {
	return BarConfig{NPositions: 10, MinPositions: 5}
}
