package config

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/rebalance"
	"github.com/rxtech-lab/argo-research/internal/replay"
	"github.com/rxtech-lab/argo-research/internal/signals"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/pkg/errors"
)

// Rebalancing modes.
const (
	ModeFactor = "factor"
	ModeBar    = "bar"
)

// SignalsConfig configures signal assembly and replay.
type SignalsConfig struct {
	Store       StoreConfig                `yaml:"store" json:"store" jsonschema:"title=Store,description=Tabular store settings"`
	Predictions string                     `yaml:"predictions" json:"predictions" jsonschema:"title=Predictions,description=Logical key of the predictions table" validate:"required"`
	Prices      string                     `yaml:"prices" json:"prices" jsonschema:"title=Prices,description=Logical key of the price table" validate:"required"`
	Output      string                     `yaml:"output" json:"output" jsonschema:"title=Output,description=Logical key of the joined signal table" validate:"required"`
	StartTime   optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional lower bound on prediction and price timestamps"`
	EndTime     optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional upper bound on prediction and price timestamps"`
	Symbols     []string                   `yaml:"symbols,omitempty" json:"symbols,omitempty" jsonschema:"title=Symbols,description=Restricts the universe when not empty"`
	Mode        string                     `yaml:"mode" json:"mode" jsonschema:"title=Mode,description=Rebalancer variant,enum=factor,enum=bar" validate:"oneof=factor bar"`
	Every       int                        `yaml:"every" json:"every" jsonschema:"title=Every,description=Rebalance every n-th event in factor mode,minimum=1" validate:"min=1"`
	Rebalance   rebalance.Config           `yaml:"rebalance" json:"rebalance" jsonschema:"title=Rebalance,description=Position bounds in factor mode"`
	Bar         rebalance.BarConfig        `yaml:"bar" json:"bar" jsonschema:"title=Bar,description=Position bounds in bar mode"`
	Ledger      string                     `yaml:"ledger" json:"ledger" jsonschema:"title=Ledger,description=Logical key of the instruction ledger" validate:"required"`
}

type signalsConfigYAML struct {
	Store       StoreConfig         `yaml:"store"`
	Predictions string              `yaml:"predictions"`
	Prices      string              `yaml:"prices"`
	Output      string              `yaml:"output"`
	StartTime   *time.Time          `yaml:"start_time,omitempty"`
	EndTime     *time.Time          `yaml:"end_time,omitempty"`
	Symbols     []string            `yaml:"symbols,omitempty"`
	Mode        string              `yaml:"mode"`
	Every       int                 `yaml:"every"`
	Rebalance   rebalance.Config    `yaml:"rebalance"`
	Bar         rebalance.BarConfig `yaml:"bar"`
	Ledger      string              `yaml:"ledger"`
}

// UnmarshalYAML implements custom unmarshaling for SignalsConfig. Keys missing
// from the document keep their current values.
func (c *SignalsConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	config := c.toYAML()
	config.StartTime = nil
	config.EndTime = nil

	if err := unmarshal(&config); err != nil {
		return err
	}

	c.Store = config.Store
	c.Predictions = config.Predictions
	c.Prices = config.Prices
	c.Output = config.Output
	c.Symbols = config.Symbols
	c.Mode = config.Mode
	c.Every = config.Every
	c.Rebalance = config.Rebalance
	c.Bar = config.Bar
	c.Ledger = config.Ledger

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// MarshalYAML writes the optional bounds as plain timestamps.
func (c SignalsConfig) MarshalYAML() (interface{}, error) {
	return c.toYAML(), nil
}

func (c SignalsConfig) toYAML() signalsConfigYAML {
	return signalsConfigYAML{
		Store:       c.Store,
		Predictions: c.Predictions,
		Prices:      c.Prices,
		Output:      c.Output,
		StartTime:   timePointer(c.StartTime),
		EndTime:     timePointer(c.EndTime),
		Symbols:     c.Symbols,
		Mode:        c.Mode,
		Every:       c.Every,
		Rebalance:   c.Rebalance,
		Bar:         c.Bar,
		Ledger:      c.Ledger,
	}
}

// Validate checks the configuration, including the bounds of the selected mode.
func (c SignalsConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid signals config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "end_time is before start_time")
	}

	var err error
	if c.Mode == ModeBar {
		err = c.Bar.Validate()
	} else {
		err = c.Rebalance.Validate()
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid signals config", err)
	}

	return nil
}

// Keys returns the assembler table keys.
func (c SignalsConfig) Keys() signals.Keys {
	return signals.Keys{
		Predictions: c.Predictions,
		Prices:      c.Prices,
		Output:      c.Output,
	}
}

// Bounds returns the read filter of the assembler.
func (c SignalsConfig) Bounds() store.RangeFilter {
	return store.RangeFilter{
		Start:   c.StartTime,
		End:     c.EndTime,
		Symbols: c.Symbols,
	}
}

// ReplayOptions returns the replay options of the configured mode.
func (c SignalsConfig) ReplayOptions(runID string) replay.Options {
	return replay.Options{
		RunID:        runID,
		CarryForward: c.Mode == ModeBar,
	}
}

// GenerateSchema generates a JSON schema for the SignalsConfig
func (c *SignalsConfig) GenerateSchema() (*jsonschema.Schema, error) {
	return reflectSchema(c, "signals-config", "Configuration schema for signal assembly and replay"), nil
}

// GenerateSchemaJSON generates a JSON schema string for the SignalsConfig
func (c *SignalsConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	return schemaJSON(schema)
}

// DefaultSignalsConfig returns a SignalsConfig with default values
func DefaultSignalsConfig() SignalsConfig {
	return SignalsConfig{
		Store:       DefaultStoreConfig(),
		Predictions: "predictions",
		Prices:      "quandl/wiki/prices",
		Output:      signals.DefaultOutputKey,
		StartTime:   optional.None[time.Time](),
		EndTime:     optional.None[time.Time](),
		Symbols:     nil,
		Mode:        ModeFactor,
		Every:       1,
		Rebalance:   rebalance.DefaultConfig(),
		Bar:         rebalance.DefaultBarConfig(),
		Ledger:      replay.DefaultLedgerKey,
	}
}

// LoadSignalsConfig reads a YAML file over the defaults and validates it.
func LoadSignalsConfig(path string) (SignalsConfig, error) {
	config := DefaultSignalsConfig()
	if err := load(path, &config); err != nil {
		return SignalsConfig{}, err
	}

	if err := config.Validate(); err != nil {
		return SignalsConfig{}, err
	}

	return config, nil
}
