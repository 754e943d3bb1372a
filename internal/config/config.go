// Package config holds the YAML configuration of the signals and filings
// command line tools.
package config

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"gopkg.in/yaml.v3"
)

// StoreConfig locates and tunes the DuckDB store.
type StoreConfig struct {
	Path        string `yaml:"path" json:"path" jsonschema:"title=Path,description=DuckDB database file or :memory:" validate:"required"`
	MemoryLimit string `yaml:"memory_limit,omitempty" json:"memory_limit,omitempty" jsonschema:"title=Memory Limit,description=DuckDB memory limit such as 4GB"`
	Threads     int    `yaml:"threads,omitempty" json:"threads,omitempty" jsonschema:"title=Threads,description=DuckDB worker threads,minimum=0" validate:"min=0"`
}

// Options converts the settings to store options.
func (c StoreConfig) Options() store.Options {
	return store.Options{
		MemoryLimit: c.MemoryLimit,
		Threads:     c.Threads,
	}
}

// DefaultStoreConfig points at research.duckdb in the working directory.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Path:        "research.duckdb",
		MemoryLimit: "",
		Threads:     0,
	}
}

// load decodes the YAML file at path into target.
func load(path string, target any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(content, target); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
	}

	return nil
}

func reflector() jsonschema.Reflector {
	return jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}
}

func reflectSchema(value any, title string, description string) *jsonschema.Schema {
	r := reflector()

	schema := r.Reflect(value)
	schema.Title = title
	schema.Description = description
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

func schemaJSON(schema *jsonschema.Schema) (string, error) {
	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// SchemaReference is the yaml-language-server header of a sample config.
func SchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}

func timePointer(value optional.Option[time.Time]) *time.Time {
	if value.IsNone() {
		return nil
	}

	t := value.Unwrap()

	return &t
}
