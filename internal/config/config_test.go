package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) write(name string, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *ConfigTestSuite) TestDefaultSignalsConfig() {
	config := DefaultSignalsConfig()

	suite.NoError(config.Validate())
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(ModeFactor, config.Mode)
	suite.Equal(25, config.Rebalance.MaxLong)
	suite.False(config.ReplayOptions("").CarryForward)
}

func (suite *ConfigTestSuite) TestLoadSignalsConfig() {
	path := suite.write("signals.yaml", `
predictions: research/predictions
start_time: 2024-01-02T00:00:00Z
mode: bar
bar:
  n_positions: 4
  min_positions: 2
symbols: [AAPL, MSFT]
`)

	config, err := LoadSignalsConfig(path)
	suite.Require().NoError(err)

	suite.Equal("research/predictions", config.Predictions)
	suite.Equal("quandl/wiki/prices", config.Prices)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.True(config.EndTime.IsNone())
	suite.Equal(4, config.Bar.NPositions)
	suite.True(config.ReplayOptions("run").CarryForward)
	suite.Equal("run", config.ReplayOptions("run").RunID)

	bounds := config.Bounds()
	suite.Equal([]string{"AAPL", "MSFT"}, bounds.Symbols)
	suite.True(bounds.Start.IsSome())

	keys := config.Keys()
	suite.Equal("research/predictions", keys.Predictions)
	suite.Equal("signals/joined", keys.Output)
}

func (suite *ConfigTestSuite) TestSignalsConfigYAMLRoundTrip() {
	config := DefaultSignalsConfig()
	config.EndTime = optional.Some(time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC))

	content, err := yaml.Marshal(config)
	suite.Require().NoError(err)
	suite.Contains(string(content), "end_time:")
	suite.NotContains(string(content), "start_time:")

	var decoded SignalsConfig
	suite.Require().NoError(yaml.Unmarshal(content, &decoded))
	suite.True(decoded.StartTime.IsNone())
	suite.Equal(config.EndTime.Unwrap(), decoded.EndTime.Unwrap())
	suite.Equal(config.Rebalance, decoded.Rebalance)
}

func (suite *ConfigTestSuite) TestInvalidSignalsConfig() {
	tests := []struct {
		name    string
		content string
	}{
		{name: "mode", content: "mode: weekly\n"},
		{name: "every", content: "every: 0\n"},
		{name: "min above max", content: "rebalance:\n  max_long: 2\n  max_short: 2\n  min_long: 3\n  min_short: 1\n"},
		{name: "reversed bounds", content: "start_time: 2024-02-01T00:00:00Z\nend_time: 2024-01-01T00:00:00Z\n"},
		{name: "missing store", content: "store:\n  path: \"\"\n"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := LoadSignalsConfig(suite.write(tc.name+".yaml", tc.content))
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *ConfigTestSuite) TestMissingFile() {
	_, err := LoadSignalsConfig(filepath.Join(suite.dir, "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = LoadFilingsConfig(suite.write("broken.yaml", "raw_dir: [unterminated\n"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoadFilingsConfig() {
	path := suite.write("filings.yaml", `
raw_dir: raw
min_sentence_tokens: 3
stopwords: [company]
vocabulary_export: exports/vocab
phrases:
  min_count: 5
  threshold: 0.3
  max_length: 4
  delimiter: "_"
`)

	config, err := LoadFilingsConfig(path)
	suite.Require().NoError(err)

	suite.Equal("raw", config.ExtractConfig().InputDir)
	suite.Equal("°", config.ExtractConfig().Delimiter)
	suite.Equal(3, config.TokenizeConfig().MinSentenceTokens)
	suite.Equal(5, config.Phrases.MinCount)
	suite.Equal(4, config.Phrases.MaxLength)
	suite.Equal(20, config.TopN)
	suite.Equal("exports/vocab", config.VocabularyExport)
	suite.Empty(config.PhrasesExport)

	sentences, err := config.Tokenizer().Tokenize("The company grew revenue quickly.")
	suite.Require().NoError(err)
	suite.Require().Len(sentences, 1)
	suite.NotContains(sentences[0], "company")
}

func (suite *ConfigTestSuite) TestInvalidFilingsConfig() {
	config := DefaultFilingsConfig()
	config.Phrases.Threshold = 2

	suite.True(errors.HasCode(config.Validate(), errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	signalsConfig := &SignalsConfig{}
	schema, err := signalsConfig.GenerateSchema()

	suite.NoError(err)
	suite.Equal("signals-config", schema.Title)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)

	filingsConfig := &FilingsConfig{}
	schema, err = filingsConfig.GenerateSchema()

	suite.NoError(err)
	suite.Equal("filings-config", schema.Title)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &SignalsConfig{}
	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	var decoded map[string]interface{}
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &decoded))

	properties, ok := decoded["properties"].(map[string]interface{})
	suite.Require().True(ok)

	startTime, ok := properties["start_time"].(map[string]interface{})
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])
}

func (suite *ConfigTestSuite) TestSchemaReference() {
	suite.Equal("# yaml-language-server: $schema=signals-config.json\n", SchemaReference("signals-config.json"))
}

func (suite *ConfigTestSuite) TestWriteSchemaAndSample() {
	config := DefaultSignalsConfig()
	schemaPath := filepath.Join(suite.dir, "schemas", "signals-config.json")
	samplePath := filepath.Join(suite.dir, "schemas", "signals-config.yaml")

	suite.Require().NoError(WriteSchemaFile(&config, schemaPath))
	suite.Require().NoError(WriteSampleConfig(config, samplePath, "signals-config.json"))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Contains(string(content), "# yaml-language-server: $schema=signals-config.json")

	loaded, err := LoadSignalsConfig(samplePath)
	suite.Require().NoError(err)
	suite.Equal(config.Rebalance, loaded.Rebalance)

	suite.Require().NoError(os.WriteFile(samplePath, []byte("existing"), 0644))
	suite.Require().NoError(WriteSampleConfig(config, samplePath, "signals-config.json"))

	content, err = os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("existing", string(content))
}
