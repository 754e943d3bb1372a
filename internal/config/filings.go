package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-research/internal/filings"
	"github.com/rxtech-lab/argo-research/internal/inspect"
	"github.com/rxtech-lab/argo-research/internal/phrases"
	"github.com/rxtech-lab/argo-research/pkg/errors"
)

// FilingsConfig configures the filing text pipeline.
type FilingsConfig struct {
	Store             StoreConfig    `yaml:"store" json:"store" jsonschema:"title=Store,description=Tabular store settings"`
	RawDir            string         `yaml:"raw_dir" json:"raw_dir" jsonschema:"title=Raw Directory,description=Directory of raw filing text files" validate:"required"`
	SectionsDir       string         `yaml:"sections_dir" json:"sections_dir" jsonschema:"title=Sections Directory,description=Receives one item-text CSV per filing" validate:"required"`
	SentencesDir      string         `yaml:"sentences_dir" json:"sentences_dir" jsonschema:"title=Sentences Directory,description=Receives one item-sentence-text CSV per filing" validate:"required"`
	CorpusDir         string         `yaml:"corpus_dir" json:"corpus_dir" jsonschema:"title=Corpus Directory,description=Holds the ngrams corpus files" validate:"required"`
	Pattern           string         `yaml:"pattern" json:"pattern" jsonschema:"title=Pattern,description=Glob selecting raw filings,default=*.txt" validate:"required"`
	Delimiter         string         `yaml:"delimiter" json:"delimiter" jsonschema:"title=Delimiter,description=Section delimiter of the raw text" validate:"required"`
	MinSentenceTokens int            `yaml:"min_sentence_tokens" json:"min_sentence_tokens" jsonschema:"title=Min Sentence Tokens,description=Sentences with fewer kept tokens are dropped,minimum=0" validate:"min=0"`
	Stopwords         []string       `yaml:"stopwords,omitempty" json:"stopwords,omitempty" jsonschema:"title=Stopwords,description=Replaces the built-in English stopword list when not empty"`
	Phrases           phrases.Config `yaml:"phrases" json:"phrases" jsonschema:"title=Phrases,description=Phrase builder settings"`
	PhrasesExport     string         `yaml:"phrases_export,omitempty" json:"phrases_export,omitempty" jsonschema:"title=Phrases Export,description=Parquet file receiving the phrase table"`
	VocabularyExport  string         `yaml:"vocabulary_export,omitempty" json:"vocabulary_export,omitempty" jsonschema:"title=Vocabulary Export,description=Directory receiving the vocabulary tables as parquet"`
	TopN              int            `yaml:"top_n" json:"top_n" jsonschema:"title=Top N,description=Number of tokens listed by inspect,minimum=0" validate:"min=0"`
}

// Validate checks the configuration.
func (c FilingsConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid filings config", err)
	}

	return nil
}

// ExtractConfig returns the section extraction settings.
func (c FilingsConfig) ExtractConfig() filings.ExtractConfig {
	return filings.ExtractConfig{
		InputDir:  c.RawDir,
		OutputDir: c.SectionsDir,
		Pattern:   c.Pattern,
		Delimiter: c.Delimiter,
	}
}

// TokenizeConfig returns the tokenization settings.
func (c FilingsConfig) TokenizeConfig() filings.TokenizeConfig {
	return filings.TokenizeConfig{
		SectionsDir:       c.SectionsDir,
		SentencesDir:      c.SentencesDir,
		CorpusDir:         c.CorpusDir,
		MinSentenceTokens: c.MinSentenceTokens,
	}
}

// Tokenizer builds the configured tokenizer.
func (c FilingsConfig) Tokenizer() *filings.Tokenizer {
	stopwords := filings.DefaultStopwords()
	if len(c.Stopwords) > 0 {
		stopwords = filings.NewStopwords(c.Stopwords...)
	}

	return filings.NewTokenizer(stopwords, c.MinSentenceTokens)
}

// GenerateSchema generates a JSON schema for the FilingsConfig
func (c *FilingsConfig) GenerateSchema() (*jsonschema.Schema, error) {
	return reflectSchema(c, "filings-config", "Configuration schema for the filing text pipeline"), nil
}

// GenerateSchemaJSON generates a JSON schema string for the FilingsConfig
func (c *FilingsConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	return schemaJSON(schema)
}

// DefaultFilingsConfig returns a FilingsConfig with default values
func DefaultFilingsConfig() FilingsConfig {
	return FilingsConfig{
		Store:             DefaultStoreConfig(),
		RawDir:            "data/10k/raw",
		SectionsDir:       "data/10k/sections",
		SentencesDir:      "data/10k/sentences",
		CorpusDir:         "data/10k/ngrams",
		Pattern:           "*.txt",
		Delimiter:         filings.DefaultDelimiter,
		MinSentenceTokens: filings.DefaultMinSentenceTokens,
		Stopwords:         nil,
		Phrases:           phrases.DefaultConfig(),
		PhrasesExport:     "",
		VocabularyExport:  "",
		TopN:              inspect.DefaultTopN,
	}
}

// LoadFilingsConfig reads a YAML file over the defaults and validates it.
func LoadFilingsConfig(path string) (FilingsConfig, error) {
	config := DefaultFilingsConfig()
	if err := load(path, &config); err != nil {
		return FilingsConfig{}, err
	}

	if err := config.Validate(); err != nil {
		return FilingsConfig{}, err
	}

	return config, nil
}
