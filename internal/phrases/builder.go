package phrases

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// PhrasesKey is the logical key of the phrase table.
const PhrasesKey = "ngrams/phrases"

const maxLineSize = 16 * 1024 * 1024

// Config holds the phrase builder parameters.
type Config struct {
	MinCount  int     `yaml:"min_count" json:"min_count" jsonschema:"title=Min Count,description=Minimum bigram frequency for a pair to be scored,minimum=1,default=25" validate:"min=1"`
	Threshold float64 `yaml:"threshold" json:"threshold" jsonschema:"title=Threshold,description=Pairs scoring above this npmi are merged,minimum=-1,maximum=1,default=0.5" validate:"gte=-1,lte=1"`
	MaxLength int     `yaml:"max_length" json:"max_length" jsonschema:"title=Max Length,description=Highest n-gram level to build,minimum=2,default=3" validate:"min=2"`
	Delimiter string  `yaml:"delimiter" json:"delimiter" jsonschema:"title=Delimiter,description=Joins merged tokens,default=_" validate:"required"`
}

// DefaultConfig returns the default phrase builder parameters.
func DefaultConfig() Config {
	return Config{
		MinCount:  25,
		Threshold: 0.5,
		MaxLength: 3,
		Delimiter: "_",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// Builder runs the iterative phrase detection over a corpus directory.
type Builder struct {
	config Config
	dir    string
	log    *logger.Logger
}

// NewBuilder creates a builder for the corpus files in dir. ngrams_1.txt must
// exist before Run.
func NewBuilder(config Config, dir string, log *logger.Logger) (*Builder, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "phrase builder", err)
	}

	return &Builder{
		config: config,
		dir:    dir,
		log:    log,
	}, nil
}

// Run builds levels 2 through MaxLength. Each level scores the previous
// level's corpus and rewrites it with qualifying pairs merged. A level whose
// corpus file is at least as new as its input is not rewritten, but its
// phrases are still scored so the returned table covers every level. A
// rewritten level makes every higher level stale. Phrases are sorted by score.
func (b *Builder) Run(ctx context.Context) ([]types.Phrase, error) {
	var table []types.Phrase

	for n := 2; n <= b.config.MaxLength; n++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCancelled, "phrase building cancelled", err)
		}

		level, err := b.buildLevel(n)
		if err != nil {
			return nil, err
		}

		table = append(table, level...)
	}

	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Score != table[j].Score {
			return table[i].Score > table[j].Score
		}

		return table[i].Phrase < table[j].Phrase
	})

	return table, nil
}

func (b *Builder) buildLevel(n int) ([]types.Phrase, error) {
	input := CorpusFile(b.dir, n-1)
	output := CorpusFile(b.dir, n)

	counts := NewCounts()

	err := readCorpus(input, func(tokens []string) error {
		counts.Add(tokens)

		return nil
	})
	if err != nil {
		return nil, err
	}

	if counts.Words == 0 {
		return nil, errors.Newf(errors.ErrCodeCorpusEmpty, "corpus %s has no tokens", input)
	}

	merger := NewMerger(counts, b.config.MinCount, b.config.Threshold, b.config.Delimiter)
	best := make(map[string]float64)

	rewrite := func(tokens []string) ([]string, error) {
		merged, found := merger.Merge(tokens)

		for _, f := range found {
			if score, ok := best[f.Token]; !ok || f.Score > score {
				best[f.Token] = f.Score
			}
		}

		return merged, nil
	}

	skip := upToDate(output, input)
	if skip {
		err = readCorpus(input, func(tokens []string) error {
			_, err := rewrite(tokens)

			return err
		})
	} else {
		err = rewriteCorpus(input, output, rewrite)
	}

	if err != nil {
		return nil, err
	}

	phrases := make([]types.Phrase, 0, len(best))

	for token, score := range best {
		text := phraseText(token, b.config.Delimiter)

		phrases = append(phrases, types.Phrase{
			Phrase: text,
			Score:  score,
			Length: n,
			NGram:  len(strings.Fields(text)),
		})
	}

	b.log.Info("Built n-gram level",
		zap.Int("level", n),
		zap.String("input", input),
		zap.Bool("skipped", skip),
		zap.Int("words", counts.Words),
		zap.Int("vocabulary", len(counts.Unigrams)),
		zap.Int("phrases", len(phrases)),
	)

	return phrases, nil
}

// SavePhrases writes the phrase table to the store.
func SavePhrases(s *store.Store, phrases []types.Phrase) error {
	rows := make([][]any, 0, len(phrases))
	for _, p := range phrases {
		rows = append(rows, []any{p.Phrase, p.Score, p.Length, p.NGram})
	}

	return s.WriteTable(PhrasesKey, []store.Column{
		{Name: "phrase", Type: "TEXT"},
		{Name: "score", Type: "DOUBLE"},
		{Name: "length", Type: "INTEGER"},
		{Name: "ngram", Type: "INTEGER"},
	}, rows)
}

// upToDate reports whether output exists and was not modified before input.
func upToDate(output string, input string) bool {
	out, err := os.Stat(output)
	if err != nil {
		return false
	}

	in, err := os.Stat(input)
	if err != nil {
		return false
	}

	return !out.ModTime().Before(in.ModTime())
}

func readCorpus(path string, handle func(tokens []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrCodeCorpusMissing, err, "corpus %s not found", path)
		}

		return errors.Wrapf(errors.ErrCodeCorpusMissing, err, "failed to open %s", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := handle(strings.Fields(scanner.Text())); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(errors.ErrCodeCorpusMissing, err, "failed to read %s", path)
	}

	return nil
}

// rewriteCorpus writes the rewritten input to output through a temporary file.
func rewriteCorpus(input string, output string, rewrite func([]string) ([]string, error)) error {
	tmp := output + ".tmp"

	file, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to create %s", output)
	}

	writer := bufio.NewWriter(file)

	err = readCorpus(input, func(tokens []string) error {
		merged, err := rewrite(tokens)
		if err != nil {
			return err
		}

		_, err = writer.WriteString(strings.Join(merged, " ") + "\n")

		return err
	})
	if err == nil {
		err = writer.Flush()
	}

	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tmp)

		return err
	}

	return os.Rename(tmp, output)
}
