package filings

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/phrases"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// TokenizeConfig configures a tokenization batch.
type TokenizeConfig struct {
	// SectionsDir holds the item,text CSVs written by the extractor.
	SectionsDir string
	// SentencesDir receives one item,sentence,text CSV per filing.
	SentencesDir string
	// CorpusDir receives the unigram corpus file for the phrase builder.
	CorpusDir         string
	MinSentenceTokens int
}

// TokenizeResult is the outcome of a tokenization batch.
type TokenizeResult struct {
	Report     Report
	Vocabulary Vocabulary
	// Corpus is the unigram corpus path, empty when it was left unchanged.
	Corpus string
}

// Pipeline tokenizes extracted sections and accumulates the vocabulary.
type Pipeline struct {
	config    TokenizeConfig
	tokenizer *Tokenizer
	log       *logger.Logger
}

// NewPipeline creates a tokenization pipeline. A nil tokenizer uses the
// default stopwords and config.MinSentenceTokens.
func NewPipeline(config TokenizeConfig, tokenizer *Tokenizer, log *logger.Logger) *Pipeline {
	if tokenizer == nil {
		tokenizer = NewTokenizer(DefaultStopwords(), config.MinSentenceTokens)
	}

	return &Pipeline{
		config:    config,
		tokenizer: tokenizer,
		log:       log,
	}
}

// TokenizeSections turns sections into sentence rows. Sentence numbers count
// the kept sentences of each item from zero.
func (t *Tokenizer) TokenizeSections(sections []types.Section) ([]types.SentenceRow, error) {
	var rows []types.SentenceRow

	for _, section := range sections {
		sentences, err := t.Tokenize(section.Text)
		if err != nil {
			return nil, err
		}

		for i, tokens := range sentences {
			rows = append(rows, types.SentenceRow{
				Item:     section.Item,
				Sentence: i,
				Text:     strings.Join(tokens, " "),
			})
		}
	}

	return rows, nil
}

// Run tokenizes every section CSV. Filings whose sentence CSV already exists
// are not tokenized again but still count toward the vocabulary and the
// corpus. The unigram corpus is rebuilt from every sentence CSV when it is
// missing or when any filing was tokenized in this run, so a filing repaired
// after a failed run reaches the phrase builder.
func (p *Pipeline) Run(ctx context.Context, onProcessFile optional.Option[OnProcessFileCallback]) (TokenizeResult, error) {
	files, err := listInputs(p.config.SectionsDir, "*.csv")
	if err != nil {
		return TokenizeResult{}, err
	}

	for _, dir := range []string{p.config.SentencesDir, p.config.CorpusDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return TokenizeResult{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to create %s", dir)
		}
	}

	corpusPath := phrases.CorpusFile(p.config.CorpusDir, 1)
	corpusExisted := exists(corpusPath)
	corpus := &corpusWriter{}

	if err := corpus.open(corpusPath); err != nil {
		return TokenizeResult{}, err
	}

	p.log.Info("Tokenizing sections",
		zap.String("input", p.config.SectionsDir),
		zap.String("output", p.config.SentencesDir),
		zap.Int("files", len(files)),
		zap.Bool("corpus_exists", corpusExisted),
	)

	result := TokenizeResult{Vocabulary: NewVocabulary()}

	err = eachFile(ctx, files, p.log, &result.Report, onProcessFile, func(path string) error {
		target := outputPath(p.config.SentencesDir, path, ".csv")

		var rows []types.SentenceRow

		if exists(target) {
			existing, err := ReadSentences(target)
			if err != nil {
				return err
			}

			rows = existing
			result.Report.Skipped++
		} else {
			tokenized, err := p.tokenizeFile(path, target)
			if err != nil {
				return err
			}

			rows = tokenized
			result.Report.Processed++
		}

		result.Vocabulary = result.Vocabulary.Add(rows)

		return corpus.write(rows)
	})

	publish := err == nil && (!corpusExisted || result.Report.Processed > 0)

	if closeErr := corpus.close(publish); closeErr != nil && err == nil {
		err = closeErr
	}

	if err == nil && publish {
		result.Corpus = corpusPath
	}

	p.log.Info("Tokenization finished",
		zap.Int("processed", result.Report.Processed),
		zap.Int("skipped", result.Report.Skipped),
		zap.Int("failed", len(result.Report.Failed)),
		zap.Int("documents", result.Vocabulary.Documents()),
		zap.Int("tokens", result.Vocabulary.Size()),
	)

	return result, err
}

func (p *Pipeline) tokenizeFile(path string, target string) ([]types.SentenceRow, error) {
	sections, err := ReadSections(path)
	if err != nil {
		return nil, err
	}

	rows, err := p.tokenizer.TokenizeSections(sections)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeTokenizeFailed, err, "failed to tokenize %s", path)
	}

	err = writeAtomic(target, func(file *os.File) error {
		return gocsv.MarshalFile(&rows, file)
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to write %s", target)
	}

	p.log.Debug("Tokenized filing",
		zap.String("path", path),
		zap.Int("sections", len(sections)),
		zap.Int("sentences", len(rows)),
	)

	return rows, nil
}

// ReadSentences reads an item,sentence,text CSV written by the pipeline.
func ReadSentences(path string) ([]types.SentenceRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []types.SentenceRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to parse %s", path)
	}

	return rows, nil
}

// corpusWriter writes one sentence per line through a temporary file.
type corpusWriter struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

func (c *corpusWriter) open(path string) error {
	file, err := os.Create(path + ".tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to create %s", path)
	}

	c.path = path
	c.file = file
	c.writer = bufio.NewWriter(file)

	return nil
}

func (c *corpusWriter) write(rows []types.SentenceRow) error {
	if c.writer == nil {
		return nil
	}

	for _, row := range rows {
		if _, err := c.writer.WriteString(row.Text + "\n"); err != nil {
			return errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to write %s", c.path)
		}
	}

	return nil
}

// close publishes the corpus when keep is set and removes it otherwise.
func (c *corpusWriter) close(keep bool) error {
	if c.file == nil {
		return nil
	}

	flushErr := c.writer.Flush()
	closeErr := c.file.Close()

	if !keep || flushErr != nil || closeErr != nil {
		os.Remove(c.path + ".tmp")

		return errors.Join(flushErr, closeErr)
	}

	return os.Rename(c.path+".tmp", c.path)
}
