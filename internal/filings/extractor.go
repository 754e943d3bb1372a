package filings

import (
	"context"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// ExtractConfig configures a section extraction batch.
type ExtractConfig struct {
	InputDir  string
	OutputDir string
	// Pattern selects the filings inside InputDir.
	Pattern   string
	Delimiter string
}

// Extractor writes one item,text CSV per filing.
type Extractor struct {
	config ExtractConfig
	log    *logger.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(config ExtractConfig, log *logger.Logger) *Extractor {
	if config.Pattern == "" {
		config.Pattern = "*.txt"
	}

	if config.Delimiter == "" {
		config.Delimiter = DefaultDelimiter
	}

	return &Extractor{
		config: config,
		log:    log,
	}
}

// Run extracts every filing whose CSV does not exist yet. A filing that fails
// is recorded in the report and the batch moves on.
func (e *Extractor) Run(ctx context.Context, onProcessFile optional.Option[OnProcessFileCallback]) (Report, error) {
	files, err := listInputs(e.config.InputDir, e.config.Pattern)
	if err != nil {
		return Report{}, err
	}

	if err := os.MkdirAll(e.config.OutputDir, 0755); err != nil {
		return Report{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to create %s", e.config.OutputDir)
	}

	e.log.Info("Extracting sections",
		zap.String("input", e.config.InputDir),
		zap.String("output", e.config.OutputDir),
		zap.Int("files", len(files)),
	)

	report := Report{}

	err = eachFile(ctx, files, e.log, &report, onProcessFile, func(path string) error {
		target := outputPath(e.config.OutputDir, path, ".csv")
		if exists(target) {
			report.Skipped++

			return nil
		}

		malformed, err := e.extractFile(path, target)
		report.Malformed += malformed

		if err != nil {
			return err
		}

		report.Processed++

		return nil
	})

	e.log.Info("Section extraction finished",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("malformed", report.Malformed),
		zap.Int("failed", len(report.Failed)),
	)

	return report, err
}

func (e *Extractor) extractFile(path string, target string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to read %s", path)
	}

	sections, malformed := ExtractSections(path, string(content), e.config.Delimiter)

	for _, header := range malformed {
		e.log.Warn("Skipping section", zap.Error(header))
	}

	if len(sections) == 0 {
		e.log.Debug("No item sections found", zap.String("path", path))
	}

	err = writeAtomic(target, func(file *os.File) error {
		return gocsv.MarshalFile(&sections, file)
	})
	if err != nil {
		return len(malformed), errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to write %s", target)
	}

	return len(malformed), nil
}

// ReadSections reads an item,text CSV written by the extractor.
func ReadSections(path string) ([]types.Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to open %s", path)
	}
	defer file.Close()

	var sections []types.Section
	if err := gocsv.UnmarshalFile(file, &sections); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDocumentFailed, err, "failed to parse %s", path)
	}

	return sections, nil
}
