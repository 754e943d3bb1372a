package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/config"
	"github.com/rxtech-lab/argo-research/internal/filings"
	"github.com/rxtech-lab/argo-research/internal/inspect"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/phrases"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (config.FilingsConfig, error) {
	path := cmd.String("config")
	if path == "" {
		return config.DefaultFilingsConfig(), nil
	}

	return config.LoadFilingsConfig(path)
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	options := []logger.Option{logger.WithDebug(cmd.Bool("debug"))}
	if output := cmd.String("log-output"); output != "" {
		options = append(options, logger.WithOutput(output))
	}

	log, err := logger.NewLogger(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

// progress returns a file callback that drives a progress bar sized on the
// first call.
func progress(description string) (optional.Option[filings.OnProcessFileCallback], func()) {
	var bar *progressbar.ProgressBar

	callback := filings.OnProcessFileCallback(func(current int, total int) error {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
			)
		}

		return bar.Set(current)
	})

	finish := func() {
		if bar != nil {
			bar.Finish()
			fmt.Println()
		}
	}

	return optional.Some(callback), finish
}

func extractAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	callback, finish := progress("Extracting sections")

	report, err := filings.NewExtractor(cfg.ExtractConfig(), log).Run(ctx, callback)
	finish()

	fmt.Println(renderReport("Section extraction", report))

	return err
}

func tokenizeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	callback, finish := progress("Tokenizing filings")

	result, err := filings.NewPipeline(cfg.TokenizeConfig(), cfg.Tokenizer(), log).Run(ctx, callback)
	finish()

	fmt.Println(renderReport("Tokenization", result.Report))

	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.Options(), log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := filings.SaveVocabulary(s, result.Vocabulary); err != nil {
		return err
	}

	export := cfg.VocabularyExport
	if dir := cmd.String("export"); dir != "" {
		export = dir
	}

	if export != "" {
		if _, err := filings.ExportVocabulary(s, export); err != nil {
			return err
		}
	}

	fmt.Println(HelpStyle.Render(fmt.Sprintf("%d distinct tokens across %d documents", result.Vocabulary.Size(), result.Vocabulary.Documents())))

	return nil
}

func phrasesAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	builder, err := phrases.NewBuilder(cfg.Phrases, cfg.CorpusDir, log)
	if err != nil {
		return err
	}

	table, err := builder.Run(ctx)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.Options(), log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := phrases.SavePhrases(s, table); err != nil {
		return err
	}

	export := cfg.PhrasesExport
	if path := cmd.String("export"); path != "" {
		export = path
	}

	if export != "" {
		if err := s.ExportParquet(phrases.PhrasesKey, export); err != nil {
			return err
		}
	}

	fmt.Println(renderPhrases(table, cfg.TopN))

	return nil
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	s, err := store.Open(cfg.Store.Path, cfg.Store.Options(), log)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := inspect.NewInspector(s, log).Inspect(cfg.SentencesDir, cfg.TopN)
	if err != nil {
		return err
	}

	fmt.Println(renderInspection(report))

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.DefaultFilingsConfig()
	dir := cmd.String("output")

	schemaName := "filings-config.json"

	if err := config.WriteSchemaFile(&cfg, filepath.Join(dir, schemaName)); err != nil {
		return err
	}

	if err := config.WriteSampleConfig(cfg, filepath.Join(dir, "filings-config.yaml"), schemaName); err != nil {
		return err
	}

	fmt.Println(HelpStyle.Render("Schema written to " + dir))

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "filings",
		Usage:   "Extract, tokenize and mine phrases from 10-K filing text",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the filings YAML config",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-output",
				Usage: "Write logs to this file instead of stdout",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Split raw filings into item sections",
				Action: extractAction,
			},
			{
				Name:   "tokenize",
				Usage: "Tokenize sections into sentences and build the vocabulary",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "export",
						Aliases: []string{"o"},
						Usage:   "Export the vocabulary tables as parquet into this directory",
					},
				},
				Action: tokenizeAction,
			},
			{
				Name:  "phrases",
				Usage: "Detect multi-word phrases in the tokenized corpus",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "export",
						Aliases: []string{"o"},
						Usage:   "Export the phrase table to this parquet file",
					},
				},
				Action: phrasesAction,
			},
			{
				Name:   "inspect",
				Usage:  "Summarize the tokenized corpus",
				Action: inspectAction,
			},
			{
				Name:  "schema",
				Usage: "Write the config JSON schema and a sample config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Directory receiving the schema",
						Value: "config",
					},
				},
				Action: schemaAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
