package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-research/internal/config"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/rebalance"
	"github.com/rxtech-lab/argo-research/internal/replay"
	"github.com/rxtech-lab/argo-research/internal/signals"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// environment is what every subcommand needs: the loaded config, a logger and
// an open store.
type environment struct {
	config config.SignalsConfig
	log    *logger.Logger
	store  *store.Store
}

func setup(cmd *cli.Command) (*environment, error) {
	cfg := config.DefaultSignalsConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.LoadSignalsConfig(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if path := cmd.String("store"); path != "" {
		cfg.Store.Path = path
	}

	options := []logger.Option{logger.WithDebug(cmd.Bool("debug"))}
	if output := cmd.String("log-output"); output != "" {
		options = append(options, logger.WithOutput(output))
	}

	log, err := logger.NewLogger(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.Options(), log)
	if err != nil {
		return nil, err
	}

	return &environment{config: cfg, log: log, store: s}, nil
}

func (e *environment) close() {
	e.store.Close()
	e.log.Sync()
}

// importTable loads a parquet or CSV file into the table of key.
func importTable(s *store.Store, key string, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return s.ImportCSV(key, path)
	}

	return s.ImportParquet(key, path)
}

func joinAction(ctx context.Context, cmd *cli.Command) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	keys := env.config.Keys()

	if path := cmd.String("predictions-file"); path != "" {
		if err := importTable(env.store, keys.Predictions, path); err != nil {
			return err
		}
	}

	if path := cmd.String("prices-file"); path != "" {
		if err := importTable(env.store, keys.Prices, path); err != nil {
			return err
		}
	}

	result, err := signals.NewAssembler(env.store, env.log).Assemble(ctx, keys, env.config.Bounds())
	if err != nil {
		return err
	}

	fmt.Println(renderSelection(result))

	if path := cmd.String("export"); path != "" {
		if err := env.store.ExportParquet(keys.Output, path); err != nil {
			return err
		}

		fmt.Println(HelpStyle.Render("Joined table exported to " + path))
	}

	return nil
}

func newRebalancer(cfg config.SignalsConfig, sink rebalance.ExecutionSink, log *logger.Logger) (rebalance.Rebalancer, error) {
	if cfg.Mode == config.ModeBar {
		return rebalance.NewBarRebalancer("bar", cfg.Bar, sink, log)
	}

	return rebalance.NewFactorRebalancer("factor", cfg.Rebalance, cfg.Every, sink, log)
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	records, err := env.store.ReadSignals(env.config.Output, env.config.Bounds())
	if err != nil {
		return err
	}

	runID := uuid.New().String()

	ledger, err := replay.NewLedger(env.store, env.config.Ledger, runID, env.log)
	if err != nil {
		return err
	}

	rebalancer, err := newRebalancer(env.config, ledger, env.log)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onStart := replay.OnReplayStartCallback(func(runID string, name string, total int) error {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s", name)),
			progressbar.OptionShowCount(),
		)

		return nil
	})
	onEvent := replay.OnEventCallback(func(current int, total int, decision rebalance.Decision) error {
		return bar.Add(1)
	})
	onEnd := replay.OnReplayEndCallback(func(err error) {
		if bar != nil {
			bar.Finish()
		}

		fmt.Println()
	})

	replayer := replay.NewReplayer(rebalancer, env.config.ReplayOptions(runID), env.log)

	summary, err := replayer.Run(ctx, records, replay.LifecycleCallbacks{
		OnReplayStart: &onStart,
		OnReplayEnd:   &onEnd,
		OnEvent:       &onEvent,
	})
	if err != nil {
		return err
	}

	totals, err := ledger.Totals(ctx)
	if err != nil {
		return err
	}

	fmt.Println(renderSummary(summary, totals))

	if path := cmd.String("export"); path != "" {
		if err := ledger.Export(path); err != nil {
			return err
		}

		fmt.Println(HelpStyle.Render("Ledger exported to " + path))
	}

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.DefaultSignalsConfig()
	dir := cmd.String("output")

	schemaName := "signals-config.json"

	if err := config.WriteSchemaFile(&cfg, filepath.Join(dir, schemaName)); err != nil {
		return err
	}

	if err := config.WriteSampleConfig(cfg, filepath.Join(dir, "signals-config.yaml"), schemaName); err != nil {
		return err
	}

	fmt.Println(HelpStyle.Render("Schema written to " + dir))

	return nil
}

func main() {
	storeFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the signals YAML config",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Overrides the store path of the config",
		},
		&cli.StringFlag{
			Name:    "export",
			Aliases: []string{"o"},
			Usage:   "Export the resulting table to this parquet (or .csv) file",
		},
	}

	cmd := &cli.Command{
		Name:    "signals",
		Usage:   "Assemble prediction signals and replay them through a long/short rebalancer",
		Version: version.Version,
		Flags: []cli.Flag{
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
				Name:  "join",
				Usage: "Select the best hyperparameter and join its predictions onto the prices",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "predictions-file",
						Usage: "Import predictions from this parquet or CSV file first",
					},
					&cli.StringFlag{
						Name:  "prices-file",
						Usage: "Import prices from this parquet or CSV file first",
					},
				}, storeFlags...),
				Action: joinAction,
			},
			{
				Name:   "replay",
				Usage:  "Replay the joined table through the configured rebalancer",
				Flags:  storeFlags,
				Action: replayAction,
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
