package signals

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// DefaultOutputKey is the logical key of the joined signal table.
const DefaultOutputKey = "signals/joined"

// Keys names the logical tables the assembler reads and writes.
type Keys struct {
	Predictions string
	Prices      string
	Output      string
}

// Result summarizes one assembly run.
type Result struct {
	Selection Selection
	Window    Window
	// Records is the number of joined rows written.
	Records int
	// Scored is the number of joined rows carrying a score.
	Scored int
}

// Assembler joins a prediction table with a price table inside a store.
type Assembler struct {
	store *store.Store
	log   *logger.Logger
}

// NewAssembler creates an assembler over s.
func NewAssembler(s *store.Store, log *logger.Logger) *Assembler {
	return &Assembler{
		store: s,
		log:   log,
	}
}

// Assemble loads the predictions inside bounds, selects the best
// hyperparameter, joins its predictions onto the prices and writes the
// joined table under keys.Output. It fails with ErrCodeNoPrices when the
// price table has no bars inside the prediction window.
func (a *Assembler) Assemble(ctx context.Context, keys Keys, bounds store.RangeFilter) (Result, error) {
	if keys.Output == "" {
		keys.Output = DefaultOutputKey
	}

	predictions, err := a.store.ReadPredictions(keys.Predictions, bounds)
	if err != nil {
		return Result{}, err
	}

	a.log.Info("Loaded predictions",
		zap.String("key", keys.Predictions),
		zap.Int("rows", len(predictions)),
	)

	selection, err := SelectParam(predictions)
	if err != nil {
		return Result{}, err
	}

	for _, score := range selection.Scores {
		a.log.Debug("Rank correlation",
			zap.String("param", score.Param),
			zap.Float64("correlation", score.Correlation),
			zap.Int("rows", score.Rows),
		)
	}

	a.log.Info("Selected hyperparameter",
		zap.String("param", selection.Param),
		zap.Float64("correlation", selection.Scores[0].Correlation),
	)

	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeCancelled, "assembly cancelled", err)
	}

	selected := make([]types.Prediction, 0, len(predictions))
	for _, p := range predictions {
		if p.Param == selection.Param {
			selected = append(selected, p)
		}
	}

	window, _ := WindowOf(selected)

	prices, err := a.store.ReadPrices(keys.Prices, store.RangeFilter{
		Start:   optional.Some(window.Start),
		End:     optional.Some(window.End),
		Symbols: window.Symbols,
	})
	if err != nil {
		return Result{}, err
	}

	if len(prices) == 0 {
		return Result{}, errors.Newf(errors.ErrCodeNoPrices,
			"no prices in %s between %s and %s", keys.Prices, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
	}

	records := Join(selection.Param, selected, prices)

	if err := ctx.Err(); err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeCancelled, "assembly cancelled", err)
	}

	if err := a.store.WriteSignals(keys.Output, records); err != nil {
		return Result{}, err
	}

	result := Result{
		Selection: selection,
		Window:    window,
		Records:   len(records),
		Scored:    0,
	}

	for _, record := range records {
		if record.Score.IsSome() {
			result.Scored++
		}
	}

	a.log.Info("Joined signals with prices",
		zap.String("output", keys.Output),
		zap.Int("records", result.Records),
		zap.Int("scored", result.Scored),
		zap.Time("start", window.Start),
		zap.Time("end", window.End),
	)

	return result, nil
}
