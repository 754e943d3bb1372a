// Package replay feeds a joined signal table through a rebalancer, one
// cross-section per timestamp.
package replay

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/rebalance"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// Options configure a replay.
type Options struct {
	// RunID identifies the replay. A random id is used when empty.
	RunID string
	// CarryForward makes every event carry the latest record of each symbol
	// seen so far, the way a per-bar engine exposes stale feeds.
	CarryForward bool
}

// Summary reports what a replay did.
type Summary struct {
	RunID        string
	Events       int
	Rebalances   int
	Skipped      int
	Empty        int
	Rejected     int
	Instructions int
	Final        types.PortfolioState
}

// Replayer drives one rebalancer over a sequence of signal records.
type Replayer struct {
	rebalancer rebalance.Rebalancer
	options    Options
	log        *logger.Logger
}

// NewReplayer creates a replayer for r.
func NewReplayer(r rebalance.Rebalancer, options Options, log *logger.Logger) *Replayer {
	return &Replayer{
		rebalancer: r,
		options:    options,
		log:        log,
	}
}

// Run groups records into cross-sections and hands each to the rebalancer in
// time order. Empty cross-sections are logged and skipped. The replay stops
// between events when ctx is cancelled.
func (r *Replayer) Run(ctx context.Context, records []types.SignalRecord, callbacks LifecycleCallbacks) (summary Summary, err error) {
	runID := r.options.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	summary = Summary{RunID: runID}

	defer func() {
		if callbacks.OnReplayEnd != nil {
			(*callbacks.OnReplayEnd)(err)
		}
	}()

	sections := types.GroupCrossSections(records)
	if r.options.CarryForward {
		sections = carryForward(sections)
	}

	if callbacks.OnReplayStart != nil {
		if err := (*callbacks.OnReplayStart)(runID, r.rebalancer.Name(), len(sections)); err != nil {
			return summary, errors.Wrap(errors.ErrCodeCallbackFailed, "replay start callback failed", err)
		}
	}

	r.log.Info("Starting replay",
		zap.String("run_id", runID),
		zap.String("rebalancer", r.rebalancer.Name()),
		zap.Int("events", len(sections)),
		zap.Bool("carry_forward", r.options.CarryForward),
	)

	for i, cs := range sections {
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.log.Warn("Replay cancelled",
				zap.String("run_id", runID),
				zap.Int("processed", summary.Events),
			)

			summary.Final = r.rebalancer.State()

			return summary, errors.Wrap(errors.ErrCodeCancelled, "replay cancelled", ctxErr)
		}

		summary.Events++

		decision, eventErr := r.rebalancer.OnEvent(ctx, cs)

		switch {
		case errors.IsEmptyCrossSectionError(eventErr):
			summary.Empty++

			r.log.Warn("Empty cross-section",
				zap.Time("time", cs.Time),
				zap.Int("records", len(cs.Records)),
			)
		case eventErr != nil:
			summary.Final = r.rebalancer.State()

			return summary, eventErr
		case decision.Skipped:
			summary.Skipped++
		default:
			summary.Rebalances++
			summary.Instructions += len(decision.Instructions)

			if decision.Rejected {
				summary.Rejected++
			}
		}

		if callbacks.OnEvent != nil {
			if err := (*callbacks.OnEvent)(i+1, len(sections), decision); err != nil {
				summary.Final = r.rebalancer.State()

				return summary, errors.Wrap(errors.ErrCodeCallbackFailed, "event callback failed", err)
			}
		}
	}

	summary.Final = r.rebalancer.State()

	r.log.Info("Replay finished",
		zap.String("run_id", runID),
		zap.Int("events", summary.Events),
		zap.Int("rebalances", summary.Rebalances),
		zap.Int("empty", summary.Empty),
		zap.Int("rejected", summary.Rejected),
		zap.Int("instructions", summary.Instructions),
		zap.Int("held", len(summary.Final)),
	)

	return summary, nil
}

// carryForward replaces each cross-section with the latest record of every
// symbol seen up to its time, ordered by symbol.
func carryForward(sections []types.CrossSection) []types.CrossSection {
	latest := make(map[string]types.SignalRecord)
	out := make([]types.CrossSection, 0, len(sections))

	for _, cs := range sections {
		for _, record := range cs.Records {
			latest[record.Symbol] = record
		}

		symbols := make([]string, 0, len(latest))
		for symbol := range latest {
			symbols = append(symbols, symbol)
		}

		sort.Strings(symbols)

		records := make([]types.SignalRecord, 0, len(symbols))
		for _, symbol := range symbols {
			records = append(records, latest[symbol])
		}

		out = append(out, types.CrossSection{Time: cs.Time, Records: records})
	}

	return out
}
