package replay

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultLedgerKey is the logical key of the instruction ledger table.
const DefaultLedgerKey = "replay/instructions"

// Ledger is an ExecutionSink that records every accepted instruction batch
// in the store. It never executes anything.
type Ledger struct {
	store  *store.Store
	key    string
	table  string
	runID  string
	batch  int
	logger *logger.Logger
}

// LedgerTotals summarizes the rows recorded for one run.
type LedgerTotals struct {
	Batches      int
	Liquidations int
	Longs        int
	Shorts       int
}

// NewLedger creates the ledger table for key if needed and returns a sink
// recording rows under runID.
func NewLedger(s *store.Store, key string, runID string, log *logger.Logger) (*Ledger, error) {
	if key == "" {
		key = DefaultLedgerKey
	}

	table := store.TableName(key)

	_, err := s.DB().Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			batch INTEGER,
			time TIMESTAMP,
			symbol TEXT,
			kind TEXT,
			target DOUBLE,
			strategy_name TEXT
		)
	`, table))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreUnavailable, err, "failed to create ledger table %s", table)
	}

	return &Ledger{
		store:  s,
		key:    key,
		table:  table,
		runID:  runID,
		batch:  0,
		logger: log,
	}, nil
}

// Submit implements rebalance.ExecutionSink. The batch is written in one
// transaction so it is either fully recorded or rejected.
func (l *Ledger) Submit(ctx context.Context, instructions []types.Instruction) error {
	tx, err := l.store.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	batch := l.batch + 1
	gross := decimal.Zero

	for _, instruction := range instructions {
		_, err := l.store.Builder().
			Insert(l.table).
			Columns("id", "run_id", "batch", "time", "symbol", "kind", "target", "strategy_name").
			Values(
				instruction.ID, l.runID, batch, instruction.Time, instruction.Symbol,
				string(instruction.Kind), instruction.Target, instruction.StrategyName,
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeSinkRejected, err, "failed to record instruction for %s", instruction.Symbol)
		}

		gross = gross.Add(decimal.NewFromFloat(math.Abs(instruction.Target)))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.batch = batch

	l.logger.Debug("Recorded instruction batch",
		zap.String("run_id", l.runID),
		zap.Int("batch", batch),
		zap.Int("instructions", len(instructions)),
		zap.String("gross_exposure", gross.StringFixed(4)),
	)

	return nil
}

// Totals counts the recorded instructions of the ledger's run by kind.
func (l *Ledger) Totals(ctx context.Context) (LedgerTotals, error) {
	rows, err := l.store.Builder().
		Select("kind", "COUNT(*)").
		From(l.table).
		Where(squirrel.Eq{"run_id": l.runID}).
		GroupBy("kind").
		RunWith(l.store.DB()).
		QueryContext(ctx)
	if err != nil {
		return LedgerTotals{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query ledger totals", err)
	}
	defer rows.Close()

	totals := LedgerTotals{Batches: l.batch}

	for rows.Next() {
		var (
			kind  string
			count int
		)

		if err := rows.Scan(&kind, &count); err != nil {
			return LedgerTotals{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan ledger totals", err)
		}

		switch types.InstructionKind(kind) {
		case types.InstructionKindLiquidate:
			totals.Liquidations = count
		case types.InstructionKindLong:
			totals.Longs = count
		case types.InstructionKindShort:
			totals.Shorts = count
		}
	}

	return totals, rows.Err()
}

// Export writes the ledger table to path as parquet, or as CSV when the path
// ends in ".csv".
func (l *Ledger) Export(path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return l.store.ExportCSV(l.key, path)
	}

	return l.store.ExportParquet(l.key, path)
}
