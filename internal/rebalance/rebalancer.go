package rebalance

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/shopspring/decimal"
)

// ExecutionSink receives the instructions of one rebalancing event.
// Implementations either accept the whole batch or return an error.
type ExecutionSink interface {
	Submit(ctx context.Context, instructions []types.Instruction) error
}

// Rebalancer turns cross-sections into target-weight instructions.
type Rebalancer interface {
	// Name identifies the rebalancer in instructions and logs.
	Name() string
	// OnEvent handles one rebalancing event.
	OnEvent(ctx context.Context, cs types.CrossSection) (Decision, error)
	// State returns a copy of the current portfolio state.
	State() types.PortfolioState
}

// Decision is the outcome of one rebalancing event.
type Decision struct {
	Time        time.Time
	Longs       []string
	Shorts      []string
	LongTarget  float64
	ShortTarget float64
	// Rejected is set when the minimum position gate emptied both sides.
	Rejected bool
	// Skipped is set when the event was not a rebalancing event.
	Skipped      bool
	Instructions []types.Instruction
	// Next is the portfolio state after every instruction is applied.
	Next types.PortfolioState
}

type candidate struct {
	symbol string
	score  float64
}

// Decide computes the long/short book for one cross-section.
//
// Up and down candidates are ranked by score with ties broken by symbol,
// truncated to the configured maximum and dropped together when either side
// falls short of its minimum. Held symbols outside the new book are
// liquidated. Targets are 1/max(MaxLong, longs) and -1/max(MaxShort, shorts),
// so a thin side holds less than full exposure.
func Decide(cs types.CrossSection, state types.PortfolioState, cfg Config) (Decision, error) {
	decision := Decision{
		Time:         cs.Time,
		Longs:        []string{},
		Shorts:       []string{},
		Instructions: []types.Instruction{},
		Next:         state.Clone(),
	}

	scored := cs.Scored()
	if len(scored) == 0 {
		return decision, errors.NewEmptyCrossSectionError(cs.Time)
	}

	var up, down []candidate

	for _, record := range scored {
		score := record.Score.Unwrap()

		switch {
		case score > 0:
			up = append(up, candidate{symbol: record.Symbol, score: score})
		case score < 0:
			down = append(down, candidate{symbol: record.Symbol, score: score})
		}
	}

	if len(up) == 0 && len(down) == 0 {
		return decision, nil
	}

	sort.SliceStable(up, func(i, j int) bool {
		if up[i].score != up[j].score {
			return up[i].score > up[j].score
		}

		return up[i].symbol < up[j].symbol
	})
	sort.SliceStable(down, func(i, j int) bool {
		if down[i].score != down[j].score {
			return down[i].score < down[j].score
		}

		return down[i].symbol < down[j].symbol
	})

	longs := symbols(up, cfg.MaxLong)
	shorts := symbols(down, cfg.MaxShort)

	if len(longs) < cfg.MinLong || len(shorts) < cfg.MinShort {
		longs, shorts = []string{}, []string{}
		decision.Rejected = true
	}

	book := make(map[string]struct{}, len(longs)+len(shorts))
	for _, symbol := range longs {
		book[symbol] = struct{}{}
	}

	for _, symbol := range shorts {
		book[symbol] = struct{}{}
	}

	for _, symbol := range state.Held() {
		if _, ok := book[symbol]; !ok {
			decision.Instructions = append(decision.Instructions, newInstruction(cs.Time, symbol, 0, types.InstructionKindLiquidate))
		}
	}

	decision.LongTarget = target(cfg.MaxLong, len(longs))
	if shortTarget := target(cfg.MaxShort, len(shorts)); shortTarget != 0 {
		decision.ShortTarget = -shortTarget
	}

	for _, symbol := range longs {
		decision.Instructions = append(decision.Instructions, newInstruction(cs.Time, symbol, decision.LongTarget, types.InstructionKindLong))
	}

	for _, symbol := range shorts {
		decision.Instructions = append(decision.Instructions, newInstruction(cs.Time, symbol, decision.ShortTarget, types.InstructionKindShort))
	}

	decision.Longs = longs
	decision.Shorts = shorts
	decision.Next = state.Apply(decision.Instructions)

	return decision, nil
}

func symbols(candidates []candidate, limit int) []string {
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.symbol)
	}

	return out
}

// target returns 1/max(slots, count), or zero when the side is empty.
func target(slots int, count int) float64 {
	if count == 0 {
		return 0
	}

	denominator := max(slots, count)

	return decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(denominator))).InexactFloat64()
}

func newInstruction(t time.Time, symbol string, weight float64, kind types.InstructionKind) types.Instruction {
	return types.Instruction{
		ID:           uuid.New().String(),
		Time:         t,
		Symbol:       symbol,
		Target:       weight,
		Kind:         kind,
		StrategyName: "",
	}
}

// stamp sets the strategy name on every instruction.
func stamp(instructions []types.Instruction, name string) {
	for i := range instructions {
		instructions[i].StrategyName = name
	}
}
