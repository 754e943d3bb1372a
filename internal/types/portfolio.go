package types

import (
	"sort"
	"time"
)

// Position is a target weight for one symbol. Weights live in [-1, 1].
type Position struct {
	Symbol string  `yaml:"symbol" json:"symbol" csv:"symbol"`
	Weight float64 `yaml:"weight" json:"weight" csv:"weight"`
}

// PortfolioState maps symbol to currently held weight. Zero weights are not stored.
type PortfolioState map[string]float64

// NewPortfolioState builds a state from positions, dropping flat ones.
func NewPortfolioState(positions ...Position) PortfolioState {
	state := make(PortfolioState, len(positions))
	for _, p := range positions {
		if p.Weight != 0 {
			state[p.Symbol] = p.Weight
		}
	}

	return state
}

// Held returns the symbols with a non-zero weight, sorted.
func (s PortfolioState) Held() []string {
	symbols := make([]string, 0, len(s))
	for symbol, weight := range s {
		if weight != 0 {
			symbols = append(symbols, symbol)
		}
	}

	sort.Strings(symbols)

	return symbols
}

// Positions returns the state as sorted positions.
func (s PortfolioState) Positions() []Position {
	held := s.Held()
	positions := make([]Position, 0, len(held))

	for _, symbol := range held {
		positions = append(positions, Position{Symbol: symbol, Weight: s[symbol]})
	}

	return positions
}

// Clone returns an independent copy.
func (s PortfolioState) Clone() PortfolioState {
	out := make(PortfolioState, len(s))
	for symbol, weight := range s {
		out[symbol] = weight
	}

	return out
}

// Apply returns the state obtained by applying every instruction in order.
func (s PortfolioState) Apply(instructions []Instruction) PortfolioState {
	next := s.Clone()

	for _, instruction := range instructions {
		if instruction.Target == 0 {
			delete(next, instruction.Symbol)

			continue
		}

		next[instruction.Symbol] = instruction.Target
	}

	return next
}

type InstructionKind string

const (
	InstructionKindLiquidate InstructionKind = "LIQUIDATE"
	InstructionKindLong      InstructionKind = "LONG"
	InstructionKindShort     InstructionKind = "SHORT"
)

// Instruction asks the execution layer to move a symbol to a target weight.
type Instruction struct {
	ID           string          `yaml:"id" json:"id" csv:"id"`
	Time         time.Time       `yaml:"time" json:"time" csv:"time"`
	Symbol       string          `yaml:"symbol" json:"symbol" csv:"symbol"`
	Target       float64         `yaml:"target" json:"target" csv:"target"`
	Kind         InstructionKind `yaml:"kind" json:"kind" csv:"kind"`
	StrategyName string          `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`
}
