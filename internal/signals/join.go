package signals

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/types"
)

type key struct {
	symbol string
	time   int64
}

// Window is the time range and instrument set covered by a set of predictions.
type Window struct {
	Start   time.Time
	End     time.Time
	Symbols []string
}

// Contains reports whether a bar falls inside the window.
func (w Window) Contains(bar types.MarketData) bool {
	if bar.Time.Before(w.Start) || bar.Time.After(w.End) {
		return false
	}

	i := sort.SearchStrings(w.Symbols, bar.Symbol)

	return i < len(w.Symbols) && w.Symbols[i] == bar.Symbol
}

// WindowOf returns the window covered by predictions. ok is false when
// predictions is empty.
func WindowOf(predictions []types.Prediction) (Window, bool) {
	if len(predictions) == 0 {
		return Window{}, false
	}

	window := Window{Start: predictions[0].Time, End: predictions[0].Time}
	symbols := make(map[string]struct{})

	for _, p := range predictions {
		if p.Time.Before(window.Start) {
			window.Start = p.Time
		}

		if p.Time.After(window.End) {
			window.End = p.Time
		}

		symbols[p.Symbol] = struct{}{}
	}

	for symbol := range symbols {
		window.Symbols = append(window.Symbols, symbol)
	}

	sort.Strings(window.Symbols)

	return window, true
}

// Join right-joins the predictions for param onto the price bars. Bars are
// restricted to the time range and symbols of those predictions. Every kept
// bar yields one record ordered by (time, symbol); the score is present only
// where a prediction exists. Only the first bar of a repeated (symbol, time)
// pair is kept.
func Join(param string, predictions []types.Prediction, prices []types.MarketData) []types.SignalRecord {
	selected := make([]types.Prediction, 0, len(predictions))

	for _, p := range predictions {
		if p.Param == param {
			selected = append(selected, p)
		}
	}

	window, ok := WindowOf(selected)
	if !ok {
		return nil
	}

	scores := make(map[key]float64, len(selected))
	for _, p := range selected {
		scores[key{symbol: p.Symbol, time: p.Time.UnixNano()}] = p.Predicted
	}

	records := make([]types.SignalRecord, 0, len(prices))
	seen := make(map[key]struct{}, len(prices))

	for _, bar := range prices {
		if !window.Contains(bar) {
			continue
		}

		barKey := key{symbol: bar.Symbol, time: bar.Time.UnixNano()}
		if _, duplicate := seen[barKey]; duplicate {
			continue
		}

		seen[barKey] = struct{}{}

		record := types.SignalRecord{
			Symbol: bar.Symbol,
			Time:   bar.Time,
			Score:  optional.None[float64](),
			Bar:    optional.Some(bar),
		}

		if score, found := scores[barKey]; found {
			record.Score = optional.Some(score)
		}

		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Time.Equal(records[j].Time) {
			return records[i].Time.Before(records[j].Time)
		}

		return records[i].Symbol < records[j].Symbol
	})

	return records
}
