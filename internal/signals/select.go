package signals

import (
	"math"
	"sort"
	"strconv"

	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ParamScore is the rank correlation of one hyperparameter value.
type ParamScore struct {
	Param       string
	Correlation float64
	// Rows is the number of predictions with a realized return.
	Rows int
}

// Selection is the result of SelectParam.
type Selection struct {
	Param string
	// Scores holds every param with a defined correlation, best first.
	Scores []ParamScore
}

// SelectParam picks the hyperparameter value whose predictions have the
// highest Spearman rank correlation with the realized returns.
//
// Params whose correlation is undefined (fewer than two realized rows or a
// constant series) are not eligible. Equal correlations resolve to the param
// that sorts first, numerically when both labels are numbers.
func SelectParam(predictions []types.Prediction) (Selection, error) {
	if len(predictions) == 0 {
		return Selection{}, errors.NewNoPredictionsError(0, 0, "no predictions to select a hyperparameter from")
	}

	predicted := make(map[string][]float64)
	actual := make(map[string][]float64)
	seen := make(map[string]struct{})

	for _, p := range predictions {
		seen[p.Param] = struct{}{}

		if p.Actual.IsNone() {
			continue
		}

		predicted[p.Param] = append(predicted[p.Param], p.Predicted)
		actual[p.Param] = append(actual[p.Param], p.Actual.Unwrap())
	}

	scores := make([]ParamScore, 0, len(predicted))

	for param, x := range predicted {
		correlation, ok := Spearman(x, actual[param])
		if !ok {
			continue
		}

		scores = append(scores, ParamScore{Param: param, Correlation: correlation, Rows: len(x)})
	}

	if len(scores) == 0 {
		return Selection{}, errors.NewNoPredictionsError(len(seen), len(predictions),
			"no hyperparameter has a defined rank correlation (%d params, %d rows)", len(seen), len(predictions))
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Correlation != scores[j].Correlation {
			return scores[i].Correlation > scores[j].Correlation
		}

		return paramLess(scores[i].Param, scores[j].Param)
	})

	return Selection{Param: scores[0].Param, Scores: scores}, nil
}

// Spearman returns the rank correlation of x and y using average ranks for
// ties. ok is false when the correlation is undefined.
func Spearman(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}

	correlation := stat.Correlation(rank(x), rank(y), nil)
	if math.IsNaN(correlation) || math.IsInf(correlation, 0) {
		return 0, false
	}

	return correlation, true
}

// rank assigns 1-based ranks, averaging the ranks of tied values.
func rank(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] < values[order[j]]
	})

	ranks := make([]float64, len(values))

	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && values[order[end]] == values[order[start]] {
			end++
		}

		// positions start..end-1 share the mean of ranks start+1..end
		average := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			ranks[order[k]] = average
		}

		start = end
	}

	return ranks
}

func paramLess(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)

	if errA == nil && errB == nil && x != y {
		return x < y
	}

	return a < b
}
