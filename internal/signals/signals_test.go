package signals

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SignalsTestSuite struct {
	suite.Suite
	day time.Time
}

func TestSignalsSuite(t *testing.T) {
	suite.Run(t, new(SignalsTestSuite))
}

func (suite *SignalsTestSuite) SetupTest() {
	suite.day = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
}

func (suite *SignalsTestSuite) prediction(param, symbol string, offset int, predicted float64, actual optional.Option[float64]) types.Prediction {
	return types.Prediction{
		Symbol:    symbol,
		Time:      suite.day.AddDate(0, 0, offset),
		Param:     param,
		Predicted: predicted,
		Actual:    actual,
	}
}

func (suite *SignalsTestSuite) series(param string, predicted, actual []float64) []types.Prediction {
	out := make([]types.Prediction, 0, len(predicted))
	for i := range predicted {
		out = append(out, suite.prediction(param, "A", i, predicted[i], optional.Some(actual[i])))
	}

	return out
}

func (suite *SignalsTestSuite) TestSpearman() {
	correlation, ok := Spearman([]float64{1, 2, 3}, []float64{10, 20, 30})
	suite.True(ok)
	suite.InDelta(1.0, correlation, 1e-12)

	correlation, ok = Spearman([]float64{1, 2, 3}, []float64{3, 2, 1})
	suite.True(ok)
	suite.InDelta(-1.0, correlation, 1e-12)

	// ties get average ranks
	correlation, ok = Spearman([]float64{1, 2, 2, 3}, []float64{1, 2, 3, 4})
	suite.True(ok)
	suite.InDelta(math.Sqrt(0.9), correlation, 1e-12)

	_, ok = Spearman([]float64{1}, []float64{1})
	suite.False(ok)

	_, ok = Spearman([]float64{1, 1, 1}, []float64{1, 2, 3})
	suite.False(ok)
}

func (suite *SignalsTestSuite) TestRankAveragesTies() {
	suite.Equal([]float64{1, 2.5, 2.5, 4}, rank([]float64{0.1, 0.5, 0.5, 0.9}))
	suite.Equal([]float64{3, 1, 2}, rank([]float64{9, 1, 5}))
}

func (suite *SignalsTestSuite) TestSelectParamPicksHighestCorrelation() {
	var predictions []types.Prediction
	predictions = append(predictions, suite.series("1", []float64{1, 2, 3, 4}, []float64{1, 2, 3, 4})...)
	predictions = append(predictions, suite.series("5", []float64{4, 1, 3, 2}, []float64{1, 2, 3, 4})...)

	selection, err := SelectParam(predictions)
	suite.Require().NoError(err)
	suite.Equal("1", selection.Param)
	suite.Len(selection.Scores, 2)
	suite.Equal(4, selection.Scores[0].Rows)
}

func (suite *SignalsTestSuite) TestSelectParamTieIsDeterministic() {
	predicted := []float64{1, 2, 3, 4}
	actual := []float64{2, 4, 6, 8}

	// numeric labels: 5 sorts before 10
	for i := 0; i < 10; i++ {
		var predictions []types.Prediction
		if i%2 == 0 {
			predictions = append(suite.series("10", predicted, actual), suite.series("5", predicted, actual)...)
		} else {
			predictions = append(suite.series("5", predicted, actual), suite.series("10", predicted, actual)...)
		}

		selection, err := SelectParam(predictions)
		suite.Require().NoError(err)
		suite.Equal("5", selection.Param)
	}

	// non-numeric labels fall back to lexicographic order
	predictions := append(suite.series("beta", predicted, actual), suite.series("alpha", predicted, actual)...)
	selection, err := SelectParam(predictions)
	suite.Require().NoError(err)
	suite.Equal("alpha", selection.Param)
}

func (suite *SignalsTestSuite) TestSelectParamWithoutPredictions() {
	_, err := SelectParam(nil)
	suite.Error(err)
	suite.True(errors.IsNoPredictionsError(err))
	suite.True(errors.HasCode(err, errors.ErrCodeNoPredictions))
}

func (suite *SignalsTestSuite) TestSelectParamWithoutRealizedReturns() {
	predictions := []types.Prediction{
		suite.prediction("1", "A", 0, 0.1, optional.None[float64]()),
		suite.prediction("1", "B", 0, 0.2, optional.None[float64]()),
		suite.prediction("2", "A", 0, 0.1, optional.Some(0.3)),
	}

	_, err := SelectParam(predictions)
	suite.True(errors.IsNoPredictionsError(err))
	suite.Contains(err.Error(), "2 params")
}

func (suite *SignalsTestSuite) TestJoinRestrictsAndOrders() {
	predictions := []types.Prediction{
		suite.prediction("1", "B", 1, 0.2, optional.None[float64]()),
		suite.prediction("1", "A", 2, -0.1, optional.None[float64]()),
		suite.prediction("2", "C", 1, 0.9, optional.None[float64]()),
	}

	bar := func(symbol string, offset int) types.MarketData {
		return types.MarketData{Symbol: symbol, Time: suite.day.AddDate(0, 0, offset), Close: 10}
	}

	prices := []types.MarketData{
		bar("A", 0), // before the prediction window
		bar("B", 2),
		bar("A", 1),
		bar("B", 1),
		bar("A", 2),
		bar("C", 1), // symbol only predicted under another param
		bar("A", 3), // after the prediction window
	}

	records := Join("1", predictions, prices)
	suite.Require().Len(records, 4)

	suite.Equal("A", records[0].Symbol)
	suite.True(records[0].Score.IsNone())
	suite.Equal("B", records[1].Symbol)
	suite.Equal(0.2, records[1].Score.Unwrap())
	suite.Equal("A", records[2].Symbol)
	suite.Equal(-0.1, records[2].Score.Unwrap())
	suite.Equal("B", records[3].Symbol)
	suite.True(records[3].Score.IsNone())

	for _, record := range records {
		suite.True(record.Bar.IsSome())
	}
}

func (suite *SignalsTestSuite) TestJoinDropsDuplicateBars() {
	predictions := []types.Prediction{
		suite.prediction("1", "A", 0, 0.4, optional.None[float64]()),
		suite.prediction("1", "B", 0, -0.4, optional.None[float64]()),
	}

	first := types.MarketData{Symbol: "A", Time: suite.day, Close: 10}
	repeated := types.MarketData{Symbol: "A", Time: suite.day, Close: 11}
	other := types.MarketData{Symbol: "B", Time: suite.day, Close: 20}

	records := Join("1", predictions, []types.MarketData{first, repeated, other})
	suite.Require().Len(records, 2)

	suite.Equal("A", records[0].Symbol)
	suite.Equal(10.0, records[0].Bar.Unwrap().Close)
	suite.Equal("B", records[1].Symbol)
}

func (suite *SignalsTestSuite) TestJoinWithUnknownParam() {
	suite.Empty(Join("missing", []types.Prediction{suite.prediction("1", "A", 0, 0, optional.None[float64]())}, nil))
}

func (suite *SignalsTestSuite) TestWindowOf() {
	_, ok := WindowOf(nil)
	suite.False(ok)

	window, ok := WindowOf([]types.Prediction{
		suite.prediction("1", "B", 3, 0, optional.None[float64]()),
		suite.prediction("1", "A", 1, 0, optional.None[float64]()),
		suite.prediction("1", "B", 2, 0, optional.None[float64]()),
	})
	suite.True(ok)
	suite.Equal(suite.day.AddDate(0, 0, 1), window.Start)
	suite.Equal(suite.day.AddDate(0, 0, 3), window.End)
	suite.Equal([]string{"A", "B"}, window.Symbols)
}
