package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	log   *logger.Logger
	day   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) SetupTest() {
	suite.log = logger.NewNopLogger()
	suite.day = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	s, err := Open(":memory:", Options{}, suite.log)
	suite.Require().NoError(err)

	suite.store = s
}

func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *StoreTestSuite) TestTableName() {
	tests := []struct {
		key      string
		expected string
	}{
		{key: "quandl/wiki/prices", expected: "quandl_wiki_prices"},
		{key: "Signals/Joined", expected: "signals_joined"},
		{key: "  ngrams/phrases ", expected: "ngrams_phrases"},
		{key: "10k/sections", expected: "t_10k_sections"},
		{key: "///", expected: "t_"},
	}

	for _, tc := range tests {
		suite.Run(tc.key, func() {
			suite.Equal(tc.expected, TableName(tc.key))
		})
	}
}

func (suite *StoreTestSuite) TestMissingTable() {
	exists, err := suite.store.Exists("nothing/here")
	suite.Require().NoError(err)
	suite.False(exists)

	_, err = suite.store.ReadPrices("nothing/here", NoFilter())
	suite.True(errors.HasCode(err, errors.ErrCodeTableNotFound))

	_, err = suite.store.Count("nothing/here")
	suite.True(errors.HasCode(err, errors.ErrCodeTableNotFound))
}

func (suite *StoreTestSuite) TestPricesRoundTripWithFilter() {
	bars := []types.MarketData{
		{Symbol: "MSFT", Time: suite.day.AddDate(0, 0, 1), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		{Symbol: "AAPL", Time: suite.day, Open: 3, High: 4, Low: 2.5, Close: 3.5, Volume: 200},
		{Symbol: "AAPL", Time: suite.day.AddDate(0, 0, 1), Open: 3, High: 4, Low: 2.5, Close: 3.6, Volume: 210},
		{Symbol: "IBM", Time: suite.day.AddDate(0, 0, 2), Open: 5, High: 6, Low: 4.5, Close: 5.5, Volume: 300},
	}

	suite.Require().NoError(suite.store.WritePrices("quandl/wiki/prices", bars))

	all, err := suite.store.ReadPrices("quandl/wiki/prices", NoFilter())
	suite.Require().NoError(err)
	suite.Require().Len(all, 4)
	suite.Equal("AAPL", all[0].Symbol)
	suite.Equal("AAPL", all[1].Symbol)
	suite.Equal("MSFT", all[2].Symbol)
	suite.Equal("IBM", all[3].Symbol)

	filtered, err := suite.store.ReadPrices("quandl/wiki/prices", RangeFilter{
		Start:   optional.Some(suite.day.AddDate(0, 0, 1)),
		End:     optional.Some(suite.day.AddDate(0, 0, 1)),
		Symbols: []string{"AAPL", "IBM"},
	})
	suite.Require().NoError(err)
	suite.Require().Len(filtered, 1)
	suite.Equal(3.6, filtered[0].Close)

	count, err := suite.store.Count("quandl/wiki/prices")
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *StoreTestSuite) TestPredictionsKeepMissingActuals() {
	predictions := []types.Prediction{
		{Symbol: "A", Time: suite.day, Param: "5", Predicted: 0.1, Actual: optional.Some(0.2)},
		{Symbol: "B", Time: suite.day, Param: "5", Predicted: -0.1, Actual: optional.None[float64]()},
	}

	suite.Require().NoError(suite.store.WritePredictions("lasso/predictions", predictions))

	read, err := suite.store.ReadPredictions("lasso/predictions", NoFilter())
	suite.Require().NoError(err)
	suite.Require().Len(read, 2)
	suite.True(read[0].Actual.IsSome())
	suite.Equal(0.2, read[0].Actual.Unwrap())
	suite.True(read[1].Actual.IsNone())
}

func (suite *StoreTestSuite) TestSignalsParquetRoundTrip() {
	records := []types.SignalRecord{
		{
			Symbol: "A",
			Time:   suite.day,
			Score:  optional.Some(0.3),
			Bar:    optional.Some(types.MarketData{Symbol: "A", Time: suite.day, Open: 1, High: 2, Low: 1, Close: 2, Volume: 10}),
		},
		{
			Symbol: "B",
			Time:   suite.day,
			Score:  optional.None[float64](),
			Bar:    optional.None[types.MarketData](),
		},
	}

	suite.Require().NoError(suite.store.WriteSignals("signals/joined", records))

	path := filepath.Join(suite.T().TempDir(), "joined.parquet")
	suite.Require().NoError(suite.store.ExportParquet("signals/joined", path))
	suite.Require().NoError(suite.store.ImportParquet("signals/copy", path))

	read, err := suite.store.ReadSignals("signals/copy", NoFilter())
	suite.Require().NoError(err)
	suite.Require().Len(read, 2)

	suite.Equal(0.3, read[0].Score.Unwrap())
	suite.True(read[0].Bar.IsSome())
	suite.Equal(2.0, read[0].Bar.Unwrap().Close)
	suite.True(read[0].Time.Equal(suite.day))

	suite.True(read[1].Score.IsNone())
	suite.True(read[1].Bar.IsNone())

	tables, err := suite.store.Tables()
	suite.Require().NoError(err)
	suite.Contains(tables, "signals_joined")
	suite.Contains(tables, "signals_copy")
	suite.NotContains(tables, metaTable)
}

func (suite *StoreTestSuite) TestReopenChecksVersion() {
	path := filepath.Join(suite.T().TempDir(), "research.duckdb")

	s, err := Open(path, Options{Threads: 1}, suite.log)
	suite.Require().NoError(err)
	suite.Require().NoError(s.Close())

	s, err = Open(path, Options{}, suite.log)
	suite.Require().NoError(err)

	_, err = s.DB().Exec(`UPDATE _argo_meta SET value = 'v9.1.0' WHERE key = 'version'`)
	suite.Require().NoError(err)
	suite.Require().NoError(s.Close())

	_, err = Open(path, Options{}, suite.log)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeVersionMismatch))
}
