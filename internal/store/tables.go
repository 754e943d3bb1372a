package store

import (
	"database/sql"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
)

var priceColumns = []Column{
	{Name: "symbol", Type: "TEXT"},
	{Name: "time", Type: "TIMESTAMP"},
	{Name: "open", Type: "DOUBLE"},
	{Name: "high", Type: "DOUBLE"},
	{Name: "low", Type: "DOUBLE"},
	{Name: "close", Type: "DOUBLE"},
	{Name: "volume", Type: "DOUBLE"},
}

var predictionColumns = []Column{
	{Name: "symbol", Type: "TEXT"},
	{Name: "time", Type: "TIMESTAMP"},
	{Name: "param", Type: "TEXT"},
	{Name: "predicted", Type: "DOUBLE"},
	{Name: "actual", Type: "DOUBLE"},
}

var signalColumns = []Column{
	{Name: "symbol", Type: "TEXT"},
	{Name: "time", Type: "TIMESTAMP"},
	{Name: "score", Type: "DOUBLE"},
	{Name: "open", Type: "DOUBLE"},
	{Name: "high", Type: "DOUBLE"},
	{Name: "low", Type: "DOUBLE"},
	{Name: "close", Type: "DOUBLE"},
	{Name: "volume", Type: "DOUBLE"},
}

// WritePrices replaces the price table for key.
func (s *Store) WritePrices(key string, data []types.MarketData) error {
	rows := make([][]any, 0, len(data))
	for _, bar := range data {
		rows = append(rows, []any{bar.Symbol, bar.Time, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume})
	}

	return s.WriteTable(key, priceColumns, rows)
}

// ReadPrices reads OHLCV bars ordered by time then symbol.
func (s *Store) ReadPrices(key string, filter RangeFilter) ([]types.MarketData, error) {
	if err := s.requireTable(key); err != nil {
		return nil, err
	}

	query := applyFilter(
		s.sq.Select("symbol", "time", "open", "high", "low", "close", "volume").From(quote(TableName(key))),
		filter,
	).OrderBy("time ASC", "symbol ASC")

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query prices from %s", key)
	}
	defer rows.Close()

	result := make([]types.MarketData, 0, 1000)

	for rows.Next() {
		var bar types.MarketData
		if err := rows.Scan(&bar.Symbol, &bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan price row", err)
		}

		result = append(result, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating price rows", err)
	}

	return result, nil
}

// WritePredictions replaces the prediction table for key.
func (s *Store) WritePredictions(key string, predictions []types.Prediction) error {
	rows := make([][]any, 0, len(predictions))
	for _, p := range predictions {
		rows = append(rows, []any{p.Symbol, p.Time, p.Param, p.Predicted, nullable(p.Actual)})
	}

	return s.WriteTable(key, predictionColumns, rows)
}

// ReadPredictions reads predictions ordered by param, time and symbol.
// The param column is read as text whatever its stored type.
func (s *Store) ReadPredictions(key string, filter RangeFilter) ([]types.Prediction, error) {
	if err := s.requireTable(key); err != nil {
		return nil, err
	}

	query := applyFilter(
		s.sq.Select("symbol", "time", "CAST(param AS VARCHAR) AS param", "predicted", "actual").From(quote(TableName(key))),
		filter,
	).OrderBy("param ASC", "time ASC", "symbol ASC")

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query predictions from %s", key)
	}
	defer rows.Close()

	var result []types.Prediction

	for rows.Next() {
		var (
			p      types.Prediction
			actual sql.NullFloat64
		)

		if err := rows.Scan(&p.Symbol, &p.Time, &p.Param, &p.Predicted, &actual); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan prediction row", err)
		}

		p.Actual = fromNullable(actual)
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating prediction rows", err)
	}

	return result, nil
}

// WriteSignals replaces the joined signal table for key.
func (s *Store) WriteSignals(key string, records []types.SignalRecord) error {
	rows := make([][]any, 0, len(records))

	for _, r := range records {
		row := []any{r.Symbol, r.Time, nullable(r.Score), nil, nil, nil, nil, nil}

		if r.Bar.IsSome() {
			bar := r.Bar.Unwrap()
			row[3], row[4], row[5], row[6], row[7] = bar.Open, bar.High, bar.Low, bar.Close, bar.Volume
		}

		rows = append(rows, row)
	}

	return s.WriteTable(key, signalColumns, rows)
}

// ReadSignals reads joined signal records ordered by time then symbol.
func (s *Store) ReadSignals(key string, filter RangeFilter) ([]types.SignalRecord, error) {
	if err := s.requireTable(key); err != nil {
		return nil, err
	}

	query := applyFilter(
		s.sq.Select("symbol", "time", "score", "open", "high", "low", "close", "volume").From(quote(TableName(key))),
		filter,
	).OrderBy("time ASC", "symbol ASC")

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query signals from %s", key)
	}
	defer rows.Close()

	var result []types.SignalRecord

	for rows.Next() {
		var (
			symbol                         string
			timestamp                      time.Time
			score                          sql.NullFloat64
			open, high, low, close, volume sql.NullFloat64
		)

		if err := rows.Scan(&symbol, &timestamp, &score, &open, &high, &low, &close, &volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan signal row", err)
		}

		record := types.SignalRecord{
			Symbol: symbol,
			Time:   timestamp,
			Score:  fromNullable(score),
			Bar:    optional.None[types.MarketData](),
		}

		if close.Valid {
			record.Bar = optional.Some(types.MarketData{
				Symbol: symbol,
				Time:   timestamp,
				Open:   open.Float64,
				High:   high.Float64,
				Low:    low.Float64,
				Close:  close.Float64,
				Volume: volume.Float64,
			})
		}

		result = append(result, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating signal rows", err)
	}

	return result, nil
}

func nullable(value optional.Option[float64]) any {
	if value.IsNone() {
		return nil
	}

	return value.Unwrap()
}

func fromNullable(value sql.NullFloat64) optional.Option[float64] {
	if !value.Valid {
		return optional.None[float64]()
	}

	return optional.Some(value.Float64)
}
