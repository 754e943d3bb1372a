// Package inspect summarizes a tokenized filings corpus with DuckDB queries
// over the sentence CSVs and the vocabulary tables.
package inspect

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rxtech-lab/argo-research/internal/filings"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

// DefaultTopN is the number of most frequent tokens reported.
const DefaultTopN = 20

// Quantiles describe the distribution of kept tokens per sentence.
type Quantiles struct {
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
	Mean   float64
}

// Report is the corpus summary.
type Report struct {
	Documents int
	Sentences int
	Items     []filings.ItemCount
	Tokens    Quantiles
	// TopTokens is empty when the vocabulary table has not been written.
	TopTokens []filings.TokenCount
}

// Inspector runs the summary queries.
type Inspector struct {
	store *store.Store
	log   *logger.Logger
}

// NewInspector creates an inspector over s.
func NewInspector(s *store.Store, log *logger.Logger) *Inspector {
	return &Inspector{
		store: s,
		log:   log,
	}
}

// Inspect summarizes the sentence CSVs in dir and the top n vocabulary tokens.
func (i *Inspector) Inspect(dir string, n int) (Report, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return Report{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid directory %s", dir)
	}

	if len(matches) == 0 {
		return Report{}, errors.Newf(errors.ErrCodeInvalidParameter, "no sentence files in %s", dir)
	}

	source := sentenceSource(dir)
	db := i.store.DB()

	report := Report{}

	err = db.QueryRow(fmt.Sprintf("SELECT COUNT(DISTINCT filename), COUNT(*) FROM %s", source)).
		Scan(&report.Documents, &report.Sentences)
	if err != nil {
		return Report{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count sentences", err)
	}

	if report.Items, err = i.items(db, source); err != nil {
		return Report{}, err
	}

	if report.Tokens, err = i.quantiles(db, source); err != nil {
		return Report{}, err
	}

	if report.TopTokens, err = i.topTokens(n); err != nil {
		return Report{}, err
	}

	i.log.Debug("Inspected corpus",
		zap.String("dir", dir),
		zap.Int("documents", report.Documents),
		zap.Int("sentences", report.Sentences),
		zap.Int("items", len(report.Items)),
	)

	return report, nil
}

// sentenceSource is the read_csv_auto table function over every sentence CSV.
func sentenceSource(dir string) string {
	glob := strings.ReplaceAll(filepath.Join(dir, "*.csv"), "'", "''")

	return fmt.Sprintf("read_csv_auto('%s', header = true, all_varchar = true, filename = true)", glob)
}

func (i *Inspector) items(db *sql.DB, source string) ([]filings.ItemCount, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT item, COUNT(*) FROM %s GROUP BY item", source))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count items", err)
	}
	defer rows.Close()

	var items []filings.ItemCount

	for rows.Next() {
		var item sql.NullString

		var count int
		if err := rows.Scan(&item, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan item count", err)
		}

		items = append(items, filings.ItemCount{Item: item.String, Sentences: count})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read item counts", err)
	}

	sort.Slice(items, func(a, b int) bool {
		if items[a].Sentences != items[b].Sentences {
			return items[a].Sentences > items[b].Sentences
		}

		return items[a].Item < items[b].Item
	})

	return items, nil
}

func (i *Inspector) quantiles(db *sql.DB, source string) (Quantiles, error) {
	query := fmt.Sprintf(`
		WITH lengths AS (
			SELECT len(string_split(text, ' ')) AS n FROM %s WHERE text IS NOT NULL
		)
		SELECT
			CAST(MIN(n) AS DOUBLE),
			quantile_cont(n, 0.25),
			quantile_cont(n, 0.5),
			quantile_cont(n, 0.75),
			CAST(MAX(n) AS DOUBLE),
			AVG(n)
		FROM lengths`, source)

	var values [6]sql.NullFloat64

	err := db.QueryRow(query).Scan(&values[0], &values[1], &values[2], &values[3], &values[4], &values[5])
	if err != nil {
		return Quantiles{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to compute token quantiles", err)
	}

	return Quantiles{
		Min:    values[0].Float64,
		P25:    values[1].Float64,
		Median: values[2].Float64,
		P75:    values[3].Float64,
		Max:    values[4].Float64,
		Mean:   values[5].Float64,
	}, nil
}

func (i *Inspector) topTokens(n int) ([]filings.TokenCount, error) {
	exists, err := i.store.Exists(filings.TokensKey)
	if err != nil {
		return nil, err
	}

	if !exists || n <= 0 {
		return nil, nil
	}

	query, args, err := i.store.Builder().
		Select("token", `"count"`).
		From(store.TableName(filings.TokensKey)).
		OrderBy(`"count" DESC`, "token").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build token query", err)
	}

	rows, err := i.store.DB().Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query tokens", err)
	}
	defer rows.Close()

	var tokens []filings.TokenCount

	for rows.Next() {
		var token filings.TokenCount
		if err := rows.Scan(&token.Token, &token.Count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan token", err)
		}

		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}
