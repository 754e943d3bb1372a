package store

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/version"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"go.uber.org/zap"
)

const metaTable = "_argo_meta"

// Column describes one column of a table written through WriteTable.
type Column struct {
	Name string
	// Type is a DuckDB type such as TEXT, DOUBLE, BIGINT or TIMESTAMP.
	Type string
}

// RangeFilter restricts reads by time and symbol.
type RangeFilter struct {
	Start   optional.Option[time.Time]
	End     optional.Option[time.Time]
	Symbols []string
}

// NoFilter reads everything.
func NoFilter() RangeFilter {
	return RangeFilter{
		Start:   optional.None[time.Time](),
		End:     optional.None[time.Time](),
		Symbols: nil,
	}
}

// Options tune the DuckDB connection.
type Options struct {
	// MemoryLimit is passed to SET memory_limit when not empty, e.g. "4GB".
	MemoryLimit string
	// Threads is passed to SET threads when positive.
	Threads int
}

// Store is a table store backed by DuckDB. Tables are addressed by
// path-like logical keys such as "quandl/wiki/prices".
type Store struct {
	db     *sql.DB
	path   string
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// Open opens (or creates) a store at path. Use ":memory:" for a transient store.
// The store records the version that created it and refuses to open a store
// written by an incompatible version.
func Open(path string, options Options, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreUnavailable, err, "failed to open store %s", path)
	}

	if options.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit='%s'", escapeLiteral(options.MemoryLimit))); err != nil {
			db.Close()

			return nil, fmt.Errorf("failed to set DuckDB memory limit: %w", err)
		}
	}

	if options.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads=%d", options.Threads)); err != nil {
			db.Close()

			return nil, fmt.Errorf("failed to set DuckDB threads: %w", err)
		}
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := s.checkVersion(); err != nil {
		db.Close()

		return nil, err
	}

	log.Debug("Store opened", zap.String("path", path))

	return s, nil
}

func (s *Store) checkVersion() error {
	_, err := s.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT)`, metaTable))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create meta table", err)
	}

	var stored string

	err = s.sq.Select("value").From(metaTable).Where(squirrel.Eq{"key": "version"}).
		RunWith(s.db).QueryRow().Scan(&stored)

	switch {
	case err == sql.ErrNoRows:
		_, err = s.sq.Insert(metaTable).Columns("key", "value").Values("version", version.GetVersion()).
			RunWith(s.db).Exec()
		if err != nil {
			return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to record store version", err)
		}

		return nil
	case err != nil:
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to read store version", err)
	}

	if err := version.CheckVersionCompatibility(version.GetVersion(), stored); err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err, "store %s was written by %s", s.path, stored)
	}

	return nil
}

// DB exposes the underlying connection for components that run their own SQL.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Builder returns the statement builder configured for DuckDB placeholders.
func (s *Store) Builder() squirrel.StatementBuilderType {
	return s.sq
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

var unsafeIdentifier = regexp.MustCompile(`[^a-z0-9_]+`)

// TableName maps a logical key to its table name: "quandl/wiki/prices" -> "quandl_wiki_prices".
func TableName(key string) string {
	name := unsafeIdentifier.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "_")
	name = strings.Trim(name, "_")

	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}

	return name
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func escapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// Exists reports whether a table exists for key.
func (s *Store) Exists(key string) (bool, error) {
	var count int

	err := s.sq.Select("COUNT(*)").From("information_schema.tables").
		Where(squirrel.Eq{"table_name": TableName(key)}).
		RunWith(s.db).QueryRow().Scan(&count)
	if err != nil {
		return false, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to look up table for %s", key)
	}

	return count > 0, nil
}

// Tables lists the user tables in the store.
func (s *Store) Tables() ([]string, error) {
	rows, err := s.sq.Select("table_name").From("information_schema.tables").
		Where(squirrel.NotEq{"table_name": metaTable}).
		OrderBy("table_name").
		RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list tables", err)
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan table name", err)
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (s *Store) requireTable(key string) error {
	exists, err := s.Exists(key)
	if err != nil {
		return err
	}

	if !exists {
		return errors.Newf(errors.ErrCodeTableNotFound, "table for key %s not found", key)
	}

	return nil
}

// ImportParquet replaces the table for key with the contents of parquet files matching path.
func (s *Store) ImportParquet(key string, path string) error {
	return s.importFrom(key, fmt.Sprintf("read_parquet('%s')", escapeLiteral(path)))
}

// ImportCSV replaces the table for key with the contents of CSV files matching path.
func (s *Store) ImportCSV(key string, path string) error {
	return s.importFrom(key, fmt.Sprintf("read_csv_auto('%s', header=true)", escapeLiteral(path)))
}

func (s *Store) importFrom(key string, source string) error {
	query := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM %s`, quote(TableName(key)), source)

	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeImportFailed, err, "failed to import %s", key)
	}

	s.logger.Debug("Imported table", zap.String("key", key), zap.String("source", source))

	return nil
}

// ExportParquet writes the table for key to a parquet file.
func (s *Store) ExportParquet(key string, path string) error {
	if err := s.requireTable(key); err != nil {
		return err
	}

	query := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, quote(TableName(key)), escapeLiteral(path))
	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to export %s to %s", key, path)
	}

	s.logger.Info("Exported table", zap.String("key", key), zap.String("path", path))

	return nil
}

// ExportCSV writes the table for key to a CSV file with a header row.
func (s *Store) ExportCSV(key string, path string) error {
	if err := s.requireTable(key); err != nil {
		return err
	}

	query := fmt.Sprintf(`COPY %s TO '%s' (FORMAT CSV, HEADER)`, quote(TableName(key)), escapeLiteral(path))
	if _, err := s.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to export %s to %s", key, path)
	}

	s.logger.Info("Exported table", zap.String("key", key), zap.String("path", path))

	return nil
}

// Count returns the number of rows stored under key.
func (s *Store) Count(key string) (int, error) {
	if err := s.requireTable(key); err != nil {
		return 0, err
	}

	var count int

	err := s.sq.Select("COUNT(*)").From(quote(TableName(key))).RunWith(s.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", key)
	}

	return count, nil
}

// WriteTable replaces the table for key and inserts rows in one transaction.
func (s *Store) WriteTable(key string, columns []Column, rows [][]any) error {
	table := quote(TableName(key))

	definitions := make([]string, 0, len(columns))
	names := make([]string, 0, len(columns))

	for _, column := range columns {
		definitions = append(definitions, fmt.Sprintf("%s %s", quote(column.Name), column.Type))
		names = append(names, quote(column.Name))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(fmt.Sprintf(`CREATE OR REPLACE TABLE %s (%s)`, table, strings.Join(definitions, ", "))); err != nil {
		tx.Rollback()

		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to create table for %s", key)
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		tx.Rollback()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row...); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to insert into %s", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("Wrote table", zap.String("key", key), zap.Int("rows", len(rows)))

	return nil
}

// applyFilter adds the time and symbol restrictions to a select.
func applyFilter(query squirrel.SelectBuilder, filter RangeFilter) squirrel.SelectBuilder {
	if filter.Start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": filter.Start.Unwrap()})
	}

	if filter.End.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": filter.End.Unwrap()})
	}

	if len(filter.Symbols) > 0 {
		query = query.Where(squirrel.Eq{"symbol": filter.Symbols})
	}

	return query
}
