package datasource

import (
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

const viewName = "market_data"

// numericTypes are the DuckDB column types loaded as auxiliary series.
var numericTypes = []string{
	"DOUBLE", "FLOAT", "REAL", "DECIMAL", "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
	"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
}

// columnMapping maps the logical columns of a bar to the physical columns of the file.
type columnMapping struct {
	time   string
	prices []string
	aux    []string
}

// DuckDBDataSource reads bars from a CSV or Parquet file through an in-memory DuckDB view.
type DuckDBDataSource struct {
	db      *sql.DB
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
	columns *columnMapping
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// ":memory:" opens an in-memory database.
// This is distinct from Initialize() which loads market data into the database.
func NewDataSource(path string, log *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBDataSource{
		db:      db,
		logger:  log,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns: nil,
	}, nil
}

// Initialize implements DataSource. The file format is chosen from the extension.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`DROP VIEW IF EXISTS ` + viewName)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// squirrel has no CREATE VIEW support
	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s('%s')`, viewName, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load %s", path)
	}

	columns, err := d.describe()
	if err != nil {
		return err
	}

	d.columns = columns
	d.logger.Debug("DuckDB data source ready",
		zap.String("time_column", columns.time),
		zap.Strings("aux_columns", columns.aux),
	)

	return nil
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "read_csv_auto", nil
	case ".parquet":
		return "read_parquet", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file %s: expected .csv or .parquet", path)
	}
}

// describe resolves the physical column names of the view.
func (d *DuckDBDataSource) describe() (*columnMapping, error) {
	rows, err := d.db.Query(`DESCRIBE ` + viewName)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}

	names := []string{}
	kinds := map[string]string{}

	for rows.Next() {
		values := make([]any, len(cols))
		targets := make([]any, len(cols))

		for i := range values {
			targets[i] = &values[i]
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column description", err)
		}

		// column_name, column_type, ...
		name := fmt.Sprint(values[0])
		names = append(names, name)
		kinds[name] = strings.ToUpper(fmt.Sprint(values[1]))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}

	return mapColumns(names, kinds)
}

func mapColumns(names []string, kinds map[string]string) (*columnMapping, error) {
	find := func(want string) (string, bool) {
		for _, name := range names {
			if strings.EqualFold(name, want) {
				return name, true
			}
		}

		return "", false
	}

	mapping := &columnMapping{time: "", prices: []string{}, aux: []string{}}

	for _, alias := range TimeColumnAliases {
		if name, ok := find(alias); ok {
			mapping.time = name

			break
		}
	}

	if mapping.time == "" {
		return nil, errors.Newf(errors.ErrCodeMissingColumn,
			"no time column found, expected one of %s", strings.Join(TimeColumnAliases, ", "))
	}

	for _, price := range PriceColumns {
		name, ok := find(price)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "required column %q is missing", price)
		}

		mapping.prices = append(mapping.prices, name)
	}

	for _, name := range names {
		if name == mapping.time || slices.Contains(mapping.prices, name) {
			continue
		}

		if isNumeric(kinds[name]) {
			mapping.aux = append(mapping.aux, name)
		}
	}

	return mapping, nil
}

func isNumeric(kind string) bool {
	for _, numeric := range numericTypes {
		if strings.HasPrefix(kind, numeric) {
			return true
		}
	}

	return false
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *DuckDBDataSource) where(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	column := fmt.Sprintf("CAST(%s AS TIMESTAMP)", quote(d.columns.time))

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{column: start.Unwrap().UTC()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{column: end.Unwrap().UTC()})
	}

	return builder
}

func (d *DuckDBDataSource) ready() error {
	if d.columns == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "data source is not initialized")
	}

	return nil
}

// AuxColumns implements DataSource.
func (d *DuckDBDataSource) AuxColumns() []string {
	if d.columns == nil {
		return []string{}
	}

	return slices.Clone(d.columns.aux)
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if err := d.ready(); err != nil {
		return 0, err
	}

	query, args, err := d.where(d.sq.Select("COUNT(*)").From(viewName), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource. Timestamps are returned in UTC. NULL auxiliary values
// become NaN.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		if err := d.ready(); err != nil {
			yield(types.Bar{}, err)

			return
		}

		selected := []string{fmt.Sprintf("CAST(%s AS TIMESTAMP)", quote(d.columns.time))}
		for _, name := range append(slices.Clone(d.columns.prices), d.columns.aux...) {
			selected = append(selected, fmt.Sprintf("CAST(%s AS DOUBLE)", quote(name)))
		}

		builder := d.where(d.sq.Select(selected...).From(viewName), start, end).
			OrderBy(fmt.Sprintf("CAST(%s AS TIMESTAMP) ASC", quote(d.columns.time)))

		query, args, err := builder.ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := d.scan(rows)
			if err != nil {
				yield(types.Bar{}, err)

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err))
		}
	}
}

func (d *DuckDBDataSource) scan(rows *sql.Rows) (types.Bar, error) {
	var timestamp time.Time

	prices := make([]sql.NullFloat64, len(d.columns.prices))
	aux := make([]sql.NullFloat64, len(d.columns.aux))

	targets := []any{&timestamp}
	for i := range prices {
		targets = append(targets, &prices[i])
	}

	for i := range aux {
		targets = append(targets, &aux[i])
	}

	if err := rows.Scan(targets...); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
	}

	value := func(v sql.NullFloat64) float64 {
		if !v.Valid {
			return math.NaN()
		}

		return v.Float64
	}

	bar := types.Bar{
		Time:   timestamp.UTC(),
		Open:   value(prices[0]),
		High:   value(prices[1]),
		Low:    value(prices[2]),
		Close:  value(prices[3]),
		Volume: value(prices[4]),
		Aux:    nil,
	}

	if len(aux) > 0 {
		bar.Aux = make(map[string]float64, len(aux))
		for i, name := range d.columns.aux {
			bar.Aux[name] = value(aux[i])
		}
	}

	return bar, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
