package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// TimeColumnAliases are the accepted names of the timestamp column, in lookup order.
var TimeColumnAliases = []string{"time", "timestamp", "datetime", "date"}

// PriceColumns are the required price columns. Lookup is case-insensitive.
var PriceColumns = []string{"open", "high", "low", "close", "volume"}

// DataSource provides the bar table of a run.
type DataSource interface {
	// Initialize initializes the data source with the given data path in csv or parquet format
	Initialize(path string) error
	// ReadAll reads the bars within [start, end] in time order and yields them to the caller
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool)
	// Count returns the number of bars within [start, end]
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// AuxColumns returns the names of the auxiliary numeric columns
	AuxColumns() []string
	// Close closes the data source and releases any resources
	Close() error
}

// Load collects every bar of ds within [start, end].
func Load(ds DataSource, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	bars := []types.Bar{}

	for bar, err := range ds.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
