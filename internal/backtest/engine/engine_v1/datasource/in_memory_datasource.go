package datasource

import (
	"maps"
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// InMemoryDataSource serves a bar table built in code.
type InMemoryDataSource struct {
	bars []types.Bar
}

// NewInMemoryDataSource copies bars into a data source. The table is validated when the
// run builds its series store.
func NewInMemoryDataSource(bars []types.Bar) DataSource {
	copied := make([]types.Bar, len(bars))
	for i, bar := range bars {
		copied[i] = bar
		copied[i].Aux = maps.Clone(bar.Aux)
	}

	return &InMemoryDataSource{bars: copied}
}

// Initialize implements DataSource. The path is ignored.
func (m *InMemoryDataSource) Initialize(_ string) error {
	return nil
}

// ReadAll implements DataSource.
func (m *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		for _, bar := range m.bars {
			if !inRange(bar.Time, start, end) {
				continue
			}

			bar.Aux = maps.Clone(bar.Aux)
			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (m *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, bar := range m.bars {
		if inRange(bar.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// AuxColumns implements DataSource.
func (m *InMemoryDataSource) AuxColumns() []string {
	return slices.Clone(types.AuxKeys(m.bars))
}

// Close implements DataSource.
func (m *InMemoryDataSource) Close() error {
	return nil
}
