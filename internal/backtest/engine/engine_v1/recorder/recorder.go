// Package recorder accumulates the observable output of a backtest run and freezes it into
// an immutable RunRecord with the terminal statistics.
package recorder

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Settings are the run parameters the statistics depend on, kept with the record.
type Settings struct {
	InitialCash     float64        `yaml:"initial_cash" json:"initial_cash"`
	Commission      float64        `yaml:"commission" json:"commission"`
	Slippage        float64        `yaml:"slippage" json:"slippage"`
	Margin          float64        `yaml:"margin" json:"margin"`
	ExclusiveOrders bool           `yaml:"exclusive_orders" json:"exclusive_orders"`
	Broker          string         `yaml:"broker" json:"broker"`
	BarsPerYear     float64        `yaml:"bars_per_year" json:"bars_per_year"`
	Params          map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

func (s Settings) clone() Settings {
	c := s
	c.Params = map[string]any(indicator.Params(s.Params).Clone())

	return c
}

// Totals are the account aggregates reported by the broker after the run.
type Totals struct {
	Fees     float64
	Slippage float64
}

// Recorder collects per-bar samples while the run is in progress.
type Recorder struct {
	settings Settings
	strategy types.StrategyInfo
	instance runtime.Strategy
	equity   []types.EquityPoint
	closes   []float64
}

// NewRecorder creates a recorder for a run with the given settings.
func NewRecorder(settings Settings, strategy types.StrategyInfo) *Recorder {
	strategy.Params = map[string]any(indicator.Params(strategy.Params).Clone())

	return &Recorder{
		settings: settings.clone(),
		strategy: strategy,
		instance: nil,
		equity:   []types.EquityPoint{},
		closes:   []float64{},
	}
}

// RecordBar stores the equity sample taken at the close of bar.
func (r *Recorder) RecordBar(bar types.Bar, point types.EquityPoint) {
	r.equity = append(r.equity, point)
	r.closes = append(r.closes, bar.Close)
}

// Attach keeps the strategy instance that produced the run for introspection.
func (r *Recorder) Attach(instance runtime.Strategy) {
	r.instance = instance
}

// Len returns the number of recorded bars.
func (r *Recorder) Len() int {
	return len(r.equity)
}

// Finalize replaces the last equity sample with final, the state after the end-of-run
// liquidation, and computes the statistics.
func (r *Recorder) Finalize(
	final types.EquityPoint,
	trades []types.Trade,
	rejections []types.Rejection,
	logs []types.LogEntry,
	totals Totals,
) *RunRecord {
	equity := slices.Clone(r.equity)
	if len(equity) > 0 {
		equity[len(equity)-1] = final
	}

	record := &RunRecord{
		settings:   r.settings.clone(),
		strategy:   r.strategy,
		instance:   r.instance,
		equity:     equity,
		trades:     slices.Clone(trades),
		rejections: slices.Clone(rejections),
		logs:       slices.Clone(logs),
		stats:      types.RunStats{},
	}

	record.stats = ComputeStats(StatsInput{
		InitialCash: r.settings.InitialCash,
		BarsPerYear: r.settings.BarsPerYear,
		Equity:      equity,
		Closes:      slices.Clone(r.closes),
		Trades:      trades,
		Rejections:  len(rejections),
		Totals:      totals,
	})
	record.stats.Strategy = r.strategy

	return record
}

// RunRecord is the immutable result of a run. Getters return copies.
type RunRecord struct {
	settings   Settings
	strategy   types.StrategyInfo
	instance   runtime.Strategy
	equity     []types.EquityPoint
	trades     []types.Trade
	rejections []types.Rejection
	logs       []types.LogEntry
	stats      types.RunStats
}

// EquityCurve returns one equity sample per bar.
func (r *RunRecord) EquityCurve() []types.EquityPoint {
	return slices.Clone(r.equity)
}

// Trades returns the closed trades in exit order.
func (r *RunRecord) Trades() []types.Trade {
	return slices.Clone(r.trades)
}

// Rejections returns the refused orders in the order they were refused.
func (r *RunRecord) Rejections() []types.Rejection {
	return slices.Clone(r.rejections)
}

// Logs returns the strategy trace messages.
func (r *RunRecord) Logs() []types.LogEntry {
	out := make([]types.LogEntry, len(r.logs))
	for i, entry := range r.logs {
		out[i] = entry
		if entry.Fields != nil {
			out[i].Fields = make(map[string]string, len(entry.Fields))
			for k, v := range entry.Fields {
				out[i].Fields[k] = v
			}
		}
	}

	return out
}

// Stats returns the terminal statistics.
func (r *RunRecord) Stats() types.RunStats {
	stats := r.stats
	stats.Strategy.Params = map[string]any(indicator.Params(r.stats.Strategy.Params).Clone())

	return stats
}

// StatsMap returns the statistics keyed by display name.
func (r *RunRecord) StatsMap() map[string]any {
	return r.stats.Map()
}

// Config returns the run settings.
func (r *RunRecord) Config() Settings {
	return r.settings.clone()
}

// Strategy returns the strategy metadata.
func (r *RunRecord) Strategy() types.StrategyInfo {
	info := r.strategy
	info.Params = map[string]any(indicator.Params(r.strategy.Params).Clone())

	return info
}

// Instance returns the strategy instance in its final state, nil when none was attached.
func (r *RunRecord) Instance() runtime.Strategy {
	return r.instance
}

// Start returns the time of the first bar, zero for an empty record.
func (r *RunRecord) Start() time.Time {
	if len(r.equity) == 0 {
		return time.Time{}
	}

	return r.equity[0].Time
}
