package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StrategyInfo contains metadata about the strategy that generated stats.
type StrategyInfo struct {
	// Name is the human-readable name of the strategy
	Name string `yaml:"name" json:"name"`
	// Version is the engine version the strategy declares, empty when undeclared
	Version string `yaml:"version" json:"version"`
	// Params are the parameters the strategy ran with
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// RunStats is the terminal statistics report of a backtest run.
// Percentages are expressed in percent, ratios are plain numbers. Undefined values are NaN.
type RunStats struct {
	Start           time.Time `yaml:"start" json:"start"`
	End             time.Time `yaml:"end" json:"end"`
	Duration        string    `yaml:"duration" json:"duration"`
	Bars            int       `yaml:"bars" json:"bars"`
	ExposureTimePct float64   `yaml:"exposure_time_pct" json:"exposure_time_pct"`
	InitialEquity   float64   `yaml:"initial_equity" json:"initial_equity"`
	FinalEquity     float64   `yaml:"final_equity" json:"final_equity"`
	PeakEquity      float64   `yaml:"peak_equity" json:"peak_equity"`
	ReturnPct       float64   `yaml:"return_pct" json:"return_pct"`
	BuyAndHoldPct   float64   `yaml:"buy_and_hold_return_pct" json:"buy_and_hold_return_pct"`
	AnnualReturnPct float64   `yaml:"annual_return_pct" json:"annual_return_pct"`
	AnnualVolPct    float64   `yaml:"annual_volatility_pct" json:"annual_volatility_pct"`
	SharpeRatio     float64   `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio    float64   `yaml:"sortino_ratio" json:"sortino_ratio"`
	CalmarRatio     float64   `yaml:"calmar_ratio" json:"calmar_ratio"`
	MaxDrawdownPct  float64   `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	MaxDrawdown     float64   `yaml:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownBars int       `yaml:"max_drawdown_duration_bars" json:"max_drawdown_duration_bars"`
	NumberOfTrades  int       `yaml:"number_of_trades" json:"number_of_trades"`
	WinRatePct      float64   `yaml:"win_rate_pct" json:"win_rate_pct"`
	BestTradePct    float64   `yaml:"best_trade_pct" json:"best_trade_pct"`
	WorstTradePct   float64   `yaml:"worst_trade_pct" json:"worst_trade_pct"`
	AvgTradePnL     float64   `yaml:"avg_trade_pnl" json:"avg_trade_pnl"`
	AvgTradePct     float64   `yaml:"avg_trade_pct" json:"avg_trade_pct"`
	ProfitFactor    float64   `yaml:"profit_factor" json:"profit_factor"`
	Expectancy      float64   `yaml:"expectancy" json:"expectancy"`
	SQN             float64   `yaml:"sqn" json:"sqn"`
	AvgTradeBars    float64   `yaml:"avg_trade_duration_bars" json:"avg_trade_duration_bars"`
	TotalCommission float64   `yaml:"total_commission" json:"total_commission"`
	TotalSlippage   float64   `yaml:"total_slippage" json:"total_slippage"`
	RejectedOrders  int       `yaml:"rejected_orders" json:"rejected_orders"`
	BarsPerYear     float64   `yaml:"bars_per_year" json:"bars_per_year"`

	Strategy StrategyInfo `yaml:"strategy" json:"strategy"`
}

// StatEntry is one named value of the statistics map.
type StatEntry struct {
	Key   string
	Value any
}

// Entries returns the statistics in a fixed display order.
func (s RunStats) Entries() []StatEntry {
	return []StatEntry{
		{"Start", s.Start},
		{"End", s.End},
		{"Duration", s.Duration},
		{"Bars", s.Bars},
		{"Exposure Time [%]", s.ExposureTimePct},
		{"Equity Final [$]", s.FinalEquity},
		{"Equity Peak [$]", s.PeakEquity},
		{"Return [%]", s.ReturnPct},
		{"Buy & Hold Return [%]", s.BuyAndHoldPct},
		{"Return (Ann.) [%]", s.AnnualReturnPct},
		{"Volatility (Ann.) [%]", s.AnnualVolPct},
		{"Sharpe Ratio", s.SharpeRatio},
		{"Sortino Ratio", s.SortinoRatio},
		{"Calmar Ratio", s.CalmarRatio},
		{"Max. Drawdown [%]", s.MaxDrawdownPct},
		{"Max. Drawdown [$]", s.MaxDrawdown},
		{"Max. Drawdown Duration [bars]", s.MaxDrawdownBars},
		{"# Trades", s.NumberOfTrades},
		{"Win Rate [%]", s.WinRatePct},
		{"Best Trade [%]", s.BestTradePct},
		{"Worst Trade [%]", s.WorstTradePct},
		{"Avg. Trade [$]", s.AvgTradePnL},
		{"Avg. Trade [%]", s.AvgTradePct},
		{"Profit Factor", s.ProfitFactor},
		{"Expectancy [$]", s.Expectancy},
		{"SQN", s.SQN},
		{"Avg. Trade Duration [bars]", s.AvgTradeBars},
		{"Commissions [$]", s.TotalCommission},
		{"Slippage [$]", s.TotalSlippage},
		{"# Rejected Orders", s.RejectedOrders},
	}
}

// Map returns the statistics keyed by display name.
func (s RunStats) Map() map[string]any {
	entries := s.Entries()
	result := make(map[string]any, len(entries))

	for _, entry := range entries {
		result[entry.Key] = entry.Value
	}

	return result
}

// FormatStatValue renders a statistic for display.
func FormatStatValue(value any) string {
	switch v := value.(type) {
	case float64:
		return fmt.Sprintf("%.4f", v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// WriteRunStats writes the statistics to path as YAML.
func WriteRunStats(path string, stats RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}

// ReadRunStats reads statistics written by WriteRunStats.
func ReadRunStats(path string) (RunStats, error) {
	var stats RunStats

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, fmt.Errorf("failed to read run stats: %w", err)
	}

	if err := yaml.Unmarshal(data, &stats); err != nil {
		return stats, fmt.Errorf("failed to unmarshal run stats: %w", err)
	}

	return stats, nil
}
