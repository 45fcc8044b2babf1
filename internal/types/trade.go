package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// CloseReason says why a trade was closed.
type CloseReason string

const (
	CloseReasonStopLoss      CloseReason = "stop_loss"
	CloseReasonTakeProfit    CloseReason = "take_profit"
	CloseReasonStrategyClose CloseReason = "strategy_close"
	CloseReasonTrailingStop  CloseReason = "trailing_stop"
	CloseReasonTimeExit      CloseReason = "time_exit"
)

// Trade is the closed lifecycle record of (a part of) a position.
type Trade struct {
	EntryBar   int       `yaml:"entry_bar" json:"entry_bar" csv:"entry_bar"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitBar    int       `yaml:"exit_bar" json:"exit_bar" csv:"exit_bar"`
	ExitTime   time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	// Size is signed: positive for a long trade, negative for a short one.
	Size int `yaml:"size" json:"size" csv:"size"`
	// PnL is the realized profit net of the entry commission share and the exit commission.
	PnL       float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	ReturnPct float64 `yaml:"return_pct" json:"return_pct" csv:"return_pct"`
	// Commission is the entry commission share plus the exit commission.
	Commission float64 `yaml:"commission" json:"commission" csv:"commission"`
	// SlippageCost is the cost of adverse slippage on both fills of this trade.
	SlippageCost float64     `yaml:"slippage_cost" json:"slippage_cost" csv:"slippage_cost"`
	CloseReason  CloseReason `yaml:"close_reason" json:"close_reason" csv:"close_reason"`
	Tag          string      `yaml:"tag" json:"tag" csv:"tag"`
}

// IsLong reports whether the trade was a long.
func (t Trade) IsLong() bool {
	return t.Size > 0
}

// DurationBars returns the number of bars the trade was held.
func (t Trade) DurationBars() int {
	return t.ExitBar - t.EntryBar
}

// Position is the single net position held by the broker.
type Position struct {
	// Size is positive for long, negative for short and zero when flat.
	Size int
	// EntryPrice is the weighted-average fill price of the open size.
	EntryPrice float64
	EntryBar   int
	EntryTime  time.Time
	// EntryCommission is the commission paid on the open size, released pro-rata on reduction.
	EntryCommission float64
	// EntrySlippage is the slippage cost paid on the open size, released pro-rata on reduction.
	EntrySlippage float64
	StopLoss      optional.Option[float64]
	TakeProfit    optional.Option[float64]
	// TrailingStop is the current trailing level. It only moves in the favorable direction.
	TrailingStop  optional.Option[float64]
	TrailDistance float64
	MaxBars       int
	Tag           string
}

func (p Position) IsFlat() bool {
	return p.Size == 0
}

func (p Position) IsLong() bool {
	return p.Size > 0
}

func (p Position) IsShort() bool {
	return p.Size < 0
}

// AbsSize returns |Size|.
func (p Position) AbsSize() int {
	if p.Size < 0 {
		return -p.Size
	}

	return p.Size
}

// PositionType returns LONG or SHORT. A flat position reports LONG.
func (p Position) PositionType() PositionType {
	if p.IsShort() {
		return PositionTypeShort
	}

	return PositionTypeLong
}

// MarketValue returns size x price.
func (p Position) MarketValue(price float64) float64 {
	result, _ := decimal.NewFromInt(int64(p.Size)).Mul(decimal.NewFromFloat(price)).Float64()

	return result
}

// UnrealizedPnL returns size x (price - entry), before commissions.
func (p Position) UnrealizedPnL(price float64) float64 {
	if p.IsFlat() {
		return 0
	}

	diff := decimal.NewFromFloat(price).Sub(decimal.NewFromFloat(p.EntryPrice))
	result, _ := decimal.NewFromInt(int64(p.Size)).Mul(diff).Float64()

	return result
}

// UnrealizedPnLPct returns the open return in percent of the entry price.
func (p Position) UnrealizedPnLPct(price float64) float64 {
	if p.IsFlat() || p.EntryPrice == 0 {
		return 0
	}

	sign := 1.0
	if p.IsShort() {
		sign = -1.0
	}

	return sign * (price - p.EntryPrice) / p.EntryPrice * 100
}

// OpenTrade is the strategy view of the currently open position.
type OpenTrade struct {
	EntryBar   int
	EntryTime  time.Time
	EntryPrice float64
	Size       int
	StopLoss   optional.Option[float64]
	TakeProfit optional.Option[float64]
	Trailing   optional.Option[float64]
	Tag        string
}
