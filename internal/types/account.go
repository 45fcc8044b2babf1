package types

import "time"

// AccountInfo represents the current account state including cash, equity, and P&L information.
type AccountInfo struct {
	// Cash is the current cash balance (excluding unrealized P&L)
	Cash float64 `json:"cash" yaml:"cash"`
	// Equity is cash plus the mark value of the open position at the bar close
	Equity float64 `json:"equity" yaml:"equity"`
	// PeakEquity is the highest equity marked so far
	PeakEquity float64 `json:"peak_equity" yaml:"peak_equity"`
	// BuyingPower is equity minus the margin locked by the open position
	BuyingPower float64 `json:"buying_power" yaml:"buying_power"`
	// RealizedPnL is the total realized profit/loss from closed trades
	RealizedPnL float64 `json:"realized_pnl" yaml:"realized_pnl"`
	// UnrealizedPnL is the profit/loss of the open position at the mark price
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	// TotalFees is the total commission paid
	TotalFees float64 `json:"total_fees" yaml:"total_fees"`
	// TotalSlippage is the total cost of adverse slippage
	TotalSlippage float64 `json:"total_slippage" yaml:"total_slippage"`
}

// EquityPoint is one sample of the equity curve, taken at a bar close.
type EquityPoint struct {
	Bar          int       `json:"bar" yaml:"bar" csv:"bar"`
	Time         time.Time `json:"time" yaml:"time" csv:"time"`
	Equity       float64   `json:"equity" yaml:"equity" csv:"equity"`
	Cash         float64   `json:"cash" yaml:"cash" csv:"cash"`
	PositionSize int       `json:"position_size" yaml:"position_size" csv:"position_size"`
	// Drawdown is the fractional distance below the running peak, 0 at a new high.
	Drawdown float64 `json:"drawdown" yaml:"drawdown" csv:"drawdown"`
}
