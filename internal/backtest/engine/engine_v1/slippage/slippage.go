// Package slippage models the adverse price movement applied to simulated fills.
package slippage

import (
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
)

// Slippage adjusts a fill price against the side of the fill.
type Slippage interface {
	Apply(side types.PurchaseType, price float64) float64
}

// NoSlippage fills at the quoted price.
type NoSlippage struct{}

func NewNoSlippage() Slippage {
	return &NoSlippage{}
}

func (s *NoSlippage) Apply(_ types.PurchaseType, price float64) float64 {
	return price
}

// PercentageSlippage moves buys up and sells down by a fraction of the price.
type PercentageSlippage struct {
	Rate float64
}

func NewPercentageSlippage(rate float64) Slippage {
	return &PercentageSlippage{
		Rate: rate,
	}
}

func (s *PercentageSlippage) Apply(side types.PurchaseType, price float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(s.Rate).Mul(decimal.NewFromInt(int64(side.Sign()))))
	result, _ := decimal.NewFromFloat(price).Mul(factor).Float64()

	return result
}

// GetSlippageHandler returns the percentage model for a positive rate and NoSlippage otherwise.
func GetSlippageHandler(rate float64) Slippage {
	if rate <= 0 {
		return NewNoSlippage()
	}

	return NewPercentageSlippage(rate)
}

// Cost returns the absolute cost of slippage for a fill of size units.
func Cost(quoted float64, filled float64, size int) float64 {
	diff := decimal.NewFromFloat(filled).Sub(decimal.NewFromFloat(quoted)).Abs()
	result, _ := diff.Mul(decimal.NewFromInt(int64(size)).Abs()).Float64()

	return result
}
