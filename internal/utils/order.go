package utils

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
)

// FloorSize converts a fractional size to an order size by flooring toward zero.
// NaN and infinite sizes become 0.
func FloorSize(size float64) int {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return 0
	}

	return int(math.Trunc(size))
}

// CalculateMaxQuantity calculates the maximum quantity that can be bought with the given balance,
// accounting for the commission of the fill.
func CalculateMaxQuantity(balance float64, price float64, commissionFee commission_fee.CommissionFee) float64 {
	// Handle edge cases
	if price <= 0 || balance <= 0 {
		return 0
	}

	// Initial rough estimate (ignoring fees)
	maxQty := balance / price

	// Iteratively refine by accounting for fees
	for i := 0; i < 10; i++ { // Usually converges quickly, limit iterations
		totalCost := maxQty*price + commissionFee.Calculate(maxQty, price)
		if totalCost <= balance {
			break
		}
		// Adjust quantity down proportionally
		adjustment := balance / totalCost
		maxQty = maxQty * adjustment
	}

	return maxQty
}

// MaxAffordableSize returns the largest whole size whose notional times margin plus commission
// fits into cash.
func MaxAffordableSize(cash float64, price float64, margin float64, commissionFee commission_fee.CommissionFee) int {
	if margin <= 0 {
		margin = 1
	}

	size := FloorSize(CalculateMaxQuantity(cash/margin, price, commissionFee))
	for size > 0 && float64(size)*price*margin+commissionFee.Calculate(float64(size), price) > cash {
		size--
	}

	return size
}

// SizeByPercentage returns the whole size buying percentage (0..1) of cash worth at price.
func SizeByPercentage(cash float64, price float64, commissionFee commission_fee.CommissionFee, percentage float64) int {
	return MaxAffordableSize(cash*percentage, price, 1, commissionFee)
}

// RiskSize returns the whole size that loses riskFraction of equity if price moves from entry
// to stop.
func RiskSize(equity float64, riskFraction float64, entry float64, stop float64) int {
	perUnit := math.Abs(entry - stop)
	if perUnit == 0 || equity <= 0 || riskFraction <= 0 {
		return 0
	}

	return FloorSize(equity * riskFraction / perUnit)
}
