package commission_fee

import (
	"math"

	"github.com/shopspring/decimal"
)

// PercentageCommissionFee charges a fixed fraction of the fill notional.
type PercentageCommissionFee struct {
	Rate float64
}

// NewPercentageCommissionFee creates a fee model charging rate x |quantity| x price.
func NewPercentageCommissionFee(rate float64) CommissionFee {
	return &PercentageCommissionFee{
		Rate: rate,
	}
}

func (c *PercentageCommissionFee) Calculate(quantity float64, price float64) float64 {
	notional := decimal.NewFromFloat(math.Abs(quantity)).Mul(decimal.NewFromFloat(price))
	fee, _ := notional.Mul(decimal.NewFromFloat(c.Rate)).Float64()

	return fee
}
