package utils

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsTestSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

func (suite *UtilsTestSuite) TestFloorSize() {
	tests := []struct {
		name     string
		size     float64
		expected int
	}{
		{"whole", 10, 10},
		{"fraction floors", 10.9, 10},
		{"negative truncates toward zero", -3.7, -3},
		{"below one", 0.99, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, FloorSize(tc.size))
		})
	}
}

func (suite *UtilsTestSuite) TestCalculateMaxQuantity() {
	tests := []struct {
		name          string
		balance       float64
		price         float64
		commissionFee commission_fee.CommissionFee
		expectedQty   int
	}{
		{
			name:          "Simple case with no commission",
			balance:       1000.0,
			price:         100.0,
			commissionFee: commission_fee.NewZeroCommissionFee(),
			expectedQty:   10,
		},
		{
			name:          "Case with commission",
			balance:       1000.0,
			price:         100.0,
			commissionFee: commission_fee.NewInteractiveBrokerCommissionFee(),
			expectedQty:   9,
		},
		{
			name:          "Zero balance",
			balance:       0,
			price:         100.0,
			commissionFee: commission_fee.NewZeroCommissionFee(),
			expectedQty:   0,
		},
		{
			name:          "Zero price",
			balance:       1000.0,
			price:         0,
			commissionFee: commission_fee.NewZeroCommissionFee(),
			expectedQty:   0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			qty := CalculateMaxQuantity(tc.balance, tc.price, tc.commissionFee)
			suite.Equal(tc.expectedQty, FloorSize(qty))
		})
	}
}

func (suite *UtilsTestSuite) TestMaxAffordableSize() {
	zero := commission_fee.NewZeroCommissionFee()
	pct := commission_fee.NewPercentageCommissionFee(0.01)

	suite.Equal(100, MaxAffordableSize(10000, 100, 1, zero))
	suite.Equal(50, MaxAffordableSize(10000, 100, 2, zero))
	// 99 * 100 * 1.01 = 9999 fits, 100 * 100 * 1.01 = 10100 does not
	suite.Equal(99, MaxAffordableSize(10000, 100, 1, pct))
	suite.Equal(0, MaxAffordableSize(50, 100, 1, zero))
	suite.Equal(100, MaxAffordableSize(10000, 100, 0, zero))
}

func (suite *UtilsTestSuite) TestSizeByPercentage() {
	zero := commission_fee.NewZeroCommissionFee()

	suite.Equal(50, SizeByPercentage(10000, 100, zero, 0.5))
	suite.Equal(0, SizeByPercentage(10000, 100, zero, 0))
}

func (suite *UtilsTestSuite) TestRiskSize() {
	// risking 1% of 100k with a 5 point stop
	suite.Equal(200, RiskSize(100000, 0.01, 100, 95))
	// stop above entry for shorts uses the absolute distance
	suite.Equal(200, RiskSize(100000, 0.01, 95, 100))
	suite.Equal(333, RiskSize(100000, 0.01, 100, 97))
	suite.Equal(0, RiskSize(100000, 0.01, 100, 100))
	suite.Equal(0, RiskSize(0, 0.01, 100, 95))
}
