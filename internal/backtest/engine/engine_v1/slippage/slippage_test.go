package slippage

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/stretchr/testify/suite"
)

type SlippageTestSuite struct {
	suite.Suite
}

func TestSlippageSuite(t *testing.T) {
	suite.Run(t, new(SlippageTestSuite))
}

func (suite *SlippageTestSuite) TestNoSlippage() {
	s := NewNoSlippage()
	suite.Equal(100.0, s.Apply(types.PurchaseTypeBuy, 100))
	suite.Equal(100.0, s.Apply(types.PurchaseTypeSell, 100))
}

func (suite *SlippageTestSuite) TestPercentageSlippageIsAdverse() {
	s := NewPercentageSlippage(0.01)

	suite.InDelta(101.0, s.Apply(types.PurchaseTypeBuy, 100), 1e-12)
	suite.InDelta(99.0, s.Apply(types.PurchaseTypeSell, 100), 1e-12)
}

func (suite *SlippageTestSuite) TestGetSlippageHandler() {
	suite.IsType(&NoSlippage{}, GetSlippageHandler(0))
	suite.IsType(&NoSlippage{}, GetSlippageHandler(-1))
	suite.IsType(&PercentageSlippage{}, GetSlippageHandler(0.001))
}

func (suite *SlippageTestSuite) TestCost() {
	suite.InDelta(10.0, Cost(100, 101, 10), 1e-12)
	suite.InDelta(10.0, Cost(100, 99, -10), 1e-12)
	suite.Equal(0.0, Cost(100, 100, 5))
}
