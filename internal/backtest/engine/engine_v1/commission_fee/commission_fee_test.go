package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		quantity float64
		price    float64
		expected float64
	}{
		{"zero quantity", 0, 100, 0},
		{"small quantity", 10, 100, 0},
		{"large quantity", 10000, 100, 0},
		{"negative quantity", -100, 100, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, fee.Calculate(tc.quantity, tc.price))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestInteractiveBrokerCommissionFee() {
	fee := NewInteractiveBrokerCommissionFee()
	suite.NotNil(fee)

	tests := []struct {
		name     string
		quantity float64
		expected float64
	}{
		{"zero quantity", 0, 1.0},
		{"small quantity - min fee", 10, 1.0},
		{"quantity at threshold", 200, 1.0},
		{"large quantity", 1000, 5.0},
		{"very large quantity", 10000, 50.0},
		{"sell side quantity", -1000, 5.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, fee.Calculate(tc.quantity, 123.45))
		})
	}
}

func (suite *CommissionFeeTestSuite) TestPercentageCommissionFee() {
	fee := NewPercentageCommissionFee(0.002)

	tests := []struct {
		name     string
		quantity float64
		price    float64
		expected float64
	}{
		{"round trip leg", 10, 100, 2.0},
		{"sell side", -10, 100, 2.0},
		{"fractional price", 3, 33.5, 0.201},
		{"zero quantity", 0, 100, 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, fee.Calculate(tc.quantity, tc.price), 1e-12)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	tests := []struct {
		name           string
		broker         Broker
		rate           float64
		testQuantity   float64
		testPrice      float64
		expectedResult float64
	}{
		{"percentage", BrokerPercentage, 0.001, 1000, 10, 10.0},
		{"percentage with zero rate", BrokerPercentage, 0, 1000, 10, 0.0},
		{"interactive broker", BrokerInteractiveBroker, 0.5, 1000, 10, 5.0},
		{"zero commission", BrokerZero, 0.5, 1000, 10, 0.0},
		{"unknown broker defaults to zero", Broker("unknown"), 0.5, 1000, 10, 0.0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			handler := GetCommissionFeeHandler(tc.broker, tc.rate)
			suite.NotNil(handler)
			suite.InDelta(tc.expectedResult, handler.Calculate(tc.testQuantity, tc.testPrice), 1e-12)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestAllBrokers() {
	suite.Len(AllBrokers, 3)
	suite.Contains(AllBrokers, BrokerPercentage)
	suite.Contains(AllBrokers, BrokerInteractiveBroker)
	suite.Contains(AllBrokers, BrokerZero)
}

func (suite *CommissionFeeTestSuite) TestBrokerConstants() {
	suite.Equal(Broker("percentage"), BrokerPercentage)
	suite.Equal(Broker("interactive_broker"), BrokerInteractiveBroker)
	suite.Equal(Broker("zero_commission"), BrokerZero)
}
