package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestIndicatorTypeConstants() {
	suite.Equal(IndicatorType("sma"), IndicatorTypeSMA)
	suite.Equal(IndicatorType("ema"), IndicatorTypeEMA)
	suite.Equal(IndicatorType("rsi"), IndicatorTypeRSI)
	suite.Equal(IndicatorType("macd"), IndicatorTypeMACD)
	suite.Equal(IndicatorType("bollinger_bands"), IndicatorTypeBollingerBands)
	suite.Equal(IndicatorType("vortex"), IndicatorTypeVortex)
	suite.Equal(IndicatorType("keltner"), IndicatorTypeKeltner)
	suite.Equal(IndicatorType("atr"), IndicatorTypeATR)
}
