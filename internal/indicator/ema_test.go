package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type EMATestSuite struct {
	suite.Suite
}

func TestEMASuite(t *testing.T) {
	suite.Run(t, new(EMATestSuite))
}

func (suite *EMATestSuite) TestSeededWithSMA() {
	out := ExponentialMA([]float64{1, 2, 3, 4, 5}, 3)

	suite.True(math.IsNaN(out[1]))
	suite.InDelta(2.0, out[2], 1e-12)
	// alpha = 0.5
	suite.InDelta(3.0, out[3], 1e-12)
	suite.InDelta(4.0, out[4], 1e-12)
}

func (suite *EMATestSuite) TestSkipsLeadingNaN() {
	out := ExponentialMA([]float64{math.NaN(), math.NaN(), 2, 4, 6}, 2)

	suite.True(math.IsNaN(out[2]))
	suite.InDelta(3.0, out[3], 1e-12)
	// alpha = 2/3
	suite.InDelta(6*2.0/3.0+3*1.0/3.0, out[4], 1e-12)
}

func (suite *EMATestSuite) TestRestartsAfterNaN() {
	out := ExponentialMA([]float64{1, 3, math.NaN(), 2, 4, 6}, 2)

	suite.InDelta(2.0, out[1], 1e-12)
	suite.True(math.IsNaN(out[2]))
	suite.True(math.IsNaN(out[3]))
	suite.InDelta(3.0, out[4], 1e-12)
	suite.InDelta(5.0, out[5], 1e-12)
}

func (suite *EMATestSuite) TestShortAndEmptyInput() {
	suite.Empty(ExponentialMA(nil, 3))

	out := ExponentialMA([]float64{1, 2}, 3)
	suite.Len(out, 2)
	suite.True(math.IsNaN(out[0]))
	suite.True(math.IsNaN(out[1]))
}

func (suite *EMATestSuite) TestProducer() {
	out, err := NewEMA().Compute([][]float64{{1, 2, 3, 4, 5}}, Params{"period": 3.0})
	suite.Require().NoError(err)
	suite.InDelta(4.0, out[0][4], 1e-12)

	_, err = NewEMA().Compute([][]float64{{1, 2}}, Params{"period": 2.5})
	suite.Error(err)
}
