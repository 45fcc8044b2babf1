package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ATRTestSuite struct {
	suite.Suite
}

func TestATRSuite(t *testing.T) {
	suite.Run(t, new(ATRTestSuite))
}

func (suite *ATRTestSuite) TestTrueRange() {
	high := []float64{10, 12, 11}
	low := []float64{8, 11, 7}
	closes := []float64{9, 11.5, 8}

	tr := TrueRange(high, low, closes)

	suite.Equal(2.0, tr[0])
	// max(1, |12-9|, |11-9|)
	suite.Equal(3.0, tr[1])
	// max(4, |11-11.5|, |7-11.5|)
	suite.Equal(4.5, tr[2])
}

func (suite *ATRTestSuite) TestAverageTrueRange() {
	high := []float64{10, 12, 11}
	low := []float64{8, 11, 7}
	closes := []float64{9, 11.5, 8}

	atr := AverageTrueRange(high, low, closes, 2)

	suite.True(math.IsNaN(atr[0]))
	suite.True(math.IsNaN(atr[1]))
	// mean of the true ranges of bars 1 and 2
	suite.InDelta(3.75, atr[2], 1e-12)
}

func (suite *ATRTestSuite) TestWilderSmoothing() {
	high := []float64{10, 12, 11, 12}
	low := []float64{8, 11, 7, 10}
	closes := []float64{9, 11.5, 8, 11}

	atr := AverageTrueRange(high, low, closes, 2)

	// TR of bar 3 is max(2, |12-8|, |10-8|) = 4
	suite.InDelta((3.75+4)/2, atr[3], 1e-12)
}

func (suite *ATRTestSuite) TestNaNInputsLeaveWarmup() {
	high := []float64{math.NaN(), 10, 12, 11}
	low := []float64{math.NaN(), 8, 11, 7}
	closes := []float64{math.NaN(), 9, 11.5, 8}

	atr := AverageTrueRange(high, low, closes, 2)

	suite.True(math.IsNaN(atr[2]))
	suite.InDelta(3.75, atr[3], 1e-12)
}

func (suite *ATRTestSuite) TestProducerArity() {
	atr := NewATR()
	suite.Equal([]string{"High", "Low", "Close"}, atr.Inputs())

	_, err := atr.Compute([][]float64{{1}}, nil)
	suite.Error(err)
}
