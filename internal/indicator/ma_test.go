package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

// MATestSuite covers the moving average family
type MATestSuite struct {
	suite.Suite
}

func TestMASuite(t *testing.T) {
	suite.Run(t, new(MATestSuite))
}

func (suite *MATestSuite) TestSMA() {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	suite.True(math.IsNaN(out[0]))
	suite.True(math.IsNaN(out[1]))
	suite.InDelta(2.0, out[2], 1e-12)
	suite.InDelta(3.0, out[3], 1e-12)
	suite.InDelta(4.0, out[4], 1e-12)
}

func (suite *MATestSuite) TestSMAPropagatesNaNWindows() {
	out := SMA([]float64{math.NaN(), 2, 4, 6, 8}, 2)

	suite.True(math.IsNaN(out[0]))
	suite.True(math.IsNaN(out[1]))
	suite.InDelta(3.0, out[2], 1e-12)
	suite.InDelta(7.0, out[4], 1e-12)
}

func (suite *MATestSuite) TestSMAPeriodLongerThanData() {
	out := SMA([]float64{1, 2}, 5)
	suite.Len(out, 2)
	suite.True(math.IsNaN(out[1]))
}

func (suite *MATestSuite) TestMAProducer() {
	ma := NewMA().(*MA)

	out, err := ma.Compute([][]float64{{1, 2, 3, 4}}, Params{"period": 2})
	suite.Require().NoError(err)
	suite.Len(out, 1)
	suite.InDelta(3.5, out[0][3], 1e-12)

	_, err = ma.Compute([][]float64{{1, 2}}, Params{"period": 0})
	suite.Error(err)

	_, err = ma.Compute([][]float64{{1}, {2}}, nil)
	suite.Error(err)
}

func (suite *MATestSuite) TestWeightedMA() {
	out := WeightedMA([]float64{1, 2, 3}, 3)

	suite.True(math.IsNaN(out[1]))
	// (1*1 + 2*2 + 3*3) / 6
	suite.InDelta(14.0/6.0, out[2], 1e-12)
}

func (suite *MATestSuite) TestRollingStdDev() {
	out := RollingStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	suite.InDelta(2.0, out[7], 1e-12)
}

func (suite *MATestSuite) TestPeriodOne() {
	values := []float64{3, 1, 4}

	suite.Equal(values, RollingMax(values, 1))
	suite.Equal(values, RollingMin(values, 1))
	suite.InDelta(1.0, SMA(values, 1)[1], 1e-12)
	suite.Equal(0.0, RollingStdDev(values, 1)[2])
}

func (suite *MATestSuite) TestRollingExtremes() {
	values := []float64{3, 1, 4, 1, 5, 9, 2}

	highest := RollingMax(values, 3)
	lowest := RollingMin(values, 3)

	suite.True(math.IsNaN(highest[1]))
	suite.Equal(4.0, highest[2])
	suite.Equal(9.0, highest[6])
	suite.Equal(1.0, lowest[2])
	suite.Equal(2.0, lowest[6])
}
