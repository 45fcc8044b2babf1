package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type VortexTestSuite struct {
	suite.Suite
}

func TestVortexSuite(t *testing.T) {
	suite.Run(t, new(VortexTestSuite))
}

func (suite *VortexTestSuite) TestVortexLines() {
	high := []float64{10, 12, 13}
	low := []float64{9, 10, 11}
	closes := []float64{9.5, 11, 12}

	plus, minus := VortexLines(high, low, closes, 2)

	suite.True(math.IsNaN(plus[1]))
	// VM+ = |12-9| + |13-10| = 6, VM- = |10-10| + |11-12| = 1
	// TR = max(2, |12-9.5|, |10-9.5|) + max(2, |13-11|, |11-11|) = 2.5 + 2
	suite.InDelta(6/4.5, plus[2], 1e-12)
	suite.InDelta(1/4.5, minus[2], 1e-12)
}

func (suite *VortexTestSuite) TestUptrendFavoursPlusLine() {
	n := 40
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)

	for i := range n {
		base := 100 + float64(i)
		high[i] = base + 1
		low[i] = base - 1
		closes[i] = base + 0.5
	}

	out, err := NewVortex().Compute([][]float64{high, low, closes}, nil)
	suite.Require().NoError(err)
	suite.Greater(out[0][n-1], out[1][n-1])
}
