package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Vortex indicator returns the positive and negative vortex lines (+VI, -VI).
type Vortex struct {
	period int
}

func NewVortex() Producer {
	return &Vortex{period: 14}
}

func (v *Vortex) Name() types.IndicatorType {
	return types.IndicatorTypeVortex
}

func (v *Vortex) Inputs() []string {
	return []string{series.High, series.Low, series.Close}
}

func (v *Vortex) Outputs() []string {
	return []string{"plus", "minus"}
}

// Compute expects the parameter period (int).
func (v *Vortex) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(v.Name(), inputs, 3); err != nil {
		return nil, err
	}

	period, err := params.Period("period", v.period)
	if err != nil {
		return nil, err
	}

	plus, minus := VortexLines(inputs[0], inputs[1], inputs[2], period)

	return [][]float64{plus, minus}, nil
}

// VortexLines returns +VI = sum(|high - prevLow|) / sum(TR) and -VI = sum(|low - prevHigh|) / sum(TR)
// over period bars. The first value is at index period.
func VortexLines(high, low, closes []float64, period int) (plus, minus []float64) {
	n := len(high)
	plus = nans(n)
	minus = nans(n)
	tr := TrueRange(high, low, closes)

	for i := period; i < n; i++ {
		var vmPlus, vmMinus, trSum float64

		for j := i - period + 1; j <= i; j++ {
			vmPlus += math.Abs(high[j] - low[j-1])
			vmMinus += math.Abs(low[j] - high[j-1])
			trSum += tr[j]
		}

		if trSum == 0 {
			continue
		}

		plus[i] = vmPlus / trSum
		minus[i] = vmMinus / trSum
	}

	return plus, minus
}
