package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// EMA indicator implements Exponential Moving Average calculation.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Producer {
	return &EMA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

func (e *EMA) Inputs() []string {
	return []string{series.Close}
}

func (e *EMA) Outputs() []string {
	return []string{"value"}
}

// Compute expects the parameter period (int).
func (e *EMA) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(e.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", e.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{ExponentialMA(inputs[0], period)}, nil
}

// ExponentialMA seeds with the SMA of the first period values and then applies
// EMA = price * alpha + EMA_prev * (1 - alpha) with alpha = 2/(period+1), matching
// pandas ewm(span=period, adjust=False). A NaN restarts the average after it.
func ExponentialMA(values []float64, period int) []float64 {
	return unary(values, period-1, func(in []float64) []float64 {
		return talib.Ema(in, period)
	})
}
