package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RSI indicator implements the Relative Strength Index with Wilder's smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Producer {
	return &RSI{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

func (r *RSI) Inputs() []string {
	return []string{series.Close}
}

func (r *RSI) Outputs() []string {
	return []string{"value"}
}

// Compute expects the parameter period (int).
func (r *RSI) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(r.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", r.period)
	if err != nil {
		return nil, err
	}

	if period < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be at least 2, got %d", period)
	}

	return [][]float64{RelativeStrength(inputs[0], period)}, nil
}

// RelativeStrength returns RSI values in [0, 100] with Wilder's smoothing. The first value
// is at index period; a window without any move reads 0.
func RelativeStrength(values []float64, period int) []float64 {
	if period < 2 {
		return nans(len(values))
	}

	return unary(values, period, func(in []float64) []float64 {
		return talib.Rsi(in, period)
	})
}
