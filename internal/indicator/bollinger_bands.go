package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// BollingerBands indicator returns the upper, middle and lower bands.
type BollingerBands struct {
	period int
	stdDev float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Producer {
	return &BollingerBands{
		period: 20,
		stdDev: 2.0,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

func (bb *BollingerBands) Inputs() []string {
	return []string{series.Close}
}

func (bb *BollingerBands) Outputs() []string {
	return []string{"upper", "middle", "lower"}
}

// Compute expects the parameters period (int) and std_dev (float).
func (bb *BollingerBands) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(bb.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", bb.period)
	if err != nil {
		return nil, err
	}

	if period < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be at least 2, got %d", period)
	}

	k, err := params.Multiplier("std_dev", bb.stdDev)
	if err != nil {
		return nil, err
	}

	upper, middle, lower := Bands(inputs[0], period, k)

	return [][]float64{upper, middle, lower}, nil
}

// Bands returns middle = SMA(period) and middle ± k × population standard deviation.
// period must be at least 2.
func Bands(values []float64, period int, k float64) (upper, middle, lower []float64) {
	if period < 2 {
		return nans(len(values)), nans(len(values)), nans(len(values))
	}

	out := segmented([][]float64{values}, 3, period-1, func(in [][]float64) [][]float64 {
		upper, middle, lower := talib.BBands(in[0], period, k, k, talib.SMA)

		return [][]float64{upper, middle, lower}
	})

	return out[0], out[1], out[2]
}
