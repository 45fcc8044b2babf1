package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// ATR indicator implements the Average True Range.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Producer {
	return &ATR{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

func (a *ATR) Inputs() []string {
	return []string{series.High, series.Low, series.Close}
}

func (a *ATR) Outputs() []string {
	return []string{"value"}
}

// Compute expects the parameter period (int).
func (a *ATR) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(a.Name(), inputs, 3); err != nil {
		return nil, err
	}

	period, err := params.Period("period", a.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{AverageTrueRange(inputs[0], inputs[1], inputs[2], period)}, nil
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|). The first bar uses high-low.
func TrueRange(high, low, closes []float64) []float64 {
	if len(high) == 0 {
		return []float64{}
	}

	tr := talib.TRange(high, low, closes)
	tr[0] = high[0] - low[0]

	return tr
}

// AverageTrueRange seeds with the mean true range of bars 1..period and then applies
// Wilder's smoothing. The first value is at index period.
func AverageTrueRange(high, low, closes []float64, period int) []float64 {
	return segmented([][]float64{high, low, closes}, 1, period, func(in [][]float64) [][]float64 {
		return [][]float64{talib.Atr(in[0], in[1], in[2], period)}
	})[0]
}
