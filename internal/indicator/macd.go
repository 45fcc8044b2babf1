package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MACD indicator returns the MACD line, its signal line and the histogram.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Producer {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

func (m *MACD) Inputs() []string {
	return []string{series.Close}
}

func (m *MACD) Outputs() []string {
	return []string{"macd", "signal", "histogram"}
}

// Compute expects the parameters fast_period, slow_period and signal_period (int).
func (m *MACD) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(m.Name(), inputs, 1); err != nil {
		return nil, err
	}

	fast, err := params.Period("fast_period", m.fastPeriod)
	if err != nil {
		return nil, err
	}

	slow, err := params.Period("slow_period", m.slowPeriod)
	if err != nil {
		return nil, err
	}

	signal, err := params.Period("signal_period", m.signalPeriod)
	if err != nil {
		return nil, err
	}

	if fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "fast_period %d must be below slow_period %d", fast, slow)
	}

	line, sig, hist := ConvergenceDivergence(inputs[0], fast, slow, signal)

	return [][]float64{line, sig, hist}, nil
}

// ConvergenceDivergence returns EMA(fast) - EMA(slow), its EMA(signal) and their difference.
// The signal EMA starts on the first defined MACD value rather than on the warmup.
func ConvergenceDivergence(values []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := ExponentialMA(values, fast)
	slowEMA := ExponentialMA(values, slow)
	line = nans(len(values))

	for i := range values {
		if math.IsNaN(fastEMA[i]) || math.IsNaN(slowEMA[i]) {
			continue
		}

		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig = ExponentialMA(line, signal)
	hist = nans(len(values))

	for i := range values {
		if math.IsNaN(line[i]) || math.IsNaN(sig[i]) {
			continue
		}

		hist[i] = line[i] - sig[i]
	}

	return line, sig, hist
}
