package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Keltner indicator returns the upper, middle and lower Keltner channel lines.
type Keltner struct {
	period     int
	atrPeriod  int
	multiplier float64
}

func NewKeltner() Producer {
	return &Keltner{
		period:     20,
		atrPeriod:  10,
		multiplier: 2.0,
	}
}

func (k *Keltner) Name() types.IndicatorType {
	return types.IndicatorTypeKeltner
}

func (k *Keltner) Inputs() []string {
	return []string{series.High, series.Low, series.Close}
}

func (k *Keltner) Outputs() []string {
	return []string{"upper", "middle", "lower"}
}

// Compute expects the parameters period (int), atr_period (int) and multiplier (float).
func (k *Keltner) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(k.Name(), inputs, 3); err != nil {
		return nil, err
	}

	period, err := params.Period("period", k.period)
	if err != nil {
		return nil, err
	}

	atrPeriod, err := params.Period("atr_period", k.atrPeriod)
	if err != nil {
		return nil, err
	}

	multiplier, err := params.Multiplier("multiplier", k.multiplier)
	if err != nil {
		return nil, err
	}

	upper, middle, lower := KeltnerChannels(inputs[0], inputs[1], inputs[2], period, atrPeriod, multiplier)

	return [][]float64{upper, middle, lower}, nil
}

// KeltnerChannels returns middle = EMA(close, period) and middle ± multiplier × ATR(atrPeriod).
func KeltnerChannels(high, low, closes []float64, period, atrPeriod int, multiplier float64) (upper, middle, lower []float64) {
	middle = ExponentialMA(closes, period)
	atr := AverageTrueRange(high, low, closes, atrPeriod)
	upper = nans(len(closes))
	lower = nans(len(closes))

	for i := range closes {
		if math.IsNaN(middle[i]) || math.IsNaN(atr[i]) {
			continue
		}

		upper[i] = middle[i] + multiplier*atr[i]
		lower[i] = middle[i] - multiplier*atr[i]
	}

	return upper, middle, lower
}
