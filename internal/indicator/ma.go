package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// MA indicator implements Simple Moving Average calculation.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Producer {
	return &MA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

func (m *MA) Inputs() []string {
	return []string{series.Close}
}

func (m *MA) Outputs() []string {
	return []string{"value"}
}

// Compute expects the parameter period (int).
func (m *MA) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(m.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", m.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{SMA(inputs[0], period)}, nil
}

// SMA returns the simple moving average of values. A window holding a NaN yields NaN.
func SMA(values []float64, period int) []float64 {
	return unary(values, period-1, func(in []float64) []float64 {
		return talib.Sma(in, period)
	})
}

// WMA indicator implements the linearly weighted moving average.
type WMA struct {
	period int
}

func NewWMA() Producer {
	return &WMA{period: 20}
}

func (w *WMA) Name() types.IndicatorType {
	return types.IndicatorTypeWMA
}

func (w *WMA) Inputs() []string {
	return []string{series.Close}
}

func (w *WMA) Outputs() []string {
	return []string{"value"}
}

func (w *WMA) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(w.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", w.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{WeightedMA(inputs[0], period)}, nil
}

// WeightedMA weights the newest value of each window by period and the oldest by 1.
func WeightedMA(values []float64, period int) []float64 {
	return unary(values, period-1, func(in []float64) []float64 {
		return talib.Wma(in, period)
	})
}

// StdDev indicator implements the rolling population standard deviation.
type StdDev struct {
	period int
}

func NewStdDev() Producer {
	return &StdDev{period: 20}
}

func (s *StdDev) Name() types.IndicatorType {
	return types.IndicatorTypeStdDev
}

func (s *StdDev) Inputs() []string {
	return []string{series.Close}
}

func (s *StdDev) Outputs() []string {
	return []string{"value"}
}

func (s *StdDev) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(s.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", s.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{RollingStdDev(inputs[0], period)}, nil
}

// RollingStdDev returns the population standard deviation of each window.
func RollingStdDev(values []float64, period int) []float64 {
	return unary(values, period-1, func(in []float64) []float64 {
		if period == 1 {
			return make([]float64, len(in))
		}

		return talib.StdDev(in, period, 1)
	})
}

// Highest indicator returns the rolling maximum, the upper Donchian band.
type Highest struct {
	period int
}

func NewHighest() Producer {
	return &Highest{period: 20}
}

func (h *Highest) Name() types.IndicatorType {
	return types.IndicatorTypeHighest
}

func (h *Highest) Inputs() []string {
	return []string{series.High}
}

func (h *Highest) Outputs() []string {
	return []string{"value"}
}

func (h *Highest) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(h.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", h.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{RollingMax(inputs[0], period)}, nil
}

// Lowest indicator returns the rolling minimum, the lower Donchian band.
type Lowest struct {
	period int
}

func NewLowest() Producer {
	return &Lowest{period: 20}
}

func (l *Lowest) Name() types.IndicatorType {
	return types.IndicatorTypeLowest
}

func (l *Lowest) Inputs() []string {
	return []string{series.Low}
}

func (l *Lowest) Outputs() []string {
	return []string{"value"}
}

func (l *Lowest) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	if err := checkInputs(l.Name(), inputs, 1); err != nil {
		return nil, err
	}

	period, err := params.Period("period", l.period)
	if err != nil {
		return nil, err
	}

	return [][]float64{RollingMin(inputs[0], period)}, nil
}

// RollingMax returns the maximum of each window of period values.
func RollingMax(values []float64, period int) []float64 {
	return unary(values, period-1, func(in []float64) []float64 {
		if period == 1 {
			return in
		}

		return talib.Max(in, period)
	})
}

// RollingMin returns the minimum of each window of period values.
func RollingMin(values []float64, period int) []float64 {
	return unary(values, period-1, func(in []float64) []float64 {
		if period == 1 {
			return in
		}

		return talib.Min(in, period)
	})
}
