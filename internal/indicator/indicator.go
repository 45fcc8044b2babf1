package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Producer is a pure function from full-length input series to full-length output series.
// Leading warmup positions are NaN.
type Producer interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Inputs returns the default input series names. Its length is the input arity.
	Inputs() []string
	// Outputs returns the output suffixes. Its length is the output arity.
	Outputs() []string
	// Compute evaluates the indicator over the full inputs.
	Compute(inputs [][]float64, params Params) ([][]float64, error)
}

// ComputeFunc is the signature of a plain producer function.
type ComputeFunc func(inputs [][]float64, params Params) ([][]float64, error)

// Func adapts a plain function to Producer.
type Func struct {
	name    types.IndicatorType
	inputs  []string
	outputs []string
	fn      ComputeFunc
}

// NewFunc creates a producer from fn reading the given inputs and yielding the given outputs.
func NewFunc(name string, inputs []string, outputs []string, fn ComputeFunc) *Func {
	return &Func{
		name:    types.IndicatorType(name),
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
		fn:      fn,
	}
}

// Unary creates a single-input, single-output producer.
func Unary(name string, input string, fn func(values []float64, params Params) ([]float64, error)) *Func {
	return NewFunc(name, []string{input}, []string{"value"}, func(inputs [][]float64, params Params) ([][]float64, error) {
		out, err := fn(inputs[0], params)
		if err != nil {
			return nil, err
		}

		return [][]float64{out}, nil
	})
}

func (f *Func) Name() types.IndicatorType {
	return f.name
}

func (f *Func) Inputs() []string {
	return append([]string(nil), f.inputs...)
}

func (f *Func) Outputs() []string {
	return append([]string(nil), f.outputs...)
}

func (f *Func) Compute(inputs [][]float64, params Params) ([][]float64, error) {
	return f.fn(inputs, params)
}

// Params are the named parameters of an indicator registration.
type Params map[string]any

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}

	out := make(Params, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case []float64:
		return append([]float64(nil), value...)
	case []int:
		return append([]int(nil), value...)
	case []string:
		return append([]string(nil), value...)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}

		return out
	case map[string]any:
		return map[string]any(Params(value).Clone())
	case Params:
		return value.Clone()
	default:
		return v
	}
}

// Int returns the integer parameter name or def when absent. Integral floats are accepted.
func (p Params) Int(name string, def int) (int, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}

	switch value := v.(type) {
	case int:
		return value, nil
	case int32:
		return int(value), nil
	case int64:
		return int(value), nil
	case float64:
		if value != math.Trunc(value) {
			return 0, errors.Newf(errors.ErrCodeInvalidType, "parameter %s must be an integer, got %v", name, value)
		}

		return int(value), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "parameter %s must be an integer, got %T", name, v)
	}
}

// Float returns the numeric parameter name or def when absent.
func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}

	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "parameter %s must be a number, got %T", name, v)
	}
}

// Period returns a positive integer parameter.
func (p Params) Period(name string, def int) (int, error) {
	period, err := p.Int(name, def)
	if err != nil {
		return 0, err
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return period, nil
}

// Multiplier returns a positive float parameter.
func (p Params) Multiplier(name string, def float64) (float64, error) {
	m, err := p.Float(name, def)
	if err != nil {
		return 0, err
	}

	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidMultiplier, "%s must be a positive number, got %v", name, m)
	}

	return m, nil
}

func checkInputs(name types.IndicatorType, inputs [][]float64, want int) error {
	if len(inputs) != want {
		return fmt.Errorf("%s expects %d input series, got %d", name, want, len(inputs))
	}

	for i := 1; i < len(inputs); i++ {
		if len(inputs[i]) != len(inputs[0]) {
			return fmt.Errorf("%s input series have different lengths", name)
		}
	}

	return nil
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
