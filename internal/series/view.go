package series

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// View is a series truncated to the prefix [0, t]. Reads beyond bar t are impossible.
type View struct {
	series *Series
	t      int
}

// Name returns the display name of the underlying series.
func (v View) Name() string {
	if v.series == nil {
		return ""
	}

	return v.series.name
}

// Handle returns the handle of the underlying series.
func (v View) Handle() Handle {
	if v.series == nil {
		return -1
	}

	return v.series.handle
}

// Len returns t+1, the number of visible values.
func (v View) Len() int {
	if v.series == nil {
		return 0
	}

	return v.t + 1
}

// Last returns the value k bars back: Last(1) is bar t, Last(2) is bar t-1.
// It panics with an IndicatorOutOfBounds error when the offset falls outside [0, t];
// the harness turns that panic into a fatal run error.
func (v View) Last(k int) float64 {
	value, err := v.Get(k)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			panic(e.WithCallSite(callSite(2)))
		}

		panic(err)
	}

	return value
}

// Get is the checked variant of Last.
func (v View) Get(k int) (float64, error) {
	if v.series == nil {
		return 0, errors.New(errors.ErrCodeSeriesNotFound, "read from an empty view")
	}

	if k < 1 || k > v.t+1 {
		return 0, errors.Newf(errors.ErrCodeIndicatorOutOfBounds,
			"series %q: back-offset %d is outside the %d visible bars", v.series.name, k, v.t+1).WithBar(v.t)
	}

	return v.series.values[v.t-k+1], nil
}

// At returns the value at absolute index i. Indexes past the current bar fail.
func (v View) At(i int) (float64, error) {
	if v.series == nil {
		return 0, errors.New(errors.ErrCodeSeriesNotFound, "read from an empty view")
	}

	if i < 0 || i > v.t {
		return 0, errors.Newf(errors.ErrCodeIndicatorOutOfBounds,
			"series %q: index %d is outside [0, %d]", v.series.name, i, v.t).WithBar(v.t)
	}

	return v.series.values[i], nil
}

// Values returns a copy of the visible prefix.
func (v View) Values() []float64 {
	if v.series == nil {
		return nil
	}

	out := make([]float64, v.t+1)
	copy(out, v.series.values[:v.t+1])

	return out
}

// Crossed reports whether v crossed above other on the current bar:
// v[-2] <= other[-2] and v[-1] > other[-1]. False while fewer than three bars are visible.
func (v View) Crossed(other View) bool {
	return talib.Crossover(v.tail(crossWindow), other.tail(crossWindow))
}

// CrossedValue reports whether v crossed above the constant level on the current bar.
func (v View) CrossedValue(level float64) bool {
	return talib.Crossover(v.tail(crossWindow), constant(level, crossWindow))
}

// CrossedBelowValue reports whether v crossed below the constant level on the current bar:
// v[-2] > level and v[-1] <= level.
func (v View) CrossedBelowValue(level float64) bool {
	return talib.Crossunder(v.tail(crossWindow), constant(level, crossWindow))
}

const crossWindow = 3

// tail returns the last k visible values, or nil when fewer are visible.
func (v View) tail(k int) []float64 {
	if v.series == nil || v.Len() < k {
		return nil
	}

	return append([]float64(nil), v.series.values[v.t+1-k:v.t+1]...)
}

func constant(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}

	return out
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}

	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
