package indicator

import (
	"math"
)

// segmented runs fn over every stretch of bars on which all inputs are finite. talib
// zero-fills the first lookback outputs of a stretch and indexes past the end of inputs
// shorter than that, so those positions and short stretches are left NaN.
func segmented(inputs [][]float64, outputs int, lookback int, fn func(in [][]float64) [][]float64) [][]float64 {
	n := 0
	if len(inputs) > 0 {
		n = len(inputs[0])
	}

	out := make([][]float64, outputs)
	for k := range out {
		out[k] = nans(n)
	}

	start := 0
	for start < n {
		if !finiteAt(inputs, start) {
			start++

			continue
		}

		end := start
		for end < n && finiteAt(inputs, end) {
			end++
		}

		if end-start > lookback {
			in := make([][]float64, len(inputs))
			for k := range inputs {
				in[k] = append([]float64(nil), inputs[k][start:end]...)
			}

			for k, values := range fn(in) {
				copy(out[k][start+lookback:end], values[lookback:])
			}
		}

		start = end
	}

	return out
}

// unary is segmented for a single input and output.
func unary(values []float64, lookback int, fn func(in []float64) []float64) []float64 {
	return segmented([][]float64{values}, 1, lookback, func(in [][]float64) [][]float64 {
		return [][]float64{fn(in[0])}
	})[0]
}

func finiteAt(inputs [][]float64, i int) bool {
	for _, values := range inputs {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			return false
		}
	}

	return true
}
