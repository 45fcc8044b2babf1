package types

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Bar is one aggregated price interval of the input table.
type Bar struct {
	Time   time.Time `csv:"time" yaml:"time" json:"time"`
	Open   float64   `csv:"open" yaml:"open" json:"open"`
	High   float64   `csv:"high" yaml:"high" json:"high"`
	Low    float64   `csv:"low" yaml:"low" json:"low"`
	Close  float64   `csv:"close" yaml:"close" json:"close"`
	Volume float64   `csv:"volume" yaml:"volume" json:"volume"`
	// Aux holds auxiliary scalars such as funding_rate or vix, keyed by column name.
	Aux map[string]float64 `csv:"-" yaml:"aux,omitempty" json:"aux,omitempty"`
}

// Validate checks the bar invariant Low <= min(Open, Close) <= max(Open, Close) <= High
// and Volume >= 0. All OHLC values must be finite.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has a non-finite value", b.Time.Format(time.RFC3339))
		}
	}

	if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) || b.Low > b.High {
		return errors.Newf(errors.ErrCodeInvalidBar,
			"bar at %s violates low <= open,close <= high (o=%v h=%v l=%v c=%v)",
			b.Time.Format(time.RFC3339), b.Open, b.High, b.Low, b.Close)
	}

	if b.Volume < 0 {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar at %s has negative volume %v", b.Time.Format(time.RFC3339), b.Volume)
	}

	return nil
}

// AuxKeys returns the auxiliary column names of a table in first-seen order.
func AuxKeys(bars []Bar) []string {
	seen := make(map[string]bool)
	keys := []string{}

	for _, bar := range bars {
		for _, key := range slices.Sorted(maps.Keys(bar.Aux)) {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}

	return keys
}
