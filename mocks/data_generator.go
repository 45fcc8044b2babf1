package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataGenerator generates realistic OHLCV bars for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	// StartTime is the time of the first bar
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.002 = 0.2% typical move per bar)
	Volatility float64
	// Trend is the drift over the whole series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// GapProbability is the chance that a bar opens away from the previous close
	GapProbability float64
}

// DefaultConfig returns 15-minute bars around a BTC-like price.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       15 * time.Minute,
		Count:          10000,
		InitialPrice:   40000.0,
		Volatility:     0.002, // 0.2% per bar
		Trend:          0.0,   // neutral
		VolumeBase:     25,
		VolumeVariance: 0.3,
		GapProbability: 0,
	}
}

// Generate creates bars following a geometric Brownian motion. Every bar satisfies
// Low <= min(Open, Close) and max(Open, Close) <= High, and times strictly increase.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := range config.Count {
		open := currentPrice
		if config.GapProbability > 0 && g.rng.Float64() < config.GapProbability {
			open = currentPrice * (1 + config.Volatility*4*g.normal())
		}

		// Price change with trend and volatility
		priceChange := config.Volatility * g.normal()
		drift := config.Trend / float64(config.Count) // Distribute trend across bars

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99 // Prevent negative prices
		}

		// High and low are within the open-close range plus some extension
		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		// Volume with variance
		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation

		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
			Aux:    nil,
		}

		// Update for next iteration
		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return bars
}

// normal draws a standard normal value with the Box-Muller transform.
func (g *DataGenerator) normal() float64 {
	u1 := 1 - g.rng.Float64()
	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Generate10K is a convenience function to generate 10,000 bars
// with default settings for benchmarking.
func Generate10K() []types.Bar {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// FromOHLC builds bars one interval apart from (open, high, low, close) tuples with unit volume.
func FromOHLC(start time.Time, interval time.Duration, ohlc ...[4]float64) []types.Bar {
	bars := make([]types.Bar, len(ohlc))
	for i, v := range ohlc {
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * interval),
			Open:   v[0],
			High:   v[1],
			Low:    v[2],
			Close:  v[3],
			Volume: 1,
			Aux:    nil,
		}
	}

	return bars
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
