package mocks

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/series"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100
	config.GapProbability = 0.2

	data := gen.Generate(config)

	if len(data) != 100 {
		t.Errorf("expected 100 bars, got %d", len(data))
	}

	// Verify data is in chronological order
	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			t.Errorf("data not in chronological order at index %d", i)
		}
	}

	// Verify OHLC values are positive
	for i, d := range data {
		if d.Open <= 0 || d.High <= 0 || d.Low <= 0 || d.Close <= 0 {
			t.Errorf("invalid OHLC values at index %d: O=%f H=%f L=%f C=%f",
				i, d.Open, d.High, d.Low, d.Close)
		}
	}

	// The store validates the bar invariant for every row
	if _, err := series.NewStore(data); err != nil {
		t.Errorf("generated bars are not a valid table: %v", err)
	}

	// Verify time intervals
	expectedInterval := config.Interval
	for i := 1; i < len(data); i++ {
		actualInterval := data[i].Time.Sub(data[i-1].Time)
		if actualInterval != expectedInterval {
			t.Errorf("unexpected interval at index %d: expected %v, got %v",
				i, expectedInterval, actualInterval)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	// Same seed should produce same results
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(42)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	for i := range data1 {
		if data1[i].Close != data2[i].Close {
			t.Errorf("data not reproducible at index %d: got %f and %f",
				i, data1[i].Close, data2[i].Close)
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(123)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	// Different seeds should produce different results
	sameCount := 0
	for i := range data1 {
		if data1[i].Close == data2[i].Close {
			sameCount++
		}
	}

	if sameCount == len(data1) {
		t.Error("different seeds produced identical data")
	}
}

func TestGenerate10K(t *testing.T) {
	data := Generate10K()

	if len(data) != 10000 {
		t.Errorf("expected 10000 bars, got %d", len(data))
	}

	// Verify chronological order
	for i := 1; i < 100; i++ { // Check first 100 for speed
		if !data[i].Time.After(data[i-1].Time) {
			t.Errorf("data not in chronological order at index %d", i)
		}
	}
}

func TestFromOHLC(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := FromOHLC(start, time.Hour, [4]float64{100, 101, 99, 100}, [4]float64{102, 104, 101, 103})

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	if !bars[1].Time.Equal(start.Add(time.Hour)) {
		t.Errorf("unexpected time of second bar: %v", bars[1].Time)
	}

	if bars[1].Open != 102 || bars[1].High != 104 || bars[1].Low != 101 || bars[1].Close != 103 {
		t.Errorf("unexpected prices of second bar: %+v", bars[1])
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Count != 10000 {
		t.Errorf("expected default count 10000, got %d", config.Count)
	}

	if config.Interval != 15*time.Minute {
		t.Errorf("expected default interval 15m, got %v", config.Interval)
	}

	if config.InitialPrice != 40000.0 {
		t.Errorf("expected default initial price 40000.0, got %f", config.InitialPrice)
	}
}
