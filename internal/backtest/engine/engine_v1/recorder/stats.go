package recorder

import (
	"math"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
)

// calendarYear is the length of a 24/7 trading year.
const calendarYear = 365 * 24 * time.Hour

// StatsInput is everything the statistics are computed from.
type StatsInput struct {
	InitialCash float64
	// BarsPerYear annualises per-bar figures. Zero or negative infers it from the bar spacing.
	BarsPerYear float64
	Equity      []types.EquityPoint
	Closes      []float64
	Trades      []types.Trade
	Rejections  int
	Totals      Totals
}

// InferBarsPerYear returns the number of bars in a 24/7 year at the median bar interval.
// It is NaN when fewer than two bars are given.
func InferBarsPerYear(times []time.Time) float64 {
	if len(times) < 2 {
		return math.NaN()
	}

	intervals := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals = append(intervals, times[i].Sub(times[i-1]))
	}

	slices.Sort(intervals)

	n := len(intervals)
	median := intervals[n/2]

	if n%2 == 0 {
		median = (intervals[n/2-1] + intervals[n/2]) / 2
	}

	if median <= 0 {
		return math.NaN()
	}

	return float64(calendarYear) / float64(median)
}

// ComputeStats derives the terminal statistics of a run.
func ComputeStats(in StatsInput) types.RunStats {
	stats := types.RunStats{
		Start:           time.Time{},
		End:             time.Time{},
		Duration:        "",
		Bars:            len(in.Equity),
		ExposureTimePct: math.NaN(),
		InitialEquity:   in.InitialCash,
		FinalEquity:     in.InitialCash,
		PeakEquity:      in.InitialCash,
		ReturnPct:       0,
		BuyAndHoldPct:   math.NaN(),
		AnnualReturnPct: math.NaN(),
		AnnualVolPct:    math.NaN(),
		SharpeRatio:     math.NaN(),
		SortinoRatio:    math.NaN(),
		CalmarRatio:     math.NaN(),
		MaxDrawdownPct:  0,
		MaxDrawdown:     0,
		MaxDrawdownBars: 0,
		NumberOfTrades:  len(in.Trades),
		WinRatePct:      math.NaN(),
		BestTradePct:    math.NaN(),
		WorstTradePct:   math.NaN(),
		AvgTradePnL:     math.NaN(),
		AvgTradePct:     math.NaN(),
		ProfitFactor:    math.NaN(),
		Expectancy:      math.NaN(),
		SQN:             math.NaN(),
		AvgTradeBars:    math.NaN(),
		TotalCommission: in.Totals.Fees,
		TotalSlippage:   in.Totals.Slippage,
		RejectedOrders:  in.Rejections,
		BarsPerYear:     in.BarsPerYear,
		Strategy:        types.StrategyInfo{},
	}

	if len(in.Equity) > 0 {
		computeEquityStats(&stats, in)
	}

	computeTradeStats(&stats, in.Trades)

	return stats
}

func computeEquityStats(stats *types.RunStats, in StatsInput) {
	first := in.Equity[0]
	last := in.Equity[len(in.Equity)-1]

	stats.Start = first.Time
	stats.End = last.Time
	stats.Duration = last.Time.Sub(first.Time).String()
	stats.FinalEquity = last.Equity

	if stats.BarsPerYear <= 0 {
		times := make([]time.Time, len(in.Equity))
		for i, point := range in.Equity {
			times[i] = point.Time
		}

		stats.BarsPerYear = InferBarsPerYear(times)
	}

	exposed := 0

	for _, point := range in.Equity {
		if point.PositionSize != 0 {
			exposed++
		}

		stats.PeakEquity = math.Max(stats.PeakEquity, point.Equity)
	}

	stats.ExposureTimePct = float64(exposed) / float64(len(in.Equity)) * 100

	if in.InitialCash > 0 {
		stats.ReturnPct = percentChange(in.InitialCash, last.Equity)
	}

	if len(in.Closes) > 0 && in.Closes[0] != 0 {
		stats.BuyAndHoldPct = percentChange(in.Closes[0], in.Closes[len(in.Closes)-1])
	}

	computeDrawdown(stats, in.InitialCash, in.Equity)

	returns := barReturns(in.InitialCash, in.Equity)
	computeRiskRatios(stats, in.InitialCash, last.Equity, returns)
}

// barReturns returns the simple return of every bar, the first one against the initial cash.
func barReturns(initial float64, equity []types.EquityPoint) []float64 {
	returns := make([]float64, 0, len(equity))
	prev := initial

	for _, point := range equity {
		if prev != 0 {
			returns = append(returns, point.Equity/prev-1)
		}

		prev = point.Equity
	}

	return returns
}

func computeDrawdown(stats *types.RunStats, initial float64, equity []types.EquityPoint) {
	peak := initial
	peakBar := -1

	for i, point := range equity {
		if point.Equity >= peak {
			peak = point.Equity
			peakBar = i

			continue
		}

		drawdown := peak - point.Equity
		stats.MaxDrawdown = math.Max(stats.MaxDrawdown, drawdown)

		if peak > 0 {
			stats.MaxDrawdownPct = math.Max(stats.MaxDrawdownPct, drawdown/peak*100)
		}

		stats.MaxDrawdownBars = max(stats.MaxDrawdownBars, i-peakBar)
	}
}

func computeRiskRatios(stats *types.RunStats, initial float64, final float64, returns []float64) {
	bpy := stats.BarsPerYear
	if math.IsNaN(bpy) || bpy <= 0 || len(returns) == 0 || initial <= 0 {
		return
	}

	years := float64(len(returns)) / bpy
	growth := final / initial

	if growth <= 0 {
		stats.AnnualReturnPct = -100
	} else {
		stats.AnnualReturnPct = (math.Pow(growth, 1/years) - 1) * 100
	}

	mean := meanOf(returns)
	stdev := stdevOf(returns)

	if !math.IsNaN(stdev) {
		stats.AnnualVolPct = stdev * math.Sqrt(bpy) * 100

		if stdev > 0 {
			stats.SharpeRatio = mean / stdev * math.Sqrt(bpy)
		}
	}

	downside := 0.0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}

	downside = math.Sqrt(downside / float64(len(returns)))
	if downside > 0 {
		stats.SortinoRatio = mean / downside * math.Sqrt(bpy)
	}

	if stats.MaxDrawdownPct > 0 {
		stats.CalmarRatio = stats.AnnualReturnPct / stats.MaxDrawdownPct
	}
}

func computeTradeStats(stats *types.RunStats, trades []types.Trade) {
	n := len(trades)
	if n == 0 {
		return
	}

	pnls := make([]float64, n)
	returns := make([]float64, n)
	grossWin := decimal.Zero
	grossLoss := decimal.Zero
	wins := 0
	losses := 0
	bars := 0

	for i, trade := range trades {
		pnls[i] = trade.PnL
		returns[i] = trade.ReturnPct
		bars += trade.DurationBars()

		if trade.PnL > 0 {
			wins++
			grossWin = grossWin.Add(decimal.NewFromFloat(trade.PnL))
		} else if trade.PnL < 0 {
			losses++
			grossLoss = grossLoss.Add(decimal.NewFromFloat(-trade.PnL))
		}
	}

	stats.WinRatePct = float64(wins) / float64(n) * 100
	stats.BestTradePct = slices.Max(returns)
	stats.WorstTradePct = slices.Min(returns)
	stats.AvgTradePnL = meanOf(pnls)
	stats.AvgTradePct = meanOf(returns)
	stats.AvgTradeBars = float64(bars) / float64(n)

	switch {
	case grossLoss.IsPositive():
		stats.ProfitFactor = grossWin.Div(grossLoss).InexactFloat64()
	case grossWin.IsPositive():
		stats.ProfitFactor = math.Inf(1)
	}

	// win probability times average win minus loss probability times average loss,
	// break-even trades count as neither
	avgWin, avgLoss := 0.0, 0.0

	if wins > 0 {
		avgWin = grossWin.InexactFloat64() / float64(wins)
	}

	if losses > 0 {
		avgLoss = grossLoss.InexactFloat64() / float64(losses)
	}

	stats.Expectancy = float64(wins)/float64(n)*avgWin - float64(losses)/float64(n)*avgLoss

	if n >= 2 {
		if sd := stdevOf(pnls); sd > 0 {
			stats.SQN = math.Sqrt(float64(n)) * stats.AvgTradePnL / sd
		}
	}
}

func percentChange(from float64, to float64) float64 {
	return (to - from) / from * 100
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stdevOf returns the sample standard deviation, NaN for fewer than two values.
func stdevOf(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}

	mean := meanOf(values)
	sum := 0.0

	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}

	return math.Sqrt(sum / float64(len(values)-1))
}
