package runtime

import (
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Strategy is user trading logic driven by the engine.
//
// Init is called once before the first bar. It registers indicators and reads parameters;
// order entry is refused there. Next is called once per bar after the broker processed it.
type Strategy interface {
	// Name returns the name of the strategy
	Name() string
	Init(ctx Context) error
	Next(ctx Context) error
}

// VersionedStrategy is a strategy built against a specific engine version.
// The engine refuses to load it when the major or minor versions differ.
type VersionedStrategy interface {
	Strategy
	EngineVersion() string
}

// Position is the strategy view of the open position.
type Position interface {
	Size() int
	IsLong() bool
	IsShort() bool
	EntryPrice() float64
	// PL returns the open profit at the current close, before commissions.
	PL() float64
	// PLPct returns the open profit in percent of the entry price.
	PLPct() float64
	// Close queues a market order closing floor(|size| x fraction) at the next open.
	Close(fraction float64) (string, error)
}

// Context is everything a strategy can see and do at a given point of the run.
type Context interface {
	// I registers an indicator and returns one handle per output. Nil inputs use the
	// producer's default input series. Only allowed during Init.
	I(name string, producer indicator.Producer, params indicator.Params, inputs ...series.Ref) ([]series.Handle, error)
	// Indicator looks up a built-in producer by name.
	Indicator(name types.IndicatorType) (indicator.Producer, error)
	// View returns the series behind h truncated to the current bar.
	View(h series.Handle) (series.View, error)
	// Series returns the named series truncated to the current bar.
	Series(name string) (series.View, error)
	Open() series.View
	High() series.View
	Low() series.View
	Close() series.View
	Volume() series.View
	// Aux returns an auxiliary input column truncated to the current bar.
	Aux(name string) (series.View, error)

	// BarIndex returns the current bar index t, -1 during Init.
	BarIndex() int
	// Bar returns the current input bar.
	Bar() types.Bar
	Time() time.Time
	// Len returns the total number of bars in the run.
	Len() int

	Buy(size int, opts types.OrderOptions) (string, error)
	Sell(size int, opts types.OrderOptions) (string, error)
	Cancel(orderID string) error
	CancelAll()
	Position() Position
	Orders() []types.Order
	Equity() float64
	Cash() float64
	// Trades returns the open position as a list of zero or one open trades.
	Trades() []types.OpenTrade
	ClosedTrades() []types.Trade

	Params() Params
	State() cache.Cache
	Log(level types.LogLevel, message string, fields map[string]string)
}
