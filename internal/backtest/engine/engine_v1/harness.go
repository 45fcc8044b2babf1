package engine

import (
	"fmt"
	"maps"
	"path/filepath"
	goruntime "runtime"
	"slices"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// harness drives one strategy through a run and implements runtime.Context for it.
type harness struct {
	strategy  runtime.Strategy
	store     *series.Store
	registrar *indicator.Registrar
	registry  indicator.IndicatorRegistry
	broker    *BacktestBroker
	params    runtime.Params
	state     cache.Cache
	log       *logger.Logger

	auxNames []string
	window   *series.Window
	t        int
	logs     []types.LogEntry
	// fatal holds an error raised through the context that must abort the run even when
	// the strategy swallows it.
	fatal error
}

func newHarness(
	strategy runtime.Strategy,
	store *series.Store,
	broker *BacktestBroker,
	registry indicator.IndicatorRegistry,
	params map[string]any,
	state cache.Cache,
	log *logger.Logger,
) *harness {
	names := store.Names()
	auxNames := []string{}

	if len(names) > len(priceColumns) {
		auxNames = append(auxNames, names[len(priceColumns):]...)
	}

	state.Reset()

	return &harness{
		strategy:  strategy,
		store:     store,
		registrar: indicator.NewRegistrar(store),
		registry:  registry,
		broker:    broker,
		params:    runtime.NewParams(params),
		state:     state,
		log:       log,
		auxNames:  auxNames,
		window:    nil,
		t:         -1,
		logs:      []types.LogEntry{},
		fatal:     nil,
	}
}

var priceColumns = []string{series.Open, series.High, series.Low, series.Close, series.Volume}

// Init runs the strategy's Init and seals indicator registration.
func (h *harness) Init() error {
	if err := h.call(h.strategy.Init); err != nil {
		return err
	}

	if err := h.registrar.Seal(); err != nil {
		return err
	}

	h.log.Debug("strategy initialized",
		zap.String("strategy", h.strategy.Name()),
		zap.Int("indicators", len(h.registrar.Registrations())),
	)

	return nil
}

// Next calls the strategy for bar t. Only fatal errors are returned; the others are logged
// and the run continues.
func (h *harness) Next(t int) error {
	window, err := h.store.Window(t)
	if err != nil {
		return err
	}

	h.window = window
	h.t = t

	err = h.call(h.strategy.Next)
	if h.fatal != nil {
		return h.fatal
	}

	if err == nil {
		return nil
	}

	if errors.IsFatal(err) {
		return err
	}

	h.log.Warn("strategy returned a recoverable error",
		zap.Int("bar", t),
		zap.Error(err),
	)

	return nil
}

// Logs returns the strategy log entries recorded so far.
func (h *harness) Logs() []types.LogEntry {
	return slices.Clone(h.logs)
}

// call invokes fn and converts a panic into a fatal typed error carrying the bar index and
// the location of the panicking statement.
func (h *harness) call(fn func(ctx runtime.Context) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		var typed *errors.Error

		switch value := r.(type) {
		case *errors.Error:
			typed = value
		case error:
			typed = errors.Wrap(errors.ErrCodeStrategyRuntimeError, "strategy panicked", value)
		default:
			typed = errors.Newf(errors.ErrCodeStrategyRuntimeError, "strategy panicked: %v", value)
		}

		if typed.Bar == errors.NoBar {
			typed = typed.WithBar(h.t)
		}

		if typed.CallSite == "" {
			typed = typed.WithCallSite(panicSite())
		}

		err = typed
	}()

	err = fn(h)
	if err != nil {
		var typed *errors.Error
		if errors.As(err, &typed) && typed.Bar == errors.NoBar && h.t >= 0 {
			return typed.WithBar(h.t)
		}
	}

	return err
}

// panicSite returns the file:line of the first frame below runtime.gopanic.
func panicSite() string {
	pcs := make([]uintptr, 32)
	n := goruntime.Callers(3, pcs)
	frames := goruntime.CallersFrames(pcs[:n])
	panicking := false

	for {
		frame, more := frames.Next()
		if panicking && !strings.HasPrefix(frame.Function, "runtime.") {
			return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		}

		if frame.Function == "runtime.gopanic" {
			panicking = true
		}

		if !more {
			return ""
		}
	}
}

func (h *harness) initializing() bool {
	return h.window == nil
}

// I implements runtime.Context.
func (h *harness) I(name string, producer indicator.Producer, params indicator.Params, inputs ...series.Ref) ([]series.Handle, error) {
	var refs []series.Ref
	if len(inputs) > 0 {
		refs = inputs
	}

	handles, err := h.registrar.Register(name, producer, refs, params)
	if err != nil && errors.HasCode(err, errors.ErrCodeRegistrationClosed) {
		typed := errors.Newf(errors.ErrCodeRegistrationClosed, "indicator %q registered after initialization", name).
			WithBar(h.t).
			WithCallSite(callerSite(2))
		h.fatal = typed

		return nil, typed
	}

	return handles, err
}

func callerSite(skip int) string {
	_, file, line, ok := goruntime.Caller(skip)
	if !ok {
		return ""
	}

	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// Indicator implements runtime.Context.
func (h *harness) Indicator(name types.IndicatorType) (indicator.Producer, error) {
	return h.registry.GetIndicator(name)
}

// View implements runtime.Context.
func (h *harness) View(handle series.Handle) (series.View, error) {
	if h.initializing() {
		return series.View{}, errors.New(errors.ErrCodeIndicatorOutOfBounds, "series cannot be read during initialization")
	}

	return h.window.View(handle)
}

// Series implements runtime.Context.
func (h *harness) Series(name string) (series.View, error) {
	if h.initializing() {
		return series.View{}, errors.New(errors.ErrCodeIndicatorOutOfBounds, "series cannot be read during initialization")
	}

	return h.window.Named(name)
}

func (h *harness) price(name string) series.View {
	if h.initializing() {
		return series.View{}
	}

	// price columns always exist
	view, _ := h.window.Named(name)

	return view
}

func (h *harness) Open() series.View {
	return h.price(series.Open)
}

func (h *harness) High() series.View {
	return h.price(series.High)
}

func (h *harness) Low() series.View {
	return h.price(series.Low)
}

func (h *harness) Close() series.View {
	return h.price(series.Close)
}

func (h *harness) Volume() series.View {
	return h.price(series.Volume)
}

// Aux implements runtime.Context.
func (h *harness) Aux(name string) (series.View, error) {
	if !slices.Contains(h.auxNames, name) {
		return series.View{}, errors.Newf(errors.ErrCodeSeriesNotFound, "auxiliary column %q does not exist", name)
	}

	return h.Series(name)
}

func (h *harness) BarIndex() int {
	return h.t
}

func (h *harness) Bar() types.Bar {
	if h.initializing() {
		return types.Bar{}
	}

	return h.store.Bar(h.t, h.auxNames)
}

func (h *harness) Time() time.Time {
	if h.initializing() {
		return time.Time{}
	}

	return h.window.Time()
}

func (h *harness) Len() int {
	return h.store.Len()
}

func (h *harness) tradingAllowed() error {
	if h.initializing() {
		return errors.New(errors.ErrCodeInvalidOrder, "orders cannot be placed during initialization")
	}

	return nil
}

// Buy implements runtime.Context.
func (h *harness) Buy(size int, opts types.OrderOptions) (string, error) {
	if err := h.tradingAllowed(); err != nil {
		return "", err
	}

	return h.broker.Buy(size, opts)
}

// Sell implements runtime.Context.
func (h *harness) Sell(size int, opts types.OrderOptions) (string, error) {
	if err := h.tradingAllowed(); err != nil {
		return "", err
	}

	return h.broker.Sell(size, opts)
}

// Cancel implements runtime.Context.
func (h *harness) Cancel(orderID string) error {
	return h.broker.Cancel(orderID)
}

// CancelAll implements runtime.Context.
func (h *harness) CancelAll() {
	h.broker.CancelAllOrders()
}

// Position implements runtime.Context.
func (h *harness) Position() runtime.Position {
	return positionView{harness: h, position: h.broker.Position()}
}

func (h *harness) Orders() []types.Order {
	return h.broker.PendingOrders()
}

func (h *harness) Equity() float64 {
	return h.broker.Equity()
}

func (h *harness) Cash() float64 {
	return h.broker.Cash()
}

func (h *harness) Trades() []types.OpenTrade {
	return h.broker.OpenTrades()
}

func (h *harness) ClosedTrades() []types.Trade {
	return h.broker.Trades()
}

func (h *harness) Params() runtime.Params {
	return h.params
}

func (h *harness) State() cache.Cache {
	return h.state
}

// Log records a strategy trace message and mirrors it to the engine logger at debug level.
func (h *harness) Log(level types.LogLevel, message string, fields map[string]string) {
	entry := types.LogEntry{
		Bar:     h.t,
		Time:    h.Time(),
		Level:   level,
		Message: message,
		Fields:  maps.Clone(fields),
	}
	h.logs = append(h.logs, entry)

	zapFields := []zap.Field{
		zap.String("strategy", h.strategy.Name()),
		zap.Int("bar", h.t),
		zap.String("level", string(level)),
	}

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		zapFields = append(zapFields, zap.String(key, fields[key]))
	}

	h.log.Debug(message, zapFields...)
}

// positionView is the runtime.Position handed to strategies.
type positionView struct {
	harness  *harness
	position types.Position
}

func (p positionView) Size() int {
	return p.position.Size
}

func (p positionView) IsLong() bool {
	return p.position.IsLong()
}

func (p positionView) IsShort() bool {
	return p.position.IsShort()
}

func (p positionView) EntryPrice() float64 {
	return p.position.EntryPrice
}

func (p positionView) PL() float64 {
	return p.position.UnrealizedPnL(p.harness.broker.current.Close)
}

func (p positionView) PLPct() float64 {
	return p.position.UnrealizedPnLPct(p.harness.broker.current.Close)
}

func (p positionView) Close(fraction float64) (string, error) {
	if err := p.harness.tradingAllowed(); err != nil {
		return "", err
	}

	return p.harness.broker.ClosePosition(fraction)
}
