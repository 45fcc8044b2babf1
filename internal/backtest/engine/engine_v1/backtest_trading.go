package engine

import (
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/slippage"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// orderNamespace seeds the deterministic order ids.
var orderNamespace = uuid.MustParse("6f1c1f0e-3c1b-5b8e-9a43-2a9b6f1d7c10")

// BrokerConfig holds the per-run constants of the broker.
type BrokerConfig struct {
	InitialCash     float64
	Margin          float64
	ExclusiveOrders bool
	Commission      commission_fee.CommissionFee
	Slippage        slippage.Slippage
}

// BacktestBroker simulates order execution against OHLC bars for a single net position.
//
// At every bar ProcessBar runs, in this order: market orders queued on the previous bar fill
// at the open, protective exits of the open position resolve against the bar range, pending
// stop and limit orders resolve against the bar range, and equity is marked at the close.
type BacktestBroker struct {
	config BrokerConfig
	log    *logger.Logger

	cash          decimal.Decimal
	realizedPnL   decimal.Decimal
	totalFees     decimal.Decimal
	totalSlippage decimal.Decimal
	equity        float64
	peakEquity    float64

	position   types.Position
	pending    []types.Order
	trades     []types.Trade
	rejections []types.Rejection

	seq     int
	bar     int
	current types.Bar
}

// NewBacktestBroker creates a broker holding only cash.
func NewBacktestBroker(config BrokerConfig, log *logger.Logger) *BacktestBroker {
	if config.Margin <= 0 {
		config.Margin = DefaultMargin
	}

	if config.Commission == nil {
		config.Commission = commission_fee.NewZeroCommissionFee()
	}

	if config.Slippage == nil {
		config.Slippage = slippage.NewNoSlippage()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestBroker{
		config:        config,
		log:           log,
		cash:          decimal.NewFromFloat(config.InitialCash),
		realizedPnL:   decimal.Zero,
		totalFees:     decimal.Zero,
		totalSlippage: decimal.Zero,
		equity:        config.InitialCash,
		peakEquity:    config.InitialCash,
		position:      emptyPosition(),
		pending:       []types.Order{},
		trades:        []types.Trade{},
		rejections:    []types.Rejection{},
		seq:           0,
		bar:           -1,
		current:       types.Bar{},
	}
}

// ProcessBar advances the broker to bar t and resolves every order and protective level
// that bar can trigger.
func (b *BacktestBroker) ProcessBar(t int, bar types.Bar) {
	b.bar = t
	b.current = bar

	b.fillMarketOrders()
	b.resolveProtectiveExits()
	b.fillTriggeredOrders()
	b.mark()
}

// Buy queues a buy order. See Submit.
func (b *BacktestBroker) Buy(size int, opts types.OrderOptions) (string, error) {
	return b.Submit(types.PurchaseTypeBuy, size, opts)
}

// Sell queues a sell order. See Submit.
func (b *BacktestBroker) Sell(size int, opts types.OrderOptions) (string, error) {
	return b.Submit(types.PurchaseTypeSell, size, opts)
}

// Submit validates and queues an order created at the current bar. Market orders fill at the
// next open; limit and stop orders wait until the bar range reaches their price.
// A refused order is recorded as a rejection and its typed error is returned.
func (b *BacktestBroker) Submit(side types.PurchaseType, size int, opts types.OrderOptions) (string, error) {
	order := types.NewOrder(b.nextID(), side, size, opts, max(b.bar, 0), b.current.Time)

	if err := order.Validate(b.current.Close); err != nil {
		return order.ID, b.reject(order, err)
	}

	effective := b.position.Size
	if b.config.ExclusiveOrders {
		effective = 0
	}

	ref := order.EntryReference(b.current.Close)
	if err := b.checkFunds(effective, order.Side, order.Size, ref, b.current.Close); err != nil {
		return order.ID, b.reject(order, err)
	}

	if b.config.ExclusiveOrders {
		b.cancelAll()

		if !b.position.IsFlat() {
			b.pending = append(b.pending, b.closeOrder(1, types.OrderReasonExclusiveClose))
		}
	}

	b.pending = append(b.pending, order)
	b.log.Debug("order queued",
		zap.String("id", order.ID),
		zap.String("kind", string(order.Kind)),
		zap.String("side", string(order.Side)),
		zap.Int("size", order.Size),
		zap.Int("bar", order.CreatedBar),
	)

	return order.ID, nil
}

// ClosePosition queues a reduce-only market order for floor(|size| x fraction) of the
// position as it stands at the next open. Closing a flat position is a no-op.
func (b *BacktestBroker) ClosePosition(fraction float64) (string, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		order := b.closeOrder(0, types.OrderReasonClose)
		order.Side = closingSide(b.position)

		return order.ID, b.reject(order, errors.Newf(errors.ErrCodeInvalidSize, "close fraction must be in (0, 1], got %v", fraction))
	}

	if b.position.IsFlat() {
		return "", nil
	}

	order := b.closeOrder(fraction, types.OrderReasonClose)
	b.pending = append(b.pending, order)

	return order.ID, nil
}

// Cancel removes a pending order. It fails with OrderNotFound for unknown or settled ids.
func (b *BacktestBroker) Cancel(orderID string) error {
	for i, order := range b.pending {
		if order.ID == orderID {
			b.pending = slices.Delete(b.pending, i, i+1)

			return nil
		}
	}

	return errors.Newf(errors.ErrCodeOrderNotFound, "order %s is not pending", orderID)
}

// CancelAllOrders drops every pending order.
func (b *BacktestBroker) CancelAllOrders() {
	b.cancelAll()
}

// Liquidate cancels pending orders and closes the open position at the close of the current
// bar, then re-marks equity. It is called once after the last bar.
func (b *BacktestBroker) Liquidate() {
	b.cancelAll()

	if !b.position.IsFlat() {
		price := b.current.Close
		b.fill(closingSide(b.position), b.position.AbsSize(), price, price, types.CloseReasonStrategyClose, "")
	}

	b.mark()
}

// Position returns the open position.
func (b *BacktestBroker) Position() types.Position {
	return b.position
}

// PendingOrders returns a copy of the queued orders in submission order.
func (b *BacktestBroker) PendingOrders() []types.Order {
	return slices.Clone(b.pending)
}

// Trades returns a copy of the closed trades.
func (b *BacktestBroker) Trades() []types.Trade {
	return slices.Clone(b.trades)
}

// Rejections returns a copy of the rejected orders.
func (b *BacktestBroker) Rejections() []types.Rejection {
	return slices.Clone(b.rejections)
}

// OpenTrades returns the open position as a trade list with zero or one element.
func (b *BacktestBroker) OpenTrades() []types.OpenTrade {
	if b.position.IsFlat() {
		return []types.OpenTrade{}
	}

	return []types.OpenTrade{{
		EntryBar:   b.position.EntryBar,
		EntryTime:  b.position.EntryTime,
		EntryPrice: b.position.EntryPrice,
		Size:       b.position.Size,
		StopLoss:   b.position.StopLoss,
		TakeProfit: b.position.TakeProfit,
		Trailing:   b.position.TrailingStop,
		Tag:        b.position.Tag,
	}}
}

// Cash returns the cash balance.
func (b *BacktestBroker) Cash() float64 {
	return b.cash.InexactFloat64()
}

// Equity returns the equity marked at the last processed close.
func (b *BacktestBroker) Equity() float64 {
	return b.equity
}

// Account returns the account summary at the last mark.
func (b *BacktestBroker) Account() types.AccountInfo {
	return types.AccountInfo{
		Cash:          b.Cash(),
		Equity:        b.equity,
		PeakEquity:    b.peakEquity,
		BuyingPower:   b.availableFunds(b.position.Size, b.current.Close),
		RealizedPnL:   b.realizedPnL.InexactFloat64(),
		UnrealizedPnL: b.position.UnrealizedPnL(b.current.Close),
		TotalFees:     b.totalFees.InexactFloat64(),
		TotalSlippage: b.totalSlippage.InexactFloat64(),
	}
}

// EquityPoint returns the equity sample of the current bar.
func (b *BacktestBroker) EquityPoint() types.EquityPoint {
	drawdown := 0.0
	if b.peakEquity > 0 {
		drawdown = (b.peakEquity - b.equity) / b.peakEquity
	}

	return types.EquityPoint{
		Bar:          b.bar,
		Time:         b.current.Time,
		Equity:       b.equity,
		Cash:         b.Cash(),
		PositionSize: b.position.Size,
		Drawdown:     drawdown,
	}
}

func (b *BacktestBroker) nextID() string {
	b.seq++

	return uuid.NewSHA1(orderNamespace, []byte(strconv.Itoa(b.seq))).String()
}

func (b *BacktestBroker) closeOrder(fraction float64, reason string) types.Order {
	order := types.NewOrder(b.nextID(), closingSide(b.position), 0, types.OrderOptions{}, max(b.bar, 0), b.current.Time)
	order.ReduceOnly = true
	order.CloseFraction = fraction
	order.Reason = reason

	return order
}

func (b *BacktestBroker) cancelAll() {
	b.pending = []types.Order{}
}

// step 1
func (b *BacktestBroker) fillMarketOrders() {
	remaining := make([]types.Order, 0, len(b.pending))
	open := b.current.Open

	for _, order := range b.pending {
		if order.Kind != types.OrderTypeMarket || order.CreatedBar >= b.bar {
			remaining = append(remaining, order)

			continue
		}

		if order.ReduceOnly {
			b.fillClose(order)

			continue
		}

		price := b.config.Slippage.Apply(order.Side, open)
		if err := b.checkFunds(b.position.Size, order.Side, order.Size, price, price); err != nil {
			_ = b.reject(order, err)

			continue
		}

		b.fillOrder(order, price, open)
	}

	b.pending = remaining
}

func (b *BacktestBroker) fillClose(order types.Order) {
	if b.position.IsFlat() {
		return
	}

	size := b.position.AbsSize()
	if order.CloseFraction < 1 {
		size = int(math.Floor(float64(size) * order.CloseFraction))
	}

	side := closingSide(b.position)
	if size <= 0 {
		order.Side = side
		_ = b.reject(order, errors.Newf(errors.ErrCodeInvalidSize, "closing %v of %d units rounds to zero", order.CloseFraction, b.position.AbsSize()))

		return
	}

	open := b.current.Open
	price := b.config.Slippage.Apply(side, open)
	b.fill(side, size, price, open, types.CloseReasonStrategyClose, "")
}

// step 2
func (b *BacktestBroker) resolveProtectiveExits() {
	pos := b.position
	if pos.IsFlat() {
		return
	}

	bar := b.current
	side := closingSide(pos)

	if pos.MaxBars > 0 && b.bar-pos.EntryBar >= pos.MaxBars {
		b.exit(side, bar.Open, types.CloseReasonTimeExit)

		return
	}

	level, reason, hit := b.triggeredStop(pos, bar)
	if hit {
		b.exit(side, stopFill(side, level, bar.Open), reason)

		return
	}

	if pos.TakeProfit.IsSome() {
		tp := pos.TakeProfit.Unwrap()
		if (pos.IsLong() && bar.High >= tp) || (pos.IsShort() && bar.Low <= tp) {
			b.exit(side, targetFill(side, tp, bar.Open), types.CloseReasonTakeProfit)

			return
		}
	}

	b.updateTrail(bar)
}

// triggeredStop returns the stop level hit by the bar, if any. When the static stop and the
// trailing stop both trigger, the level the price reaches first from the open wins.
func (b *BacktestBroker) triggeredStop(pos types.Position, bar types.Bar) (float64, types.CloseReason, bool) {
	hits := func(level float64) bool {
		if pos.IsLong() {
			return bar.Low <= level
		}

		return bar.High >= level
	}

	slHit := pos.StopLoss.IsSome() && hits(pos.StopLoss.Unwrap())
	trailHit := pos.TrailingStop.IsSome() && hits(pos.TrailingStop.Unwrap())

	switch {
	case slHit && trailHit:
		sl, trail := pos.StopLoss.Unwrap(), pos.TrailingStop.Unwrap()
		if (pos.IsLong() && trail > sl) || (pos.IsShort() && trail < sl) {
			return trail, types.CloseReasonTrailingStop, true
		}

		return sl, types.CloseReasonStopLoss, true
	case slHit:
		return pos.StopLoss.Unwrap(), types.CloseReasonStopLoss, true
	case trailHit:
		return pos.TrailingStop.Unwrap(), types.CloseReasonTrailingStop, true
	default:
		return 0, "", false
	}
}

func (b *BacktestBroker) updateTrail(bar types.Bar) {
	if b.position.TrailingStop.IsNone() {
		return
	}

	trail := b.position.TrailingStop.Unwrap()
	if b.position.IsLong() {
		trail = math.Max(trail, bar.High-b.position.TrailDistance)
	} else {
		trail = math.Min(trail, bar.Low+b.position.TrailDistance)
	}

	b.position.TrailingStop = optional.Some(trail)
}

func (b *BacktestBroker) exit(side types.PurchaseType, quoted float64, reason types.CloseReason) {
	price := b.config.Slippage.Apply(side, quoted)
	b.fill(side, b.position.AbsSize(), price, quoted, reason, "")
}

// step 3
func (b *BacktestBroker) fillTriggeredOrders() {
	remaining := make([]types.Order, 0, len(b.pending))
	bar := b.current

	for _, order := range b.pending {
		if order.Kind == types.OrderTypeMarket || order.CreatedBar >= b.bar {
			remaining = append(remaining, order)

			continue
		}

		quoted, ok := triggerPrice(order, bar)
		if !ok {
			remaining = append(remaining, order)

			continue
		}

		price := b.config.Slippage.Apply(order.Side, quoted)
		if err := b.checkFunds(b.position.Size, order.Side, order.Size, price, price); err != nil {
			_ = b.reject(order, err)

			continue
		}

		b.fillOrder(order, price, quoted)
	}

	b.pending = remaining
}

// triggerPrice applies the gap rule: a buy limit fills at min(limit, open) once Low reaches
// it, a buy stop at max(stop, open) once High reaches it. Sells are mirrored.
func triggerPrice(order types.Order, bar types.Bar) (float64, bool) {
	buy := order.Side == types.PurchaseTypeBuy

	switch order.Kind {
	case types.OrderTypeLimit:
		limit := order.LimitPrice.Unwrap()
		if buy && bar.Low <= limit {
			return math.Min(limit, bar.Open), true
		}

		if !buy && bar.High >= limit {
			return math.Max(limit, bar.Open), true
		}
	case types.OrderTypeStop:
		stop := order.StopPrice.Unwrap()
		if buy && bar.High >= stop {
			return math.Max(stop, bar.Open), true
		}

		if !buy && bar.Low <= stop {
			return math.Min(stop, bar.Open), true
		}
	}

	return 0, false
}

// mark values the position at the bar Close. Fills at other prices are already realized
// into cash, so the Close mark keeps equity = cash + size × Close at every bar.
func (b *BacktestBroker) mark() {
	b.equity = b.cash.Add(decimal.NewFromInt(int64(b.position.Size)).Mul(decimal.NewFromFloat(b.current.Close))).InexactFloat64()
	if b.equity > b.peakEquity {
		b.peakEquity = b.equity
	}
}

// availableFunds is the equity at price minus the margin locked by a position of the
// remaining size.
func (b *BacktestBroker) availableFunds(remaining int, price float64) float64 {
	p := decimal.NewFromFloat(price)
	equity := b.cash.Add(decimal.NewFromInt(int64(b.position.Size)).Mul(p))
	locked := decimal.NewFromInt(int64(abs(remaining))).Mul(p).Mul(decimal.NewFromFloat(b.config.Margin))

	return equity.Sub(locked).InexactFloat64()
}

// checkFunds verifies that the exposure an order adds on top of a position of size can be
// covered. The part of the order that reduces the position never needs funds.
func (b *BacktestBroker) checkFunds(size int, side types.PurchaseType, quantity int, price float64, mark float64) error {
	reduce := 0
	if size != 0 && sign(size) != side.Sign() {
		reduce = min(quantity, abs(size))
	}

	open := quantity - reduce
	if open == 0 {
		return nil
	}

	remaining := size + side.Sign()*reduce
	available := decimal.NewFromFloat(b.availableFunds(remaining, mark))
	fee := decimal.NewFromFloat(b.config.Commission.Calculate(float64(quantity), price))
	required := decimal.NewFromInt(int64(open)).Mul(decimal.NewFromFloat(price)).Mul(decimal.NewFromFloat(b.config.Margin)).Add(fee)

	if required.GreaterThan(available) {
		return errors.Newf(errors.ErrCodeInsufficientFunds, "order needs %s but only %s is available",
			required.StringFixed(2), available.StringFixed(2))
	}

	return nil
}

// fillOrder executes a strategy order and attaches its protective levels to the resulting position.
func (b *BacktestBroker) fillOrder(order types.Order, price float64, quoted float64) {
	before := b.position.Size
	b.fill(order.Side, order.Size, price, quoted, types.CloseReasonStrategyClose, order.Tag)

	b.log.Debug("order filled",
		zap.String("id", order.ID),
		zap.String("side", string(order.Side)),
		zap.Int("size", order.Size),
		zap.Float64("price", price),
		zap.Int("bar", b.bar),
	)

	after := b.position.Size
	if after == 0 || sign(after) != order.Side.Sign() {
		return
	}

	// the order opened, flipped or extended the position in its own direction
	opened := sign(before) != sign(after)

	if opened || order.StopLoss.IsSome() {
		b.position.StopLoss = order.StopLoss
	}

	if opened || order.TakeProfit.IsSome() {
		b.position.TakeProfit = order.TakeProfit
	}

	if order.TrailDistance.IsSome() {
		distance := order.TrailDistance.Unwrap()
		trail := price - float64(order.Side.Sign())*distance

		// an existing trail only tightens
		if !opened && b.position.TrailingStop.IsSome() {
			existing := b.position.TrailingStop.Unwrap()
			if after > 0 {
				trail = math.Max(existing, trail)
			} else {
				trail = math.Min(existing, trail)
			}
		}

		b.position.TrailDistance = distance
		b.position.TrailingStop = optional.Some(trail)
	} else if opened {
		b.position.TrailDistance = 0
		b.position.TrailingStop = optional.None[float64]()
	}

	if opened || order.MaxBars > 0 {
		b.position.MaxBars = order.MaxBars
	}
}

// fill moves quantity units at price through the position: the part opposing the current
// position closes it pro-rata into a trade, the rest opens or extends exposure.
func (b *BacktestBroker) fill(side types.PurchaseType, quantity int, price float64, quoted float64, reason types.CloseReason, tag string) {
	p := decimal.NewFromFloat(price)
	q := decimal.NewFromInt(int64(quantity))
	fee := decimal.NewFromFloat(b.config.Commission.Calculate(float64(quantity), price))
	slip := decimal.NewFromFloat(slippage.Cost(quoted, price, quantity))

	b.cash = b.cash.Sub(q.Mul(p).Mul(decimal.NewFromInt(int64(side.Sign())))).Sub(fee)
	b.totalFees = b.totalFees.Add(fee)
	b.totalSlippage = b.totalSlippage.Add(slip)

	reduce := 0
	if !b.position.IsFlat() && sign(b.position.Size) != side.Sign() {
		reduce = min(quantity, b.position.AbsSize())
	}

	if reduce > 0 {
		share := decimal.NewFromInt(int64(reduce)).Div(q)
		b.reduce(reduce, price, fee.Mul(share), slip.Mul(share), reason)
	}

	open := quantity - reduce
	if open == 0 {
		return
	}

	share := decimal.NewFromInt(int64(open)).Div(q)
	openFee := fee.Mul(share).InexactFloat64()
	openSlip := slip.Mul(share).InexactFloat64()

	if b.position.IsFlat() {
		b.position = types.Position{
			Size:            side.Sign() * open,
			EntryPrice:      price,
			EntryBar:        b.bar,
			EntryTime:       b.current.Time,
			EntryCommission: openFee,
			EntrySlippage:   openSlip,
			StopLoss:        optional.None[float64](),
			TakeProfit:      optional.None[float64](),
			TrailingStop:    optional.None[float64](),
			TrailDistance:   0,
			MaxBars:         0,
			Tag:             tag,
		}

		return
	}

	held := decimal.NewFromInt(int64(b.position.AbsSize()))
	added := decimal.NewFromInt(int64(open))
	b.position.EntryPrice = held.Mul(decimal.NewFromFloat(b.position.EntryPrice)).Add(added.Mul(p)).Div(held.Add(added)).InexactFloat64()
	b.position.Size += side.Sign() * open
	b.position.EntryCommission += openFee
	b.position.EntrySlippage += openSlip
}

// reduce closes quantity units of the position at price and appends the trade.
func (b *BacktestBroker) reduce(quantity int, price float64, exitFee decimal.Decimal, exitSlip decimal.Decimal, reason types.CloseReason) {
	pos := b.position
	r := decimal.NewFromInt(int64(quantity))
	share := r.Div(decimal.NewFromInt(int64(pos.AbsSize())))
	entry := decimal.NewFromFloat(pos.EntryPrice)
	entryFee := decimal.NewFromFloat(pos.EntryCommission).Mul(share)
	entrySlip := decimal.NewFromFloat(pos.EntrySlippage).Mul(share)
	direction := decimal.NewFromInt(int64(sign(pos.Size)))

	gross := r.Mul(decimal.NewFromFloat(price).Sub(entry)).Mul(direction)
	pnl := gross.Sub(entryFee).Sub(exitFee)

	returnPct := 0.0
	if !entry.IsZero() {
		returnPct = pnl.Div(r.Mul(entry)).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	trade := types.Trade{
		EntryBar:     pos.EntryBar,
		EntryTime:    pos.EntryTime,
		EntryPrice:   pos.EntryPrice,
		ExitBar:      b.bar,
		ExitTime:     b.current.Time,
		ExitPrice:    price,
		Size:         sign(pos.Size) * quantity,
		PnL:          pnl.InexactFloat64(),
		ReturnPct:    returnPct,
		Commission:   entryFee.Add(exitFee).InexactFloat64(),
		SlippageCost: entrySlip.Add(exitSlip).InexactFloat64(),
		CloseReason:  reason,
		Tag:          pos.Tag,
	}

	b.trades = append(b.trades, trade)
	b.realizedPnL = b.realizedPnL.Add(pnl)

	b.log.Debug("trade closed",
		zap.Int("entry_bar", trade.EntryBar),
		zap.Int("exit_bar", trade.ExitBar),
		zap.Int("size", trade.Size),
		zap.Float64("exit_price", trade.ExitPrice),
		zap.Float64("pnl", trade.PnL),
		zap.String("reason", string(reason)),
	)

	if quantity == pos.AbsSize() {
		b.position = emptyPosition()

		return
	}

	b.position.Size -= sign(pos.Size) * quantity
	b.position.EntryCommission = decimal.NewFromFloat(pos.EntryCommission).Sub(entryFee).InexactFloat64()
	b.position.EntrySlippage = decimal.NewFromFloat(pos.EntrySlippage).Sub(entrySlip).InexactFloat64()
}

func (b *BacktestBroker) reject(order types.Order, err error) error {
	rejection := types.Rejection{
		OrderID: order.ID,
		Bar:     max(b.bar, 0),
		Time:    b.current.Time,
		Side:    order.Side,
		Size:    order.Size,
		Code:    int(errors.GetCode(err)),
		Reason:  rejectionReason(err),
		Message: err.Error(),
	}
	b.rejections = append(b.rejections, rejection)

	b.log.Debug("order rejected",
		zap.String("id", order.ID),
		zap.String("reason", rejection.Reason),
		zap.Error(err),
	)

	var typed *errors.Error
	if errors.As(err, &typed) && b.bar >= 0 {
		return typed.WithBar(b.bar)
	}

	return err
}

func rejectionReason(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeInsufficientFunds:
		return types.OrderReasonInsufficientFunds
	case errors.ErrCodeNaNInput:
		return types.OrderReasonNaNPrice
	case errors.ErrCodeInvalidSize:
		return types.OrderReasonInvalidQuantity
	default:
		return types.OrderReasonInvalidPrice
	}
}

// closingSide returns the side of an order that flattens pos.
func closingSide(pos types.Position) types.PurchaseType {
	if pos.IsShort() {
		return types.PurchaseTypeBuy
	}

	return types.PurchaseTypeSell
}

// stopFill applies the gap rule to a protective stop: a sell stop fills at min(level, open),
// a buy stop at max(level, open).
func stopFill(side types.PurchaseType, level float64, open float64) float64 {
	if side == types.PurchaseTypeSell {
		return math.Min(level, open)
	}

	return math.Max(level, open)
}

// targetFill applies the gap rule to a take profit: a sell target fills at max(level, open),
// a buy target at min(level, open).
func targetFill(side types.PurchaseType, level float64, open float64) float64 {
	if side == types.PurchaseTypeSell {
		return math.Max(level, open)
	}

	return math.Min(level, open)
}

func emptyPosition() types.Position {
	return types.Position{
		Size:            0,
		EntryPrice:      0,
		EntryBar:        0,
		EntryTime:       time.Time{},
		EntryCommission: 0,
		EntrySlippage:   0,
		StopLoss:        optional.None[float64](),
		TakeProfit:      optional.None[float64](),
		TrailingStop:    optional.None[float64](),
		TrailDistance:   0,
		MaxBars:         0,
		Tag:             "",
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
