package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type PurchaseType string

type OrderType string

type OrderStatus string

type PositionType string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

// Sign returns +1 for buys and -1 for sells.
func (p PurchaseType) Sign() int {
	if p == PurchaseTypeSell {
		return -1
	}

	return 1
}

// Opposite returns the side that reduces a position opened with p.
func (p PurchaseType) Opposite() PurchaseType {
	if p == PurchaseTypeBuy {
		return PurchaseTypeSell
	}

	return PurchaseTypeBuy
}

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
)

const (
	OrderReasonStrategy          string = "strategy"
	OrderReasonClose             string = "close"
	OrderReasonExclusiveClose    string = "exclusive_close"
	OrderReasonInsufficientFunds string = "insufficient_funds"
	OrderReasonInvalidQuantity   string = "invalid_quantity"
	OrderReasonInvalidPrice      string = "invalid_price"
	OrderReasonNaNPrice          string = "nan_price"
	OrderReasonNothingToClose    string = "nothing_to_close"
)

// OrderOptions carries the optional parameters of Buy and Sell.
// A LimitPrice makes a limit order, a StopPrice makes a stop order, neither makes a market order.
type OrderOptions struct {
	LimitPrice optional.Option[float64]
	StopPrice  optional.Option[float64]
	StopLoss   optional.Option[float64]
	TakeProfit optional.Option[float64]
	// TrailDistance attaches a trailing stop that follows the best price at this distance.
	TrailDistance optional.Option[float64]
	// MaxBars closes the position at the open once it has been held this many bars.
	MaxBars int
	Tag     string
}

// Order is a pending instruction held by the broker.
type Order struct {
	ID            string                   `yaml:"id" json:"id" validate:"required"`
	Kind          OrderType                `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT STOP"`
	Side          PurchaseType             `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Size          int                      `yaml:"size" json:"size" validate:"gte=0"`
	LimitPrice    optional.Option[float64] `yaml:"limit_price" json:"limit_price"`
	StopPrice     optional.Option[float64] `yaml:"stop_price" json:"stop_price"`
	StopLoss      optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit    optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
	TrailDistance optional.Option[float64] `yaml:"trail_distance" json:"trail_distance"`
	MaxBars       int                      `yaml:"max_bars" json:"max_bars" validate:"gte=0"`
	Tag           string                   `yaml:"tag" json:"tag"`
	CreatedBar    int                      `yaml:"created_bar" json:"created_bar" validate:"gte=0"`
	CreatedAt     time.Time                `yaml:"created_at" json:"created_at"`
	Status        OrderStatus              `yaml:"status" json:"status"`
	// Reason is the reason for the order, like "strategy", "close" or "exclusive_close".
	Reason string `yaml:"reason" json:"reason"`
	// ReduceOnly orders only shrink the current position. Their size is computed at fill time
	// from CloseFraction.
	ReduceOnly    bool    `yaml:"reduce_only" json:"reduce_only"`
	CloseFraction float64 `yaml:"close_fraction" json:"close_fraction" validate:"gte=0,lte=1"`
}

// NewOrder builds a pending order from the strategy options. The kind is derived from the
// presence of a limit or stop price.
func NewOrder(id string, side PurchaseType, size int, opts OrderOptions, bar int, at time.Time) Order {
	kind := OrderTypeMarket
	if opts.LimitPrice.IsSome() {
		kind = OrderTypeLimit
	} else if opts.StopPrice.IsSome() {
		kind = OrderTypeStop
	}

	return Order{
		ID:            id,
		Kind:          kind,
		Side:          side,
		Size:          size,
		LimitPrice:    opts.LimitPrice,
		StopPrice:     opts.StopPrice,
		StopLoss:      opts.StopLoss,
		TakeProfit:    opts.TakeProfit,
		TrailDistance: opts.TrailDistance,
		MaxBars:       opts.MaxBars,
		Tag:           opts.Tag,
		CreatedBar:    bar,
		CreatedAt:     at,
		Status:        OrderStatusPending,
		Reason:        OrderReasonStrategy,
		ReduceOnly:    false,
		CloseFraction: 0,
	}
}

// EntryReference returns the price the protective levels are checked against: the limit or
// stop price when present, else the supplied fallback (usually the current close).
func (o *Order) EntryReference(fallback float64) float64 {
	if o.LimitPrice.IsSome() {
		return o.LimitPrice.Unwrap()
	}

	if o.StopPrice.IsSome() {
		return o.StopPrice.Unwrap()
	}

	return fallback
}

// Validate checks the order shape and its price levels. NaN levels fail with NaNInput,
// infinite or misordered levels with InvalidPriceLevel. ref is the current close.
func (o *Order) Validate(ref float64) error {
	if !o.ReduceOnly && o.Size <= 0 {
		return errors.Newf(errors.ErrCodeInvalidSize, "order size must be a positive integer, got %d", o.Size)
	}

	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	if o.LimitPrice.IsSome() && o.StopPrice.IsSome() {
		return errors.New(errors.ErrCodeInvalidOrder, "an order cannot carry both a limit and a stop price")
	}

	levels := []struct {
		name  string
		value optional.Option[float64]
	}{
		{"limit price", o.LimitPrice},
		{"stop price", o.StopPrice},
		{"stop loss", o.StopLoss},
		{"take profit", o.TakeProfit},
		{"trail distance", o.TrailDistance},
	}

	for _, level := range levels {
		if level.value.IsNone() {
			continue
		}

		v := level.value.Unwrap()
		if math.IsNaN(v) {
			return errors.Newf(errors.ErrCodeNaNInput, "%s is NaN", level.name)
		}

		if math.IsInf(v, 0) || v <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPriceLevel, "%s must be finite and positive, got %v", level.name, v)
		}
	}

	entry := o.EntryReference(ref)

	if o.Side == PurchaseTypeBuy {
		if o.StopLoss.IsSome() && o.StopLoss.Unwrap() >= entry {
			return errors.Newf(errors.ErrCodeInvalidPriceLevel, "long stop loss %v must be below entry reference %v", o.StopLoss.Unwrap(), entry)
		}

		if o.TakeProfit.IsSome() && o.TakeProfit.Unwrap() <= entry {
			return errors.Newf(errors.ErrCodeInvalidPriceLevel, "long take profit %v must be above entry reference %v", o.TakeProfit.Unwrap(), entry)
		}
	} else {
		if o.StopLoss.IsSome() && o.StopLoss.Unwrap() <= entry {
			return errors.Newf(errors.ErrCodeInvalidPriceLevel, "short stop loss %v must be above entry reference %v", o.StopLoss.Unwrap(), entry)
		}

		if o.TakeProfit.IsSome() && o.TakeProfit.Unwrap() >= entry {
			return errors.Newf(errors.ErrCodeInvalidPriceLevel, "short take profit %v must be below entry reference %v", o.TakeProfit.Unwrap(), entry)
		}
	}

	return nil
}

// Rejection records an order the broker refused, at submission or at fill.
type Rejection struct {
	OrderID string       `yaml:"order_id" json:"order_id" csv:"order_id"`
	Bar     int          `yaml:"bar" json:"bar" csv:"bar"`
	Time    time.Time    `yaml:"time" json:"time" csv:"time"`
	Side    PurchaseType `yaml:"side" json:"side" csv:"side"`
	Size    int          `yaml:"size" json:"size" csv:"size"`
	Code    int          `yaml:"code" json:"code" csv:"code"`
	Reason  string       `yaml:"reason" json:"reason" csv:"reason"`
	Message string       `yaml:"message" json:"message" csv:"message"`
}
