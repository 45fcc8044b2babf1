package strategy

import (
	"strconv"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const SmaCrossName = "sma_cross"

// SmaCrossParams configures SmaCross.
type SmaCrossParams struct {
	Fast         int     `param:"fast" yaml:"fast" json:"fast" validate:"gte=1" jsonschema:"title=Fast Period,description=The period for the fast moving average,minimum=1,default=10"`
	Slow         int     `param:"slow" yaml:"slow" json:"slow" validate:"gtfield=Fast" jsonschema:"title=Slow Period,description=The period for the slow moving average,minimum=2,default=30"`
	StopPct      float64 `param:"stop_pct" yaml:"stop_pct" json:"stop_pct" validate:"gt=0,lt=1" jsonschema:"title=Stop Percent,description=Stop loss distance as a fraction of the entry close,default=0.02"`
	RiskFraction float64 `param:"risk_fraction" yaml:"risk_fraction" json:"risk_fraction" validate:"gt=0,lte=1" jsonschema:"title=Risk Fraction,description=Fraction of equity lost when the stop is hit,default=0.01"`
	AllowShort   bool    `param:"allow_short" yaml:"allow_short" json:"allow_short" jsonschema:"title=Allow Short,description=Open short positions on downward crosses,default=false"`
}

// SmaCross goes long when the fast SMA crosses above the slow one and exits on the
// opposite cross, optionally reversing short.
type SmaCross struct {
	params SmaCrossParams
	fast   series.Handle
	slow   series.Handle
}

func NewSmaCross() *SmaCross {
	return &SmaCross{
		params: SmaCrossParams{
			Fast:         10,
			Slow:         30,
			StopPct:      0.02,
			RiskFraction: 0.01,
			AllowShort:   false,
		},
		fast: 0,
		slow: 0,
	}
}

func (s *SmaCross) Name() string {
	return SmaCrossName
}

func (s *SmaCross) Description() string {
	return "Long on fast/slow SMA golden cross with a fixed-percent stop, flat or short on the death cross"
}

func (s *SmaCross) ParamsSchema() (string, error) {
	return ToJSONSchema(SmaCrossParams{})
}

// Params returns the parameters in effect after Init.
func (s *SmaCross) Params() SmaCrossParams {
	return s.params
}

func (s *SmaCross) Init(ctx runtime.Context) error {
	params := NewSmaCross().params
	if err := decodeParams(ctx, &params); err != nil {
		return err
	}

	s.params = params

	sma, err := ctx.Indicator(types.IndicatorTypeSMA)
	if err != nil {
		return err
	}

	fast, err := ctx.I("sma_fast", sma, indicator.Params{"period": params.Fast})
	if err != nil {
		return err
	}

	slow, err := ctx.I("sma_slow", sma, indicator.Params{"period": params.Slow})
	if err != nil {
		return err
	}

	s.fast = fast[0]
	s.slow = slow[0]

	return nil
}

func (s *SmaCross) Next(ctx runtime.Context) error {
	fast, err := ctx.View(s.fast)
	if err != nil {
		return err
	}

	slow, err := ctx.View(s.slow)
	if err != nil {
		return err
	}

	position := ctx.Position()
	price := ctx.Close().Last(1)

	switch {
	case fast.Crossed(slow):
		if position.IsShort() {
			if _, err := position.Close(1); err != nil {
				return err
			}
		}

		stop := price * (1 - s.params.StopPct)

		return s.enter(ctx, types.PurchaseTypeBuy, stop)
	case slow.Crossed(fast):
		if position.IsLong() {
			ctx.Log(types.LogLevelInfo, "death cross, closing long", map[string]string{
				"close": strconv.FormatFloat(price, 'f', -1, 64),
			})

			if _, err := position.Close(1); err != nil {
				return err
			}
		}

		if !s.params.AllowShort {
			return nil
		}

		stop := price * (1 + s.params.StopPct)

		return s.enter(ctx, types.PurchaseTypeSell, stop)
	}

	return nil
}

func (s *SmaCross) enter(ctx runtime.Context, side types.PurchaseType, stop float64) error {
	size := riskSize(ctx, s.params.RiskFraction, stop)
	if size <= 0 {
		ctx.Log(types.LogLevelDebug, "signal skipped, size rounds to zero", map[string]string{"side": string(side)})

		return nil
	}

	opts := types.OrderOptions{
		LimitPrice:    optional.None[float64](),
		StopPrice:     optional.None[float64](),
		StopLoss:      optional.Some(stop),
		TakeProfit:    optional.None[float64](),
		TrailDistance: optional.None[float64](),
		MaxBars:       0,
		Tag:           SmaCrossName,
	}

	ctx.Log(types.LogLevelInfo, "sma cross entry", map[string]string{
		"side": string(side),
		"size": strconv.Itoa(size),
		"stop": strconv.FormatFloat(stop, 'f', 4, 64),
	})

	var err error
	if side == types.PurchaseTypeBuy {
		_, err = ctx.Buy(size, opts)
	} else {
		_, err = ctx.Sell(size, opts)
	}

	return err
}
