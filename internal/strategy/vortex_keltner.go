package strategy

import (
	"strconv"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const VortexKeltnerName = "vortex_keltner"

// VortexKeltnerParams configures VortexKeltner.
type VortexKeltnerParams struct {
	VortexPeriod  int     `param:"vortex_period" yaml:"vortex_period" json:"vortex_period" validate:"gte=1" jsonschema:"title=Vortex Period,minimum=1,default=14"`
	KeltnerPeriod int     `param:"keltner_period" yaml:"keltner_period" json:"keltner_period" validate:"gte=1" jsonschema:"title=Keltner Period,minimum=1,default=20"`
	AtrPeriod     int     `param:"atr_period" yaml:"atr_period" json:"atr_period" validate:"gte=1" jsonschema:"title=Keltner ATR Period,minimum=1,default=10"`
	Multiplier    float64 `param:"multiplier" yaml:"multiplier" json:"multiplier" validate:"gt=0" jsonschema:"title=Keltner Multiplier,default=2"`
	RewardRatio   float64 `param:"reward_ratio" yaml:"reward_ratio" json:"reward_ratio" validate:"gt=0" jsonschema:"title=Reward Ratio,description=Take profit distance in multiples of the stop distance,default=2"`
	MaxBars       int     `param:"max_bars" yaml:"max_bars" json:"max_bars" validate:"gte=0" jsonschema:"title=Max Bars,description=Close the trade after this many bars (0 keeps it open),default=50"`
	RiskFraction  float64 `param:"risk_fraction" yaml:"risk_fraction" json:"risk_fraction" validate:"gt=0,lte=1" jsonschema:"title=Risk Fraction,default=0.01"`
}

// VortexKeltner buys when +VI crosses above -VI while the close is above the Keltner middle
// line. The stop sits on the lower channel and the target at RewardRatio times the risk.
type VortexKeltner struct {
	params VortexKeltnerParams
	plus   series.Handle
	minus  series.Handle
	middle series.Handle
	lower  series.Handle
}

func NewVortexKeltner() *VortexKeltner {
	return &VortexKeltner{
		params: VortexKeltnerParams{
			VortexPeriod:  14,
			KeltnerPeriod: 20,
			AtrPeriod:     10,
			Multiplier:    2,
			RewardRatio:   2,
			MaxBars:       50,
			RiskFraction:  0.01,
		},
		plus:   0,
		minus:  0,
		middle: 0,
		lower:  0,
	}
}

func (s *VortexKeltner) Name() string {
	return VortexKeltnerName
}

func (s *VortexKeltner) Description() string {
	return "Vortex +VI/-VI cross filtered by the Keltner middle line, stop on the lower channel"
}

func (s *VortexKeltner) ParamsSchema() (string, error) {
	return ToJSONSchema(VortexKeltnerParams{})
}

func (s *VortexKeltner) Params() VortexKeltnerParams {
	return s.params
}

func (s *VortexKeltner) Init(ctx runtime.Context) error {
	params := NewVortexKeltner().params
	if err := decodeParams(ctx, &params); err != nil {
		return err
	}

	s.params = params

	vortex, err := ctx.Indicator(types.IndicatorTypeVortex)
	if err != nil {
		return err
	}

	lines, err := ctx.I("vi", vortex, indicator.Params{"period": params.VortexPeriod})
	if err != nil {
		return err
	}

	keltner, err := ctx.Indicator(types.IndicatorTypeKeltner)
	if err != nil {
		return err
	}

	channel, err := ctx.I("kc", keltner, indicator.Params{
		"period":     params.KeltnerPeriod,
		"atr_period": params.AtrPeriod,
		"multiplier": params.Multiplier,
	})
	if err != nil {
		return err
	}

	s.plus = lines[0]
	s.minus = lines[1]
	s.middle = channel[1]
	s.lower = channel[2]

	return nil
}

func (s *VortexKeltner) Next(ctx runtime.Context) error {
	plus, err := ctx.View(s.plus)
	if err != nil {
		return err
	}

	minus, err := ctx.View(s.minus)
	if err != nil {
		return err
	}

	middle, err := ctx.View(s.middle)
	if err != nil {
		return err
	}

	lower, err := ctx.View(s.lower)
	if err != nil {
		return err
	}

	position := ctx.Position()

	if position.IsLong() && minus.Crossed(plus) {
		ctx.Log(types.LogLevelInfo, "vortex turned down, closing long", nil)

		_, err := position.Close(1)

		return err
	}

	if position.Size() != 0 || len(ctx.Orders()) > 0 || !plus.Crossed(minus) {
		return nil
	}

	price := ctx.Close().Last(1)
	stop := lower.Last(1)

	// below the middle line or a channel still warming up
	if !(price > middle.Last(1)) || !(stop < price) {
		return nil
	}

	target := price + s.params.RewardRatio*(price-stop)

	size := riskSize(ctx, s.params.RiskFraction, stop)
	if size <= 0 {
		return nil
	}

	ctx.Log(types.LogLevelInfo, "vortex cross entry", map[string]string{
		"size":   strconv.Itoa(size),
		"stop":   strconv.FormatFloat(stop, 'f', 4, 64),
		"target": strconv.FormatFloat(target, 'f', 4, 64),
	})

	_, err = ctx.Buy(size, types.OrderOptions{
		LimitPrice:    optional.None[float64](),
		StopPrice:     optional.None[float64](),
		StopLoss:      optional.Some(stop),
		TakeProfit:    optional.Some(target),
		TrailDistance: optional.None[float64](),
		MaxBars:       s.params.MaxBars,
		Tag:           VortexKeltnerName,
	})

	return err
}
