package strategy

import (
	"math"
	"strconv"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const BollingerTrailName = "bollinger_trail"

// BollingerTrailParams configures BollingerTrail.
type BollingerTrailParams struct {
	Period       int     `param:"period" yaml:"period" json:"period" validate:"gte=2" jsonschema:"title=Band Period,minimum=2,default=20"`
	StdDev       float64 `param:"std_dev" yaml:"std_dev" json:"std_dev" validate:"gt=0" jsonschema:"title=Band Width,description=Standard deviations between the middle and the outer bands,default=2"`
	AtrPeriod    int     `param:"atr_period" yaml:"atr_period" json:"atr_period" validate:"gte=1" jsonschema:"title=ATR Period,minimum=1,default=14"`
	TrailAtr     float64 `param:"trail_atr" yaml:"trail_atr" json:"trail_atr" validate:"gt=0" jsonschema:"title=Trail Distance,description=Trailing stop distance in ATR multiples,default=2"`
	RiskFraction float64 `param:"risk_fraction" yaml:"risk_fraction" json:"risk_fraction" validate:"gt=0,lte=1" jsonschema:"title=Risk Fraction,default=0.01"`
}

// BollingerTrail buys when the close recovers above the lower Bollinger band and protects the
// position with an ATR trailing stop. It takes profit when the close breaks above the upper band.
type BollingerTrail struct {
	params BollingerTrailParams
	upper  series.Handle
	lower  series.Handle
	atr    series.Handle
}

func NewBollingerTrail() *BollingerTrail {
	return &BollingerTrail{
		params: BollingerTrailParams{
			Period:       20,
			StdDev:       2,
			AtrPeriod:    14,
			TrailAtr:     2,
			RiskFraction: 0.01,
		},
		upper: 0,
		lower: 0,
		atr:   0,
	}
}

func (s *BollingerTrail) Name() string {
	return BollingerTrailName
}

func (s *BollingerTrail) Description() string {
	return "Mean reversion from the lower Bollinger band with an ATR trailing stop, exit above the upper band"
}

func (s *BollingerTrail) ParamsSchema() (string, error) {
	return ToJSONSchema(BollingerTrailParams{})
}

func (s *BollingerTrail) Params() BollingerTrailParams {
	return s.params
}

func (s *BollingerTrail) Init(ctx runtime.Context) error {
	params := NewBollingerTrail().params
	if err := decodeParams(ctx, &params); err != nil {
		return err
	}

	s.params = params

	bands, err := ctx.Indicator(types.IndicatorTypeBollingerBands)
	if err != nil {
		return err
	}

	handles, err := ctx.I("bb", bands, indicator.Params{"period": params.Period, "std_dev": params.StdDev})
	if err != nil {
		return err
	}

	atr, err := ctx.Indicator(types.IndicatorTypeATR)
	if err != nil {
		return err
	}

	atrHandles, err := ctx.I("atr", atr, indicator.Params{"period": params.AtrPeriod})
	if err != nil {
		return err
	}

	s.upper = handles[0]
	s.lower = handles[2]
	s.atr = atrHandles[0]

	return nil
}

func (s *BollingerTrail) Next(ctx runtime.Context) error {
	upper, err := ctx.View(s.upper)
	if err != nil {
		return err
	}

	lower, err := ctx.View(s.lower)
	if err != nil {
		return err
	}

	atr, err := ctx.View(s.atr)
	if err != nil {
		return err
	}

	closes := ctx.Close()
	position := ctx.Position()

	if position.IsLong() && closes.Crossed(upper) {
		ctx.Log(types.LogLevelInfo, "upper band reached, taking profit", map[string]string{
			"pl": strconv.FormatFloat(position.PL(), 'f', 2, 64),
		})

		_, err := position.Close(1)

		return err
	}

	if position.Size() != 0 || len(ctx.Orders()) > 0 || !closes.Crossed(lower) {
		return nil
	}

	distance := atr.Last(1) * s.params.TrailAtr
	if math.IsNaN(distance) || distance <= 0 {
		return nil
	}

	price := closes.Last(1)

	size := riskSize(ctx, s.params.RiskFraction, price-distance)
	if size <= 0 {
		return nil
	}

	ctx.Log(types.LogLevelInfo, "lower band recovery entry", map[string]string{
		"size":  strconv.Itoa(size),
		"trail": strconv.FormatFloat(distance, 'f', 4, 64),
	})

	_, err = ctx.Buy(size, types.OrderOptions{
		LimitPrice:    optional.None[float64](),
		StopPrice:     optional.None[float64](),
		StopLoss:      optional.None[float64](),
		TakeProfit:    optional.None[float64](),
		TrailDistance: optional.Some(distance),
		MaxBars:       0,
		Tag:           BollingerTrailName,
	})

	return err
}
