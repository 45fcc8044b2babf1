package strategy

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/utils"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Builtin is a strategy shipped with the engine and selectable by name.
type Builtin interface {
	runtime.Strategy
	// Description returns a one line summary of the trading rules.
	Description() string
	// ParamsSchema returns the JSON schema of the accepted parameters.
	ParamsSchema() (string, error)
}

// Constructor creates a fresh strategy instance with default parameters.
type Constructor func() Builtin

var builtins = map[string]Constructor{
	SmaCrossName:       func() Builtin { return NewSmaCross() },
	BollingerTrailName: func() Builtin { return NewBollingerTrail() },
	VortexKeltnerName:  func() Builtin { return NewVortexKeltner() },
}

// New creates the built-in strategy registered under name.
func New(name string) (Builtin, error) {
	constructor, ok := builtins[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unknown strategy %q, available: %v", name, Names())
	}

	return constructor(), nil
}

// Names returns the built-in strategy names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// ToJSONSchema converts a struct to a JSON schema
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

var validate = validator.New()

// decodeParams overlays the run parameters onto target and validates the result.
func decodeParams(ctx runtime.Context, target any) error {
	if err := ctx.Params().Decode(target); err != nil {
		return err
	}

	if err := validate.Struct(target); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy parameters", err)
	}

	return nil
}

// riskSize sizes an entry at the current close so that a move to stop loses riskFraction
// of equity. The size is capped at what the free cash buys.
func riskSize(ctx runtime.Context, riskFraction float64, stop float64) int {
	price := ctx.Close().Last(1)
	size := utils.RiskSize(ctx.Equity(), riskFraction, price, stop)

	return min(size, utils.MaxAffordableSize(ctx.Cash(), price, 1, commission_fee.NewZeroCommissionFee()))
}
