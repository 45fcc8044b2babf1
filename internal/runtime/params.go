package runtime

import (
	"maps"
	"slices"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Params is a read-only copy of the strategy parameters supplied by the run configuration.
type Params struct {
	values indicator.Params
}

// NewParams copies values into a Params.
func NewParams(values map[string]any) Params {
	return Params{values: indicator.Params(values).Clone()}
}

// Has reports whether name was configured.
func (p Params) Has(name string) bool {
	_, ok := p.values[name]

	return ok
}

// Get returns the raw value of name.
func (p Params) Get(name string) (any, bool) {
	v, ok := p.values[name]

	return v, ok
}

// Keys returns the configured names in sorted order.
func (p Params) Keys() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// Map returns a deep copy of the parameters.
func (p Params) Map() map[string]any {
	return map[string]any(p.values.Clone())
}

func (p Params) Int(name string, def int) (int, error) {
	v, err := p.values.Int(name, def)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy parameter %s", name)
	}

	return v, nil
}

func (p Params) Float(name string, def float64) (float64, error) {
	v, err := p.values.Float(name, def)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "strategy parameter %s", name)
	}

	return v, nil
}

func (p Params) String(name string, def string) (string, error) {
	v, ok := p.values[name]
	if !ok {
		return def, nil
	}

	s, ok := v.(string)
	if !ok {
		return "", errors.Newf(errors.ErrCodeStrategyConfigError, "strategy parameter %s must be a string, got %T", name, v)
	}

	return s, nil
}

func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p.values[name]
	if !ok {
		return def, nil
	}

	b, ok := v.(bool)
	if !ok {
		return false, errors.Newf(errors.ErrCodeStrategyConfigError, "strategy parameter %s must be a bool, got %T", name, v)
	}

	return b, nil
}

// Decode overlays the parameters onto target, a pointer to a struct whose fields carry
// `param` tags. Fields without a configured value keep their current value, so a struct
// filled with defaults acts as the strategy's default parameter set.
// Unknown parameter names fail.
func (p Params) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "param",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       false,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to create parameter decoder", err)
	}

	if err := decoder.Decode(map[string]any(p.values.Clone())); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode strategy parameters", err)
	}

	return nil
}
