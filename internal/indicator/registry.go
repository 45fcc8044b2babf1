package indicator

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// IndicatorRegistry is the catalog of producers available by name, used by configuration-driven
// strategies.
type IndicatorRegistry interface {
	RegisterIndicator(producer Producer) error
	GetIndicator(name types.IndicatorType) (Producer, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Producer
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Producer),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in indicator.
func NewDefaultRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()

	for _, producer := range []Producer{
		NewMA(),
		NewEMA(),
		NewWMA(),
		NewStdDev(),
		NewRSI(),
		NewATR(),
		NewBollingerBands(),
		NewMACD(),
		NewVortex(),
		NewKeltner(),
		NewHighest(),
		NewLowest(),
	} {
		// names are unique, registration cannot fail
		_ = registry.RegisterIndicator(producer)
	}

	return registry
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(producer Producer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := producer.Name()
	if _, exists := r.indicators[name]; exists {
		return fmt.Errorf("RegisterIndicator: indicator with name %s already registered", name)
	}

	r.indicators[name] = producer

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Producer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	producer, exists := r.indicators[name]
	if !exists {
		return nil, fmt.Errorf("GetIndicator: indicator with name %s not found", name)
	}

	return producer, nil
}

// ListIndicators returns all registered indicator names, sorted.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return fmt.Errorf("RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}
