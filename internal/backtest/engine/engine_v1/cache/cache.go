package cache

import (
	"maps"
	"slices"

	"github.com/moznion/go-optional"
)

// Cache is the per-run state bag handed to strategies. It is reset before every run.
type Cache interface {
	Reset()
	Set(key string, value any)
	Get(key string) (any, bool)
	Delete(key string)
	Keys() []string
}

// State is the default Cache backed by a map.
type State struct {
	data map[string]any
}

func NewState() Cache {
	return &State{
		data: make(map[string]any),
	}
}

// Reset implements cache.Cache.
func (c *State) Reset() {
	c.data = make(map[string]any)
}

// Set stores value under key, replacing any previous value.
func (c *State) Set(key string, value any) {
	c.data[key] = value
}

// Get returns the value stored under key.
func (c *State) Get(key string) (any, bool) {
	value, ok := c.data[key]

	return value, ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (c *State) Delete(key string) {
	delete(c.data, key)
}

// Keys returns the stored keys in sorted order.
func (c *State) Keys() []string {
	return slices.Sorted(maps.Keys(c.data))
}

// GetFloat returns the float64 stored under key, or None when missing or of another type.
func GetFloat(c Cache, key string) optional.Option[float64] {
	return getTyped[float64](c, key)
}

// GetInt returns the int stored under key, or None when missing or of another type.
func GetInt(c Cache, key string) optional.Option[int] {
	return getTyped[int](c, key)
}

// GetBool returns the bool stored under key, or None when missing or of another type.
func GetBool(c Cache, key string) optional.Option[bool] {
	return getTyped[bool](c, key)
}

// GetString returns the string stored under key, or None when missing or of another type.
func GetString(c Cache, key string) optional.Option[string] {
	return getTyped[string](c, key)
}

func getTyped[T any](c Cache, key string) optional.Option[T] {
	value, ok := c.Get(key)
	if !ok {
		return optional.None[T]()
	}

	typed, ok := value.(T)
	if !ok {
		return optional.None[T]()
	}

	return optional.Some(typed)
}
