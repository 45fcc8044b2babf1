// Package series holds the price table and every derived indicator series of a run.
//
// All series share the bar count N of the input table and are frozen once stored. During
// simulation the store hands out windowed views that only expose the prefix [0, t].
package series

import (
	"fmt"
	"math"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Names of the price columns registered for every table.
const (
	Open   = "Open"
	High   = "High"
	Low    = "Low"
	Close  = "Close"
	Volume = "Volume"
)

// Handle is the stable identifier of a stored series.
type Handle int

// Ref points to a series either by handle or by name. Name references may point at series
// that are registered later; they are resolved when the dependent indicator is evaluated.
type Ref struct {
	handle Handle
	name   string
	byName bool
}

// ByHandle references an already stored series.
func ByHandle(h Handle) Ref {
	return Ref{handle: h, name: "", byName: false}
}

// ByName references a series by its display name.
func ByName(name string) Ref {
	return Ref{handle: -1, name: name, byName: true}
}

// IsName reports whether the reference is by name.
func (r Ref) IsName() bool {
	return r.byName
}

// Name returns the referenced name, empty for handle references.
func (r Ref) Name() string {
	return r.name
}

// Handle returns the referenced handle, -1 for name references.
func (r Ref) Handle() Handle {
	return r.handle
}

func (r Ref) String() string {
	if r.byName {
		return r.name
	}

	return fmt.Sprintf("#%d", r.handle)
}

// Series is an immutable sequence of N floats.
type Series struct {
	handle Handle
	name   string
	values []float64
}

func (s *Series) Handle() Handle {
	return s.handle
}

func (s *Series) Name() string {
	return s.name
}

func (s *Series) Len() int {
	return len(s.values)
}

// Values returns a copy of the full series. Only available outside the simulation loop.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)

	return out
}

// Store owns the input table and the registered series.
type Store struct {
	times  []time.Time
	series []*Series
	names  map[string]Handle
	frozen bool
}

// NewStore validates the table and registers the price columns plus every auxiliary column.
// Bars missing an auxiliary key get NaN at that position.
func NewStore(bars []types.Bar) (*Store, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyData, "input table has no bars")
	}

	times := make([]time.Time, len(bars))

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			var e *errors.Error
			if errors.As(err, &e) {
				return nil, e.WithBar(i)
			}

			return nil, err
		}

		if i > 0 && !bar.Time.After(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeNonMonotoneTime,
				"timestamps must be strictly increasing: %s follows %s",
				bar.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339)).WithBar(i)
		}

		times[i] = bar.Time
	}

	store := &Store{
		times:  times,
		series: []*Series{},
		names:  make(map[string]Handle),
		frozen: false,
	}

	columns := []struct {
		name string
		get  func(types.Bar) float64
	}{
		{Open, func(b types.Bar) float64 { return b.Open }},
		{High, func(b types.Bar) float64 { return b.High }},
		{Low, func(b types.Bar) float64 { return b.Low }},
		{Close, func(b types.Bar) float64 { return b.Close }},
		{Volume, func(b types.Bar) float64 { return b.Volume }},
	}

	for _, column := range columns {
		values := make([]float64, len(bars))
		for i, bar := range bars {
			values[i] = column.get(bar)
		}

		if _, err := store.add(column.name, values); err != nil {
			return nil, err
		}
	}

	for _, key := range types.AuxKeys(bars) {
		values := make([]float64, len(bars))

		for i, bar := range bars {
			v, ok := bar.Aux[key]
			if !ok {
				v = math.NaN()
			}

			values[i] = v
		}

		if _, err := store.add(key, values); err != nil {
			return nil, err
		}
	}

	return store, nil
}

// Add stores a defensive copy of values under name. The length must equal the bar count.
// An empty name gets a generated one.
func (s *Store) Add(name string, values []float64) (Handle, error) {
	if s.frozen {
		return -1, errors.Newf(errors.ErrCodeRegistrationClosed, "cannot add series %q after the run started", name)
	}

	return s.add(name, values)
}

func (s *Store) add(name string, values []float64) (Handle, error) {
	if len(values) != len(s.times) {
		return -1, errors.Newf(errors.ErrCodeIndicatorCalculation,
			"series %q has length %d, expected %d", name, len(values), len(s.times))
	}

	if name == "" {
		name = fmt.Sprintf("series_%d", len(s.series))
	}

	if _, exists := s.names[name]; exists {
		return -1, errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "series %q already exists", name)
	}

	frozen := make([]float64, len(values))
	copy(frozen, values)

	handle := Handle(len(s.series))
	s.series = append(s.series, &Series{handle: handle, name: name, values: frozen})
	s.names[name] = handle

	return handle, nil
}

// Reserve allocates a handle for a series whose values are produced later with Fill.
// Views over a reserved series are unavailable until it is filled.
func (s *Store) Reserve(name string) (Handle, error) {
	if s.frozen {
		return -1, errors.Newf(errors.ErrCodeRegistrationClosed, "cannot reserve series %q after the run started", name)
	}

	if name == "" {
		name = fmt.Sprintf("series_%d", len(s.series))
	}

	if _, exists := s.names[name]; exists {
		return -1, errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "series %q already exists", name)
	}

	handle := Handle(len(s.series))
	s.series = append(s.series, &Series{handle: handle, name: name, values: nil})
	s.names[name] = handle

	return handle, nil
}

// Fill stores a defensive copy of values into a reserved series.
func (s *Store) Fill(h Handle, values []float64) error {
	if s.frozen {
		return errors.Newf(errors.ErrCodeRegistrationClosed, "cannot fill series %d after the run started", h)
	}

	series, err := s.Get(h)
	if err != nil {
		return err
	}

	if series.values != nil {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "series %q is already materialised", series.name)
	}

	if len(values) != len(s.times) {
		return errors.Newf(errors.ErrCodeIndicatorCalculation,
			"series %q has length %d, expected %d", series.name, len(values), len(s.times))
	}

	frozen := make([]float64, len(values))
	copy(frozen, values)
	series.values = frozen

	return nil
}

// Ready reports whether the series behind h holds values.
func (s *Store) Ready(h Handle) bool {
	series, err := s.Get(h)

	return err == nil && series.values != nil
}

// Freeze closes the store for writes. Called when the first bar is stepped.
func (s *Store) Freeze() {
	s.frozen = true
}

// Frozen reports whether the store is closed for writes.
func (s *Store) Frozen() bool {
	return s.frozen
}

// Len returns the bar count N.
func (s *Store) Len() int {
	return len(s.times)
}

// Time returns the timestamp of bar i.
func (s *Store) Time(i int) time.Time {
	return s.times[i]
}

// Times returns a copy of all bar timestamps.
func (s *Store) Times() []time.Time {
	out := make([]time.Time, len(s.times))
	copy(out, s.times)

	return out
}

// Names returns the stored series names in registration order.
func (s *Store) Names() []string {
	names := make([]string, len(s.series))
	for i, series := range s.series {
		names[i] = series.name
	}

	return names
}

// Lookup returns the handle stored under name.
func (s *Store) Lookup(name string) (Handle, bool) {
	h, ok := s.names[name]

	return h, ok
}

// Get returns the series for handle.
func (s *Store) Get(h Handle) (*Series, error) {
	if h < 0 || int(h) >= len(s.series) {
		return nil, errors.Newf(errors.ErrCodeSeriesNotFound, "series handle %d does not exist", h)
	}

	return s.series[h], nil
}

// Resolve turns a reference into a handle.
func (s *Store) Resolve(ref Ref) (Handle, error) {
	if !ref.byName {
		if _, err := s.Get(ref.handle); err != nil {
			return -1, err
		}

		return ref.handle, nil
	}

	h, ok := s.names[ref.name]
	if !ok {
		return -1, errors.Newf(errors.ErrCodeSeriesNotFound, "series %q does not exist", ref.name)
	}

	return h, nil
}

// Bar rebuilds the input bar at index i, auxiliary columns included.
func (s *Store) Bar(i int, auxNames []string) types.Bar {
	bar := types.Bar{
		Time:   s.times[i],
		Open:   s.series[0].values[i],
		High:   s.series[1].values[i],
		Low:    s.series[2].values[i],
		Close:  s.series[3].values[i],
		Volume: s.series[4].values[i],
		Aux:    nil,
	}

	if len(auxNames) > 0 {
		bar.Aux = make(map[string]float64, len(auxNames))

		for _, name := range auxNames {
			if h, ok := s.names[name]; ok {
				bar.Aux[name] = s.series[h].values[i]
			}
		}
	}

	return bar
}

// Window returns the view of the store at bar t.
func (s *Store) Window(t int) (*Window, error) {
	if t < 0 || t >= len(s.times) {
		return nil, errors.Newf(errors.ErrCodeIndicatorOutOfBounds, "bar %d outside [0, %d)", t, len(s.times)).WithBar(t)
	}

	return &Window{store: s, t: t}, nil
}

// Window exposes every series truncated to [0, t].
type Window struct {
	store *Store
	t     int
}

// T returns the current bar index.
func (w *Window) T() int {
	return w.t
}

// Time returns the current bar timestamp.
func (w *Window) Time() time.Time {
	return w.store.times[w.t]
}

// View returns the truncated view of the series behind handle.
func (w *Window) View(h Handle) (View, error) {
	series, err := w.store.Get(h)
	if err != nil {
		return View{}, err
	}

	if series.values == nil {
		return View{}, errors.Newf(errors.ErrCodeSeriesNotFound, "series %q has not been computed", series.name)
	}

	return View{series: series, t: w.t}, nil
}

// Named returns the truncated view of the series stored under name.
func (w *Window) Named(name string) (View, error) {
	h, ok := w.store.Lookup(name)
	if !ok {
		return View{}, errors.Newf(errors.ErrCodeSeriesNotFound, "series %q does not exist", name)
	}

	return w.View(h)
}
