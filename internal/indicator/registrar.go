package indicator

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/series"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Registration records one indicator registered during strategy initialization.
type Registration struct {
	Name     string
	Producer Producer
	Inputs   []series.Ref
	Params   Params
	Outputs  []series.Handle
}

// Registrar evaluates indicators into the series store while registration is open.
//
// Registrations whose inputs are already materialised are evaluated immediately. Registrations
// that reference series by a name not yet computed are deferred and evaluated in dependency
// order by Seal. After Seal every further registration fails with RegistrationClosed.
type Registrar struct {
	store         *series.Store
	registrations []*Registration
	pending       []*Registration
	sealed        bool
}

// NewRegistrar creates a registrar writing into store.
func NewRegistrar(store *series.Store) *Registrar {
	return &Registrar{
		store:         store,
		registrations: []*Registration{},
		pending:       []*Registration{},
		sealed:        false,
	}
}

// Register computes producer over inputs once and stores the outputs. Nil inputs use the
// producer's default input names. The returned handles are stable for the run, one per output.
func (r *Registrar) Register(name string, producer Producer, inputs []series.Ref, params Params) ([]series.Handle, error) {
	if r.sealed {
		return nil, errors.Newf(errors.ErrCodeRegistrationClosed, "indicator %q registered after initialization", name)
	}

	if producer == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "producer must not be nil")
	}

	if name == "" {
		name = fmt.Sprintf("%s_%d", producer.Name(), len(r.registrations))
	}

	if inputs == nil {
		for _, input := range producer.Inputs() {
			inputs = append(inputs, series.ByName(input))
		}
	}

	if len(inputs) != len(producer.Inputs()) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"indicator %q expects %d inputs, got %d", name, len(producer.Inputs()), len(inputs))
	}

	suffixes := producer.Outputs()
	if len(suffixes) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "indicator %q declares no outputs", name)
	}

	reg := &Registration{
		Name:     name,
		Producer: producer,
		Inputs:   append([]series.Ref(nil), inputs...),
		Params:   params.Clone(),
		Outputs:  make([]series.Handle, 0, len(suffixes)),
	}

	for _, outputName := range outputNames(name, suffixes) {
		h, err := r.store.Reserve(outputName)
		if err != nil {
			return nil, err
		}

		reg.Outputs = append(reg.Outputs, h)
	}

	r.registrations = append(r.registrations, reg)

	if r.ready(reg) {
		if err := r.evaluate(reg); err != nil {
			return nil, err
		}
	} else {
		r.pending = append(r.pending, reg)
	}

	return append([]series.Handle(nil), reg.Outputs...), nil
}

// Seal evaluates deferred registrations in dependency order and closes registration.
// Calling Seal again is a no-op.
func (r *Registrar) Seal() error {
	if r.sealed {
		return nil
	}

	order, err := r.sortPending()
	if err != nil {
		return err
	}

	for _, reg := range order {
		if err := r.evaluate(reg); err != nil {
			return err
		}
	}

	r.pending = nil
	r.sealed = true
	r.store.Freeze()

	return nil
}

// Sealed reports whether registration is closed.
func (r *Registrar) Sealed() bool {
	return r.sealed
}

// Registrations returns copies of every registration in submission order.
func (r *Registrar) Registrations() []Registration {
	out := make([]Registration, len(r.registrations))
	for i, reg := range r.registrations {
		out[i] = Registration{
			Name:     reg.Name,
			Producer: reg.Producer,
			Inputs:   append([]series.Ref(nil), reg.Inputs...),
			Params:   reg.Params.Clone(),
			Outputs:  append([]series.Handle(nil), reg.Outputs...),
		}
	}

	return out
}

func outputNames(name string, suffixes []string) []string {
	if len(suffixes) == 1 {
		return []string{name}
	}

	names := make([]string, len(suffixes))
	for i, suffix := range suffixes {
		names[i] = name + "." + suffix
	}

	return names
}

// ready reports whether every input of reg resolves to a computed series.
func (r *Registrar) ready(reg *Registration) bool {
	for _, ref := range reg.Inputs {
		h, err := r.store.Resolve(ref)
		if err != nil || !r.store.Ready(h) {
			return false
		}
	}

	return true
}

// sortPending orders deferred registrations so every one follows the registrations producing
// its inputs, keeping submission order among independent ones.
func (r *Registrar) sortPending() ([]*Registration, error) {
	producerOf := make(map[series.Handle]int)

	for i, reg := range r.pending {
		for _, h := range reg.Outputs {
			producerOf[h] = i
		}
	}

	dependents := make([][]int, len(r.pending))
	inDegree := make([]int, len(r.pending))

	for i, reg := range r.pending {
		seen := make(map[int]bool)

		for _, ref := range reg.Inputs {
			h, err := r.store.Resolve(ref)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeIndicatorNotFound, err,
					"indicator %q references unknown series %s", reg.Name, ref)
			}

			if r.store.Ready(h) {
				continue
			}

			dep, ok := producerOf[h]
			if !ok {
				return nil, errors.Newf(errors.ErrCodeIndicatorNotFound,
					"indicator %q references series %s that is never computed", reg.Name, ref)
			}

			if !seen[dep] {
				seen[dep] = true
				dependents[dep] = append(dependents[dep], i)
				inDegree[i]++
			}
		}
	}

	queue := []int{}

	for i := range r.pending {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]*Registration, 0, len(r.pending))

	for len(queue) > 0 {
		// pick the earliest submitted ready registration
		best := 0
		for j := 1; j < len(queue); j++ {
			if queue[j] < queue[best] {
				best = j
			}
		}

		current := queue[best]
		queue = append(queue[:best], queue[best+1:]...)
		order = append(order, r.pending[current])

		for _, next := range dependents[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(r.pending) {
		cyclic := []string{}

		for i, reg := range r.pending {
			if inDegree[i] > 0 {
				cyclic = append(cyclic, reg.Name)
			}
		}

		return nil, errors.Newf(errors.ErrCodeIndicatorCycle,
			"indicator dependency cycle between %s", strings.Join(cyclic, ", "))
	}

	return order, nil
}

func (r *Registrar) evaluate(reg *Registration) error {
	inputs := make([][]float64, len(reg.Inputs))

	for i, ref := range reg.Inputs {
		h, err := r.store.Resolve(ref)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeIndicatorNotFound, err, "indicator %q input %s", reg.Name, ref)
		}

		s, err := r.store.Get(h)
		if err != nil {
			return err
		}

		inputs[i] = s.Values()
	}

	outputs, err := reg.Producer.Compute(inputs, reg.Params.Clone())
	if err != nil {
		return errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "indicator %q failed", reg.Name)
	}

	if len(outputs) != len(reg.Outputs) {
		return errors.Newf(errors.ErrCodeIndicatorCalculation,
			"indicator %q returned %d outputs, expected %d", reg.Name, len(outputs), len(reg.Outputs))
	}

	for i, values := range outputs {
		if err := r.store.Fill(reg.Outputs[i], values); err != nil {
			return errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "indicator %q output %d", reg.Name, i)
		}
	}

	return nil
}
