// Package plan turns a registry of actions into a dependency-ordered,
// deterministic execution plan for one target state.
package plan

import (
	multierror "github.com/hashicorp/go-multierror"

	"github.com/mensylisir/nodestate/pkg/action"
)

// Registry holds every known action in declaration order. It is built once
// at startup and read-only afterwards.
type Registry struct {
	ordered []action.Action
	byName  map[string]int // name -> declaration index
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// Register adds an action. Registration order is significant: it is the
// tie-breaker for actions that become ready at the same time during
// planning. Dependencies may name actions registered later; they are
// resolved at plan time.
func (r *Registry) Register(a action.Action) error {
	name := a.Meta().Name
	if _, exists := r.byName[name]; exists {
		return &DuplicateActionError{Name: name}
	}
	r.byName[name] = len(r.ordered)
	r.ordered = append(r.ordered, a)
	return nil
}

// MustRegister panics on registration failure. The built-in action set is
// wired at startup where a failure is a programming error.
func (r *Registry) MustRegister(a action.Action) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (action.Action, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.ordered[idx], true
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// Validate checks every declared dependency against the registry and
// aggregates all problems rather than stopping at the first.
func (r *Registry) Validate() error {
	var result *multierror.Error
	for _, a := range r.ordered {
		for _, dep := range a.Meta().Requires {
			if _, ok := r.byName[dep]; !ok {
				result = multierror.Append(result, &UnknownDependencyError{
					Action:     a.Meta().Name,
					Dependency: dep,
				})
			}
		}
	}
	return result.ErrorOrNil()
}

// BuildPlan topologically sorts the subset of actions tagged for target.
//
// Kahn's algorithm over the subgraph; among actions whose dependencies are
// all resolved, the one with the lowest declaration index runs first, which
// makes plans reproducible. Dependencies on actions outside the subgraph
// are ignored (they belong to the other target); dependencies on actions
// that were never registered are an UnknownDependencyError. A cycle is a
// construction-time CycleDetectedError naming its members.
func (r *Registry) BuildPlan(target action.Target) (*Plan, error) {
	type node struct {
		a     action.Action
		index int
	}

	var nodes []node
	inSubgraph := make(map[string]bool)
	for i, a := range r.ordered {
		if a.Meta().HasTarget(target) {
			nodes = append(nodes, node{a: a, index: i})
			inSubgraph[a.Meta().Name] = true
		}
	}

	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		name := n.a.Meta().Name
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
		for _, dep := range n.a.Meta().Requires {
			if _, registered := r.byName[dep]; !registered {
				return nil, &UnknownDependencyError{Action: name, Dependency: dep}
			}
			if !inSubgraph[dep] {
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	indexOf := func(name string) int { return r.byName[name] }

	// Ready set kept as a slice; the pick is the minimum declaration index.
	// Quadratic in the worst case, fine at this scale.
	var ready []string
	for _, n := range nodes {
		if inDegree[n.a.Meta().Name] == 0 {
			ready = append(ready, n.a.Meta().Name)
		}
	}

	var order []action.Action
	for len(ready) > 0 {
		pick := 0
		for i := 1; i < len(ready); i++ {
			if indexOf(ready[i]) < indexOf(ready[pick]) {
				pick = i
			}
		}
		name := ready[pick]
		ready = append(ready[:pick], ready[pick+1:]...)

		a, _ := r.Get(name)
		order = append(order, a)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(nodes) {
		var members []string
		for _, n := range nodes {
			if inDegree[n.a.Meta().Name] > 0 {
				members = append(members, n.a.Meta().Name)
			}
		}
		return nil, &CycleDetectedError{Members: members}
	}

	return &Plan{Target: target, Actions: order}, nil
}
