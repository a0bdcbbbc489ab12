package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/nodestate/pkg/action"
)

type stubAction struct {
	action.Base
}

func (s *stubAction) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	return action.Unsatisfied, nil
}

func (s *stubAction) Apply(ctx *action.ExecutionContext) error {
	return nil
}

func stub(name string, targets []action.Target, requires ...string) *stubAction {
	a := &stubAction{}
	a.ActionMeta = action.Meta{
		Name:     name,
		Targets:  targets,
		Requires: requires,
	}
	return a
}

func joinStub(name string, requires ...string) *stubAction {
	return stub(name, []action.Target{action.TargetJoin}, requires...)
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("a")))

	err := r.Register(joinStub("a"))
	require.Error(t, err)
	var dup *DuplicateActionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)
}

func TestValidateAggregatesUnknownDependencies(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("a", "ghost-1")))
	require.NoError(t, r.Register(joinStub("b", "ghost-2")))
	require.NoError(t, r.Register(joinStub("c", "a")))

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost-1")
	assert.Contains(t, err.Error(), "ghost-2")
}

func TestBuildPlanRespectsDependencyOrder(t *testing.T) {
	r := NewRegistry()
	// Register deliberately out of execution order.
	require.NoError(t, r.Register(joinStub("c", "b")))
	require.NoError(t, r.Register(joinStub("a")))
	require.NoError(t, r.Register(joinStub("b", "a")))

	p, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, p.Names())

	// Every dependency precedes its dependent.
	position := make(map[string]int)
	for i, name := range p.Names() {
		position[name] = i
	}
	for _, a := range p.Actions {
		for _, dep := range a.Meta().Requires {
			assert.Less(t, position[dep], position[a.Meta().Name],
				"%s must run before %s", dep, a.Meta().Name)
		}
	}
}

func TestBuildPlanBreaksTiesByDeclarationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("b")))
	require.NoError(t, r.Register(joinStub("a")))
	require.NoError(t, r.Register(joinStub("c")))

	p, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, p.Names())
}

func TestBuildPlanIsDeterministic(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("root")))
	require.NoError(t, r.Register(joinStub("x", "root")))
	require.NoError(t, r.Register(joinStub("y", "root")))
	require.NoError(t, r.Register(joinStub("z", "x", "y")))

	first, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.BuildPlan(action.TargetJoin)
		require.NoError(t, err)
		assert.Equal(t, first.Names(), again.Names())
	}
}

func TestBuildPlanFiltersByTarget(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("join-only")))
	require.NoError(t, r.Register(stub("reset-only", []action.Target{action.TargetReset})))
	require.NoError(t, r.Register(stub("both", []action.Target{action.TargetJoin, action.TargetReset})))

	p, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"join-only", "both"}, p.Names())

	p, err = r.BuildPlan(action.TargetReset)
	require.NoError(t, err)
	assert.Equal(t, []string{"reset-only", "both"}, p.Names())
}

func TestBuildPlanIgnoresCrossTargetDependencies(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stub("other", []action.Target{action.TargetReset})))
	// "a" depends on an action that only exists in the reset subgraph; the
	// edge must not block the join plan.
	require.NoError(t, r.Register(joinStub("a", "other")))

	p, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, p.Names())
}

func TestBuildPlanFailsOnUnregisteredDependency(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("a", "never-registered")))

	_, err := r.BuildPlan(action.TargetJoin)
	var unknown *UnknownDependencyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "a", unknown.Action)
	assert.Equal(t, "never-registered", unknown.Dependency)
}

func TestBuildPlanDetectsCycles(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("a", "c")))
	require.NoError(t, r.Register(joinStub("b", "a")))
	require.NoError(t, r.Register(joinStub("c", "b")))
	require.NoError(t, r.Register(joinStub("free")))

	_, err := r.BuildPlan(action.TargetJoin)
	var cycle *CycleDetectedError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycle.Members)
}

func TestGetAndLen(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(joinStub("a")))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Meta().Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}
