package plan

import (
	"fmt"
	"strings"
)

// DuplicateActionError reports a second registration under an existing name.
type DuplicateActionError struct {
	Name string
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("action %q is already registered", e.Name)
}

// UnknownDependencyError reports a Requires entry naming an unregistered
// action.
type UnknownDependencyError struct {
	Action     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("action %q requires unknown action %q", e.Action, e.Dependency)
}

// CycleDetectedError names the actions participating in a dependency cycle.
type CycleDetectedError struct {
	Members []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected among actions: %s", strings.Join(e.Members, ", "))
}
