package plan

import (
	"fmt"
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
)

// Plan is an ordered sequence of actions for one target state. It is
// immutable once built: for every declared edge (a→b), a precedes b.
type Plan struct {
	Target  action.Target
	Actions []action.Action
}

// Names returns the action names in execution order.
func (p *Plan) Names() []string {
	names := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		names[i] = a.Meta().Name
	}
	return names
}

// Len returns the number of planned actions.
func (p *Plan) Len() int {
	return len(p.Actions)
}

// String renders the plan as a numbered list, the dry-run output.
func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan for target %q (%d actions):\n", p.Target, len(p.Actions))
	for i, a := range p.Actions {
		m := a.Meta()
		fmt.Fprintf(&b, "  %2d. %-26s [%s] %s", i+1, m.Name, m.Category, m.Description)
		if len(m.Requires) > 0 {
			fmt.Fprintf(&b, " (after: %s)", strings.Join(m.Requires, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
