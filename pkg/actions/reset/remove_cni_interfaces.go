package reset

import (
	"strings"

	"github.com/mensylisir/nodestate/pkg/action"
)

// defaultInterfacePatterns covers the link names the common CNI plugins
// leave behind: bridge CNI, flannel, calico, and kube-proxy's IPVS dummy.
var defaultInterfacePatterns = []string{
	"cni0", "flannel.1", "cali*", "tunl0", "vxlan.calico", "kube-ipvs0", "dummy0",
}

// RemoveCNIInterfaces deletes leftover CNI network links. Patterns are
// matched against the live link list at check time, never against cached
// names.
type RemoveCNIInterfaces struct {
	action.Base
	Patterns []string
}

// NewRemoveCNIInterfaces builds the action; extra patterns come from the
// reset config.
func NewRemoveCNIInterfaces(extraPatterns []string) *RemoveCNIInterfaces {
	a := &RemoveCNIInterfaces{
		Patterns: append(append([]string{}, defaultInterfacePatterns...), extraPatterns...),
	}
	a.ActionMeta = action.Meta{
		Name:        "remove-cni-interfaces",
		Description: "Delete leftover CNI network interfaces (" + strings.Join(a.Patterns, ", ") + ")",
		Targets:     []action.Target{action.TargetReset},
		Requires:    []string{"stop-kubelet"},
		Category:    action.CategoryNetwork,
		Reversible:  false,
	}
	return a
}

// Check is Satisfied when no live link matches any pattern.
func (a *RemoveCNIInterfaces) Check(ctx *action.ExecutionContext) (action.CheckResult, error) {
	matched, err := ctx.Host.Network.MatchInterfaces(ctx.GoContext, a.Patterns)
	if err != nil {
		return action.Unknown, err
	}
	if len(matched) == 0 {
		return action.Satisfied, nil
	}
	ctx.Logger.Debugf("links pending removal: %s", strings.Join(matched, ", "))
	return action.Unsatisfied, nil
}

// Apply re-resolves the matching links and deletes each. Deleting a link
// that disappeared since the probe is not an error.
func (a *RemoveCNIInterfaces) Apply(ctx *action.ExecutionContext) error {
	matched, err := ctx.Host.Network.MatchInterfaces(ctx.GoContext, a.Patterns)
	if err != nil {
		return action.Classify("list network links", err)
	}
	for _, name := range matched {
		if err := ctx.Host.Network.DeleteLink(ctx.GoContext, name); err != nil {
			classified := action.Classify("delete link "+name, err)
			if action.NonFatal(classified) {
				ctx.Logger.Warnf("could not delete link %s: %v", name, classified)
				continue
			}
			// "Cannot find device" means it vanished between list and
			// delete; that is the state we want.
			if strings.Contains(strings.ToLower(classified.Error()), "cannot find device") {
				continue
			}
			return classified
		}
		ctx.Logger.Infof("deleted link %s", name)
	}

	// Calico's BGP daemon installs routes that survive link removal.
	if err := ctx.Host.Network.FlushRoutes(ctx.GoContext, "bird"); err != nil {
		ctx.Logger.Warnf("could not flush bird routes: %v", err)
	}
	return nil
}

var _ action.Action = (*RemoveCNIInterfaces)(nil)
