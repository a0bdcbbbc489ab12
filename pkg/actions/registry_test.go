package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/nodestate/pkg/action"
	"github.com/mensylisir/nodestate/pkg/config"
)

func TestBuildRegistryValidates(t *testing.T) {
	r, err := BuildRegistry(config.Default())
	require.NoError(t, err)
	assert.Equal(t, 16, r.Len())
}

func TestJoinPlanOrder(t *testing.T) {
	r, err := BuildRegistry(config.Default())
	require.NoError(t, err)

	p, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"check-kubeadm",
		"disable-swap",
		"load-kernel-modules",
		"apply-sysctl",
		"open-firewall-ports",
		"enable-container-runtime",
		"enable-kubelet",
		"kubeadm-join",
	}, p.Names())
}

func TestResetPlanOrder(t *testing.T) {
	r, err := BuildRegistry(config.Default())
	require.NoError(t, err)

	p, err := r.BuildPlan(action.TargetReset)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"kubeadm-reset",
		"stop-kubelet",
		"remove-cni-interfaces",
		"clear-ipvs",
		"flush-iptables",
		"reload-firewall",
		"remove-kube-state",
		"remove-kernel-config",
	}, p.Names())
}

func TestEveryActionBelongsToExactlyOneTarget(t *testing.T) {
	r, err := BuildRegistry(config.Default())
	require.NoError(t, err)

	join, err := r.BuildPlan(action.TargetJoin)
	require.NoError(t, err)
	reset, err := r.BuildPlan(action.TargetReset)
	require.NoError(t, err)

	assert.Equal(t, r.Len(), join.Len()+reset.Len())
	for _, name := range join.Names() {
		assert.NotContains(t, reset.Names(), name)
	}
}
