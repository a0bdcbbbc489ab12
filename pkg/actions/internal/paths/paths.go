// Package paths centralizes the drop-in file locations shared between the
// join and reset action sets.
package paths

const (
	// SysctlDropIn holds the bridge/forwarding settings kubeadm requires.
	SysctlDropIn = "/etc/sysctl.d/99-kubernetes.conf"
	// ModulesLoadDropIn persists the kernel modules across reboots.
	ModulesLoadDropIn = "/etc/modules-load.d/kubernetes.conf"
)
