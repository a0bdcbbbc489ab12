package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "continue", cfg.Engine.Policy)
	assert.False(t, cfg.HaltOnFailure())
	assert.Equal(t, 5*time.Second, cfg.Engine.CheckTimeout.StdDuration())
	assert.Equal(t, 2*time.Minute, cfg.Engine.ApplyTimeout.StdDuration())
	assert.Equal(t, "containerd.service", cfg.Join.ContainerRuntimeUnit)
	assert.Equal(t, "1.26.0", cfg.Join.MinKubeadmVersion)
	assert.Contains(t, cfg.Join.FirewallPorts, "6443/tcp")
	assert.Contains(t, cfg.Join.FirewallPorts, "10250/tcp")
}

func TestParseFullConfig(t *testing.T) {
	raw := []byte(`
join:
  controlPlaneEndpoint: "10.0.0.1:6443"
  token: "abcdef.0123456789abcdef"
  discoveryTokenCACertHashes:
    - "sha256:deadbeef"
  nodeName: worker-7
  controlPlane: true
  certificateKey: cafe01
  ignorePreflightErrors: ["NumCPU"]
  minKubeadmVersion: "1.28.0"
  containerRuntimeUnit: cri-o.service
  firewallPorts: ["6443/tcp"]
reset:
  extraInterfacePatterns: ["weave*"]
  extraStateDirs: ["/var/lib/weave"]
engine:
  policy: halt
  checkTimeout: 10s
  applyTimeout: 5m
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1:6443", cfg.Join.ControlPlaneEndpoint)
	assert.Equal(t, "abcdef.0123456789abcdef", cfg.Join.Token)
	assert.Equal(t, []string{"sha256:deadbeef"}, cfg.Join.DiscoveryTokenCACertHashes)
	assert.Equal(t, "worker-7", cfg.Join.NodeName)
	assert.True(t, cfg.Join.ControlPlane)
	assert.Equal(t, "cri-o.service", cfg.Join.ContainerRuntimeUnit)
	assert.Equal(t, "1.28.0", cfg.Join.MinKubeadmVersion)
	assert.Equal(t, []string{"6443/tcp"}, cfg.Join.FirewallPorts)
	assert.Equal(t, []string{"weave*"}, cfg.Reset.ExtraInterfacePatterns)
	assert.Equal(t, []string{"/var/lib/weave"}, cfg.Reset.ExtraStateDirs)
	assert.True(t, cfg.HaltOnFailure())
	assert.Equal(t, 10*time.Second, cfg.Engine.CheckTimeout.StdDuration())
	assert.Equal(t, 5*time.Minute, cfg.Engine.ApplyTimeout.StdDuration())
}

func TestParseFillsDefaultsForOmittedFields(t *testing.T) {
	cfg, err := Parse([]byte(`
join:
  controlPlaneEndpoint: "10.0.0.1:6443"
  token: "abcdef.0123456789abcdef"
`))
	require.NoError(t, err)

	assert.Equal(t, "continue", cfg.Engine.Policy)
	assert.Equal(t, "containerd.service", cfg.Join.ContainerRuntimeUnit)
	assert.NotEmpty(t, cfg.Join.FirewallPorts)
}

func TestParseRejectsUnknownPolicy(t *testing.T) {
	_, err := Parse([]byte("engine:\n  policy: explode\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.policy")
}

func TestParseRejectsBadDuration(t *testing.T) {
	_, err := Parse([]byte("engine:\n  checkTimeout: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("join: ["))
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodestate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  policy: halt\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.HaltOnFailure())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestDurationMarshalRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	out, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", out)
}
