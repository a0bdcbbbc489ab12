// Package config loads the nodestate YAML configuration: kubeadm join
// parameters, reset extras, and engine policy. Flags override file values;
// defaults are populated after parsing.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// StdDuration returns the value as a time.Duration.
func (d Duration) StdDuration() time.Duration {
	return time.Duration(d)
}

// JoinConfig carries the parameters handed to kubeadm join and the join
// preflight actions.
type JoinConfig struct {
	ControlPlaneEndpoint       string   `yaml:"controlPlaneEndpoint"`
	Token                      string   `yaml:"token"`
	DiscoveryTokenCACertHashes []string `yaml:"discoveryTokenCACertHashes"`
	NodeName                   string   `yaml:"nodeName"`
	ControlPlane               bool     `yaml:"controlPlane"`
	CertificateKey             string   `yaml:"certificateKey"`
	IgnorePreflightErrors      []string `yaml:"ignorePreflightErrors"`
	// MinKubeadmVersion gates the join; empty disables the version check.
	MinKubeadmVersion string `yaml:"minKubeadmVersion"`
	// ContainerRuntimeUnit is the systemd unit enabled before joining.
	ContainerRuntimeUnit string `yaml:"containerRuntimeUnit"`
	// FirewallPorts are opened in firewalld when it is active, "6443/tcp".
	FirewallPorts []string `yaml:"firewallPorts"`
}

// ResetConfig extends the built-in reset inventory.
type ResetConfig struct {
	// ExtraInterfacePatterns are removed in addition to the built-in CNI
	// patterns (cni0, flannel.1, cali*, ...).
	ExtraInterfacePatterns []string `yaml:"extraInterfacePatterns"`
	// ExtraStateDirs are removed in addition to the built-in Kubernetes
	// state directories.
	ExtraStateDirs []string `yaml:"extraStateDirs"`
}

// EngineConfig tunes the reconciler.
type EngineConfig struct {
	// Policy is "continue" (default) or "halt".
	Policy       string   `yaml:"policy"`
	CheckTimeout Duration `yaml:"checkTimeout"`
	ApplyTimeout Duration `yaml:"applyTimeout"`
}

// Config is the root of the nodestate configuration file.
type Config struct {
	Join   JoinConfig   `yaml:"join"`
	Reset  ResetConfig  `yaml:"reset"`
	Engine EngineConfig `yaml:"engine"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.populateDefaults()
	return cfg
}

// Load parses the YAML file at path and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse parses raw YAML and fills defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.populateDefaults()
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Engine.Policy {
	case "", "continue", "halt":
	default:
		return errors.Errorf("engine.policy must be \"continue\" or \"halt\", got %q", c.Engine.Policy)
	}
	return nil
}

func (c *Config) populateDefaults() {
	if c.Engine.Policy == "" {
		c.Engine.Policy = "continue"
	}
	if c.Engine.CheckTimeout == 0 {
		c.Engine.CheckTimeout = Duration(5 * time.Second)
	}
	if c.Engine.ApplyTimeout == 0 {
		c.Engine.ApplyTimeout = Duration(2 * time.Minute)
	}
	if c.Join.ContainerRuntimeUnit == "" {
		c.Join.ContainerRuntimeUnit = "containerd.service"
	}
	if len(c.Join.FirewallPorts) == 0 {
		c.Join.FirewallPorts = []string{
			"6443/tcp", "10250/tcp", "10256/tcp", "30000-32767/tcp", "8472/udp",
		}
	}
	if c.Join.MinKubeadmVersion == "" {
		c.Join.MinKubeadmVersion = "1.26.0"
	}
}

// HaltOnFailure reports the configured policy as a boolean.
func (c *Config) HaltOnFailure() bool {
	return c.Engine.Policy == "halt"
}
