// Package config loads keyload settings and play-style vars files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/majorcontext/keyload/internal/keycodec"
	"github.com/majorcontext/keyload/internal/sshagent"
)

// GlobalConfig holds settings from ~/.keyload/config.yaml.
type GlobalConfig struct {
	// Comment is attached to the public-key line and the agent identity.
	Comment string      `yaml:"comment"`
	Agent   AgentConfig `yaml:"agent"`
}

// AgentConfig holds SSH agent registration settings.
type AgentConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Timeout      time.Duration `yaml:"timeout"`
	WaitForReply bool          `yaml:"wait_reply"`
}

// DefaultGlobalConfig returns the default global configuration.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Comment: keycodec.DefaultComment,
		Agent: AgentConfig{
			Enabled: true,
			Timeout: sshagent.DefaultTimeout,
		},
	}
}

// LoadGlobal reads the config file in GlobalConfigDir.
func LoadGlobal() (*GlobalConfig, error) {
	return LoadGlobalFrom(filepath.Join(GlobalConfigDir(), "config.yaml"))
}

// LoadGlobalFrom reads a config file over the defaults. A missing file is
// not an error. On a malformed file the defaults are returned with the error.
func LoadGlobalFrom(path string) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	parsed := DefaultGlobalConfig()
	if err := yaml.Unmarshal(data, parsed); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if parsed.Agent.Timeout < 0 {
		return cfg, fmt.Errorf("parsing %s: agent.timeout must not be negative", path)
	}
	return parsed, nil
}

// GlobalConfigDir returns the path to ~/.keyload.
func GlobalConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".keyload")
	}
	return filepath.Join(homeDir, ".keyload")
}
