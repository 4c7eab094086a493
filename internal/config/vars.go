package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vars is the subset of a play's variables that describes the SSH key to load.
// Other keys in the file are ignored.
type Vars struct {
	PrivateKey string `yaml:"creds_ssh_private_key"`
	Agent      *bool  `yaml:"creds_ssh_agent"`
}

// AgentEnabled reports whether the key should be registered with the agent.
// Registration is on unless creds_ssh_agent is explicitly false.
func (v *Vars) AgentEnabled() bool {
	return v.Agent == nil || *v.Agent
}

// PublicKeyVars is the document handed back to the host for distribution.
type PublicKeyVars struct {
	PublicKey string `yaml:"creds_ssh_public_key"`
}

// LoadVars reads a YAML vars file.
func LoadVars(path string) (*Vars, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vars: %w", err)
	}

	var v Vars
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &v, nil
}

// Marshal renders the vars as YAML.
func (p PublicKeyVars) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
