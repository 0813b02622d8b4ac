package config

import "time"

// CLIConfig is the configuration for pgpauth-cli.
type CLIConfig struct {
	Server  string        `koanf:"server" yaml:"server"`
	CAFile  string        `koanf:"ca_file" yaml:"ca_file,omitempty"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	Output  string        `koanf:"output" yaml:"output"` // table, json, yaml

	GPG GPGConfig `koanf:"gpg" yaml:"gpg"`
}

// GPGConfig selects the signing key.
type GPGConfig struct {
	// Home is a GnuPG home directory or a secret keyring file.
	Home string `koanf:"home" yaml:"home,omitempty"`

	// KeyID is a fingerprint or key ID of the signing key.
	KeyID string `koanf:"keyid" yaml:"keyid"`
}

// Default values.
const (
	DefaultTimeout = 30 * time.Second
	DefaultOutput  = "table"
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Timeout: DefaultTimeout,
		Output:  DefaultOutput,
	}
}
