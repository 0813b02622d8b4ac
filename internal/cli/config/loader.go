package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/pgpauth-go/internal/infra/confloader"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pgpauth", "cli.yaml")
	}
	return filepath.Join(homeDir, ".pgpauth", "cli.yaml")
}

// Load reads the profile at path over the defaults. A missing file is not
// an error: the defaults are returned. An empty path selects
// DefaultConfigPath.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader()
	if err := loader.LoadMap(defaultMap()); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		if err := loader.LoadFile(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	cfg := &CLIConfig{}
	if err := loader.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path with owner-only permissions, creating the parent
// directory.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Merge overlays non-empty flag values onto cfg. Keys are the global flag
// names.
func Merge(cfg *CLIConfig, flags map[string]string) (*CLIConfig, error) {
	out := *cfg
	for name, value := range flags {
		if value == "" {
			continue
		}
		switch name {
		case "server":
			out.Server = value
		case "ca-file":
			out.CAFile = value
		case "output":
			out.Output = value
		case "gpg-home":
			out.GPG.Home = value
		case "key-id":
			out.GPG.KeyID = value
		default:
			return nil, fmt.Errorf("unknown setting %q", name)
		}
	}
	return &out, nil
}

func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"timeout": d.Timeout.String(),
		"output":  d.Output,
	}
}
