package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr string `koanf:"addr"`
		} `koanf:"http"`
	} `koanf:"server"`
	Auth struct {
		KeyringFile   string        `koanf:"keyring_file"`
		TokenDuration time.Duration `koanf:"token_duration"`
		RateLimit     int           `koanf:"rate_limit"`
	} `koanf:"auth"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
	if l.IsLoaded() {
		t.Error("IsLoaded() = true before Load")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"PGPAUTH_SERVER__HTTP__ADDR", "server.http.addr"},
		{"PGPAUTH_AUTH__KEYRING_FILE", "auth.keyring_file"},
		{"PGPAUTH_AUTH__REPLAY__BACKEND", "auth.replay.backend"},
		{"PGPAUTH_LOG__LEVEL", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvKey(DefaultEnvPrefix, tt.name); got != tt.want {
				t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "0.0.0.0:5080"
auth:
  keyring_file: /etc/pgpauth/pubring.gpg
  token_duration: 2m
  rate_limit: 50
`)

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:5080" {
		t.Errorf("Addr = %q", cfg.Server.HTTP.Addr)
	}
	if cfg.Auth.KeyringFile != "/etc/pgpauth/pubring.gpg" {
		t.Errorf("KeyringFile = %q", cfg.Auth.KeyringFile)
	}
	if cfg.Auth.TokenDuration != 2*time.Minute {
		t.Errorf("TokenDuration = %v, want 2m", cfg.Auth.TokenDuration)
	}
	if cfg.Auth.RateLimit != 50 {
		t.Errorf("RateLimit = %d, want 50", cfg.Auth.RateLimit)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile("/nonexistent/config.yaml")).Load(&cfg)
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoader_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "from-file:5080"
auth:
  keyring_file: from-file.gpg
  rate_limit: 10
`)
	t.Setenv("PGPAUTH_SERVER__HTTP__ADDR", "from-env:5080")
	t.Setenv("PGPAUTH_AUTH__KEYRING_FILE", "from-env.gpg")

	l := NewLoader(
		WithConfigFile(path),
		WithDefaults(map[string]any{
			"auth.rate_limit":     1,
			"auth.token_duration": "5m",
		}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "from-env:5080" {
		t.Errorf("Addr = %q, env should override file", cfg.Server.HTTP.Addr)
	}
	if cfg.Auth.KeyringFile != "from-env.gpg" {
		t.Errorf("KeyringFile = %q, env should override file", cfg.Auth.KeyringFile)
	}
	if cfg.Auth.RateLimit != 10 {
		t.Errorf("RateLimit = %d, file should override defaults", cfg.Auth.RateLimit)
	}
	if cfg.Auth.TokenDuration != 5*time.Minute {
		t.Errorf("TokenDuration = %v, default should apply", cfg.Auth.TokenDuration)
	}

	// Flags go on top of everything.
	if err := l.LoadMap(map[string]any{"server.http.addr": "from-flag:5080"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "from-flag:5080" {
		t.Errorf("Addr = %q, flag should override env", cfg.Server.HTTP.Addr)
	}
	if cfg.Auth.KeyringFile != "from-env.gpg" {
		t.Errorf("KeyringFile = %q, flag overlay clobbered a sibling", cfg.Auth.KeyringFile)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false after Load")
	}
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER__HTTP__ADDR", "custom:9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.String("server.http.addr"); got != "custom:9090" {
		t.Errorf("server.http.addr = %q, want custom:9090", got)
	}
}

func TestLoader_Keys(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"a.b": 1, "c": "x"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	keys := map[string]bool{}
	for _, k := range l.Keys() {
		keys[k] = true
	}
	if !keys["a.b"] || !keys["c"] {
		t.Errorf("Keys() = %v, want a.b and c", l.Keys())
	}
}

func TestMapProvider_ReadBytes(t *testing.T) {
	if _, err := mapProvider(nil).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v, want ErrReadBytesNotSupported", err)
	}
}
