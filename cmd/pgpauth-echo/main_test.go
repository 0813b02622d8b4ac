package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/pgpauth-go/internal/infra/confloader"
	"github.com/yndnr/pgpauth-go/internal/keystore/keystoretest"
	"github.com/yndnr/pgpauth-go/internal/server/config"
	"github.com/yndnr/pgpauth-go/internal/storage"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/internal/telemetry/metric"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "echo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Layers(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: 127.0.0.1:9000
auth:
  keyring_file: /from/file.gpg
  token_duration: 2m
`)
	t.Setenv("PGPAUTH_ECHO_LOG__LEVEL", "debug")

	cfg, err := loadConfig(path, map[string]any{
		"server.http.addr":  "",
		"auth.keyring_file": "/from/flag.gpg",
	})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q, empty flag must not override the file", cfg.Server.HTTP.Addr)
	}
	if cfg.Auth.KeyringFile != "/from/flag.gpg" {
		t.Errorf("KeyringFile = %q, want flag value", cfg.Auth.KeyringFile)
	}
	if cfg.Auth.TokenDuration != 2*time.Minute {
		t.Errorf("TokenDuration = %v, want 2m", cfg.Auth.TokenDuration)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want env value", cfg.Log.Level)
	}
	if cfg.Auth.Replay.Backend != config.ReplayBackendMemory {
		t.Errorf("Replay.Backend = %q, want default", cfg.Auth.Replay.Backend)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, "auth:\n  replay:\n    backend: redis\n")
	if _, err := loadConfig(path, nil); err == nil {
		t.Error("loadConfig() with unknown backend should fail")
	}
}

func TestInitReplayStore(t *testing.T) {
	var buf bytes.Buffer

	for _, backend := range []string{config.ReplayBackendMemory, config.ReplayBackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Auth.Replay.Backend = backend
			cfg.Auth.Replay.Dir = t.TempDir()

			log, err := initLogger(cfg, &buf)
			if err != nil {
				t.Fatalf("initLogger() error = %v", err)
			}

			metrics := metric.NewRegistry()
			store, err := initReplayStore(cfg, metrics, log)
			if err != nil {
				t.Fatalf("initReplayStore() error = %v", err)
			}
			defer store.Close()

			ctx := context.Background()
			fresh, err := store.Remember(ctx, "k", time.Minute)
			if err != nil || !fresh {
				t.Fatalf("Remember() = %v, %v; want fresh", fresh, err)
			}
			fresh, err = store.Remember(ctx, "k", time.Minute)
			if err != nil || fresh {
				t.Errorf("second Remember() = %v, %v; want replay", fresh, err)
			}
			if store.Len() != 1 {
				t.Errorf("Len() = %d, want 1", store.Len())
			}
		})
	}
}

func TestLoadConfig_IgnoresCLIEnvironment(t *testing.T) {
	t.Setenv("PGPAUTH_SERVER", "https://api.example.net")
	t.Setenv("PGPAUTH_GPG_HOME", "/home/alice/.gnupg")
	t.Setenv("PGPAUTH_GPG_KEYID", "A3D652173B763E8F")
	t.Setenv("PGPAUTH_LOG__LEVEL", "debug")

	cfg, err := loadConfig("", nil)
	if err != nil {
		t.Fatalf("loadConfig() with CLI variables set error = %v", err)
	}
	if cfg.Server.HTTP.Addr != config.DefaultHTTPAddr {
		t.Errorf("Addr = %q, want default", cfg.Server.HTTP.Addr)
	}
	if cfg.Log.Level != config.DefaultLogLevel {
		t.Errorf("Log.Level = %q, unprefixed variable must not apply", cfg.Log.Level)
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-version"}, &out); err != nil {
		t.Fatalf("run(-version) error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "pgpauth-echo ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_EarlyFailureReleasesReplayStore(t *testing.T) {
	dir := t.TempDir()
	keyring := filepath.Join(dir, "pubring.gpg")
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	keystoretest.WriteFile(t, keyring, keystoretest.PublicKeyring(t, alice))

	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	keystoretest.WriteFile(t, certFile, []byte("not a certificate"))
	keystoretest.WriteFile(t, keyFile, []byte("not a key"))

	replayDir := filepath.Join(dir, "replay")
	path := writeConfig(t, fmt.Sprintf(`
server:
  http:
    addr: 127.0.0.1:0
    tls_cert_file: %s
    tls_key_file: %s
auth:
  keyring_file: %s
  replay:
    backend: badger
    dir: %s
`, certFile, keyFile, keyring, replayDir))

	err := run([]string{"-config", path}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "TLS") {
		t.Fatalf("run() error = %v, want TLS key pair failure", err)
	}

	// The badger directory lock is only released by Close.
	s, err := storage.NewBadgerNonceStore(storage.DefaultBadgerConfig(replayDir), nil)
	if err != nil {
		t.Fatalf("replay store still locked after failed start: %v", err)
	}
	_ = s.Close()
}

func TestWatchLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.yaml")
	write := func(level string) {
		t.Helper()
		content := fmt.Sprintf("auth:\n  keyring_file: /tmp/pubring.gpg\nlog:\n  level: %s\n", level)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("info")

	cfg, err := loadConfig(path, nil)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	log, err := initLogger(cfg, io.Discard)
	if err != nil {
		t.Fatalf("initLogger() error = %v", err)
	}

	w, err := confloader.NewWatcher(confloader.WithDebounce(20*time.Millisecond), confloader.WithWatcherLogger(log))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := watchLogLevel(w, path, nil, log); err != nil {
		t.Fatalf("watchLogLevel() error = %v", err)
	}
	w.StartAsync()

	write("debug")
	deadline := time.Now().Add(5 * time.Second)
	for logger.Level() != "debug" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if logger.Level() != "debug" {
		t.Fatalf("Level() = %q after rewrite, want debug", logger.Level())
	}

	// An invalid file keeps the current level.
	write("shouty")
	time.Sleep(200 * time.Millisecond)
	if logger.Level() != "debug" {
		t.Errorf("Level() = %q after invalid rewrite, want debug", logger.Level())
	}
}
