package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyHTTP(&cfg.Server.HTTP); err != nil {
		return err
	}
	if err := verifyAuth(&cfg.Auth); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyHTTP(cfg *HTTPConfig) error {
	if cfg.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.http.addr %q: %w", cfg.Addr, err)
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and server.http.tls_key_file must be set together")
	}
	if cfg.TLSClientCAFile != "" && !cfg.TLSEnabled() {
		return errors.New("server.http.tls_client_ca_file requires TLS")
	}
	for key, path := range map[string]string{
		"server.http.tls_cert_file":      cfg.TLSCertFile,
		"server.http.tls_key_file":       cfg.TLSKeyFile,
		"server.http.tls_client_ca_file": cfg.TLSClientCAFile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	if cfg.MaxBodyBytes < 0 {
		return errors.New("server.http.max_body_bytes must not be negative")
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	if cfg.KeyringFile == "" {
		return errors.New("auth.keyring_file is required")
	}
	if cfg.TokenDuration <= 0 {
		return errors.New("auth.token_duration must be positive")
	}
	if cfg.RateLimit < 0 {
		return errors.New("auth.rate_limit must not be negative")
	}

	switch cfg.Replay.Backend {
	case ReplayBackendMemory:
		if cfg.Replay.Capacity < 1 {
			return errors.New("auth.replay.capacity must be at least 1")
		}
	case ReplayBackendBadger:
		if cfg.Replay.Dir == "" {
			return errors.New("auth.replay.dir is required for the badger backend")
		}
		if err := os.MkdirAll(cfg.Replay.Dir, 0o750); err != nil {
			return fmt.Errorf("cannot create replay directory: %w", err)
		}
	default:
		return fmt.Errorf("auth.replay.backend %q: must be %s or %s",
			cfg.Replay.Backend, ReplayBackendMemory, ReplayBackendBadger)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q: must be debug, info, warn or error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q: must be json or text", cfg.Format)
	}
	return nil
}
