package config

import "time"

// ServerConfig is the root configuration for pgpauth-echo.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Auth    AuthSection    `koanf:"auth"`
	Log     LogSection     `koanf:"log"`
	Metrics MetricsSection `koanf:"metrics"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server. TLS is enabled when both the
// certificate and key files are set.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	TLSClientCAFile string        `koanf:"tls_client_ca_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// TLSEnabled reports whether a certificate and key are configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// AuthSection configures token verification.
type AuthSection struct {
	// KeyringFile is the public keyring of trusted signers (binary or
	// armored). It is reloaded when the file changes.
	KeyringFile string `koanf:"keyring_file"`

	// TokenDuration is the acceptance window: a token is valid while
	// |now - timestamp| <= TokenDuration.
	TokenDuration time.Duration `koanf:"token_duration"`

	Replay ReplayConfig `koanf:"replay"`

	// RateLimit is the per-client request budget per second. 0 disables
	// rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// Replay store backends.
const (
	ReplayBackendMemory = "memory"
	ReplayBackendBadger = "badger"
)

// ReplayConfig configures the nonce replay store.
type ReplayConfig struct {
	Backend  string `koanf:"backend"`
	Dir      string `koanf:"dir"`
	Capacity int    `koanf:"capacity"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsSection configures the /metrics endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`

	// BearerToken, when set, is required as "Authorization: Bearer <token>"
	// to scrape /metrics.
	BearerToken string `koanf:"bearer_token"`
}
