package config

import "time"

// EnvPrefix is the environment variable prefix for server settings. It is
// distinct from the PGPAUTH_ variables of pgpauth-cli (PGPAUTH_SERVER is
// the CLI's server URL, not the server section).
const EnvPrefix = "PGPAUTH_ECHO_"

// Default configuration values.
const (
	DefaultHTTPAddr     = "127.0.0.1:8080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultMaxBodyBytes = 1 << 20

	DefaultKeyringFile   = "/etc/pgpauth/pubring.gpg"
	DefaultTokenDuration = 5 * time.Minute
	DefaultReplayBackend = ReplayBackendMemory
	DefaultReplayDir     = "/var/lib/pgpauth/replay"
	DefaultReplayCap     = 1_000_000
	DefaultRateLimit     = 100

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:         DefaultHTTPAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				MaxBodyBytes: DefaultMaxBodyBytes,
			},
		},
		Auth: AuthSection{
			KeyringFile:   DefaultKeyringFile,
			TokenDuration: DefaultTokenDuration,
			Replay: ReplayConfig{
				Backend:  DefaultReplayBackend,
				Dir:      DefaultReplayDir,
				Capacity: DefaultReplayCap,
			},
			RateLimit: DefaultRateLimit,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
	}
}

// DefaultMap returns Default flattened to dotted koanf keys, for use as
// the lowest-priority configuration layer.
func DefaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"server.http.addr":           d.Server.HTTP.Addr,
		"server.http.read_timeout":   d.Server.HTTP.ReadTimeout.String(),
		"server.http.write_timeout":  d.Server.HTTP.WriteTimeout.String(),
		"server.http.max_body_bytes": d.Server.HTTP.MaxBodyBytes,
		"auth.keyring_file":          d.Auth.KeyringFile,
		"auth.token_duration":        d.Auth.TokenDuration.String(),
		"auth.replay.backend":        d.Auth.Replay.Backend,
		"auth.replay.dir":            d.Auth.Replay.Dir,
		"auth.replay.capacity":       d.Auth.Replay.Capacity,
		"auth.rate_limit":            d.Auth.RateLimit,
		"log.level":                  d.Log.Level,
		"log.format":                 d.Log.Format,
		"metrics.enabled":            d.Metrics.Enabled,
	}
}
