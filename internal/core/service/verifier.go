package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/internal/telemetry/metric"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

// DefaultWindow is the default acceptance window around a token timestamp.
const DefaultWindow = 5 * time.Minute

// SignatureVerifier checks a stripped signature body over signed and
// returns the signer's identity.
type SignatureVerifier interface {
	Verify(signed []byte, signature string) (domain.Identity, error)
}

// NonceStore remembers replay keys for a limited time.
type NonceStore interface {
	// Remember records key for ttl. It reports false if key was already
	// recorded and has not expired.
	Remember(ctx context.Context, key string, ttl time.Duration) (fresh bool, err error)
}

// TokenVerifierConfig holds configuration for TokenVerifier.
type TokenVerifierConfig struct {
	// Window is the accepted distance between token time and now
	// (default: 5m). Replay keys are kept for twice the window.
	Window time.Duration

	// Clock supplies the current time (default: time.Now).
	Clock func() time.Time

	// Logger receives verification failures (default: logger.Default()).
	Logger logger.Logger

	// Metrics records verification results; nil disables metrics.
	Metrics *metric.Registry
}

// DefaultTokenVerifierConfig returns default configuration.
func DefaultTokenVerifierConfig() *TokenVerifierConfig {
	return &TokenVerifierConfig{
		Window: DefaultWindow,
		Clock:  time.Now,
	}
}

// TokenVerifier checks tokens for shape, freshness, authenticity and replay.
type TokenVerifier struct {
	keys    SignatureVerifier
	nonces  NonceStore
	window  time.Duration
	clock   func() time.Time
	log     logger.Logger
	metrics *metric.Registry
}

// NewTokenVerifier creates a TokenVerifier. nonces may be nil, in which case
// replays are not detected (one-off local checks).
func NewTokenVerifier(keys SignatureVerifier, nonces NonceStore, config *TokenVerifierConfig) *TokenVerifier {
	if config == nil {
		config = DefaultTokenVerifierConfig()
	}
	v := &TokenVerifier{
		keys:    keys,
		nonces:  nonces,
		window:  config.Window,
		clock:   config.Clock,
		log:     config.Logger,
		metrics: config.Metrics,
	}
	if v.window <= 0 {
		v.window = DefaultWindow
	}
	if v.clock == nil {
		v.clock = time.Now
	}
	if v.log == nil {
		v.log = logger.Default()
	}
	return v
}

// Window returns the acceptance window.
func (v *TokenVerifier) Window() time.Duration {
	return v.window
}

// Verify checks raw and returns the identity of its signer.
//
// Checks run in order: field count, version, shape, timestamp window,
// signature, replay. The replay store is only touched for tokens with a
// valid signature, so forged tokens cannot fill it.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (domain.Identity, error) {
	id, err := v.verify(ctx, raw)
	if err != nil {
		v.metrics.ObserveVerify(resultLabel(err))
		logger.L(ctx).Debug("token rejected", "code", domain.GetErrorCode(err), "token", raw, "error", err)
		return domain.Identity{}, err
	}
	v.metrics.ObserveVerify(metric.ResultOK)
	return id, nil
}

func (v *TokenVerifier) verify(ctx context.Context, raw string) (domain.Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Identity{}, domain.ErrTokenMissing
	}

	fields := strings.Split(raw, ";")
	if len(fields) != 4 {
		return domain.Identity{}, domain.ErrTokenMalformed.WithDetails("expected 4 fields")
	}
	if fields[0] != token.Version {
		return domain.Identity{}, domain.ErrTokenVersionUnsupported.WithDetails("version " + fields[0])
	}

	tok, err := token.Parse(raw)
	if err != nil {
		return domain.Identity{}, domain.ErrTokenMalformed.WithCause(err)
	}

	skew := v.clock().Sub(tok.Timestamp)
	if skew < 0 {
		skew = -skew
	}
	if skew > v.window {
		return domain.Identity{}, domain.ErrTimestampSkew.WithDetails(
			"token time " + token.FormatTimestamp(tok.Timestamp) + " outside " + v.window.String())
	}

	if v.keys == nil {
		return domain.Identity{}, domain.ErrSignatureInvalid.WithDetails("no trusted keys configured")
	}
	id, err := v.keys.Verify(tok.SignedData(), tok.Signature)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, domain.ErrSignatureInvalid.WithCause(err)
	}

	if v.nonces != nil {
		fresh, err := v.nonces.Remember(ctx, token.ReplayKey(id.Fingerprint.String(), tok), 2*v.window)
		if err != nil {
			return domain.Identity{}, domain.ErrStorageError.WithDetails("replay store").WithCause(err)
		}
		if !fresh {
			return domain.Identity{}, domain.ErrNonceReplay.WithDetails("signer " + id.Fingerprint.Short())
		}
	}

	return id, nil
}
