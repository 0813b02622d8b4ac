package service

import (
	"strings"
	"time"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
	"github.com/yndnr/pgpauth-go/internal/telemetry/metric"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

// Signer produces an armored detached signature over payload.
type Signer interface {
	Sign(payload []byte) (envelope string, err error)
}

// SignerResolver selects a Signer for a signing identity in a keystore.
type SignerResolver interface {
	Resolve(signingIdentity, keystoreLocation string) (Signer, error)
}

// SignerResolverFunc adapts a function to SignerResolver.
type SignerResolverFunc func(signingIdentity, keystoreLocation string) (Signer, error)

// Resolve implements SignerResolver.
func (f SignerResolverFunc) Resolve(signingIdentity, keystoreLocation string) (Signer, error) {
	return f(signingIdentity, keystoreLocation)
}

// TokenIssuerConfig holds configuration for TokenIssuer.
type TokenIssuerConfig struct {
	// Clock supplies the token timestamp (default: time.Now).
	Clock func() time.Time

	// Nonce supplies token nonces (default: token.NewNonce).
	Nonce token.NonceFunc

	// Logger receives debug output (default: logger.Default()).
	Logger logger.Logger

	// Metrics records issuance results; nil disables metrics.
	Metrics *metric.Registry
}

// DefaultTokenIssuerConfig returns default configuration.
func DefaultTokenIssuerConfig() *TokenIssuerConfig {
	return &TokenIssuerConfig{
		Clock: time.Now,
		Nonce: token.NewNonce,
	}
}

// TokenIssuer builds signed authentication tokens.
//
// Issuance holds no state between calls; concurrency safety is that of the
// Signer in use.
type TokenIssuer struct {
	resolver SignerResolver
	clock    func() time.Time
	nonce    token.NonceFunc
	log      logger.Logger
	metrics  *metric.Registry
}

// NewTokenIssuer creates a TokenIssuer. resolver may be nil when only Issue
// is used.
func NewTokenIssuer(resolver SignerResolver, config *TokenIssuerConfig) *TokenIssuer {
	if config == nil {
		config = DefaultTokenIssuerConfig()
	}
	s := &TokenIssuer{
		resolver: resolver,
		clock:    config.Clock,
		nonce:    config.Nonce,
		log:      config.Logger,
		metrics:  config.Metrics,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.nonce == nil {
		s.nonce = token.NewNonce
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	return s
}

// IssueToken resolves the signer for signingIdentity in keystoreLocation and
// issues a token with it.
func (s *TokenIssuer) IssueToken(signingIdentity, keystoreLocation string) (string, error) {
	if s.resolver == nil {
		return "", domain.ErrSigningFailed.WithDetails("no signer resolver configured")
	}

	signer, err := s.resolver.Resolve(signingIdentity, keystoreLocation)
	if err != nil {
		err = asSigningError(err, domain.ErrSigningIdentityNotFound)
		s.metrics.ObserveIssue(resultLabel(err), 0)
		return "", err
	}
	return s.Issue(signer)
}

// Issue builds "1;timestamp;nonce", signs it with signer and returns the
// wire token.
func (s *TokenIssuer) Issue(signer Signer) (string, error) {
	start := time.Now()

	tok, err := s.issue(signer)
	if err != nil {
		s.metrics.ObserveIssue(resultLabel(err), 0)
		s.log.Debug("token issuance failed", "code", domain.GetErrorCode(err), "error", err)
		return "", err
	}

	s.metrics.ObserveIssue(metric.ResultOK, time.Since(start))
	s.log.Debug("token issued", "timestamp", token.FormatTimestamp(tok.Timestamp))
	return tok.String(), nil
}

func (s *TokenIssuer) issue(signer Signer) (*token.Token, error) {
	if signer == nil {
		return nil, domain.ErrSigningIdentityNotFound.WithDetails("nil signer")
	}

	nonce, err := s.nonce()
	if err != nil {
		return nil, domain.ErrSigningFailed.WithDetails("nonce source").WithCause(err)
	}
	tok := token.New(s.clock(), nonce)

	envelope, err := signer.Sign(tok.SignedData())
	if err != nil {
		return nil, asSigningError(err, domain.ErrSigningFailed)
	}

	body, err := token.StripEnvelope(envelope)
	if err != nil {
		return nil, domain.ErrSignatureEnvelopeUnexpected.WithCause(err)
	}
	if strings.Contains(body, ";") {
		return nil, domain.ErrSignatureEnvelopeUnexpected.WithDetails("signature body contains a field separator")
	}

	tok.Signature = body
	return tok, nil
}

// asSigningError passes domain errors through and wraps anything else in
// fallback.
func asSigningError(err error, fallback *domain.DomainError) error {
	if domain.IsDomainError(err, "") {
		return err
	}
	return fallback.WithCause(err)
}
