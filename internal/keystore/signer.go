package keystore

import (
	"bytes"
	"crypto"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
)

// DefaultArmorVersion is the Version header written into signature armor.
const DefaultArmorVersion = "pgpauth"

// PassphraseFunc supplies the passphrase for a locked secret key.
type PassphraseFunc func(id domain.Identity) ([]byte, error)

// StaticPassphrase returns a PassphraseFunc that always yields pass.
func StaticPassphrase(pass string) PassphraseFunc {
	return func(domain.Identity) ([]byte, error) {
		return []byte(pass), nil
	}
}

// SignerConfig holds configuration for Signer.
type SignerConfig struct {
	// Passphrase unlocks encrypted keys. It is called at most once per
	// Signer: the decrypted key stays in memory.
	Passphrase PassphraseFunc

	// ArmorVersion is the Version armor header (default: "pgpauth").
	ArmorVersion string

	// Hash is the signature digest (default: SHA-256).
	Hash crypto.Hash

	// Clock sets the signature creation time (default: time.Now).
	Clock func() time.Time
}

// DefaultSignerConfig returns default configuration.
func DefaultSignerConfig() *SignerConfig {
	return &SignerConfig{
		ArmorVersion: DefaultArmorVersion,
		Hash:         crypto.SHA256,
		Clock:        time.Now,
	}
}

// Signer produces armored detached signatures with one secret key.
//
// Unlocking mutates the entity, so Sign serializes on a mutex.
type Signer struct {
	mu         sync.Mutex
	entity     *openpgp.Entity
	identity   domain.Identity
	passphrase PassphraseFunc
	headers    map[string]string
	packetCfg  *packet.Config
}

// NewSigner creates a Signer for entity.
func NewSigner(entity *openpgp.Entity, config *SignerConfig) *Signer {
	if config == nil {
		config = DefaultSignerConfig()
	}
	version := config.ArmorVersion
	if version == "" {
		version = DefaultArmorVersion
	}
	hash := config.Hash
	if hash == 0 {
		hash = crypto.SHA256
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Signer{
		entity:     entity,
		identity:   IdentityOf(entity),
		passphrase: config.Passphrase,
		headers:    map[string]string{"Version": version},
		packetCfg:  &packet.Config{DefaultHash: hash, Time: clock},
	}
}

// Identity returns the signing key's identity.
func (s *Signer) Identity() domain.Identity {
	return s.identity
}

// Sign returns an armored detached signature over payload.
func (s *Signer) Sign(payload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unlockLocked(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.SignatureType, s.headers)
	if err != nil {
		return "", domain.ErrSigningFailed.WithCause(err)
	}
	if err := openpgp.DetachSign(w, s.entity, bytes.NewReader(payload), s.packetCfg); err != nil {
		return "", domain.ErrSigningFailed.WithDetails(s.identity.Fingerprint.Short()).WithCause(err)
	}
	if err := w.Close(); err != nil {
		return "", domain.ErrSigningFailed.WithCause(err)
	}

	return buf.String(), nil
}

func (s *Signer) unlockLocked() error {
	pk := s.entity.PrivateKey
	if pk == nil {
		return domain.ErrSigningFailed.WithDetails("no private key material for " + s.identity.Fingerprint.Short())
	}
	if !pk.Encrypted {
		return nil
	}
	if s.passphrase == nil {
		return domain.ErrSigningFailed.WithDetails("key " + s.identity.Fingerprint.Short() + " is locked")
	}

	pass, err := s.passphrase(s.identity)
	if err != nil {
		return domain.ErrSigningFailed.WithDetails("passphrase unavailable").WithCause(err)
	}
	if err := pk.Decrypt(pass); err != nil {
		return domain.ErrSigningFailed.WithDetails(
			fmt.Sprintf("unlock key %s", s.identity.Fingerprint.Short())).WithCause(err)
	}
	return nil
}
