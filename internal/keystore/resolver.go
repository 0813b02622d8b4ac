package keystore

import (
	"path/filepath"
	"sync"
)

// Resolver opens keystores and hands out Signers, caching them so a key is
// unlocked at most once per process.
type Resolver struct {
	mu      sync.Mutex
	config  *SignerConfig
	signers map[string]*Signer
}

// NewResolver creates a Resolver. config is passed to every Signer.
func NewResolver(config *SignerConfig) *Resolver {
	if config == nil {
		config = DefaultSignerConfig()
	}
	return &Resolver{
		config:  config,
		signers: make(map[string]*Signer),
	}
}

// Resolve returns the Signer for keyID in the keystore at location.
func (r *Resolver) Resolve(keyID, location string) (*Signer, error) {
	if location == "" {
		location = DefaultLocation()
	}
	if abs, err := filepath.Abs(location); err == nil {
		location = abs
	}
	cacheKey := location + "\x00" + normalizeKeyID(keyID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.signers[cacheKey]; ok {
		return s, nil
	}

	store, err := Open(location)
	if err != nil {
		return nil, err
	}
	entity, err := store.Entity(keyID)
	if err != nil {
		return nil, err
	}

	s := NewSigner(entity, r.config)
	r.signers[cacheKey] = s
	return s, nil
}
