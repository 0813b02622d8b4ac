package keystore

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

// Keyring holds the trusted public keys used to verify token signatures.
//
// The entity list is swapped atomically by Reload, so Verify never blocks.
type Keyring struct {
	path     string
	entities atomic.Pointer[openpgp.EntityList]
}

// LoadKeyring reads a public keyring file, binary or armored.
func LoadKeyring(path string) (*Keyring, error) {
	k := &Keyring{path: path}
	if err := k.Reload(); err != nil {
		return nil, err
	}
	return k, nil
}

// NewKeyring builds an in-memory keyring from already parsed entities.
func NewKeyring(entities openpgp.EntityList) *Keyring {
	k := &Keyring{}
	k.entities.Store(&entities)
	return k
}

// Path returns the keyring file, or "" for in-memory keyrings.
func (k *Keyring) Path() string {
	return k.path
}

// Reload re-reads the keyring file. On error the previous keys stay active.
func (k *Keyring) Reload() error {
	if k.path == "" {
		return nil
	}

	f, err := os.Open(k.path)
	if err != nil {
		return fmt.Errorf("keystore: open keyring %s: %w", k.path, err)
	}
	defer f.Close()

	entities, err := ReadEntities(f)
	if err != nil {
		return fmt.Errorf("keystore: read keyring %s: %w", k.path, err)
	}
	if len(entities) == 0 {
		return fmt.Errorf("keystore: keyring %s holds no keys", k.path)
	}

	k.entities.Store(&entities)
	return nil
}

// Len returns the number of trusted keys.
func (k *Keyring) Len() int {
	if el := k.entities.Load(); el != nil {
		return len(*el)
	}
	return 0
}

// Identities lists the trusted keys.
func (k *Keyring) Identities() []domain.Identity {
	el := k.entities.Load()
	if el == nil {
		return nil
	}
	ids := make([]domain.Identity, 0, len(*el))
	for _, e := range *el {
		ids = append(ids, IdentityOf(e))
	}
	return ids
}

// Verify checks a signature body, as carried in a token, over signed.
// It returns the identity of the signing key.
func (k *Keyring) Verify(signed []byte, signature string) (domain.Identity, error) {
	el := k.entities.Load()
	if el == nil || len(*el) == 0 {
		return domain.Identity{}, domain.ErrSignatureInvalid.WithDetails("no trusted keys")
	}

	armored, err := token.ReArmor(signature)
	if err != nil {
		return domain.Identity{}, domain.ErrSignatureInvalid.WithCause(err)
	}
	block, err := armor.Decode(strings.NewReader(armored))
	if err != nil {
		return domain.Identity{}, domain.ErrSignatureInvalid.WithDetails("bad armor").WithCause(err)
	}
	if block.Type != openpgp.SignatureType {
		return domain.Identity{}, domain.ErrSignatureInvalid.WithDetails("unexpected armor type " + block.Type)
	}

	signer, err := openpgp.CheckDetachedSignature(*el, bytes.NewReader(signed), block.Body)
	if err != nil {
		return domain.Identity{}, domain.ErrSignatureInvalid.WithCause(err)
	}
	return IdentityOf(signer), nil
}
