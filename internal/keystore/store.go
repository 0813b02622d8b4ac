package keystore

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/openpgp"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
)

// SecretKeyringFile is the secret keyring name inside a GnuPG home directory.
const SecretKeyringFile = "secring.gpg"

const armorPrefix = "-----BEGIN"

// DefaultLocation returns $GNUPGHOME, falling back to ~/.gnupg.
func DefaultLocation() string {
	if home := os.Getenv("GNUPGHOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".gnupg")
	}
	return ".gnupg"
}

// Store holds the secret keys read from one keystore location.
type Store struct {
	path     string
	entities openpgp.EntityList
}

// Open reads secret keys from location. A directory is treated as a GnuPG
// home and secring.gpg inside it is read; anything else is read as a key
// file. An empty location means DefaultLocation.
func Open(location string) (*Store, error) {
	if location == "" {
		location = DefaultLocation()
	}

	path := location
	if info, err := os.Stat(location); err == nil && info.IsDir() {
		path = filepath.Join(location, SecretKeyringFile)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSigningIdentityNotFound.WithDetails("keystore not found: " + path)
		}
		return nil, domain.ErrSigningFailed.WithCause(fmt.Errorf("open keystore %s: %w", path, err))
	}
	defer f.Close()

	entities, err := ReadEntities(f)
	if err != nil {
		return nil, domain.ErrSigningFailed.WithCause(fmt.Errorf("read keystore %s: %w", path, err))
	}

	return &Store{path: path, entities: entities}, nil
}

// ReadEntities reads an OpenPGP keyring, armored or binary.
func ReadEntities(r io.Reader) (openpgp.EntityList, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(armorPrefix))
	if bytes.Equal(head, []byte(armorPrefix)) {
		return openpgp.ReadArmoredKeyRing(br)
	}
	return openpgp.ReadKeyRing(br)
}

// Path returns the file the store was read from.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of entities in the store.
func (s *Store) Len() int {
	return len(s.entities)
}

// Entity selects the secret key matching keyID.
//
// keyID is either a full fingerprint or a 16 hex character long key ID,
// matched against the primary key and then the subkeys. A subkey ID selects
// its whole entity: Signer always signs with the primary key, so tokens
// name the primary fingerprint whichever ID was given.
func (s *Store) Entity(keyID string) (*openpgp.Entity, error) {
	want := normalizeKeyID(keyID)
	if want == "" {
		return nil, domain.ErrSigningIdentityNotFound.WithDetails("empty key id")
	}

	for _, e := range s.entities {
		if e.PrivateKey == nil {
			continue
		}
		if matchesKeyID(want, e.PrimaryKey.Fingerprint[:], e.PrimaryKey.KeyId) {
			return e, nil
		}
		for _, sub := range e.Subkeys {
			if sub.PrivateKey != nil && matchesKeyID(want, sub.PublicKey.Fingerprint[:], sub.PublicKey.KeyId) {
				return e, nil
			}
		}
	}

	return nil, domain.ErrSigningIdentityNotFound.WithDetails(
		fmt.Sprintf("no secret key %s in %s", keyID, s.path))
}

func normalizeKeyID(s string) string {
	id := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	id = strings.TrimPrefix(strings.TrimPrefix(id, "0x"), "0X")
	return strings.ToUpper(id)
}

func matchesKeyID(want string, fingerprint []byte, keyID uint64) bool {
	fp := strings.ToUpper(hex.EncodeToString(fingerprint))
	if want == fp {
		return true
	}
	return len(want) == 16 && want == fmt.Sprintf("%016X", keyID)
}

// IdentityOf describes an entity by fingerprint and primary user ID.
func IdentityOf(e *openpgp.Entity) domain.Identity {
	id := domain.Identity{
		Fingerprint: domain.FingerprintFromBytes(e.PrimaryKey.Fingerprint[:]),
	}

	var primary *openpgp.Identity
	for _, ident := range e.Identities {
		if primary == nil || (ident.SelfSignature != nil && ident.SelfSignature.IsPrimaryId != nil && *ident.SelfSignature.IsPrimaryId) {
			primary = ident
		}
	}
	if primary != nil && primary.UserId != nil {
		id.Name = primary.UserId.Name
		id.Email = primary.UserId.Email
	}
	return id
}
