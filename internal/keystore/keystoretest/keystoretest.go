// Package keystoretest builds throwaway OpenPGP keys and keyring files for
// tests.
package keystoretest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

// SecretKeyringFile mirrors keystore.SecretKeyringFile without importing it.
const SecretKeyringFile = "secring.gpg"

// NewEntity generates a 1024-bit RSA key for name and email. Small keys keep
// tests fast; never use them outside tests.
func NewEntity(t testing.TB, name, email string) *openpgp.Entity {
	t.Helper()

	e, err := openpgp.NewEntity(name, "", email, &packet.Config{RSABits: 1024})
	if err != nil {
		t.Fatalf("keystoretest: generate entity: %v", err)
	}
	// SerializePrivate signs the identities and subkeys; do it once up front so
	// Serialize on the public half emits valid self-signatures.
	if err := e.SerializePrivate(new(bytes.Buffer), nil); err != nil {
		t.Fatalf("keystoretest: self-sign entity: %v", err)
	}
	return e
}

// SecretKeyring serializes the private halves of entities (binary).
func SecretKeyring(t testing.TB, entities ...*openpgp.Entity) []byte {
	t.Helper()

	var buf bytes.Buffer
	for _, e := range entities {
		if err := e.SerializePrivate(&buf, nil); err != nil {
			t.Fatalf("keystoretest: serialize private: %v", err)
		}
	}
	return buf.Bytes()
}

// PublicKeyring serializes the public halves of entities (binary).
func PublicKeyring(t testing.TB, entities ...*openpgp.Entity) []byte {
	t.Helper()

	var buf bytes.Buffer
	for _, e := range entities {
		if err := e.Serialize(&buf); err != nil {
			t.Fatalf("keystoretest: serialize public: %v", err)
		}
	}
	return buf.Bytes()
}

// Armor wraps binary key material in an armor block of the given type,
// e.g. openpgp.PublicKeyType.
func Armor(t testing.TB, blockType string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, blockType, nil)
	if err != nil {
		t.Fatalf("keystoretest: armor: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("keystoretest: armor write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("keystoretest: armor close: %v", err)
	}
	return buf.Bytes()
}

// GnuPGHome writes a secring.gpg holding entities into a fresh temp
// directory and returns the directory.
func GnuPGHome(t testing.TB, entities ...*openpgp.Entity) string {
	t.Helper()

	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, SecretKeyringFile), SecretKeyring(t, entities...))
	return dir
}

// WriteFile writes data to path, failing the test on error.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("keystoretest: write %s: %v", path, err)
	}
}
