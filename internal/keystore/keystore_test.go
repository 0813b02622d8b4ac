package keystore

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/openpgp"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/keystore/keystoretest"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

func fingerprintOf(e *openpgp.Entity) string {
	return string(domain.FingerprintFromBytes(e.PrimaryKey.Fingerprint[:]))
}

func TestOpen_Directory(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	home := keystoretest.GnuPGHome(t, alice)

	store, err := Open(home)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if store.Path() != filepath.Join(home, SecretKeyringFile) {
		t.Errorf("Path() = %q", store.Path())
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestOpen_ArmoredFile(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	path := filepath.Join(t.TempDir(), "alice.asc")
	keystoretest.WriteFile(t, path,
		keystoretest.Armor(t, openpgp.PrivateKeyType, keystoretest.SecretKeyring(t, alice)))

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := store.Entity(fingerprintOf(alice)); err != nil {
		t.Errorf("Entity() error = %v", err)
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, domain.ErrSigningIdentityNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrSigningIdentityNotFound", err)
	}
}

func TestOpen_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secring.gpg")
	keystoretest.WriteFile(t, path, []byte("not a keyring"))

	_, err := Open(path)
	if !errors.Is(err, domain.ErrSigningFailed) {
		t.Errorf("Open(garbage) error = %v, want ErrSigningFailed", err)
	}
}

func TestStore_Entity(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	bob := keystoretest.NewEntity(t, "Bob", "bob@example.com")
	store, err := Open(keystoretest.GnuPGHome(t, alice, bob))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	fp := fingerprintOf(bob)
	tests := []struct {
		name    string
		keyID   string
		want    *openpgp.Entity
		wantErr bool
	}{
		{"fingerprint", fp, bob, false},
		{"lower case", strings.ToLower(fp), bob, false},
		{"0x prefix", "0x" + fp, bob, false},
		{"long key id", fmt.Sprintf("%016X", bob.PrimaryKey.KeyId), bob, false},
		{"subkey fingerprint", string(domain.FingerprintFromBytes(alice.Subkeys[0].PublicKey.Fingerprint[:])), alice, false},
		{"unknown", strings.Repeat("A", 40), nil, true},
		{"empty", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Entity(tt.keyID)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrSigningIdentityNotFound) {
					t.Errorf("Entity(%q) error = %v, want ErrSigningIdentityNotFound", tt.keyID, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Entity(%q) error = %v", tt.keyID, err)
			}
			if fingerprintOf(got) != fingerprintOf(tt.want) {
				t.Errorf("Entity(%q) returned %s, want %s", tt.keyID, fingerprintOf(got), fingerprintOf(tt.want))
			}
		})
	}
}

func TestStore_EntityBySubkeySignsWithPrimary(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	store, err := Open(keystoretest.GnuPGHome(t, alice))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	sub := alice.Subkeys[0].PublicKey
	e, err := store.Entity(fmt.Sprintf("%016X", sub.KeyId))
	if err != nil {
		t.Fatalf("Entity(subkey id) error = %v", err)
	}

	tok := token.New(time.Now(), 7)
	env, err := NewSigner(e, nil).Sign(tok.SignedData())
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	body, err := token.StripEnvelope(env)
	if err != nil {
		t.Fatalf("StripEnvelope() error = %v", err)
	}

	id, err := NewKeyring(openpgp.EntityList{alice}).Verify(tok.SignedData(), body)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if string(id.Fingerprint) != fingerprintOf(alice) {
		t.Errorf("signer = %s, want primary %s", id.Fingerprint, fingerprintOf(alice))
	}
	if string(id.Fingerprint) == string(domain.FingerprintFromBytes(sub.Fingerprint[:])) {
		t.Error("token attributed to the subkey")
	}
}

func TestIdentityOf(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")

	id := IdentityOf(alice)
	if id.Name != "Alice" || id.Email != "alice@example.com" {
		t.Errorf("IdentityOf() = %+v", id)
	}
	if string(id.Fingerprint) != fingerprintOf(alice) {
		t.Errorf("Fingerprint = %s, want %s", id.Fingerprint, fingerprintOf(alice))
	}
}

func TestSigner_EnvelopeShape(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	s := NewSigner(alice, nil)

	env, err := s.Sign([]byte("1;2024-01-01T00:00:00Z;1\n"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	lines := strings.Split(env, "\n")
	if len(lines) < 4 {
		t.Fatalf("envelope has %d lines", len(lines))
	}
	if lines[0] != "-----BEGIN PGP SIGNATURE-----" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "Version: "+DefaultArmorVersion {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "" {
		t.Errorf("line 2 = %q, want blank", lines[2])
	}
	if !strings.Contains(env, "-----END PGP SIGNATURE-----") {
		t.Error("envelope missing END line")
	}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	signer := NewSigner(alice, nil)
	keyring := NewKeyring(openpgp.EntityList{alice})

	tok := token.New(time.Now(), 12345)
	env, err := signer.Sign(tok.SignedData())
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	body, err := token.StripEnvelope(env)
	if err != nil {
		t.Fatalf("StripEnvelope() error = %v", err)
	}

	id, err := keyring.Verify(tok.SignedData(), body)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Fingerprint != signer.Identity().Fingerprint {
		t.Errorf("Verify() identity = %s, want %s", id.Fingerprint, signer.Identity().Fingerprint)
	}

	t.Run("altered payload", func(t *testing.T) {
		altered := token.New(tok.Timestamp, 12346)
		if _, err := keyring.Verify(altered.SignedData(), body); !errors.Is(err, domain.ErrSignatureInvalid) {
			t.Errorf("Verify(altered) error = %v, want ErrSignatureInvalid", err)
		}
	})

	t.Run("missing trailing newline", func(t *testing.T) {
		if _, err := keyring.Verify([]byte(tok.Payload()), body); !errors.Is(err, domain.ErrSignatureInvalid) {
			t.Errorf("Verify(no newline) error = %v, want ErrSignatureInvalid", err)
		}
	})

	t.Run("unknown signer", func(t *testing.T) {
		bob := keystoretest.NewEntity(t, "Bob", "bob@example.com")
		other := NewKeyring(openpgp.EntityList{bob})
		if _, err := other.Verify(tok.SignedData(), body); !errors.Is(err, domain.ErrSignatureInvalid) {
			t.Errorf("Verify(unknown signer) error = %v, want ErrSignatureInvalid", err)
		}
	})

	t.Run("garbage body", func(t *testing.T) {
		if _, err := keyring.Verify(tok.SignedData(), "not-a-signature"); !errors.Is(err, domain.ErrSignatureInvalid) {
			t.Errorf("Verify(garbage) error = %v, want ErrSignatureInvalid", err)
		}
	})
}

func TestKeyring_LoadAndReload(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	bob := keystoretest.NewEntity(t, "Bob", "bob@example.com")
	path := filepath.Join(t.TempDir(), "pubring.asc")
	keystoretest.WriteFile(t, path,
		keystoretest.Armor(t, openpgp.PublicKeyType, keystoretest.PublicKeyring(t, alice)))

	k, err := LoadKeyring(path)
	if err != nil {
		t.Fatalf("LoadKeyring() error = %v", err)
	}
	if k.Len() != 1 {
		t.Errorf("Len() = %d, want 1", k.Len())
	}

	keystoretest.WriteFile(t, path, keystoretest.PublicKeyring(t, alice, bob))
	if err := k.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if k.Len() != 2 {
		t.Errorf("Len() after reload = %d, want 2", k.Len())
	}

	keystoretest.WriteFile(t, path, []byte("broken"))
	if err := k.Reload(); err == nil {
		t.Error("Reload(broken) error = nil")
	}
	if k.Len() != 2 {
		t.Errorf("Len() after failed reload = %d, want 2", k.Len())
	}
}

func TestResolver_Caches(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	home := keystoretest.GnuPGHome(t, alice)
	r := NewResolver(nil)

	s1, err := r.Resolve(fingerprintOf(alice), home)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	s2, err := r.Resolve(strings.ToLower(fingerprintOf(alice)), home)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s1 != s2 {
		t.Error("Resolve() did not reuse cached signer")
	}

	if _, err := r.Resolve(strings.Repeat("B", 40), home); !errors.Is(err, domain.ErrSigningIdentityNotFound) {
		t.Errorf("Resolve(unknown) error = %v, want ErrSigningIdentityNotFound", err)
	}
}

func TestSigner_UnencryptedKeySkipsPassphrase(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	called := false
	s := NewSigner(alice, &SignerConfig{
		Passphrase: func(domain.Identity) ([]byte, error) {
			called = true
			return nil, errors.New("should not be asked")
		},
	})

	if _, err := s.Sign([]byte("payload\n")); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if called {
		t.Error("passphrase requested for an unencrypted key")
	}
}

func TestSigner_NoPrivateKey(t *testing.T) {
	alice := keystoretest.NewEntity(t, "Alice", "alice@example.com")
	public := *alice
	public.PrivateKey = nil

	_, err := NewSigner(&public, nil).Sign([]byte("payload\n"))
	if !errors.Is(err, domain.ErrSigningFailed) {
		t.Errorf("Sign() error = %v, want ErrSigningFailed", err)
	}
}
