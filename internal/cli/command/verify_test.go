package command

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/keystore"
)

func issueTestToken(t *testing.T, k *testKey, at time.Time) string {
	t.Helper()

	entity, err := keystore.Open(k.home)
	if err != nil {
		t.Fatalf("keystore.Open() error = %v", err)
	}
	e, err := entity.Entity(k.fingerprint)
	if err != nil {
		t.Fatalf("Entity() error = %v", err)
	}

	issuer := service.NewTokenIssuer(nil, &service.TokenIssuerConfig{
		Clock: func() time.Time { return at },
	})
	tok, err := issuer.Issue(keystore.NewSigner(e, nil))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return tok
}

func TestVerifyCommand(t *testing.T) {
	k := newTestKey(t)
	tok := issueTestToken(t, k, time.Now())

	out, err := runCLI(t, "-o", "json", "verify", "--keyring", k.pubring, tok)
	if err != nil {
		t.Fatalf("verify error = %v", err)
	}

	var res verifyResult
	decodeJSON(t, out, &res)
	if !res.Valid || res.Fingerprint != k.fingerprint {
		t.Errorf("result = %+v", res)
	}
	if res.KeyID != k.fingerprint[24:] {
		t.Errorf("KeyID = %q, want %q", res.KeyID, k.fingerprint[24:])
	}
	if res.Name != "Alice" || res.Email != "alice@example.net" {
		t.Errorf("identity = %q <%q>", res.Name, res.Email)
	}
}

func TestVerifyCommand_Stdin(t *testing.T) {
	k := newTestKey(t)
	tok := issueTestToken(t, k, time.Now())

	app := App()
	var out strings.Builder
	app.Writer = &out
	app.ErrWriter = &strings.Builder{}
	app.Reader = strings.NewReader(tok + "\n")

	args := []string{"pgpauth-cli", "--config", t.TempDir() + "/cli.yaml", "-o", "json", "verify", "--keyring", k.pubring, "-"}
	if err := app.Run(args); err != nil {
		t.Fatalf("verify - error = %v", err)
	}
	if !strings.Contains(out.String(), k.fingerprint) {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestVerifyCommand_Rejects(t *testing.T) {
	k := newTestKey(t)
	stranger := newTestKey(t)

	fresh := issueTestToken(t, k, time.Now())
	stale := issueTestToken(t, k, time.Now().Add(-10*time.Minute))

	tests := []struct {
		name    string
		args    []string
		wantErr *domain.DomainError
	}{
		{"stale", []string{"verify", "--keyring", k.pubring, stale}, domain.ErrTimestampSkew},
		{"wide window accepts stale", []string{"verify", "--keyring", k.pubring, "--window", "15m", stale}, nil},
		{"unknown signer", []string{"verify", "--keyring", stranger.pubring, fresh}, domain.ErrSignatureInvalid},
		{"malformed", []string{"verify", "--keyring", k.pubring, "1;garbage"}, domain.ErrTokenMalformed},
		{"wrong version", []string{"verify", "--keyring", k.pubring, "2" + fresh[1:]}, domain.ErrTokenVersionUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyCommand_Usage(t *testing.T) {
	k := newTestKey(t)

	if _, err := runCLI(t, "verify", "sometoken"); err == nil {
		t.Error("verify without --keyring should fail")
	}
	if _, err := runCLI(t, "verify", "--keyring", k.pubring); err == nil {
		t.Error("verify without a token should fail")
	}
}
