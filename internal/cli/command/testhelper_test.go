package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/openpgp"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/keystore"
	"github.com/yndnr/pgpauth-go/internal/keystore/keystoretest"
	"github.com/yndnr/pgpauth-go/internal/storage/memory"
	"github.com/yndnr/pgpauth-go/pkg/token"
)

// testKey is a signing key with its GnuPG home and a public keyring file.
type testKey struct {
	entity      *openpgp.Entity
	home        string
	fingerprint string
	pubring     string
}

func newTestKey(t *testing.T) *testKey {
	t.Helper()

	e := keystoretest.NewEntity(t, "Alice", "alice@example.net")
	home := keystoretest.GnuPGHome(t, e)
	pubring := filepath.Join(t.TempDir(), "pubring.gpg")
	keystoretest.WriteFile(t, pubring, keystoretest.PublicKeyring(t, e))

	return &testKey{
		entity:      e,
		home:        home,
		fingerprint: fmt.Sprintf("%X", e.PrimaryKey.Fingerprint),
		pubring:     pubring,
	}
}

// keyArgs returns the global flags selecting k.
func (k *testKey) keyArgs() []string {
	return []string{"--gpg-home", k.home, "--key-id", k.fingerprint}
}

// runCLI runs the app with an isolated profile path and captures output.
func runCLI(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	return runCLIWithConfig(t, filepath.Join(t.TempDir(), "cli.yaml"), args...)
}

func runCLIWithConfig(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	app := App()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut

	full := append([]string{"pgpauth-cli", "--config", configPath}, args...)
	err := app.Run(full)
	return out.String(), err
}

// apiServer verifies every request the way a protected API would and
// echoes the caller.
type apiServer struct {
	*httptest.Server
	requests atomic.Int64
}

func newAPIServer(t *testing.T, k *testKey, handler http.HandlerFunc) *apiServer {
	t.Helper()

	nonces := memory.NewNonceStore(nil)
	t.Cleanup(func() { nonces.Close() })
	verifier := service.NewTokenVerifier(keystore.NewKeyring(openpgp.EntityList{k.entity}), nonces, nil)

	s := &apiServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		id, err := verifier.Verify(r.Context(), r.Header.Get(token.HeaderName))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"code":    domain.GetErrorCode(err),
				"message": err.Error(),
			})
			return
		}
		if handler != nil {
			handler(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"path":     r.URL.Path,
			"identity": id,
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.NewDecoder(strings.NewReader(s)).Decode(v); err != nil {
		t.Fatalf("decode output %q: %v", s, err)
	}
}
