package command

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
	"github.com/yndnr/pgpauth-go/internal/keystore"
)

// PassphraseEnv names the variable read when no terminal is attached.
const PassphraseEnv = "PGPAUTH_GPG_PASSPHRASE"

// PromptPassphrase asks for a key passphrase on the terminal without echo.
// When in is not a terminal the passphrase comes from PGPAUTH_GPG_PASSPHRASE.
func PromptPassphrase(in *os.File, prompt io.Writer) keystore.PassphraseFunc {
	return func(id domain.Identity) ([]byte, error) {
		if !term.IsTerminal(int(in.Fd())) {
			if pass, ok := os.LookupEnv(PassphraseEnv); ok {
				return []byte(pass), nil
			}
			return nil, fmt.Errorf("key %s is locked: no terminal and %s is not set", id.Fingerprint.Short(), PassphraseEnv)
		}

		fmt.Fprintf(prompt, "Passphrase for %s: ", describeKey(id))
		pass, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return nil, fmt.Errorf("read passphrase: %w", err)
		}
		return pass, nil
	}
}

func describeKey(id domain.Identity) string {
	switch {
	case id.Name != "" && id.Email != "":
		return fmt.Sprintf("%s <%s> (%s)", id.Name, id.Email, id.Fingerprint.Short())
	case id.Email != "":
		return fmt.Sprintf("<%s> (%s)", id.Email, id.Fingerprint.Short())
	default:
		return id.Fingerprint.Short()
	}
}
