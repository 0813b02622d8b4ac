package command

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/keystore"
)

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check a token against a public keyring",
		ArgsUsage: "TOKEN|-",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "keyring",
				Usage:    "Public keyring `FILE` of trusted signers (binary or armored)",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "window",
				Value: service.DefaultWindow,
				Usage: "Accepted distance between token time and now",
			},
		},
		Action: verifyAction,
	}
}

// verifyResult is printed for an accepted token.
type verifyResult struct {
	Valid       bool   `json:"valid"`
	Fingerprint string `json:"fingerprint"`
	KeyID       string `json:"key_id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

func verifyAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one TOKEN argument (or - for stdin)")
	}

	raw := c.Args().First()
	if raw == "-" {
		raw, err = readToken(c.App.Reader)
		if err != nil {
			return err
		}
	}

	keyring, err := keystore.LoadKeyring(c.String("keyring"))
	if err != nil {
		return err
	}

	verifier := service.NewTokenVerifier(keyring, nil, &service.TokenVerifierConfig{
		Window: c.Duration("window"),
		Logger: env.Log,
	})
	id, err := verifier.Verify(c.Context, raw)
	if err != nil {
		return fmt.Errorf("token rejected: %w", err)
	}

	return env.Print(verifyResult{
		Valid:       true,
		Fingerprint: id.Fingerprint.String(),
		KeyID:       id.Fingerprint.Short(),
		Name:        id.Name,
		Email:       id.Email,
	})
}

func readToken(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("read token: empty input")
	}
	return line, nil
}
