package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// TokenCommand returns the token command.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:   "token",
		Usage:  "Print a freshly signed token",
		Action: tokenAction,
		Description: "The token is valid once, for a few minutes around its timestamp.\n" +
			"Use it as the X-PGPAUTHORIZATION header value.",
	}
}

func tokenAction(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	if env.Profile.GPG.KeyID == "" {
		return fmt.Errorf("no signing key: set --key-id or gpg.keyid in the profile")
	}

	tok, err := env.Issuer().IssueToken(env.Profile.GPG.KeyID, env.Profile.GPG.Home)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	_, err = fmt.Fprintln(env.Out, tok)
	return err
}
