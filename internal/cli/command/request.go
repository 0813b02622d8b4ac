package command

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pgpauth-go/internal/client"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Send an authenticated GET and print the response",
		ArgsUsage: "PATH|URL",
		Action:    getAction,
	}
}

// DeleteCommand returns the delete command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "Send an authenticated DELETE",
		ArgsUsage: "PATH|URL",
		Action:    deleteAction,
	}
}

func getAction(c *cli.Context) error {
	env, target, err := requestArgs(c)
	if err != nil {
		return err
	}

	cl, err := env.Client()
	if err != nil {
		return err
	}

	resp, err := cl.Get(c.Context, target)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var body any
	if err := client.ParseResponse(resp, &body); err != nil {
		return err
	}
	return env.Print(body)
}

func deleteAction(c *cli.Context) error {
	env, target, err := requestArgs(c)
	if err != nil {
		return err
	}

	cl, err := env.Client()
	if err != nil {
		return err
	}

	resp, err := cl.Delete(c.Context, target)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		if err := client.ParseResponse(resp, nil); err != nil {
			return err
		}
		_, err := fmt.Fprintln(env.Out, "deleted")
		return err
	}

	var body any
	if err := client.ParseResponse(resp, &body); err != nil {
		return err
	}
	return env.Print(body)
}

func requestArgs(c *cli.Context) (*Env, string, error) {
	if c.NArg() != 1 {
		return nil, "", fmt.Errorf("expected exactly one PATH or URL argument")
	}
	env, err := GetEnv(c)
	if err != nil {
		return nil, "", err
	}
	return env, c.Args().First(), nil
}
