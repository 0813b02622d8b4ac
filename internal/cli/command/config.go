package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pgpauth-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI profile management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective settings",
				Action: configShow,
			},
			{
				Name:  "init",
				Usage: "Write the effective settings to the profile file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing profile",
					},
				},
				Action: configInit,
			},
		},
	}
}

// profileView is the printable form of the profile.
type profileView struct {
	File    string `json:"file"`
	Server  string `json:"server"`
	CAFile  string `json:"ca_file"`
	Timeout string `json:"timeout"`
	Output  string `json:"output"`
	GPGHome string `json:"gpg_home"`
	KeyID   string `json:"key_id"`
}

func configPath(env *Env) string {
	if env.ConfigPath != "" {
		return env.ConfigPath
	}
	return config.DefaultConfigPath()
}

func configShow(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	p := env.Profile
	return env.Print(profileView{
		File:    configPath(env),
		Server:  p.Server,
		CAFile:  p.CAFile,
		Timeout: p.Timeout.String(),
		Output:  p.Output,
		GPGHome: p.GPG.Home,
		KeyID:   p.GPG.KeyID,
	})
}

func configInit(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}

	path := configPath(env)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := config.Save(env.Profile, path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.Out, "created configuration file at %s\n", path)
	return err
}
