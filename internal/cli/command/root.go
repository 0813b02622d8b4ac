package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/pgpauth-go/internal/cli/config"
	"github.com/yndnr/pgpauth-go/internal/cli/output"
	"github.com/yndnr/pgpauth-go/internal/infra/buildinfo"
	"github.com/yndnr/pgpauth-go/internal/keystore"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
)

const envMetadataKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "pgpauth-cli",
		Usage:   "Sign authentication tokens and call token-protected APIs",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TokenCommand(),
			GetCommand(),
			DeleteCommand(),
			VerifyCommand(),
			ConfigCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI profile `FILE` (default ~/.pgpauth/cli.yaml)",
			EnvVars: []string{"PGPAUTH_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "gpg-home",
			Usage:   "GnuPG home `DIR` or secret keyring file (default $GNUPGHOME or ~/.gnupg)",
			EnvVars: []string{"PGPAUTH_GPG_HOME"},
		},
		&cli.StringFlag{
			Name:    "key-id",
			Aliases: []string{"k"},
			Usage:   "Fingerprint or key ID of the signing key",
			EnvVars: []string{"PGPAUTH_GPG_KEYID"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "API base `URL` (e.g., https://api.example.net/api/v1)",
			EnvVars: []string{"PGPAUTH_SERVER"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "Extra PEM CA bundle for https servers",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout (default 30s)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log requests and key handling to stderr",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config  string
	GPGHome string
	KeyID   string
	Server  string
	CAFile  string
	Output  string
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:  c.String("config"),
		GPGHome: c.String("gpg-home"),
		KeyID:   c.String("key-id"),
		Server:  c.String("server"),
		CAFile:  c.String("ca-file"),
		Output:  c.String("output"),
		Verbose: c.Bool("verbose"),
	}
}

// setup loads the profile, applies the global flags to it and stores the
// resulting Env for the commands.
func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	profile, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	profile, err = config.Merge(profile, map[string]string{
		"gpg-home": flags.GPGHome,
		"key-id":   flags.KeyID,
		"server":   flags.Server,
		"ca-file":  flags.CAFile,
		"output":   flags.Output,
	})
	if err != nil {
		return err
	}
	if c.IsSet("timeout") {
		profile.Timeout = c.Duration("timeout")
	}

	format, err := output.ParseFormat(profile.Output)
	if err != nil {
		return err
	}

	stderr := c.App.ErrWriter
	if stderr == nil {
		stderr = os.Stderr
	}
	logCfg := logger.Config{Level: "warn", Format: "text", Output: stderr}
	if flags.Verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envMetadataKey] = &Env{
		Profile:    profile,
		ConfigPath: flags.Config,
		Format:     format,
		Out:        writerOrStdout(c.App.Writer),
		Log:        log,
		Passphrase: PromptPassphrase(os.Stdin, stderr),
	}
	return nil
}

// GetEnv retrieves the Env prepared by the Before hook.
func GetEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envMetadataKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("command environment not initialized")
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// signerConfig returns the keystore settings used by every command.
func signerConfig(pass keystore.PassphraseFunc) *keystore.SignerConfig {
	cfg := keystore.DefaultSignerConfig()
	cfg.Passphrase = pass
	return cfg
}
