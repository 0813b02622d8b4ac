package command

import (
	"fmt"
	"io"

	"github.com/yndnr/pgpauth-go/internal/cli/config"
	"github.com/yndnr/pgpauth-go/internal/cli/output"
	"github.com/yndnr/pgpauth-go/internal/client"
	"github.com/yndnr/pgpauth-go/internal/core/service"
	"github.com/yndnr/pgpauth-go/internal/infra/buildinfo"
	"github.com/yndnr/pgpauth-go/internal/keystore"
	"github.com/yndnr/pgpauth-go/internal/telemetry/logger"
)

// Env is the per-invocation state shared by commands.
type Env struct {
	Profile    *config.CLIConfig
	ConfigPath string
	Format     output.Format
	Out        io.Writer
	Log        logger.Logger
	Passphrase keystore.PassphraseFunc

	resolver *keystore.Resolver
}

// Print writes data in the selected output format.
func (e *Env) Print(data any) error {
	return output.Print(e.Out, e.Format, data)
}

// Issuer returns a TokenIssuer backed by the configured keystore.
func (e *Env) Issuer() *service.TokenIssuer {
	if e.resolver == nil {
		e.resolver = keystore.NewResolver(signerConfig(e.Passphrase))
	}
	resolve := service.SignerResolverFunc(func(keyID, location string) (service.Signer, error) {
		s, err := e.resolver.Resolve(keyID, location)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	return service.NewTokenIssuer(resolve, &service.TokenIssuerConfig{Logger: e.Log})
}

// Signer resolves the configured signing key.
func (e *Env) Signer() (*keystore.Signer, error) {
	if e.Profile.GPG.KeyID == "" {
		return nil, fmt.Errorf("no signing key: set --key-id or gpg.keyid in the profile")
	}
	if e.resolver == nil {
		e.resolver = keystore.NewResolver(signerConfig(e.Passphrase))
	}
	return e.resolver.Resolve(e.Profile.GPG.KeyID, e.Profile.GPG.Home)
}

// Client returns an API client that signs a fresh token for each request.
func (e *Env) Client() (*client.Client, error) {
	signer, err := e.Signer()
	if err != nil {
		return nil, err
	}
	e.Log.Debug("signing key selected", "fingerprint", signer.Identity().Fingerprint.String())

	return client.New(e.Profile.Server, client.IssuerSource(e.Issuer(), signer), &client.Config{
		Timeout:   e.Profile.Timeout,
		CAFile:    e.Profile.CAFile,
		UserAgent: buildinfo.UserAgent("pgpauth-cli"),
		Logger:    e.Log,
	})
}
