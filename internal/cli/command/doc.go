// Package command provides the pgpauth-cli commands.
//
// Global flags select the signing key (--gpg-home, --key-id) and the API
// server (--server). Their defaults come from the CLI profile, see package
// config. Commands:
//
//   - token: print a freshly signed token
//   - get, delete: authenticated API requests
//   - verify: check a token against a public keyring
//   - config: show or write the profile
package command
