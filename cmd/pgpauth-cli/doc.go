// Package main provides the entry point for pgpauth-cli.
//
// pgpauth-cli signs authentication tokens with a local OpenPGP key and
// uses them to call APIs that expect the X-PGPAUTHORIZATION header.
//
// Usage:
//
//	pgpauth-cli --key-id E608...3E8F token
//	pgpauth-cli --server https://api.example.net/api/v1 get /dashboard
//	pgpauth-cli verify --keyring pubring.gpg "1;2024-01-01T00:00:00Z;42;iQEc..."
//
// Defaults for the global flags are read from ~/.pgpauth/cli.yaml.
package main
