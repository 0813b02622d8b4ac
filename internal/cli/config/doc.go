// Package config provides the pgpauth-cli profile.
//
// The profile lives in ~/.pgpauth/cli.yaml and supplies defaults for the
// global flags: the server, the signing key and where to find it, and the
// preferred output format. Flags and their environment variables always
// win over the profile.
package config
