// Package config defines the pgpauth-echo server configuration.
//
// Configuration is loaded by confloader from a YAML file and EnvPrefix
// environment variables on top of Default. Verify rejects settings the
// server cannot run with; Sanitize masks credentials before the effective
// configuration is logged.
package config
