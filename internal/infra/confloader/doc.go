// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Values passed to LoadMap (command-line flags)
//  2. Environment variables
//  3. The YAML configuration file
//  4. Defaults passed to WithDefaults
//
// Environment variables use a double underscore between sections so that
// keys containing underscores survive the mapping:
//
//	PGPAUTH_AUTH__KEYRING_FILE=/etc/pgpauth/pubring.gpg  ->  auth.keyring_file
//
// Watcher reports writes to individual files, which the server uses to
// reload its trusted keyring without a restart.
package confloader
