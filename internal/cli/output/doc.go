// Package output renders command results for pgpauth-cli.
//
// Three formats are supported: an aligned table for people, and JSON or
// YAML for scripts. Tables flatten nested objects into dotted keys so that
// API responses stay readable without a schema.
package output
