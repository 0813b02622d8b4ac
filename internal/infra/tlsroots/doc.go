// Package tlsroots builds TLS configurations for pgpauth clients and servers.
//
// Clients trust the system roots plus an optional CA bundle. Servers serve
// a certificate that is reloaded from disk when it changes and may require
// client certificates signed by a configured CA.
package tlsroots
