// Package buildinfo exposes build-time version information.
//
// Values are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/pgpauth-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Unset values fall back to what the Go toolchain embeds in the binary.
package buildinfo
