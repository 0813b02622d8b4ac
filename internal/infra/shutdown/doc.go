// Package shutdown coordinates graceful process termination.
//
// A Handler collects named hooks and runs them in reverse registration
// order once SIGINT or SIGTERM arrives (or the supplied context ends),
// bounded by a single timeout shared by all hooks.
package shutdown
