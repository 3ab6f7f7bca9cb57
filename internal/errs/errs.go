// Package errs defines custom error types and utilities.
//
// Its purpose is to give every failure a consistent shape (a kind, a
// machine-readable code, a human message and optional field errors) so
// the top level can log it meaningfully, whatever layer produced it.
package errs
