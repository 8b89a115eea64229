// Package app wires configuration, token storage, the auth API client and the
// forms together and runs one command against them. It is decoupled from the
// command line; cmd/nicauth only parses flags and maps errors to exit codes.
package app
