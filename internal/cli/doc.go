// Package cli turns the nicauth command line into an app.Config. It owns the
// flag set, the usage text and the exit codes reported for bad input.
package cli
