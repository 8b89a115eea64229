// Package tokenstore is the client-side key/value storage where the session
// token lives after a successful login. It plays the role browser local
// storage plays for a web client: one process-wide store, shared by every
// component, persisted across runs.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
)

// DefaultKey is the key the session token is stored under.
const DefaultKey = "token"

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("key not found")

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Path      string // file backend
	RedisAddr string // redis backend
	RedisDB   int
	Prefix    string // redis key prefix
}

// Open builds the store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFile(opts.Path)
	case BackendRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisDB, opts.Prefix)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
