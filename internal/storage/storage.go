// Package storage provides the key/value services the task store persists
// its JSON collections to. Backends are swappable: sqlite on disk, redis, or
// process memory.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("key not found")

// Entry is one key/value pair of a write
type Entry struct {
	Key   string
	Value []byte
}

// Backend is a key/value storage service
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes every entry, all or nothing.
	Put(ctx context.Context, entries ...Entry) error

	Close() error
}

// Kind names a backend implementation
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindRedis  Kind = "redis"
	KindMemory Kind = "memory"
)

// Options configures Open
type Options struct {
	Kind        Kind
	Path        string // sqlite database file; empty uses the XDG data dir
	RedisAddr   string
	RedisPrefix string
}

// Open connects to the backend described by opts
func Open(opts Options) (Backend, error) {
	switch opts.Kind {
	case KindSQLite, "":
		return OpenSQLite(opts.Path)
	case KindRedis:
		return OpenRedis(opts.RedisAddr, opts.RedisPrefix)
	case KindMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Kind)
}
