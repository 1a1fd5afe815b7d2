package mystore

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendMemory = "memory"
	BackendGcloud = "gcloud"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

type ctxTransactionKey struct{}

type Options struct {
	ProjectID  string
	RedisAddr  string
	SQLitePath string
}

//go:generate mockgen -source=api.go -package mystore -destination store_mock.go Store
type Store[T any] interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Put(c context.Context, uid string, value T) error
	Get(c context.Context, uid string) (T, bool, error)
}

// New returns the store for the given backend together with its cleanup function
func New[T any](c context.Context, backend string, opts Options) (Store[T], func(), error) {
	switch backend {
	case BackendMemory:
		return NewInMemoryStore[T](c)
	case BackendGcloud:
		return newGcloudStore[T](c, opts.ProjectID)
	case BackendRedis:
		return newRedisStore[T](c, opts.RedisAddr)
	case BackendSQLite:
		return newSQLiteStore[T](c, opts.SQLitePath)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// Derive returns a store for another value type on the same backend connection as s.
// Transactions started on either store include operations on the other.
func Derive[U any, T any](s Store[T]) (Store[U], error) {
	switch st := s.(type) {
	case *InMemoryStore[T]:
		return &InMemoryStore[U]{lock: st.lock, Items: make(map[string]U)}, nil
	case *gcloudStore[T]:
		return &gcloudStore[U]{client: st.client, kind: kindOf[U]()}, nil
	case *redisStore[T]:
		return &redisStore[U]{client: st.client}, nil
	case *sqliteStore[T]:
		return &sqliteStore[U]{db: st.db}, nil
	default:
		return nil, fmt.Errorf("cannot derive a store from %T", s)
	}
}

func kindOf[T any]() string {
	val := new(T)
	kind := fmt.Sprintf("%T", *val)
	if strings.Contains(kind, ".") {
		kind = strings.Split(kind, ".")[1]
	}
	return kind
}
