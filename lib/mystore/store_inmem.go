package mystore

import (
	"context"
	"sync"
)

// InMemoryStore keeps values in a map. Stores derived from each other share one lock,
// so a transaction on one of them covers all.
type InMemoryStore[T any] struct {
	lock  *sync.Mutex
	Items map[string]T
}

func NewInMemoryStore[T any](c context.Context) (*InMemoryStore[T], func(), error) {
	return &InMemoryStore[T]{
		lock:  &sync.Mutex{},
		Items: make(map[string]T),
	}, func() {}, nil
}

func (s *InMemoryStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	// Start transaction
	s.lock.Lock()
	defer s.lock.Unlock()

	ctx := context.WithValue(c, ctxTransactionKey{}, s.lock)

	// Within this block everything is transactional
	return f(ctx)
}

func (s *InMemoryStore[T]) inTransaction(c context.Context) bool {
	lock, ok := c.Value(ctxTransactionKey{}).(*sync.Mutex)
	return ok && lock == s.lock
}

func (s *InMemoryStore[T]) Put(c context.Context, uid string, value T) error {
	if !s.inTransaction(c) {
		s.lock.Lock()
		defer s.lock.Unlock()
	}

	s.Items[uid] = value

	return nil
}

func (s *InMemoryStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	if !s.inTransaction(c) {
		s.lock.Lock()
		defer s.lock.Unlock()
	}

	result, exists := s.Items[uid]

	return result, exists, nil
}
