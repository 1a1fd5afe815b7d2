package cart

import (
	"context"
	"sync"

	"github.com/MarcGrol/cartbackend/lib/mylog"
)

const cartLabel = "cart"

type mutation func(lines []CartLine) []CartLine

// Store owns the in-memory cart. It is created by the application entry point and
// handed to whoever needs it.
type Store struct {
	sync.RWMutex
	lines   []CartLine
	loading bool
	// mutations applied before hydration finished, replayed on top of the loaded cart
	pending []mutation
	loaded  chan struct{}
	gateway PersistenceGateway
	logger  mylog.Logger
}

// NewStore returns an empty cart and starts hydrating it from the gateway in the background
func NewStore(c context.Context, gateway PersistenceGateway, logger mylog.Logger) *Store {
	s := &Store{
		lines:   []CartLine{},
		loading: true,
		loaded:  make(chan struct{}),
		gateway: gateway,
		logger:  logger,
	}

	go s.hydrate(c)

	return s
}

func (s *Store) hydrate(c context.Context) {
	lines := s.gateway.Load(c)
	if lines == nil {
		lines = []CartLine{}
	}

	s.Lock()
	defer s.Unlock()

	for _, m := range s.pending {
		lines = m(lines)
	}
	replayed := len(s.pending)

	s.lines = lines
	s.pending = nil
	s.loading = false

	s.logger.Log(c, cartLabel, mylog.SeverityInfo, "Cart hydrated with %d lines (%d early mutations replayed)", len(lines), replayed)

	s.gateway.Save(c, cloneLines(s.lines))
	close(s.loaded)
}

func (s *Store) mutate(c context.Context, name string, m mutation) {
	s.Lock()
	defer s.Unlock()

	s.lines = m(s.lines)

	if s.loading {
		s.pending = append(s.pending, m)
		s.logger.Log(c, cartLabel, mylog.SeverityDebug, "%s applied while hydrating, persisting deferred", name)
		return
	}

	s.gateway.Save(c, cloneLines(s.lines))
}

func (s *Store) AddItem(c context.Context, product Product) {
	s.mutate(c, "addItem", func(lines []CartLine) []CartLine {
		return addItem(lines, product)
	})
}

func (s *Store) RemoveItem(c context.Context, productID string) {
	s.mutate(c, "removeItem", func(lines []CartLine) []CartLine {
		return removeItem(lines, productID)
	})
}

func (s *Store) UpdateQuantity(c context.Context, productID string, direction Direction) {
	s.mutate(c, "updateQuantity", func(lines []CartLine) []CartLine {
		return updateQuantity(lines, productID, direction)
	})
}

func (s *Store) Clear(c context.Context) {
	s.mutate(c, "clear", clearLines)
}

func (s *Store) Lines() []CartLine {
	s.RLock()
	defer s.RUnlock()

	return cloneLines(s.lines)
}

func (s *Store) TotalPrice() Money {
	s.RLock()
	defer s.RUnlock()

	return ComputeTotal(s.lines)
}

func (s *Store) Loading() bool {
	s.RLock()
	defer s.RUnlock()

	return s.loading
}

func (s *Store) View() View {
	s.RLock()
	defer s.RUnlock()

	return View{
		Cart:       cloneLines(s.lines),
		TotalPrice: ComputeTotal(s.lines),
		Loading:    s.loading,
	}
}

// WaitUntilLoaded blocks until hydration has completed
func (s *Store) WaitUntilLoaded(c context.Context) error {
	select {
	case <-s.loaded:
		return nil
	case <-c.Done():
		return c.Err()
	}
}
