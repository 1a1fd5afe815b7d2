package cartstorage

import (
	"context"
	"sync"
	"time"

	"github.com/MarcGrol/cartbackend/lib/mylog"
	"github.com/MarcGrol/cartbackend/lib/mystore"
	"github.com/MarcGrol/cartbackend/lib/mytime"
	"github.com/MarcGrol/cartbackend/services/cart"
)

type snapshot struct {
	c       context.Context
	version int64
	lines   []cart.CartLine
}

// Gateway mirrors the cart to a mystore.Store. Saves are handed to a single writer
// goroutine; while a write is in flight only the newest pending snapshot is kept.
// The lines live under key as a plain array, the version stamp under key+":version".
type Gateway struct {
	lines        mystore.Store[CartLines]
	versions     mystore.Store[CartVersion]
	key          string
	versionKey   string
	nower        mytime.Nower
	logger       mylog.Logger
	writeTimeout time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	version int64
	pending *snapshot
	writing bool
	closed  bool
	lastErr error
	wakeup  chan struct{}
	done    chan struct{}
}

// New expects both stores on the same backend, so that a transaction on lines covers versions
func New(lines mystore.Store[CartLines], versions mystore.Store[CartVersion], key string, nower mytime.Nower, writeTimeout time.Duration) *Gateway {
	g := &Gateway{
		lines:        lines,
		versions:     versions,
		key:          key,
		versionKey:   key + ":version",
		nower:        nower,
		logger:       mylog.New("cartstorage"),
		writeTimeout: writeTimeout,
		wakeup:       make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	g.idle = sync.NewCond(&g.mu)

	go g.run()

	return g
}

// Load returns the stored cart. Anything that prevents reading a consistent cart
// results in an empty one.
func (g *Gateway) Load(c context.Context) []cart.CartLine {
	c, cancel := context.WithTimeout(c, g.writeTimeout)
	defer cancel()

	version, found, err := g.versions.Get(c, g.versionKey)
	if err != nil {
		g.logger.Log(c, g.key, mylog.SeverityWarn, "Error reading cart version: %s", err)
	} else if found {
		g.adoptVersion(version.Version)
	}

	lines, found, err := g.lines.Get(c, g.key)
	if err != nil {
		g.logger.Log(c, g.key, mylog.SeverityError, "Error reading stored cart, starting empty: %s", err)
		return []cart.CartLine{}
	}
	if !found || lines == nil {
		g.logger.Log(c, g.key, mylog.SeverityInfo, "No stored cart, starting empty")
		return []cart.CartLine{}
	}

	err = cart.Validate(lines)
	if err != nil {
		g.logger.Log(c, g.key, mylog.SeverityWarn, "Discarding inconsistent stored cart: %s", err)
		return []cart.CartLine{}
	}

	g.logger.Log(c, g.key, mylog.SeverityInfo, "Loaded cart version %d with %d lines", version.Version, len(lines))

	return lines
}

// Save stamps the snapshot and queues it for writing. It never blocks on storage.
func (g *Gateway) Save(c context.Context, lines []cart.CartLine) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		g.logger.Log(c, g.key, mylog.SeverityWarn, "Gateway closed, ignoring save of %d lines", len(lines))
		return
	}

	g.version++
	if g.pending != nil {
		g.logger.Log(c, g.key, mylog.SeverityDebug, "Cart version %d superseded by %d", g.pending.version, g.version)
	}
	g.pending = &snapshot{c: c, version: g.version, lines: lines}

	select {
	case g.wakeup <- struct{}{}:
	default:
	}
}

// Flush blocks until every save issued so far has been written or dropped
func (g *Gateway) Flush() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.pending != nil || g.writing {
		g.idle.Wait()
	}
}

// Close writes the last issued save and stops the writer
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.wakeup)
	g.mu.Unlock()

	<-g.done
}

// LastError returns the failure of the most recent write, nil when it succeeded
func (g *Gateway) LastError() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.lastErr
}

func (g *Gateway) adoptVersion(version int64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if version > g.version {
		g.version = version
	}
}

func (g *Gateway) run() {
	defer close(g.done)

	for range g.wakeup {
		g.drain()
	}
	g.drain()
}

func (g *Gateway) drain() {
	for {
		g.mu.Lock()
		snap := g.pending
		g.pending = nil
		g.writing = snap != nil
		if snap == nil {
			g.idle.Broadcast()
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()

		err := g.write(snap)

		g.mu.Lock()
		g.lastErr = err
		g.mu.Unlock()
	}
}

func (g *Gateway) write(snap *snapshot) error {
	// Writes outlive the request that issued them
	c, cancel := context.WithTimeout(context.Background(), g.writeTimeout)
	defer cancel()

	lines := CartLines(snap.lines)
	if lines == nil {
		lines = CartLines{}
	}
	stamp := CartVersion{
		Version: snap.version,
		SavedAt: g.nower.Now(),
	}

	var newer int64
	err := g.lines.RunInTransaction(c, func(c context.Context) error {
		newer = 0
		current, found, err := g.versions.Get(c, g.versionKey)
		if err != nil {
			g.logger.Log(snap.c, g.key, mylog.SeverityWarn, "Error reading cart version before write, writing anyway: %s", err)
		} else if found && current.Version >= stamp.Version {
			newer = current.Version
			return nil
		}

		err = g.lines.Put(c, g.key, lines)
		if err != nil {
			return err
		}
		return g.versions.Put(c, g.versionKey, stamp)
	})
	if err != nil {
		g.logger.Log(snap.c, g.key, mylog.SeverityError, "Error saving cart version %d: %s", snap.version, err)
		return err
	}

	if newer > 0 {
		g.adoptVersion(newer)
		g.logger.Log(snap.c, g.key, mylog.SeverityWarn, "Stored cart version %d is newer than %d, write skipped", newer, snap.version)
		return nil
	}

	g.logger.Log(snap.c, g.key, mylog.SeverityDebug, "Saved cart version %d with %d lines", snap.version, len(lines))

	return nil
}
