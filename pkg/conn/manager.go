// Package conn manages the single logical connection shared by every
// repository in the process. It establishes the connection with bounded
// retries and lets dependents wait for readiness instead of failing
// immediately.
package conn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aretw0/silt/pkg/core"
)

// State of the managed connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// EventType classifies a lifecycle event.
type EventType string

const (
	EventConnected    EventType = "CONNECTED"
	EventDisconnected EventType = "DISCONNECTED"
	EventError        EventType = "ERROR"
)

// Event represents a lifecycle transition of the connection.
type Event struct {
	Type      EventType
	Err       error
	Timestamp int64 // Unix milliseconds
}

// Defaults for the establishment procedure.
const (
	DefaultMaxRetries = 5
	DefaultRetryDelay = time.Second
)

// Config holds the settings for a Manager.
type Config struct {
	// Dialer opens the transport. Required.
	Dialer core.Dialer

	// Database is the logical database every session is bound to.
	Database string

	// MaxRetries bounds the dial attempts of one Setup call. Defaults to 5.
	MaxRetries int

	// RetryDelay is the sleep between dial attempts. Defaults to 1s.
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Manager owns the connection lifecycle. Construct it explicitly and pass
// it to every repository that should share the connection; there is no
// package-level instance.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	// sf coalesces concurrent Setup calls onto one establishment attempt,
	// mirroring how connection pools avoid duplicate dials.
	sf singleflight.Group

	mu       sync.Mutex
	state    State
	sess     core.Session
	ready    chan struct{} // closed on Connected, re-armed on each new attempt
	done     bool          // a Setup outcome has been recorded
	setupErr error
	gen      uint64 // session generation, guards stale close watchers
	subs     []chan Event
}

// NewManager creates a manager in the Disconnected state. No connection
// attempt is made until Setup is called.
func NewManager(cfg Config) *Manager {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Setup establishes the connection. It is idempotent: while an attempt is
// in flight, concurrent calls wait for it; once an outcome is recorded,
// later calls return that same outcome without dialing again. Teardown
// clears the recorded outcome so a fresh Setup starts over.
func (m *Manager) Setup(ctx context.Context) error {
	m.mu.Lock()
	if m.done {
		err := m.setupErr
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	_, err, _ := m.sf.Do("setup", func() (any, error) {
		return nil, m.connect(ctx)
	})
	return err
}

// connect runs the establishment procedure: up to MaxRetries dials with
// RetryDelay between attempts. On exhaustion the last dial error is
// recorded as fatal and surfaced.
func (m *Manager) connect(ctx context.Context) error {
	m.mu.Lock()
	startGen := m.gen
	m.state = Connecting
	m.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxRetries; attempt++ {
		sess, err := m.cfg.Dialer.Dial(ctx, m.cfg.Database)
		if err == nil {
			if !m.adopt(sess, startGen) {
				// Teardown raced the dial; the session has no owner.
				_ = sess.Close(context.Background())
				lastErr = fmt.Errorf("connection superseded during setup: %w", core.ErrNotConnected)
				break
			}
			m.logger.Debug("connected", "database", m.cfg.Database, "attempt", attempt)
			return nil
		}
		lastErr = err
		m.logger.Warn("dial failed", "attempt", attempt, "max_retries", m.cfg.MaxRetries, "error", err)

		if attempt == m.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(m.cfg.RetryDelay):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
	}

	m.mu.Lock()
	if m.gen == startGen {
		m.state = Disconnected
		m.done = true
		m.setupErr = lastErr
	}
	m.mu.Unlock()
	m.emit(Event{Type: EventError, Err: lastErr})
	return lastErr
}

// adopt records a freshly dialed session and broadcasts readiness.
// Returns false if the manager was torn down while the dial was in flight.
func (m *Manager) adopt(sess core.Session, startGen uint64) bool {
	m.mu.Lock()
	if m.gen != startGen {
		m.mu.Unlock()
		return false
	}
	m.sess = sess
	m.state = Connected
	m.done = true
	m.setupErr = nil
	m.gen++
	gen := m.gen
	close(m.ready)
	m.mu.Unlock()

	m.emit(Event{Type: EventConnected})
	go m.watch(sess, gen)
	return true
}

// watch waits on the transport-close signal of the current session and
// drives the state back to Disconnected when it fires. The session handle
// is kept so callers already holding it are not blocked retroactively;
// only Teardown clears it.
func (m *Manager) watch(sess core.Session, gen uint64) {
	err, ok := <-sess.Closed()

	m.mu.Lock()
	if m.gen != gen {
		// A teardown or reconnect superseded this session.
		m.mu.Unlock()
		return
	}
	m.state = Disconnected
	m.ready = make(chan struct{})
	m.mu.Unlock()

	if ok && err != nil {
		m.logger.Warn("transport error", "error", err)
		m.emit(Event{Type: EventError, Err: err})
	}
	m.logger.Debug("transport closed")
	m.emit(Event{Type: EventDisconnected})
}

// EnsureReady returns the live session, waiting for the connection to be
// established if necessary. If a session handle already exists it is
// returned immediately, even when the manager currently believes itself
// disconnected. The wait is bounded by MaxRetries * RetryDelay and is
// event-driven, never a busy poll.
func (m *Manager) EnsureReady(ctx context.Context) (core.Session, error) {
	m.mu.Lock()
	if m.sess != nil {
		sess := m.sess
		m.mu.Unlock()
		return sess, nil
	}
	ready := m.ready
	m.mu.Unlock()

	wait := time.Duration(m.cfg.MaxRetries) * m.cfg.RetryDelay
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ready:
		m.mu.Lock()
		sess := m.sess
		m.mu.Unlock()
		if sess == nil {
			return nil, core.ErrNotConnected
		}
		return sess, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: not ready after %s", core.ErrNotConnected, wait)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SessionOrFail returns the session only if the state is Connected;
// otherwise it fails immediately without waiting. For callers that must
// not block.
func (m *Manager) SessionOrFail() (core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected || m.sess == nil {
		return nil, core.ErrNotConnected
	}
	return m.sess, nil
}

// IsReady reports whether the connection is currently established.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connected
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Teardown closes the transport if open and resets the manager so a
// future Setup starts a fresh attempt.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	sess := m.sess
	m.sess = nil
	m.state = Disconnected
	m.done = false
	m.setupErr = nil
	m.gen++
	m.ready = make(chan struct{})
	m.mu.Unlock()

	m.sf.Forget("setup")

	var err error
	if sess != nil {
		err = sess.Close(ctx)
	}
	m.emit(Event{Type: EventDisconnected})
	return err
}

// Subscribe returns a buffered channel of lifecycle events. Slow
// consumers miss events rather than blocking the manager.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) emit(e Event) {
	e.Timestamp = time.Now().UnixMilli()
	m.mu.Lock()
	subs := slices.Clone(m.subs)
	m.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}
