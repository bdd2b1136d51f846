package conn_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/silt/pkg/conn"
	"github.com/aretw0/silt/pkg/core"
)

type fakeSession struct {
	closed chan error
	once   sync.Once
}

func newFakeSession() *fakeSession {
	return &fakeSession{closed: make(chan error, 1)}
}

func (s *fakeSession) Collection(name string) core.Collection { return nil }

func (s *fakeSession) Close(ctx context.Context) error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSession) Closed() <-chan error { return s.closed }

func (s *fakeSession) fail(err error) {
	s.once.Do(func() {
		s.closed <- err
		close(s.closed)
	})
}

// fakeDialer fails the first `failures` dials, then succeeds.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	delay    time.Duration
	dials    int
	last     *fakeSession
}

func (d *fakeDialer) Dial(ctx context.Context, database string) (core.Session, error) {
	d.mu.Lock()
	d.dials++
	n := d.dials
	d.mu.Unlock()

	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if n <= d.failures {
		return nil, errors.New("dial refused")
	}
	sess := newFakeSession()
	d.mu.Lock()
	d.last = sess
	d.mu.Unlock()
	return sess, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func newManager(d *fakeDialer, maxRetries int, retryDelay time.Duration) *conn.Manager {
	return conn.NewManager(conn.Config{
		Dialer:     d,
		Database:   "testdb",
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
	})
}

func TestSetupSucceedsFirstAttempt(t *testing.T) {
	d := &fakeDialer{}
	m := newManager(d, 3, 10*time.Millisecond)

	require.NoError(t, m.Setup(context.Background()))
	assert.True(t, m.IsReady())
	assert.Equal(t, conn.Connected, m.State())
	assert.Equal(t, 1, d.dialCount())
}

func TestSetupRetriesThenSucceeds(t *testing.T) {
	d := &fakeDialer{failures: 2}
	m := newManager(d, 5, 5*time.Millisecond)

	require.NoError(t, m.Setup(context.Background()))
	assert.True(t, m.IsReady())
	assert.Equal(t, 3, d.dialCount())
}

func TestSetupExhaustsRetries(t *testing.T) {
	d := &fakeDialer{failures: 100}
	m := newManager(d, 2, time.Millisecond)

	events := m.Subscribe()
	err := m.Setup(context.Background())
	require.Error(t, err)
	assert.False(t, m.IsReady())
	assert.Equal(t, 2, d.dialCount())

	// Fatal outcome is cached: a second Setup reports the same error
	// without dialing again.
	err2 := m.Setup(context.Background())
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
	assert.Equal(t, 2, d.dialCount())

	select {
	case e := <-events:
		assert.Equal(t, conn.EventError, e.Type)
		assert.Error(t, e.Err)
	case <-time.After(time.Second):
		t.Fatal("no error event emitted")
	}
}

func TestSetupCallsCoalesce(t *testing.T) {
	d := &fakeDialer{delay: 30 * time.Millisecond}
	m := newManager(d, 3, 10*time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Setup(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, d.dialCount(), "concurrent setups must share one attempt")
}

func TestEnsureReadyBeforeSetup(t *testing.T) {
	d := &fakeDialer{failures: 1}
	m := newManager(d, 20, 10*time.Millisecond)

	type result struct {
		sess core.Session
		err  error
	}
	got := make(chan result, 1)
	go func() {
		sess, err := m.EnsureReady(context.Background())
		got <- result{sess, err}
	}()

	// Give the waiter time to park before setup begins.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Setup(context.Background()))

	select {
	case r := <-got:
		require.NoError(t, r.err)
		require.NotNil(t, r.sess)
	case <-time.After(time.Second):
		t.Fatal("EnsureReady did not resolve off the connected signal")
	}
}

func TestEnsureReadyTimesOut(t *testing.T) {
	d := &fakeDialer{}
	m := newManager(d, 2, 10*time.Millisecond)

	// Setup never called: the bounded wait (MaxRetries*RetryDelay) must
	// elapse, then fail with the not-connected error.
	start := time.Now()
	_, err := m.EnsureReady(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotConnected)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestEnsureReadyReturnsExistingHandleWhenDisconnected(t *testing.T) {
	d := &fakeDialer{}
	m := newManager(d, 3, 5*time.Millisecond)
	require.NoError(t, m.Setup(context.Background()))

	events := m.Subscribe()
	d.last.fail(errors.New("connection reset"))

	// Wait for the manager to notice the transport error.
	var seen []conn.EventType
	deadline := time.After(time.Second)
	for len(seen) < 2 {
		select {
		case e := <-events:
			seen = append(seen, e.Type)
		case <-deadline:
			t.Fatalf("lifecycle events not emitted, saw %v", seen)
		}
	}
	assert.Equal(t, []conn.EventType{conn.EventError, conn.EventDisconnected}, seen)
	assert.False(t, m.IsReady())

	// Callers in flight keep working: the stale handle is still served.
	sess, err := m.EnsureReady(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sess)

	// But the non-blocking accessor refuses.
	_, err = m.SessionOrFail()
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestSessionOrFail(t *testing.T) {
	d := &fakeDialer{}
	m := newManager(d, 3, 5*time.Millisecond)

	_, err := m.SessionOrFail()
	assert.ErrorIs(t, err, core.ErrNotConnected)

	require.NoError(t, m.Setup(context.Background()))
	sess, err := m.SessionOrFail()
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestTeardownResetsForFreshSetup(t *testing.T) {
	d := &fakeDialer{}
	m := newManager(d, 3, 5*time.Millisecond)

	require.NoError(t, m.Setup(context.Background()))
	require.NoError(t, m.Teardown(context.Background()))

	assert.False(t, m.IsReady())
	assert.Equal(t, conn.Disconnected, m.State())
	_, err := m.SessionOrFail()
	assert.ErrorIs(t, err, core.ErrNotConnected)

	// A fresh setup dials again instead of returning the stale outcome.
	require.NoError(t, m.Setup(context.Background()))
	assert.True(t, m.IsReady())
	assert.Equal(t, 2, d.dialCount())
}

func TestConnectedEventEmitted(t *testing.T) {
	d := &fakeDialer{}
	m := newManager(d, 3, 5*time.Millisecond)

	events := m.Subscribe()
	require.NoError(t, m.Setup(context.Background()))

	select {
	case e := <-events:
		assert.Equal(t, conn.EventConnected, e.Type)
		assert.NotZero(t, e.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("no connected event emitted")
	}
}

func TestConcurrentEnsureReadyShareOneSignal(t *testing.T) {
	d := &fakeDialer{failures: 1, delay: 5 * time.Millisecond}
	m := newManager(d, 20, 10*time.Millisecond)

	const waiters = 10
	var wg sync.WaitGroup
	errs := make([]error, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.EnsureReady(context.Background())
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Setup(context.Background()))
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "waiter %d", i)
	}
	// Readers never trigger their own dials.
	assert.Equal(t, 2, d.dialCount())
}
