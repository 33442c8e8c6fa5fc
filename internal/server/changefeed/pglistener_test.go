package changefeed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	execs    []string
	notes    chan *pgconn.Notification
	closed   bool
	execErr  error
	waitErrs chan error
}

func newFakeConn() *fakeConn {
	return &fakeConn{notes: make(chan *pgconn.Notification, 10), waitErrs: make(chan error, 1)}
}

func (f *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case n := <-f.notes:
		return n, nil
	case err := <-f.waitErrs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeConn) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestPGListener_ForwardsNotifications(t *testing.T) {
	b := NewBroker()
	ch, unsub := b.Subscribe()
	defer unsub()

	conn := newFakeConn()
	l := NewPGListener("postgres://ignored", b, logging.Nop())
	l.connect = func(context.Context, string) (listenConn, error) { return conn, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	assert.Equal(t, OpResync, nextEvent(t, ch).Op, "a fresh LISTEN must trigger a resync")

	conn.notes <- &pgconn.Notification{Channel: "users_changes", Payload: `{"op":"delete","id":"u-1"}`}
	assert.Equal(t, Event{Op: OpDelete, ID: "u-1"}, nextEvent(t, ch))

	cancel()
	require.NoError(t, <-done)
	assert.True(t, conn.isClosed())

	conn.mu.Lock()
	assert.Equal(t, []string{`LISTEN "users_changes"`}, conn.execs)
	conn.mu.Unlock()
}

func TestPGListener_ReconnectsAfterFailure(t *testing.T) {
	b := NewBroker()
	ch, unsub := b.Subscribe()
	defer unsub()

	first, second := newFakeConn(), newFakeConn()
	first.waitErrs <- errors.New("conn reset")

	var mu sync.Mutex
	attempts := 0
	l := NewPGListener("dsn", b, logging.Nop())
	l.backoff = 10 * time.Millisecond
	l.connect = func(context.Context, string) (listenConn, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		switch attempts {
		case 1:
			return first, nil
		case 2:
			return nil, errors.New("refused")
		default:
			return second, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	nextEvent(t, ch)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 3
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, OpResync, nextEvent(t, ch).Op, "reconnect must trigger a resync")

	second.notes <- &pgconn.Notification{Payload: `{"op":"insert","id":"u-2"}`}
	assert.Equal(t, Event{Op: OpInsert, ID: "u-2"}, nextEvent(t, ch))

	assert.True(t, first.isClosed())
}
