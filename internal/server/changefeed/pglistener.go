package changefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/geodash/internal/common"
	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// listenConn is the part of *pgx.Conn used by PGListener.
type listenConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// PGListener forwards NOTIFY messages raised by the users table trigger
// into a Broker. It holds one dedicated connection outside the pool.
type PGListener struct {
	dsn     string
	channel string
	broker  *Broker
	logger  logging.Logger
	backoff time.Duration
	connect func(ctx context.Context, dsn string) (listenConn, error)
}

func NewPGListener(dsn string, b *Broker, l logging.Logger) *PGListener {
	return &PGListener{
		dsn:     dsn,
		channel: common.UsersChangeChannel,
		broker:  b,
		logger:  l.With("module", "pg_listener"),
		backoff: 2 * time.Second,
		connect: func(ctx context.Context, dsn string) (listenConn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}
}

// Run listens until ctx is cancelled, reconnecting after failures.
func (p *PGListener) Run(ctx context.Context) error {
	for {
		err := p.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}

		p.logger.Warn(ctx, "change feed interrupted", "error", err, "retry_in", p.backoff.String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.backoff):
		}
	}
}

func (p *PGListener) listen(ctx context.Context) error {
	conn, err := p.connect(ctx, p.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{p.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	p.logger.Info(ctx, "Listening for changes", "channel", p.channel)
	_ = p.broker.Publish(ctx, Event{Op: OpResync})

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev := decodeEvent(n.Payload)
		p.logger.Debug(ctx, "change notification", "op", ev.Op, "id", ev.ID)
		_ = p.broker.Publish(ctx, ev)
	}
}
