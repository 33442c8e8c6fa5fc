package changefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/geodash/internal/logging"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream       = "users:changes"
	defaultStreamMaxLen = 10000
)

// streamClient is the part of *redis.Client used by RedisStream.
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XRead(ctx context.Context, a *redis.XReadArgs) *redis.XStreamSliceCmd
}

// RedisStream shares the change feed between server replicas through a
// Redis stream. Publish appends one entry per local write; Run tails the
// stream and forwards every entry, including our own, into the Broker.
type RedisStream struct {
	client  streamClient
	stream  string
	maxLen  int64
	block   time.Duration
	backoff time.Duration
	broker  *Broker
	logger  logging.Logger
}

func NewRedisStream(client streamClient, b *Broker, l logging.Logger) *RedisStream {
	return &RedisStream{
		client:  client,
		stream:  DefaultStream,
		maxLen:  defaultStreamMaxLen,
		block:   5 * time.Second,
		backoff: 2 * time.Second,
		broker:  b,
		logger:  l.With("module", "redis_stream"),
	}
}

// NewRedisClient builds a client from a redis:// URL. The read timeout has
// to outlast the blocking XREAD.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	opts.ReadTimeout = 10 * time.Second
	return redis.NewClient(opts), nil
}

func (r *RedisStream) Publish(ctx context.Context, ev Event) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]any{"op": ev.Op, "id": ev.ID},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd: %w", err)
	}
	return nil
}

// Run tails the stream until ctx is cancelled. The first read starts at "$"
// on the Redis side, so entries written before Run started are skipped
// whatever the local clock says.
func (r *RedisStream) Run(ctx context.Context) error {
	lastID := "$"

	r.logger.Info(ctx, "Tailing change stream", "stream", r.stream)

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := r.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{r.stream, lastID},
			Count:   100,
			Block:   r.block,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn(ctx, "change stream read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.backoff):
			}
			_ = r.broker.Publish(ctx, Event{Op: OpResync})
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID
				ev := Event{Op: stringValue(msg.Values["op"]), ID: stringValue(msg.Values["id"])}
				if ev.Op == "" {
					ev.Op = OpResync
				}
				_ = r.broker.Publish(ctx, ev)
			}
		}
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
