// Package redis appends registry events to a Redis stream.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/plugin"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "mintage:events"

// Compile-time interface checks.
var (
	_ plugin.Plugin  = (*Publisher)(nil)
	_ plugin.OnEvent = (*Publisher)(nil)
)

// Streamer is the subset of redis.Cmdable the publisher needs.
type Streamer interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Publisher appends each event as one stream entry.
type Publisher struct {
	client Streamer
	stream string
	maxLen int64
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithStream overrides DefaultStream.
func WithStream(stream string) Option {
	return func(p *Publisher) { p.stream = stream }
}

// WithMaxLen caps the stream length approximately. Zero keeps every entry.
func WithMaxLen(n int64) Option {
	return func(p *Publisher) { p.maxLen = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New returns a Publisher writing through client.
func New(client Streamer, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		stream: DefaultStream,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewClient parses a redis:// URL and checks the connection.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "redis-publisher" }

// OnEvent implements plugin.OnEvent.
func (p *Publisher) OnEvent(ctx context.Context, e *event.Event) error {
	payload, err := e.JSON()
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", e.Kind, err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":    e.ID.String(),
			"event":       string(e.Kind),
			"key":         e.Key(),
			"occurred_at": strconv.FormatInt(e.OccurredAt.UnixNano(), 10),
			"payload":     string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		p.logger.Warn("redis: xadd failed",
			"stream", p.stream,
			"event", string(e.Kind),
			"error", err,
		)
		return fmt.Errorf("redis: xadd %s: %w", e.Kind, err)
	}
	return nil
}
