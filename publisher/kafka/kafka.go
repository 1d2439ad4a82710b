// Package kafka publishes registry events to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/xraph/mintage/event"
	"github.com/xraph/mintage/plugin"
)

// DefaultTopic receives events when no topic is configured.
const DefaultTopic = "mintage.events"

// Compile-time interface checks.
var (
	_ plugin.Plugin     = (*Publisher)(nil)
	_ plugin.OnEvent    = (*Publisher)(nil)
	_ plugin.OnShutdown = (*Publisher)(nil)
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Flush(ctx context.Context) error
}

// Publisher writes every event as one record keyed by its first token id,
// so all events of a token land on the same partition.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithTopic overrides DefaultTopic.
func WithTopic(topic string) Option {
	return func(p *Publisher) { p.topic = topic }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// New returns a Publisher producing through client.
func New(client Producer, opts ...Option) *Publisher {
	p := &Publisher{
		producer: client,
		topic:    DefaultTopic,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewClient dials the seed brokers.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	opts = append([]kgo.Opt{kgo.SeedBrokers(brokers...)}, opts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}
	return client, nil
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-publisher" }

// OnEvent implements plugin.OnEvent.
func (p *Publisher) OnEvent(ctx context.Context, e *event.Event) error {
	value, err := e.JSON()
	if err != nil {
		return fmt.Errorf("kafka: encode %s: %w", e.Kind, err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.Key()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_id", Value: []byte(e.ID.String())},
			{Key: "event", Value: []byte(e.Kind)},
		},
		Timestamp: e.OccurredAt,
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.logger.Warn("kafka: produce failed",
			"topic", p.topic,
			"event", string(e.Kind),
			"key", e.Key(),
			"error", err,
		)
		return fmt.Errorf("kafka: produce %s: %w", e.Kind, err)
	}
	return nil
}

// OnShutdown flushes buffered records.
func (p *Publisher) OnShutdown(ctx context.Context) error {
	return p.producer.Flush(ctx)
}
