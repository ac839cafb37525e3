// Package kafkarelay bridges the in-process event bus onto a kafka topic so
// external consumers (web ledger views, analytics) see the same domain events
// the engine reacts to internally.
package kafkarelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"stallworks/internal/events"
)

// Producer is the slice of *kgo.Client the relay needs; tests substitute a
// recording fake.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// envelope is the wire shape of one relayed event.
type envelope struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Relay is an event-bus subscriber that produces every event to one topic.
// Delivery is fire-and-forget from the bus's point of view: a broker outage
// loses relay copies, never engine state.
type Relay struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	now      func() time.Time
}

func New(producer Producer, topic string, logger *slog.Logger) *Relay {
	return &Relay{
		producer: producer,
		topic:    topic,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewClient builds the kgo client the way the relay expects it configured.
func NewClient(brokers []string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates the relay topic if it does not exist yet. Safe to call
// on every startup.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && res.Err != kerr.TopicAlreadyExists {
			return fmt.Errorf("create topic %s: %w", topic, res.Err)
		}
	}
	return nil
}

// Handle is the bus subscriber. Events scoped to a stall are keyed by the
// stall id so per-stall ordering survives partitioning.
func (r *Relay) Handle(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(envelope{
		Kind:       e.Kind(),
		OccurredAt: r.now(),
		Payload:    e,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.Kind(), err)
	}

	rec := &kgo.Record{Topic: r.topic, Value: body}
	if se, ok := e.(events.StallEvent); ok {
		rec.Key = []byte(se.Stall().String())
	}

	r.producer.Produce(ctx, rec, func(rec *kgo.Record, err error) {
		if err != nil {
			r.logger.Error("event relay produce failed", "kind", e.Kind(), "error", err)
		}
	})
	return nil
}
