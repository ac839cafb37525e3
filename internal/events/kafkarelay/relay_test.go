package kafkarelay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"stallworks/internal/events"
	"stallworks/internal/persona"
	"stallworks/internal/platform/logger"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.records = append(f.records, r)
	f.mu.Unlock()
	promise(r, f.err)
}

func TestRelayHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("stall events are keyed by stall id", func(t *testing.T) {
		producer := &fakeProducer{}
		relay := New(producer, "stallworks.events", logger.New())

		stallID := uuid.New()
		err := relay.Handle(ctx, events.StallRentPaid{StallID: stallID, Amount: 250, Source: "escrow"})
		require.NoError(t, err)

		require.Len(t, producer.records, 1)
		rec := producer.records[0]
		assert.Equal(t, "stallworks.events", rec.Topic)
		assert.Equal(t, stallID.String(), string(rec.Key))

		var env struct {
			Kind    string `json:"kind"`
			Payload struct {
				Amount int64 `json:"Amount"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(rec.Value, &env))
		assert.Equal(t, "stall.rent_paid", env.Kind)
		assert.Equal(t, int64(250), env.Payload.Amount)
	})

	t.Run("personas survive the envelope in canonical form", func(t *testing.T) {
		producer := &fakeProducer{}
		relay := New(producer, "stallworks.events", logger.New())

		owner := persona.Character(uuid.New())
		err := relay.Handle(ctx, events.StallClaimed{
			StallID:    uuid.New(),
			Owner:      owner,
			OwnerName:  "Elira",
			AreaResRef: "cordor_market",
		})
		require.NoError(t, err)
		require.Len(t, producer.records, 1)

		var env struct {
			Kind    string `json:"kind"`
			Payload struct {
				Owner persona.ID `json:"Owner"`
			} `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(producer.records[0].Value, &env))
		assert.Equal(t, "stall.claimed", env.Kind)
		assert.Equal(t, owner, env.Payload.Owner)
		assert.Contains(t, string(producer.records[0].Value), `"Owner":"character:`+owner.Ref()+`"`)
	})

	t.Run("account events relay without a key", func(t *testing.T) {
		producer := &fakeProducer{}
		relay := New(producer, "stallworks.events", logger.New())

		err := relay.Handle(ctx, events.AccountDeposited{
			Persona:      persona.Character(uuid.New()),
			CoinhouseTag: "cordor",
			Amount:       100,
		})
		require.NoError(t, err)
		require.Len(t, producer.records, 1)
		assert.Nil(t, producer.records[0].Key)
	})

	t.Run("produce failure is swallowed after logging", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("broker down")}
		relay := New(producer, "stallworks.events", logger.New())

		err := relay.Handle(ctx, events.StallSuspended{StallID: uuid.New()})
		assert.NoError(t, err)
	})
}
