package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallworks/internal/persona"
	"stallworks/internal/platform/logger"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(logger.New())
	var a, b atomic.Int32

	bus.Subscribe(func(ctx context.Context, e Event) error {
		a.Add(1)
		return nil
	})
	bus.Subscribe(func(ctx context.Context, e Event) error {
		b.Add(1)
		return nil
	})

	err := bus.Publish(context.Background(), StallRentPaid{StallID: uuid.New()})
	require.NoError(t, err)
	bus.Drain()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

func TestBus_ZeroSubscribers(t *testing.T) {
	bus := NewBus(logger.New())
	err := bus.Publish(context.Background(), StallSuspended{StallID: uuid.New()})
	require.NoError(t, err)
	bus.Drain()
}

// Subscriber failures and panics must never surface to the publisher.
func TestBus_SubscriberFaultsIsolated(t *testing.T) {
	bus := NewBus(logger.New())
	var delivered atomic.Int32

	bus.Subscribe(func(ctx context.Context, e Event) error {
		return errors.New("subscriber broke")
	})
	bus.Subscribe(func(ctx context.Context, e Event) error {
		panic("subscriber panicked")
	})
	bus.Subscribe(func(ctx context.Context, e Event) error {
		delivered.Add(1)
		return nil
	})

	err := bus.Publish(context.Background(), StallMemberAdded{
		StallID: uuid.New(),
		Member:  persona.Character(uuid.New()),
	})
	require.NoError(t, err)
	bus.Drain()

	assert.Equal(t, int32(1), delivered.Load(), "healthy subscriber still receives the event")
}

func TestBus_CancelledContext(t *testing.T) {
	bus := NewBus(logger.New())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, StallClaimed{StallID: uuid.New()})
	assert.Error(t, err)
}
