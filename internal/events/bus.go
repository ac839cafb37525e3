package events

import (
	"context"
	"log/slog"
	"sync"
)

// Subscriber receives a published event. Errors are logged, never propagated
// to the publisher: a broken subscriber must not fail the command that
// published the event.
type Subscriber func(ctx context.Context, e Event) error

// Bus is the in-process event bus. Publish fans out asynchronously to every
// subscriber registered at publish time. Zero subscribers is fine.
type Bus struct {
	mu     sync.RWMutex
	subs   []Subscriber
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers a subscriber for all subsequent publishes.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

// Publish delivers the event to every subscriber on its own goroutine. The
// call returns once delivery is scheduled; it never blocks on subscribers and
// never returns their errors. Panicking subscribers are contained.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.wg.Add(1)
		go func(sub Subscriber) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event subscriber panicked", "kind", e.Kind(), "panic", r)
				}
			}()
			if err := sub(ctx, e); err != nil {
				b.logger.Error("event subscriber failed", "kind", e.Kind(), "error", err)
			}
		}(sub)
	}
	return nil
}

// Drain blocks until every in-flight delivery has finished. Tests and
// graceful shutdown use it; publishers never need to.
func (b *Bus) Drain() {
	b.wg.Wait()
}
