// Package notify holds the outbound notification ports. The game layer
// implements OwnerNotifier against its chat pipe; the engine ships a slog
// fallback and a redis-backed Broadcaster for UI cache busting.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// Color hints the urgency of a notification to the presenting layer.
type Color string

const (
	ColorInfo    Color = "info"
	ColorWarning Color = "warning"
	ColorAlert   Color = "alert"
)

// OwnerNotifier delivers a message to a persona. Best-effort: callers treat
// failures as non-fatal and never retry synchronously.
type OwnerNotifier interface {
	Notify(ctx context.Context, recipient persona.ID, message string, color Color) error
}

// Broadcaster signals interested UIs that a stall's seller view is stale.
type Broadcaster interface {
	BroadcastSellerRefresh(ctx context.Context, stallID uuid.UUID) error
}

// LogNotifier writes notifications to the structured log. It is the default
// when no game-layer notifier is wired.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipient persona.ID, message string, color Color) error {
	n.logger.InfoContext(ctx, "stall notification",
		"recipient", recipient.String(),
		"color", string(color),
		"message", message,
	)
	return nil
}

// NopBroadcaster is wired when redis is not configured.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastSellerRefresh(ctx context.Context, stallID uuid.UUID) error {
	return nil
}
