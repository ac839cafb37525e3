package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// sellerRefreshChannel is the pub/sub channel UI processes subscribe to.
const sellerRefreshChannel = "stalls.seller_refresh"

// RedisBroadcaster publishes seller-refresh signals over redis pub/sub so
// every game process sharing the redis instance busts its cached stall view.
type RedisBroadcaster struct {
	client redis.UniversalClient
}

func NewRedisBroadcaster(client redis.UniversalClient) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

func (b *RedisBroadcaster) BroadcastSellerRefresh(ctx context.Context, stallID uuid.UUID) error {
	if err := b.client.Publish(ctx, sellerRefreshChannel, stallID.String()).Err(); err != nil {
		return fmt.Errorf("broadcast seller refresh: %w", err)
	}
	return nil
}
