// Package custody implements the reeve lockup: neutral, persona-addressable
// storage for inventory removed from a stall. Items enter on eviction or
// voluntary release and leave only when a recipient explicitly accepts them,
// so a failed hand-off can always be retried.
package custody

import (
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// areaNamespace salts the deterministic area key derivation.
var areaNamespace = uuid.MustParse("b4c1f0d7-6a2e-49ab-8c3d-2e9f71d0c5a8")

// AreaKey derives a stable key for a game area. The same area always maps to
// the same key, so custody survives restarts and area re-instancing.
func AreaKey(areaResRef string) uuid.UUID {
	return uuid.NewSHA1(areaNamespace, []byte(areaResRef))
}

// Item is one stored unit. A consigned product with Quantity 3 becomes three
// items, each releasable independently.
type Item struct {
	ID       uuid.UUID
	AreaKey  uuid.UUID
	Owner    persona.ID
	ItemData []byte
	// SourceStallID records where the item was impounded from, for audit.
	SourceStallID uuid.UUID
	StoredAt      time.Time
}
