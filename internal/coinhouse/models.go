// Package coinhouse implements the settlement bank: accounts keyed by persona
// and an append-only transaction log. All balance changes in the engine go
// through the Service here; nothing else writes account rows.
package coinhouse

import (
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// engineNamespace seeds the stable engine id for a coinhouse tag.
var engineNamespace = uuid.MustParse("3c2d9a40-90bb-4a4c-84c2-0e95d3a6f0b7")

// Coinhouse is a named ledger domain, one per settlement.
type Coinhouse struct {
	Tag        string
	Settlement string
	EngineID   uuid.UUID
}

// New builds a coinhouse descriptor with its deterministic engine id.
func New(tag, settlement string) Coinhouse {
	return Coinhouse{
		Tag:        tag,
		Settlement: settlement,
		EngineID:   uuid.NewSHA1(engineNamespace, []byte(tag)),
	}
}

// Persona returns the routing identity of the coinhouse itself, used as the
// counterparty for rent collection and vault deposits.
func (c Coinhouse) Persona() persona.ID {
	return persona.Coinhouse(c.Tag)
}

// Account is one (persona, coinhouse) balance. The ID is the deterministic
// persona.AccountID derivation, so provisioning is idempotent.
type Account struct {
	ID             uuid.UUID
	Persona        persona.ID
	CoinhouseTag   string
	Balance        int64
	OpenedAt       time.Time
	LastAccessedAt time.Time
}

// Transaction is an immutable record of a balance movement in smallest
// currency units. Never mutated after creation.
type Transaction struct {
	ID         uuid.UUID
	From       persona.ID
	To         persona.ID
	Amount     int64
	Memo       string
	OccurredAt time.Time
}
