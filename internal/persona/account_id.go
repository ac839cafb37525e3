package persona

import "github.com/google/uuid"

// accountNamespace seeds the deterministic account id derivation. Changing it
// would orphan every provisioned account, so it is fixed forever.
var accountNamespace = uuid.MustParse("8f6f3f9e-1d2b-4c53-9a77-5f10c1b2a4d1")

// AccountID derives the ledger account id for a persona at a coinhouse.
//
// The id is a name-based uuid over (persona, coinhouse tag), so repeated
// provisioning for the same pair is idempotent: concurrent first-deposits
// target the same account row and collide safely under upsert semantics.
func AccountID(p ID, coinhouseTag string) uuid.UUID {
	return uuid.NewSHA1(accountNamespace, []byte(p.String()+"|"+coinhouseTag))
}
