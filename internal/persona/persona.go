// Package persona defines the stable identity values used as ledger keys.
//
// A persona is one of three kinds: a player character (keyed by its engine
// uuid), a named system process, or a coinhouse. Personas are opaque and
// pre-validated by the caller; this package only guarantees a deterministic
// String/Parse round-trip so personas can be persisted and routed.
package persona

import (
	"strings"

	"github.com/google/uuid"

	dErrors "stallworks/pkg/domain-errors"
)

// Kind discriminates the persona variants.
type Kind string

const (
	KindCharacter Kind = "character"
	KindSystem    Kind = "system"
	KindCoinhouse Kind = "coinhouse"
)

// ID is an immutable persona identity. The zero value is invalid; construct
// via Character, System, Coinhouse, or Parse.
type ID struct {
	kind Kind
	ref  string
}

// Character builds a persona for a player character.
func Character(id uuid.UUID) ID {
	return ID{kind: KindCharacter, ref: id.String()}
}

// System builds a persona for a named engine process.
func System(name string) ID {
	return ID{kind: KindSystem, ref: name}
}

// Coinhouse builds a persona for a settlement coinhouse.
func Coinhouse(tag string) ID {
	return ID{kind: KindCoinhouse, ref: tag}
}

// Parse constructs an ID from its string form "kind:ref".
//
// Errors: returns CodeInvalidInput when the value is empty, the kind is
// unknown, or a character ref is not a valid uuid.
func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, dErrors.New(dErrors.CodeInvalidInput, "persona cannot be empty")
	}
	kind, ref, ok := strings.Cut(s, ":")
	if !ok || ref == "" {
		return ID{}, dErrors.Newf(dErrors.CodeInvalidInput, "malformed persona %q", s)
	}
	switch Kind(kind) {
	case KindCharacter:
		u, err := uuid.Parse(ref)
		if err != nil || u == uuid.Nil {
			return ID{}, dErrors.Newf(dErrors.CodeInvalidInput, "malformed character persona %q", s)
		}
		return Character(u), nil
	case KindSystem:
		return System(ref), nil
	case KindCoinhouse:
		return Coinhouse(ref), nil
	default:
		return ID{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown persona kind %q", kind)
	}
}

// MustParse is Parse for compile-time-known values; it panics on bad input.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the canonical "kind:ref" form. Parse(id.String()) == id.
func (id ID) String() string {
	return string(id.kind) + ":" + id.ref
}

// MarshalText renders the canonical form so personas survive JSON encoding
// and map keys intact.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses the canonical form, rejecting anything Parse would.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Kind returns the persona variant.
func (id ID) Kind() Kind { return id.kind }

// Ref returns the raw reference (uuid string, system name, or coinhouse tag).
func (id ID) Ref() string { return id.ref }

// IsZero reports whether the ID is the invalid zero value.
func (id ID) IsZero() bool { return id.kind == "" }

// CharacterID returns the character uuid and true when the persona is a
// character persona.
func (id ID) CharacterID() (uuid.UUID, bool) {
	if id.kind != KindCharacter {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(id.ref)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}
