package convert

import (
	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
)

// Status distinguishes a normal conversion from the override-behind-master
// sentinel.
type Status int

const (
	StatusOK Status = iota

	// StatusNotFound is returned when the conversion produced or updated
	// an override whose master had to be fetched or synthesized in this
	// call: the override is reachable through the master's override set,
	// not as a top-level result. This is a sentinel, not an error.
	StatusNotFound
)

// Result is what one conversion call produced.
type Result struct {
	Status Status

	// Entity is the master involved; nil when Status is StatusNotFound.
	Entity *domain.Entity

	// Ref is the view the properties were merged into: the master
	// itself, or the override proxy.
	Ref domain.EventRef

	// New reports whether this call created the entity (or override).
	New bool

	// Changes is the per-property diff ledger for this call.
	Changes *change.Table
}

// Batch is the mutable context for one reconciliation: the target
// collection, the enclosing iTIP method if any, and the entities converted
// so far. Masters land in Entities as they are converted (or synthesized)
// so that later components in the same payload can resolve against them.
type Batch struct {
	ColPath string
	Method  string

	Entities []*domain.Entity
}

// FindEntity returns the batch master for a uid, or nil.
func (b *Batch) FindEntity(uid string) *domain.Entity {
	for _, e := range b.Entities {
		if e.UID == uid && e.RecurrenceID == "" {
			return e
		}
	}
	return nil
}
