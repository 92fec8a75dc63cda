package store

import (
	"context"

	"gitea.jw6.us/james/calconv/internal/domain"
)

// ConformanceLevel controls how hard the converter pushes back on input
// that is well-formed but semantically questionable.
type ConformanceLevel int

const (
	ConformanceStrict ConformanceLevel = iota
	ConformanceWarn
	ConformanceLenient
)

func (l ConformanceLevel) String() string {
	switch l {
	case ConformanceStrict:
		return "strict"
	case ConformanceWarn:
		return "warn"
	}
	return "lenient"
}

// ParseConformance maps a config string to a level; anything unrecognized
// is treated as warn.
func ParseConformance(s string) ConformanceLevel {
	switch s {
	case "strict":
		return ConformanceStrict
	case "lenient":
		return ConformanceLenient
	}
	return ConformanceWarn
}

// Callback is the collaborator contract the conversion engine consumes. It
// is the engine's only way to reach stored state; every method is
// synchronous and may block on the underlying query. Missing records come
// back as ErrNotFound, which the engine treats as "create"; any other
// error aborts the conversion.
type Callback interface {
	// GetEvents fetches the stored entity set for a uid within a
	// collection: the master (overrides attached) as a single-element
	// slice. More than one master for one uid surfaces as the caller's
	// MoreThanOneMatch condition.
	GetEvents(ctx context.Context, colPath, uid string) ([]*domain.Entity, error)

	FindCategory(ctx context.Context, word, language string) (*domain.Category, error)
	AddCategory(ctx context.Context, cat *domain.Category) error

	FindContact(ctx context.Context, name string) (*domain.Contact, error)
	AddContact(ctx context.Context, c *domain.Contact) error

	// Location lookup runs three ways: by the combined address string,
	// by a keyed sub-field, and by plain address.
	FetchLocationByCombined(ctx context.Context, combined string) (*domain.Location, error)
	FetchLocationByKey(ctx context.Context, name, value string) (*domain.Location, error)
	FindLocation(ctx context.Context, address string) (*domain.Location, error)
	AddLocation(ctx context.Context, loc *domain.Location) error

	// CaladdrFor normalizes a principal identity to a schedulable
	// calendar address.
	CaladdrFor(principal string) string

	CurrentPrincipal() string
	Conformance() ConformanceLevel
}
