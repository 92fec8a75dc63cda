package scheduling

import "gitea.jw6.us/james/calconv/internal/domain"

// Owner is the scheduling owner in either of its shapes: a flat organizer
// record or a participant tagged with the owner role. At most one owner
// exists per entity.
type Owner struct {
	organizer   *domain.Organizer
	participant *Participant
}

// IsOrganizer reports whether the owner is in the legacy organizer form.
func (o *Owner) IsOrganizer() bool { return o.organizer != nil }

// OrganizerRecord returns the flat organizer, or nil for the participant
// form.
func (o *Owner) OrganizerRecord() *domain.Organizer { return o.organizer }

// OwnerParticipant returns the owner-tagged participant, or nil for the
// organizer form.
func (o *Owner) OwnerParticipant() *Participant { return o.participant }

func (o *Owner) Address() string {
	if o.organizer != nil {
		return o.organizer.Address
	}
	if o.participant != nil {
		return o.participant.Address()
	}
	return ""
}
