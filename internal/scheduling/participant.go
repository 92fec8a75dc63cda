package scheduling

import (
	"strings"

	"gitea.jw6.us/james/calconv/internal/domain"
)

// Participant roles as they appear on structured participant records.
const (
	RoleOwner    = "OWNER"
	RoleAttendee = "ATTENDEE"
	RoleChair    = "CHAIR"
	RoleVoter    = "VOTER"
)

// Kind tags which representations back a unified participant.
type Kind int

const (
	KindAttendee Kind = iota
	KindStructured
	KindBoth
)

// Structured is the richer participant record recovered from (and written
// back to) the entity's participant x-properties; it mirrors the
// PARTICIPANT sub-component.
type Structured struct {
	Address             string
	Name                string
	ParticipationStatus string
	Roles               []string
	UserType            string
	Language            string
	ExpectReply         bool
}

func (s *Structured) hasRole(role string) bool {
	for _, r := range s.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Participant is the unified view over the flat attendee record and the
// structured participant record for one calendar address. Every accessor
// is a match over which representations are present, so the "prefer
// attendee, else structured" rule is enforced once, here.
type Participant struct {
	att *domain.Attendee
	str *Structured
}

func (p *Participant) Kind() Kind {
	switch {
	case p.att != nil && p.str != nil:
		return KindBoth
	case p.att != nil:
		return KindAttendee
	default:
		return KindStructured
	}
}

// FlatAttendee returns the legacy record, or nil.
func (p *Participant) FlatAttendee() *domain.Attendee { return p.att }

// StructuredRecord returns the structured record, or nil.
func (p *Participant) StructuredRecord() *Structured { return p.str }

func (p *Participant) Address() string {
	switch p.Kind() {
	case KindAttendee, KindBoth:
		return p.att.Address
	default:
		return p.str.Address
	}
}

func (p *Participant) Name() string {
	switch p.Kind() {
	case KindBoth:
		if p.att.CommonName != "" {
			return p.att.CommonName
		}
		return p.str.Name
	case KindAttendee:
		return p.att.CommonName
	default:
		return p.str.Name
	}
}

func (p *Participant) ParticipationStatus() string {
	switch p.Kind() {
	case KindBoth:
		if p.att.ParticipationStatus != "" {
			return p.att.ParticipationStatus
		}
		return p.str.ParticipationStatus
	case KindAttendee:
		return p.att.ParticipationStatus
	default:
		return p.str.ParticipationStatus
	}
}

// SetParticipationStatus writes through to every representation present.
func (p *Participant) SetParticipationStatus(s string) {
	if p.att != nil {
		p.att.ParticipationStatus = s
	}
	if p.str != nil {
		p.str.ParticipationStatus = s
	}
}

// HasRole checks the structured roles first, then maps the flat attendee
// role: a CHAIR attendee is a chair, any other non-NON-PARTICIPANT
// attendee counts as role ATTENDEE.
func (p *Participant) HasRole(role string) bool {
	if p.str != nil && p.str.hasRole(role) {
		return true
	}
	if p.att == nil {
		return false
	}
	switch strings.ToUpper(role) {
	case RoleChair:
		return strings.EqualFold(p.att.Role, "CHAIR")
	case RoleAttendee:
		return !strings.EqualFold(p.att.Role, "NON-PARTICIPANT")
	}
	return false
}

// IsRecipient reports whether this participant must receive iTIP messages.
func (p *Participant) IsRecipient() bool {
	return p.HasRole(RoleAttendee) || p.HasRole(RoleChair) || p.HasRole(RoleVoter)
}

// normalizeAddr is the union key: lowercased, trimmed, and without the
// mailto scheme, so the flat and structured forms of one address meet in
// the same participant.
func normalizeAddr(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	return strings.TrimPrefix(addr, "mailto:")
}
