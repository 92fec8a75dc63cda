package scheduling

import (
	"sort"
	"strings"

	"gitea.jw6.us/james/calconv/internal/domain"
)

// Parameter names used when round-tripping structured participants through
// the extension bag.
const (
	paramName        = "CN"
	paramPartStat    = "PARTSTAT"
	paramRoles       = "ROLES"
	paramUserType    = "CUTYPE"
	paramLanguage    = "LANGUAGE"
	paramExpectReply = "EXPECT-REPLY"
)

// Info is the scheduling view of one entity: the union, by calendar
// address, of the flat attendee records and the structured participants
// recovered from the entity's participant x-properties. Mutations mark the
// view dirty; OnSave writes the structured set back to the extension bag
// (structured participants have no dedicated storage) and is a no-op when
// nothing changed.
type Info struct {
	ref          domain.EventRef
	participants map[string]*Participant
	order        []string
	dirty        bool
}

// NewInfo builds the unified view for an entity.
func NewInfo(ref domain.EventRef) *Info {
	si := &Info{
		ref:          ref,
		participants: make(map[string]*Participant),
	}
	for _, att := range ref.Attendees() {
		si.upsert(att.Address).att = att
	}
	for _, x := range xpropsNamed(ref, domain.XPropParticipant) {
		str := decodeParticipant(x)
		if str.Address == "" {
			continue
		}
		si.upsert(str.Address).str = str
	}
	return si
}

func xpropsNamed(ref domain.EventRef, name string) []domain.XProp {
	var out []domain.XProp
	for _, x := range ref.XProps() {
		if x.Name == name {
			out = append(out, x)
		}
	}
	return out
}

func (si *Info) upsert(addr string) *Participant {
	key := normalizeAddr(addr)
	p, ok := si.participants[key]
	if !ok {
		p = &Participant{}
		si.participants[key] = p
		si.order = append(si.order, key)
	}
	return p
}

// Participants returns the unified set in a stable order.
func (si *Info) Participants() []*Participant {
	out := make([]*Participant, 0, len(si.order))
	for _, key := range si.order {
		if p, ok := si.participants[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Participant looks up by calendar address.
func (si *Info) Participant(addr string) *Participant {
	return si.participants[normalizeAddr(addr)]
}

// AddAttendee registers (or replaces) the flat record for its address.
func (si *Info) AddAttendee(att *domain.Attendee) *Participant {
	p := si.upsert(att.Address)
	p.att = att
	si.dirty = true
	return p
}

// MakeParticipant finds or creates the structured participant for an
// address.
func (si *Info) MakeParticipant(addr string) *Participant {
	p := si.upsert(addr)
	if p.str == nil {
		p.str = &Structured{Address: addr}
		si.dirty = true
	}
	return p
}

// AddStructured registers (or replaces) the structured record for its
// address.
func (si *Info) AddStructured(str *Structured) *Participant {
	p := si.upsert(str.Address)
	p.str = str
	si.dirty = true
	return p
}

// RemoveParticipant drops both representations for an address.
func (si *Info) RemoveParticipant(addr string) {
	key := normalizeAddr(addr)
	if _, ok := si.participants[key]; !ok {
		return
	}
	delete(si.participants, key)
	for i, k := range si.order {
		if k == key {
			si.order = append(si.order[:i], si.order[i+1:]...)
			break
		}
	}
	si.dirty = true
}

// RecipientParticipants returns the subset that must receive iTIP
// messages: roles attendee, chair and voter.
func (si *Info) RecipientParticipants() []*Participant {
	var out []*Participant
	for _, p := range si.Participants() {
		if p.IsRecipient() {
			out = append(out, p)
		}
	}
	return out
}

// SchedulingOwner resolves the owner: the flat organizer record when one
// exists, else the participant tagged with the owner role.
func (si *Info) SchedulingOwner() *Owner {
	if org := si.ref.Organizer(); org != nil {
		return &Owner{organizer: org}
	}
	for _, p := range si.Participants() {
		if p.str != nil && p.str.hasRole(RoleOwner) {
			return &Owner{participant: p}
		}
	}
	return nil
}

// CopySchedulingOwner installs the given owner on this entity without
// duplicating the role: an organizer is cloned wholesale; the participant
// form finds-or-creates a participant at the same address and tags it
// owner.
func (si *Info) CopySchedulingOwner(from *Owner) {
	if from == nil {
		return
	}
	if from.IsOrganizer() {
		si.ref.SetOrganizer(from.OrganizerRecord().Clone())
		si.dirty = true
		return
	}
	p := si.MakeParticipant(from.Address())
	if !p.str.hasRole(RoleOwner) {
		p.str.Roles = append(p.str.Roles, RoleOwner)
	}
	if name := from.OwnerParticipant().Name(); name != "" && p.str.Name == "" {
		p.str.Name = name
	}
	si.dirty = true
}

// MarkDirty forces a write-back on the next OnSave; used when a caller
// mutated a participant record in place.
func (si *Info) MarkDirty() { si.dirty = true }

// OnSave re-serializes the current structured-participant set into the
// extension bag and the flat records into the attendee list, replacing any
// stale entries. Gated on the dirty flag so a read-only pass leaves the
// entity untouched.
func (si *Info) OnSave() {
	if !si.dirty {
		return
	}

	var atts []*domain.Attendee
	var xs []domain.XProp
	for _, p := range si.Participants() {
		if p.att != nil {
			atts = append(atts, p.att)
		}
		if p.str != nil {
			xs = append(xs, encodeParticipant(p.str))
		}
	}
	si.ref.SetAttendees(atts)

	kept := make([]domain.XProp, 0, len(si.ref.XProps()))
	for _, x := range si.ref.XProps() {
		if x.Name != domain.XPropParticipant {
			kept = append(kept, x)
		}
	}
	si.ref.SetXProps(append(kept, xs...))
	si.dirty = false
}

func encodeParticipant(s *Structured) domain.XProp {
	params := map[string]string{}
	if s.Name != "" {
		params[paramName] = s.Name
	}
	if s.ParticipationStatus != "" {
		params[paramPartStat] = s.ParticipationStatus
	}
	if len(s.Roles) > 0 {
		roles := append([]string(nil), s.Roles...)
		sort.Strings(roles)
		params[paramRoles] = strings.Join(roles, ",")
	}
	if s.UserType != "" {
		params[paramUserType] = s.UserType
	}
	if s.Language != "" {
		params[paramLanguage] = s.Language
	}
	if s.ExpectReply {
		params[paramExpectReply] = "TRUE"
	}
	return domain.XProp{
		Name:   domain.XPropParticipant,
		Params: params,
		Value:  s.Address,
	}
}

func decodeParticipant(x domain.XProp) *Structured {
	s := &Structured{
		Address:             x.Value,
		Name:                x.Param(paramName),
		ParticipationStatus: x.Param(paramPartStat),
		UserType:            x.Param(paramUserType),
		Language:            x.Param(paramLanguage),
		ExpectReply:         strings.EqualFold(x.Param(paramExpectReply), "TRUE"),
	}
	if roles := x.Param(paramRoles); roles != "" {
		for _, r := range strings.Split(roles, ",") {
			if r = strings.TrimSpace(r); r != "" {
				s.Roles = append(s.Roles, strings.ToUpper(r))
			}
		}
	}
	return s
}
