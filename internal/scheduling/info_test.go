package scheduling

import (
	"testing"

	"gitea.jw6.us/james/calconv/internal/domain"
)

func infoEntity() *domain.Entity {
	return &domain.Entity{
		Type: domain.TypeEvent,
		UID:  "sched-1",
		Attendees: []*domain.Attendee{
			{Address: "mailto:flat@example.com", CommonName: "Flat Only", ParticipationStatus: "ACCEPTED"},
			{Address: "mailto:both@example.com", ParticipationStatus: "TENTATIVE"},
		},
		XProps: []domain.XProp{
			{
				Name:   domain.XPropParticipant,
				Value:  "mailto:both@example.com",
				Params: map[string]string{"CN": "Both Forms", "ROLES": "ATTENDEE"},
			},
			{
				Name:   domain.XPropParticipant,
				Value:  "mailto:structured@example.com",
				Params: map[string]string{"ROLES": "VOTER", "PARTSTAT": "NEEDS-ACTION"},
			},
		},
	}
}

func TestNewInfoUnionByAddress(t *testing.T) {
	si := NewInfo(domain.Ref(infoEntity()))

	parts := si.Participants()
	if len(parts) != 3 {
		t.Fatalf("got %d participants, want 3", len(parts))
	}

	both := si.Participant("mailto:both@example.com")
	if both == nil {
		t.Fatal("missing unified participant")
	}
	if both.Kind() != KindBoth {
		t.Errorf("Kind() = %v, want KindBoth", both.Kind())
	}
	// Flat record wins for fields it carries.
	if got := both.ParticipationStatus(); got != "TENTATIVE" {
		t.Errorf("ParticipationStatus() = %q, want flat TENTATIVE", got)
	}
	// Structured fills in what the flat record lacks.
	if got := both.Name(); got != "Both Forms" {
		t.Errorf("Name() = %q, want structured fallback", got)
	}
}

func TestParticipantAddressCaseInsensitive(t *testing.T) {
	si := NewInfo(domain.Ref(infoEntity()))
	if si.Participant("MAILTO:FLAT@EXAMPLE.COM") == nil {
		t.Error("address lookup must be case-insensitive")
	}
}

func TestParticipantAddressSchemeInsensitive(t *testing.T) {
	e := &domain.Entity{
		Type: domain.TypeEvent,
		UID:  "sched-2",
		Attendees: []*domain.Attendee{
			{Address: "mailto:carol@example.com", ParticipationStatus: "ACCEPTED"},
		},
		XProps: []domain.XProp{
			{
				Name:   domain.XPropParticipant,
				Value:  "carol@example.com",
				Params: map[string]string{"ROLES": "ATTENDEE"},
			},
		},
	}
	si := NewInfo(domain.Ref(e))

	// The bare and mailto forms of one address are the same participant.
	if got := len(si.Participants()); got != 1 {
		t.Fatalf("got %d participants, want 1", got)
	}
	p := si.Participant("carol@example.com")
	if p == nil || p.Kind() != KindBoth {
		t.Fatalf("participant = %+v", p)
	}
	if si.Participant("mailto:carol@example.com") != p {
		t.Error("mailto lookup resolved a different participant")
	}
}

func TestSetParticipationStatusWritesThrough(t *testing.T) {
	si := NewInfo(domain.Ref(infoEntity()))
	both := si.Participant("mailto:both@example.com")

	both.SetParticipationStatus("DECLINED")
	if both.FlatAttendee().ParticipationStatus != "DECLINED" {
		t.Error("flat record not updated")
	}
	if both.StructuredRecord().ParticipationStatus != "DECLINED" {
		t.Error("structured record not updated")
	}
}

func TestRecipientParticipants(t *testing.T) {
	si := NewInfo(domain.Ref(infoEntity()))
	recipients := si.RecipientParticipants()
	// All three: two flat attendees (role ATTENDEE by default) plus the
	// structured voter.
	if len(recipients) != 3 {
		t.Errorf("got %d recipients, want 3", len(recipients))
	}
}

func TestSchedulingOwnerPrefersOrganizer(t *testing.T) {
	e := infoEntity()
	e.Organizer = &domain.Organizer{Address: "mailto:boss@example.com"}
	si := NewInfo(domain.Ref(e))

	owner := si.SchedulingOwner()
	if owner == nil || !owner.IsOrganizer() {
		t.Fatal("expected organizer-backed owner")
	}
	if owner.Address() != "mailto:boss@example.com" {
		t.Errorf("owner address = %q", owner.Address())
	}
}

func TestSchedulingOwnerFallsBackToOwnerRole(t *testing.T) {
	e := infoEntity()
	e.XProps = append(e.XProps, domain.XProp{
		Name:   domain.XPropParticipant,
		Value:  "mailto:chair@example.com",
		Params: map[string]string{"ROLES": "OWNER"},
	})
	si := NewInfo(domain.Ref(e))

	owner := si.SchedulingOwner()
	if owner == nil || owner.IsOrganizer() {
		t.Fatal("expected participant-backed owner")
	}
	if owner.Address() != "mailto:chair@example.com" {
		t.Errorf("owner address = %q", owner.Address())
	}
}

func TestOnSaveRoundTripsStructured(t *testing.T) {
	e := infoEntity()
	ref := domain.Ref(e)
	si := NewInfo(ref)

	p := si.MakeParticipant("mailto:new@example.com")
	p.StructuredRecord().Roles = []string{RoleVoter}
	p.StructuredRecord().ParticipationStatus = "NEEDS-ACTION"
	si.OnSave()

	reread := NewInfo(ref)
	got := reread.Participant("mailto:new@example.com")
	if got == nil || got.StructuredRecord() == nil {
		t.Fatal("structured participant lost in round trip")
	}
	if !got.HasRole(RoleVoter) {
		t.Error("voter role lost in round trip")
	}
}

func TestOnSaveNoopWhenClean(t *testing.T) {
	e := infoEntity()
	ref := domain.Ref(e)
	before := len(e.XProps)

	si := NewInfo(ref)
	si.OnSave()

	if len(e.XProps) != before {
		t.Errorf("clean OnSave rewrote the extension bag: %d -> %d xprops", before, len(e.XProps))
	}
}

func TestRemoveParticipantDropsBothForms(t *testing.T) {
	e := infoEntity()
	ref := domain.Ref(e)
	si := NewInfo(ref)

	si.RemoveParticipant("mailto:both@example.com")
	si.OnSave()

	for _, att := range e.Attendees {
		if att.Address == "mailto:both@example.com" {
			t.Error("flat record survived removal")
		}
	}
	for _, x := range e.XProps {
		if x.Name == domain.XPropParticipant && x.Value == "mailto:both@example.com" {
			t.Error("structured record survived removal")
		}
	}
}
