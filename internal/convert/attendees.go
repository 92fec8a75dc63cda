package convert

import (
	"strings"

	"github.com/emersion/go-ical"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
	"gitea.jw6.us/james/calconv/internal/store"
)

// collectAttendee parses one ATTENDEE property into the incoming set. The
// merge against the stored set happens once the whole component has been
// walked, because the merge rule depends on whether any attendee property
// appeared at all.
func (cv *conversion) collectAttendee(prop *ical.Prop) error {
	cv.table.MarkPresent(change.PropAttendee)
	cv.sawAttendee = true

	if cv.c.cb.Conformance() == store.ConformanceStrict && cv.effectiveMethod() == MethodPublish {
		return newErrorf(CodeAttendeesInStrictPublish,
			"uid %s: ATTENDEE not allowed on a published component", cv.uid)
	}

	att := parseAttendee(prop)
	if att.Address == "" {
		return nil
	}
	cv.incomingAtts = append(cv.incomingAtts, att)
	return nil
}

func parseAttendee(prop *ical.Prop) *domain.Attendee {
	return &domain.Attendee{
		Address:             strings.TrimSpace(prop.Value),
		CommonName:          prop.Params.Get(ical.ParamCommonName),
		Role:                strings.ToUpper(prop.Params.Get(ical.ParamRole)),
		ParticipationStatus: strings.ToUpper(prop.Params.Get(ical.ParamParticipationStatus)),
		UserType:            strings.ToUpper(prop.Params.Get(ical.ParamCalendarUserType)),
		RSVP:                strings.EqualFold(prop.Params.Get(ical.ParamRSVP), "TRUE"),
		DelegatedFrom:       prop.Params.Get(ical.ParamDelegatedFrom),
		DelegatedTo:         prop.Params.Get(ical.ParamDelegatedTo),
		Member:              prop.Params.Get(ical.ParamMember),
		SentBy:              prop.Params.Get(ical.ParamSentBy),
		Dir:                 prop.Params.Get(ical.ParamDir),
		Language:            prop.Params.Get(ical.ParamLanguage),
	}
}

// attendeeProp is the inverse of parseAttendee.
func attendeeProp(att *domain.Attendee) *ical.Prop {
	p := ical.NewProp("ATTENDEE")
	p.Value = att.Address

	set := func(name, val string) {
		if val != "" {
			p.Params.Set(name, val)
		}
	}
	set(ical.ParamCommonName, att.CommonName)
	set(ical.ParamRole, att.Role)
	set(ical.ParamParticipationStatus, att.ParticipationStatus)
	set(ical.ParamCalendarUserType, att.UserType)
	if att.RSVP {
		p.Params.Set(ical.ParamRSVP, "TRUE")
	}
	set(ical.ParamDelegatedFrom, att.DelegatedFrom)
	set(ical.ParamDelegatedTo, att.DelegatedTo)
	set(ical.ParamMember, att.Member)
	set(ical.ParamSentBy, att.SentBy)
	set(ical.ParamDir, att.Dir)
	set(ical.ParamLanguage, att.Language)
	return p
}

func (cv *conversion) mergeOrganizer(prop *ical.Prop) error {
	cv.table.MarkPresent(change.PropOrganizer)
	if cv.typ == domain.TypePoll {
		// Polls carry their owner as a structured participant.
		return newErrorf(CodeOrganizerOnPoll, "uid %s: ORGANIZER not allowed on a poll", cv.uid)
	}

	org := &domain.Organizer{
		Address:    strings.TrimSpace(prop.Value),
		CommonName: prop.Params.Get(ical.ParamCommonName),
		SentBy:     prop.Params.Get(ical.ParamSentBy),
		Dir:        prop.Params.Get(ical.ParamDir),
		Language:   prop.Params.Get(ical.ParamLanguage),
	}
	if org.Address == "" {
		return nil
	}
	if !org.Equal(cv.target.Organizer()) {
		cv.target.SetOrganizer(org)
		cv.table.MarkChanged(change.PropOrganizer)
	}
	return nil
}

// effectiveMethod resolves the iTIP method in play: the batch-level method
// wins, else the component's own METHOD property.
func (cv *conversion) effectiveMethod() string {
	if cv.batch.Method != "" {
		return strings.ToUpper(cv.batch.Method)
	}
	if prop := cv.comp.Props.Get("METHOD"); prop != nil {
		return strings.ToUpper(strings.TrimSpace(prop.Value))
	}
	return ""
}
