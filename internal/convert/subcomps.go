package convert

import (
	"context"
	"strings"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
	"gitea.jw6.us/james/calconv/internal/scheduling"
	"gitea.jw6.us/james/calconv/internal/store"
)

// convertSubComponents walks the child components: alarms, structured
// participants, availability blocks, structured locations and poll
// candidates. Anything else is logged and skipped.
func (cv *conversion) convertSubComponents(ctx context.Context) error {
	var alarms []*domain.Alarm
	var candidates []*ical.Component

	for _, child := range cv.comp.Children {
		switch child.Name {
		case ical.CompAlarm:
			alarms = append(alarms, parseAlarm(child, cv.c.cb.CurrentPrincipal()))

		case compParticipant:
			cv.sawParticipant = true
			if str := parseStructuredParticipant(child); str.Address != "" {
				cv.incomingParts = append(cv.incomingParts, str)
			}

		case compAvailable:
			if cv.typ != domain.TypeAvailability {
				return newErrorf(CodeUnsupportedComponentType,
					"uid %s: AVAILABLE outside VAVAILABILITY", cv.uid)
			}
			if err := cv.convertAvailable(ctx, child); err != nil {
				return err
			}

		case compVLocation:
			if err := cv.mergeVLocation(ctx, child); err != nil {
				return err
			}

		case ical.CompEvent, ical.CompToDo:
			if cv.typ != domain.TypePoll {
				cv.c.log.Debug("nested component skipped",
					zap.String("uid", cv.uid), zap.String("comp", child.Name))
				continue
			}
			candidates = append(candidates, child)

		default:
			cv.c.log.Debug("unknown sub-component skipped",
				zap.String("uid", cv.uid), zap.String("comp", child.Name))
		}
	}

	routeMozProps(cv.comp, alarms)
	mergeAlarms(cv.target, cv.c.cb.CurrentPrincipal(), alarms)

	if cv.typ == domain.TypePoll {
		if err := cv.recordPollCandidates(candidates); err != nil {
			return err
		}
	}
	return nil
}

// parseStructuredParticipant maps a PARTICIPANT sub-component to the
// structured record.
func parseStructuredParticipant(comp *ical.Component) *scheduling.Structured {
	str := &scheduling.Structured{}
	if prop := comp.Props.Get("CALENDAR-ADDRESS"); prop != nil {
		str.Address = strings.TrimSpace(prop.Value)
	}
	if prop := comp.Props.Get("PARTICIPANT-TYPE"); prop != nil {
		for _, role := range strings.Split(prop.Value, ",") {
			if role = strings.ToUpper(strings.TrimSpace(role)); role != "" {
				str.Roles = append(str.Roles, role)
			}
		}
	}
	if prop := comp.Props.Get("SUMMARY"); prop != nil {
		str.Name = strings.TrimSpace(prop.Value)
		str.Language = prop.Params.Get(ical.ParamLanguage)
	}
	if prop := comp.Props.Get("PARTSTAT"); prop != nil {
		str.ParticipationStatus = strings.ToUpper(strings.TrimSpace(prop.Value))
	}
	if prop := comp.Props.Get("EXPECT-REPLY"); prop != nil {
		str.ExpectReply = strings.EqualFold(strings.TrimSpace(prop.Value), "TRUE")
	}
	return str
}

// convertAvailable converts one AVAILABLE block into a contained
// sub-entity. Blocks are matched by UID when present, else appended; the
// block runs through the same date routine and property merge as a
// top-level component.
func (cv *conversion) convertAvailable(ctx context.Context, child *ical.Component) error {
	uid := cv.uid
	if prop := child.Props.Get(ical.PropUID); prop != nil && strings.TrimSpace(prop.Value) != "" {
		uid = strings.TrimSpace(prop.Value)
	}

	var contained *domain.Entity
	for _, c := range cv.master.Contained {
		if c.UID == uid {
			contained = c
			break
		}
	}
	if contained == nil {
		contained = &domain.Entity{
			Type:    domain.TypeAvailable,
			UID:     uid,
			ColPath: cv.master.ColPath,
			Owner:   cv.master.Owner,
			EndType: domain.EndTypeNone,
		}
		cv.master.Contained = append(cv.master.Contained, contained)
	}

	sub := &conversion{
		c:      cv.c,
		batch:  cv.batch,
		comp:   child,
		typ:    domain.TypeAvailable,
		uid:    uid,
		target: domain.Ref(contained),
		master: contained,
		table:  change.NewTable(),
	}
	if err := sub.setDates(nil); err != nil {
		return err
	}
	if err := sub.mergeProps(ctx); err != nil {
		return err
	}
	if err := sub.commit(); err != nil {
		return err
	}
	contained.RecomputeRecurring()
	return nil
}

// mergeVLocation resolves a structured location block, preferring it over
// any flat LOCATION property on the same component.
func (cv *conversion) mergeVLocation(ctx context.Context, child *ical.Component) error {
	cv.table.MarkPresent(change.PropLocation)
	var name string
	if prop := child.Props.Get("NAME"); prop != nil {
		name = strings.TrimSpace(prop.Value)
	}
	if name == "" {
		if prop := child.Props.Get(ical.PropUID); prop != nil {
			name = strings.TrimSpace(prop.Value)
		}
	}
	if name == "" {
		cv.c.log.Debug("vlocation without name skipped", zap.String("uid", cv.uid))
		return nil
	}

	loc, err := cv.c.cb.FetchLocationByKey(ctx, "name", name)
	if err == store.ErrNotFound {
		loc, err = cv.resolveLocation(ctx, name, true)
	}
	if err != nil {
		return err
	}
	cv.setLocation(loc)
	return nil
}

// recordPollCandidates validates the candidate sub-components of a poll
// and records them in the extension bag. Candidates are bookkeeping for
// the voting layer; they are never materialized as entities of their own.
func (cv *conversion) recordPollCandidates(candidates []*ical.Component) error {
	if len(candidates) > maxPollCandidates {
		return newErrorf(CodeUnsupportedComponentType,
			"uid %s: %d poll candidates exceeds the limit of %d",
			cv.uid, len(candidates), maxPollCandidates)
	}

	seen := make(map[string]bool, len(candidates))
	items := make([]string, 0, len(candidates))
	xs := make([]domain.XProp, 0, len(candidates))
	for _, cand := range candidates {
		prop := cand.Props.Get(propPollItemID)
		if prop == nil || strings.TrimSpace(prop.Value) == "" {
			return newErrorf(CodeMissingPollItemID,
				"uid %s: poll candidate %s without POLL-ITEM-ID", cv.uid, cand.Name)
		}
		id := strings.TrimSpace(prop.Value)
		if seen[id] {
			return newErrorf(CodeDuplicatePollItemID,
				"uid %s: duplicate POLL-ITEM-ID %q", cv.uid, id)
		}
		seen[id] = true
		items = append(items, id)

		params := map[string]string{"COMP": cand.Name}
		if p := cand.Props.Get(ical.PropSummary); p != nil {
			params["SUMMARY"] = p.Value
		}
		if p := cand.Props.Get(ical.PropDateTimeStart); p != nil {
			params["DTSTART"] = p.Value
		}
		xs = append(xs, domain.XProp{Name: domain.XPropPollCandidate, Params: params, Value: id})
	}

	if !stringsEqual(cv.master.PollItems, items) {
		cv.table.MarkChanged(change.PropPollItemID)
	}
	cv.table.MarkPresent(change.PropPollItemID)
	cv.master.PollItems = items
	cv.master.ReplaceXProps(domain.XPropPollCandidate, xs)
	return nil
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// applyParticipants runs the deferred attendee merge once the whole
// component has been walked. A component that never mentioned attendees or
// participants leaves the stored set untouched; one that did either
// replaces the set outright (organizer copies and new entities) or, in
// attendee-merge mode, only accepts changes to the caller's own record.
func (cv *conversion) applyParticipants(ctx context.Context) error {
	if len(cv.incomingAtts) > maxAttendeesPerInstance {
		return newErrorf(CodeUnsupportedParameterValue,
			"uid %s: %d attendees exceeds the limit of %d",
			cv.uid, len(cv.incomingAtts), maxAttendeesPerInstance)
	}
	if !cv.sawAttendee && !cv.sawParticipant {
		return nil
	}

	before := cv.target.Attendees()
	si := scheduling.NewInfo(cv.target)

	if cv.isNew || !cv.mergeAttendees {
		for _, p := range si.Participants() {
			si.RemoveParticipant(p.Address())
		}
		for _, att := range cv.incomingAtts {
			si.AddAttendee(att)
		}
		for _, str := range cv.incomingParts {
			si.AddStructured(str)
		}
	} else {
		self := cv.c.cb.CaladdrFor(cv.c.cb.CurrentPrincipal())
		for _, att := range cv.incomingAtts {
			switch {
			case sameAddr(att.Address, self):
				si.AddAttendee(att)
			case si.Participant(att.Address) == nil:
				att.ParticipationStatus = "NEEDS-ACTION"
				si.AddAttendee(att)
			default:
				// Another user's record; the stored copy wins.
			}
		}
		for _, str := range cv.incomingParts {
			switch {
			case sameAddr(str.Address, self):
				si.AddStructured(str)
			case si.Participant(str.Address) == nil:
				str.ParticipationStatus = "NEEDS-ACTION"
				si.AddStructured(str)
			}
		}
	}
	si.OnSave()

	if !attendeesEqual(before, cv.target.Attendees()) {
		cv.table.MarkChanged(change.PropAttendee)
	}
	return nil
}

func sameAddr(a, b string) bool {
	trim := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.TrimPrefix(s, "mailto:")
	}
	return trim(a) == trim(b)
}

func attendeesEqual(a, b []*domain.Attendee) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
