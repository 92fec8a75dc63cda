package convert

import (
	"strconv"
	"strings"

	"github.com/emersion/go-ical"

	"gitea.jw6.us/james/calconv/internal/domain"
)

// parseAlarm converts one VALARM sub-component to the domain record. The
// alarm belongs to the current principal; conversion never touches alarms
// another user stored on the same entity.
func parseAlarm(comp *ical.Component, owner string) *domain.Alarm {
	alarm := &domain.Alarm{Owner: owner}

	for name := range comp.Props {
		for _, prop := range comp.Props.Values(name) {
			val := strings.TrimSpace(prop.Value)
			switch strings.ToUpper(prop.Name) {
			case "ACTION":
				alarm.Action = strings.ToUpper(val)
			case "TRIGGER":
				alarm.Trigger = val
				alarm.TriggerDateTime = strings.EqualFold(prop.Params.Get(ical.ParamValue), "DATE-TIME")
				alarm.TriggerRelatedEnd = strings.EqualFold(prop.Params.Get(ical.ParamRelated), "END")
			case "DURATION":
				alarm.Duration = val
			case "REPEAT":
				if n, err := strconv.Atoi(val); err == nil {
					alarm.Repeat = n
				}
			case "DESCRIPTION":
				alarm.Description = val
			case "SUMMARY":
				alarm.Summary = val
			case "ATTENDEE":
				if att := parseAttendee(&prop); att.Address != "" {
					alarm.Attendees = append(alarm.Attendees, att)
				}
			case "ATTACH":
				alarm.Attach = val
			case domain.XPropMozSnooze:
				alarm.SnoozeUntil = val
			case domain.XPropMozLastAck:
				alarm.Acknowledged = val
			default:
				if strings.HasPrefix(strings.ToUpper(prop.Name), "X-") {
					alarm.XProps = append(alarm.XProps, domain.XProp{
						Name:   strings.ToUpper(prop.Name),
						Params: flattenParams(prop.Params),
						Value:  prop.Value,
					})
				}
			}
		}
	}
	return alarm
}

// EmitAlarm renders a domain alarm back into a VALARM component, the
// inverse of parseAlarm. Snooze/dismiss state is written as the alarm's
// own vendor properties; routing them back onto a parent component is the
// caller's concern. Owner is per-user storage detail and never hits the
// wire.
func EmitAlarm(a *domain.Alarm) *ical.Component {
	comp := ical.NewComponent(ical.CompAlarm)

	addText := func(name, val string) {
		if val == "" {
			return
		}
		p := ical.NewProp(name)
		p.Value = val
		comp.Props.Add(p)
	}

	addText("ACTION", a.Action)

	if a.Trigger != "" {
		p := ical.NewProp("TRIGGER")
		p.Value = a.Trigger
		if a.TriggerDateTime {
			p.Params.Set(ical.ParamValue, "DATE-TIME")
		}
		if a.TriggerRelatedEnd {
			p.Params.Set(ical.ParamRelated, "END")
		}
		comp.Props.Add(p)
	}

	addText("DURATION", a.Duration)
	if a.Repeat != 0 {
		addText("REPEAT", strconv.Itoa(a.Repeat))
	}
	addText("DESCRIPTION", a.Description)
	addText("SUMMARY", a.Summary)
	for _, att := range a.Attendees {
		comp.Props.Add(attendeeProp(att))
	}
	addText("ATTACH", a.Attach)
	addText(domain.XPropMozSnooze, a.SnoozeUntil)
	addText(domain.XPropMozLastAck, a.Acknowledged)

	for _, x := range a.XProps {
		p := ical.NewProp(x.Name)
		p.Value = x.Value
		for name, val := range x.Params {
			p.Params.Set(name, val)
		}
		comp.Props.Add(p)
	}
	return comp
}

// routeMozProps copies the parent component's vendor snooze/dismiss state
// onto the converted alarms. Clients write these on the VEVENT, not the
// VALARM, so they arrive detached from the alarm they describe.
func routeMozProps(comp *ical.Component, alarms []*domain.Alarm) {
	if len(alarms) == 0 {
		return
	}
	for name := range comp.Props {
		upper := strings.ToUpper(name)
		for _, prop := range comp.Props.Values(name) {
			val := strings.TrimSpace(prop.Value)
			switch {
			case upper == domain.XPropMozLastAck:
				for _, a := range alarms {
					if a.Acknowledged == "" {
						a.Acknowledged = val
					}
				}
			case strings.HasPrefix(upper, domain.XPropMozSnooze):
				// X-MOZ-SNOOZE-TIME, possibly suffixed with an instance
				// timestamp on recurring entities.
				for _, a := range alarms {
					if a.SnoozeUntil == "" {
						a.SnoozeUntil = val
					}
				}
			}
		}
	}
}

// mergeAlarms replaces the current principal's alarm set, keeping every
// alarm owned by someone else. A component with no VALARM children clears
// only the caller's own alarms.
func mergeAlarms(ref domain.EventRef, owner string, incoming []*domain.Alarm) bool {
	var kept []*domain.Alarm
	var own []*domain.Alarm
	for _, a := range ref.Alarms() {
		if a.Owner == owner {
			own = append(own, a)
		} else {
			kept = append(kept, a)
		}
	}
	if alarmsEqual(own, incoming) {
		return false
	}
	ref.SetAlarms(append(kept, incoming...))
	return true
}

func alarmsEqual(a, b []*domain.Alarm) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !alarmEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func alarmEqual(a, b *domain.Alarm) bool {
	if a.Owner != b.Owner || a.Action != b.Action ||
		a.Trigger != b.Trigger || a.TriggerDateTime != b.TriggerDateTime ||
		a.TriggerRelatedEnd != b.TriggerRelatedEnd ||
		a.Duration != b.Duration || a.Repeat != b.Repeat ||
		a.Description != b.Description || a.Summary != b.Summary ||
		a.Attach != b.Attach ||
		a.SnoozeUntil != b.SnoozeUntil || a.Acknowledged != b.Acknowledged {
		return false
	}
	if len(a.Attendees) != len(b.Attendees) || len(a.XProps) != len(b.XProps) {
		return false
	}
	for i := range a.Attendees {
		if !a.Attendees[i].Equal(b.Attendees[i]) {
			return false
		}
	}
	for i := range a.XProps {
		if !a.XProps[i].Equal(b.XProps[i]) {
			return false
		}
	}
	return true
}
