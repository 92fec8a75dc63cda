package domain

// Alarm is the domain record for one VALARM. Alarms are per-user data: the
// owner is the principal whose store copy carries them, and override
// pruning must not discard another user's alarms.
type Alarm struct {
	Owner  string
	Action string

	// Trigger is either a duration (the usual case) or an absolute
	// date-time when TriggerDateTime is set. TriggerRelatedEnd records
	// RELATED=END.
	Trigger           string
	TriggerDateTime   bool
	TriggerRelatedEnd bool

	Duration    string
	Repeat      int
	Description string
	Summary     string
	Attendees   []*Attendee
	Attach      string

	// Vendor snooze/dismiss state (X-MOZ-SNOOZE-TIME / X-MOZ-LASTACK).
	SnoozeUntil  string
	Acknowledged string

	XProps []XProp
}

func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}
	c := *a
	c.Attendees = make([]*Attendee, len(a.Attendees))
	for i, att := range a.Attendees {
		c.Attendees[i] = att.Clone()
	}
	c.XProps = append([]XProp(nil), a.XProps...)
	return &c
}
