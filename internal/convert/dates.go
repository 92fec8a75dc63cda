package convert

import (
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
	"go.uber.org/zap"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
)

// parseDateTimeProp lifts a date/date-time property into the domain form,
// keeping the raw value plus its flavor parameters.
func parseDateTimeProp(prop *ical.Prop) (*domain.DateTime, error) {
	dt := &domain.DateTime{
		Value: strings.TrimSpace(prop.Value),
		TZID:  prop.Params.Get(ical.ParamTimezoneID),
	}
	if strings.EqualFold(prop.Params.Get(ical.ParamValue), "DATE") || isDateValue(dt.Value) {
		dt.DateOnly = true
	}
	if _, err := dt.Time(); err != nil {
		return nil, fmt.Errorf("property %s: %w", prop.Name, err)
	}
	return dt, nil
}

func isDateValue(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// recurrenceIDOf extracts the RECURRENCE-ID and its optional RANGE
// qualifier. A nil DateTime means the component targets the master.
func recurrenceIDOf(comp *ical.Component) (*domain.DateTime, string, error) {
	prop := comp.Props.Get(ical.PropRecurrenceID)
	if prop == nil {
		return nil, "", nil
	}
	dt, err := parseDateTimeProp(prop)
	if err != nil {
		return nil, "", err
	}
	return dt, prop.Params.Get(ical.ParamRange), nil
}

// setDates resolves start/end/duration through the shared date routine,
// honoring the VTODO DUE→DTEND aliasing rule and keeping exactly one of
// {end, duration} authoritative.
func (cv *conversion) setDates(rid *domain.DateTime) error {
	startProp := cv.comp.Props.Get(ical.PropDateTimeStart)
	endProp := cv.comp.Props.Get(ical.PropDateTimeEnd)
	durProp := cv.comp.Props.Get(ical.PropDuration)

	endIdx := change.PropDtEnd
	if cv.typ == domain.TypeTodo && endProp == nil {
		if due := cv.comp.Props.Get(ical.PropDue); due != nil {
			endProp = due
			endIdx = change.PropDue
		}
	}

	if startProp != nil {
		dt, err := parseDateTimeProp(startProp)
		if err != nil {
			return fmt.Errorf("uid %s: %w", cv.uid, err)
		}
		if t, terr := dt.Time(); terr == nil && !withinDateLimits(t) {
			cv.c.log.Warn("start outside supported date range",
				zap.String("uid", cv.uid), zap.String("dtstart", dt.Value))
		}
		cv.table.MarkPresent(change.PropDtStart)
		if !dt.Equal(cv.target.Start()) {
			cv.target.SetStart(dt)
			cv.table.MarkChanged(change.PropDtStart)
		}
		if cv.target.NoStart() {
			cv.target.SetNoStart(false)
		}
	} else if cv.isNew && rid == nil {
		cv.target.SetNoStart(true)
	}

	switch {
	case endProp != nil:
		dt, err := parseDateTimeProp(endProp)
		if err != nil {
			return fmt.Errorf("uid %s: %w", cv.uid, err)
		}
		cv.table.MarkPresent(endIdx)
		if cv.target.EndType() != domain.EndTypeDate || !dt.Equal(cv.target.End()) {
			cv.target.SetEnd(dt)
			cv.target.SetEndType(domain.EndTypeDate)
			cv.target.SetDuration("")
			cv.table.MarkChanged(endIdx)
		}

	case durProp != nil:
		val := strings.TrimSpace(durProp.Value)
		cv.table.MarkPresent(change.PropDuration)
		if cv.target.EndType() != domain.EndTypeDuration || cv.target.Duration() != val {
			cv.target.SetDuration(val)
			cv.target.SetEndType(domain.EndTypeDuration)
			cv.target.SetEnd(nil)
			cv.table.MarkChanged(change.PropDuration)
		}

	default:
		if cv.isNew {
			cv.target.SetEndType(domain.EndTypeNone)
		}
	}

	return nil
}
