package domain

import (
	"fmt"
	"strings"
	"time"
)

// Shared iCalendar date/time handling for entity fields.

var icalDateTimeFormats = []string{
	"20060102",             // Date only
	"20060102T150405",      // Basic format
	"20060102T150405Z",     // UTC format
	"20060102T150405-0700", // Basic format with offset
	"20060102T150405-07:00",
	"2006-01-02T15:04:05",  // Extended format
	"2006-01-02T15:04:05Z", // Extended UTC
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07:00",
}

var icalLocalFormats = []string{
	"20060102",
	"20060102T150405",
	"2006-01-02T15:04:05",
}

// DateTime is a calendar date or date-time as carried on the wire: the raw
// value plus enough flavor information (date-only, TZID, UTC) to reproduce
// it. Comparisons and sentinel synthesis work on the flavor, not just the
// instant, because an override keyed by a floating recurrence id is not the
// same as one keyed by the equivalent UTC instant.
type DateTime struct {
	Value    string
	TZID     string
	DateOnly bool
}

// UTC reports whether the value carries an explicit UTC or offset marker.
func (d *DateTime) UTC() bool {
	return hasZoneSuffix(d.Value)
}

// Floating reports whether the value has neither a zone suffix nor a TZID.
func (d *DateTime) Floating() bool {
	return !d.DateOnly && d.TZID == "" && !hasZoneSuffix(d.Value)
}

// Time resolves the value to a UTC instant. TZID lookups fall back to a
// plain parse when the zone is unknown to the host.
func (d *DateTime) Time() (time.Time, error) {
	if d.TZID != "" {
		if loc, err := time.LoadLocation(d.TZID); err == nil {
			return parseInLocation(d.Value, loc)
		}
	}
	return ParseDateTime(d.Value)
}

// Equal compares raw value, TZID and date-only flag. Two nil values are
// equal; a nil and a non-nil value are not.
func (d *DateTime) Equal(o *DateTime) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.Value == o.Value && d.TZID == o.TZID && d.DateOnly == o.DateOnly
}

func (d *DateTime) Clone() *DateTime {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func (d *DateTime) String() string {
	if d == nil {
		return ""
	}
	if d.TZID != "" {
		return d.TZID + ":" + d.Value
	}
	return d.Value
}

// SentinelStart is the synthetic DTSTART given to a suppressed master; the
// instant is arbitrary but stable so synthesized masters compare equal.
const sentinelStartLocal = "19980118T230000"

// SentinelStart builds the placeholder start for a suppressed master,
// mirroring the flavor of the recurrence id that forced its creation.
func SentinelStart(flavorOf *DateTime) *DateTime {
	s := &DateTime{Value: sentinelStartLocal}
	if flavorOf == nil {
		s.Value += "Z"
		return s
	}
	switch {
	case flavorOf.DateOnly:
		s.Value = sentinelStartLocal[:8]
		s.DateOnly = true
	case flavorOf.UTC():
		s.Value += "Z"
	case flavorOf.TZID != "":
		s.TZID = flavorOf.TZID
	}
	return s
}

// ParseDateTime parses any of the supported iCalendar date/time shapes into
// a UTC instant.
func ParseDateTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}

	for _, format := range icalDateTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid datetime format: %s", s)
}

func parseInLocation(s string, loc *time.Location) (time.Time, error) {
	if loc == nil || hasZoneSuffix(s) {
		return ParseDateTime(s)
	}

	for _, format := range icalLocalFormats {
		if t, err := time.ParseInLocation(format, s, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid datetime format: %s", s)
}

func hasZoneSuffix(s string) bool {
	if strings.HasSuffix(s, "Z") {
		return true
	}
	if len(s) >= 5 {
		tail := s[len(s)-5:]
		if (tail[0] == '+' || tail[0] == '-') && isDigits(tail[1:]) {
			return true
		}
	}
	if len(s) >= 6 {
		tail := s[len(s)-6:]
		if (tail[0] == '+' || tail[0] == '-') && tail[3] == ':' && isDigits(tail[1:3]) && isDigits(tail[4:]) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// FormatUTC renders an instant in the basic UTC form used for DTSTAMP,
// CREATED and LAST-MODIFIED.
func FormatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
