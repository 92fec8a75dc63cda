package change

import "strings"

// PropIndex is the closed enum of canonical property kinds. Every wire
// property maps to exactly one index; unknown and vendor names map to
// PropXProp so the dispatch over indexes stays exhaustive.
type PropIndex int

const (
	PropXProp PropIndex = iota

	PropSummary
	PropDescription
	PropClass
	PropStatus
	PropTransparency
	PropPriority
	PropPercentComplete
	PropCompleted
	PropCost
	PropURL
	PropGeo
	PropRelatedTo
	PropSequence
	PropLocation

	PropDtStart
	PropDtEnd
	PropDue
	PropDuration
	PropDtStamp
	PropCreated
	PropLastModified

	PropUID
	PropRecurrenceID
	PropMethod

	PropOrganizer
	PropAttendee

	PropCategories
	PropComment
	PropContact
	PropResources
	PropAttach

	PropRRule
	PropExRule
	PropRDate
	PropExDate

	PropFreeBusy
	PropBusyType

	PropPollItemID
	PropPollMode
	PropPollProperties
	PropPollWinner

	numPropIndexes
)

var propNames = map[string]PropIndex{
	"SUMMARY":          PropSummary,
	"DESCRIPTION":      PropDescription,
	"CLASS":            PropClass,
	"STATUS":           PropStatus,
	"TRANSP":           PropTransparency,
	"PRIORITY":         PropPriority,
	"PERCENT-COMPLETE": PropPercentComplete,
	"COMPLETED":        PropCompleted,
	"URL":              PropURL,
	"GEO":              PropGeo,
	"RELATED-TO":       PropRelatedTo,
	"SEQUENCE":         PropSequence,
	"LOCATION":         PropLocation,
	"DTSTART":          PropDtStart,
	"DTEND":            PropDtEnd,
	"DUE":              PropDue,
	"DURATION":         PropDuration,
	"DTSTAMP":          PropDtStamp,
	"CREATED":          PropCreated,
	"LAST-MODIFIED":    PropLastModified,
	"UID":              PropUID,
	"RECURRENCE-ID":    PropRecurrenceID,
	"METHOD":           PropMethod,
	"ORGANIZER":        PropOrganizer,
	"ATTENDEE":         PropAttendee,
	"CATEGORIES":       PropCategories,
	"COMMENT":          PropComment,
	"CONTACT":          PropContact,
	"RESOURCES":        PropResources,
	"ATTACH":           PropAttach,
	"RRULE":            PropRRule,
	"EXRULE":           PropExRule,
	"RDATE":            PropRDate,
	"EXDATE":           PropExDate,
	"FREEBUSY":         PropFreeBusy,
	"BUSYTYPE":         PropBusyType,
	"POLL-ITEM-ID":     PropPollItemID,
	"POLL-MODE":        PropPollMode,
	"POLL-PROPERTIES":  PropPollProperties,
	"POLL-WINNER":      PropPollWinner,
}

var indexNames = func() map[PropIndex]string {
	m := make(map[PropIndex]string, len(propNames))
	for name, i := range propNames {
		m[i] = name
	}
	return m
}()

// Lookup maps a wire property name to its canonical index. Names with no
// dedicated semantics, including all x-names, come back as PropXProp.
func Lookup(name string) PropIndex {
	if i, ok := propNames[strings.ToUpper(name)]; ok {
		return i
	}
	return PropXProp
}

func (i PropIndex) String() string {
	if name, ok := indexNames[i]; ok {
		return name
	}
	return "X-PROP"
}
