package domain

// EntityType tags the kind of calendar entity a component converted into.
type EntityType int

const (
	TypeEvent EntityType = iota
	TypeTodo
	TypeJournal
	TypeFreeBusy
	TypeAvailability
	TypeAvailable
	TypePoll
)

func (t EntityType) String() string {
	switch t {
	case TypeEvent:
		return "event"
	case TypeTodo:
		return "todo"
	case TypeJournal:
		return "journal"
	case TypeFreeBusy:
		return "freebusy"
	case TypeAvailability:
		return "availability"
	case TypeAvailable:
		return "available"
	case TypePoll:
		return "poll"
	}
	return "unknown"
}

// EndType records which of DTEND/DURATION is authoritative for an entity.
type EndType int

const (
	EndTypeNone EndType = iota
	EndTypeDate
	EndTypeDuration
)

// StatusMasterSuppressed marks a master synthesized because only instances
// of its series were ever observed.
const StatusMasterSuppressed = "MASTER-SUPPRESSED"

// Category is a categorization word resolved through the lookup callback.
type Category struct {
	Word     string
	Language string
	Href     string
}

func (c *Category) Key() string {
	return c.Word + "\t" + c.Language
}

// Contact is a named contact resolved through the lookup callback.
type Contact struct {
	Name     string
	Language string
	Href     string
}

// Location is a place resolved or created through the lookup callback. The
// combined form is the single-string address clients send in LOCATION.
type Location struct {
	Address  string
	Combined string
	Href     string
}

// Attachment is an ATTACH value; binary payloads are carried by reference
// or inline value, never decoded here.
type Attachment struct {
	URI      string
	FmtType  string
	Encoding string
	Value    string
}

// FreeBusyPeriods groups VFREEBUSY periods under one FBTYPE.
type FreeBusyPeriods struct {
	Type    string
	Periods []string
}

// Entity is the converted domain object: one VEVENT/VTODO/VJOURNAL/
// VFREEBUSY/VAVAILABILITY/VPOLL, either a series master or (wrapped in an
// Override) a single recurrence instance.
type Entity struct {
	Type EntityType

	// Identity.
	UID          string
	RecurrenceID string // empty for masters
	ColPath      string
	Name         string // resource name within the collection
	Owner        string

	// Scheduling.
	Organizer                 *Organizer
	Attendees                 []*Attendee
	Sequence                  int
	ScheduleMethod            string
	ScheduleState             string
	Originator                string
	Recipients                []string
	OrganizerSchedulingObject bool
	AttendeeSchedulingObject  bool

	// Recurrence.
	RRules    []string
	ExRules   []string
	RDates    []*DateTime
	ExDates   []*DateTime
	Recurring bool

	// Timing. Exactly one of End/Duration is authoritative, per EndType.
	Start    *DateTime
	End      *DateTime
	Duration string
	EndType  EndType
	NoStart  bool

	// Content.
	Summary         string
	Description     string
	Class           string
	Status          string
	Transparency    string
	Priority        int
	PercentComplete int
	Completed       string
	Cost            string
	Link            string
	Geo             string
	Categories      []*Category
	Contacts        []*Contact
	Location        *Location
	Comments        []string
	Resources       []string
	Attachments     []*Attachment
	RelatedTo       string
	DTStamp         string
	Created         string
	LastModified    string

	// Free/busy and availability.
	FreeBusy []*FreeBusyPeriods
	BusyType string

	// Poll.
	PollMode       string
	PollProperties string
	PollWinner     int
	PollItems      []string

	// Availability sub-entities (AVAILABLE blocks).
	Contained []*Entity

	// Extension bag: vendor x-properties plus serialized sub-structures
	// that have no dedicated field (participants, per-user transparency,
	// poll candidates, raw defensive copies).
	XProps []XProp

	// Per-user alarms.
	Alarms []*Alarm

	// Master bookkeeping. Overrides is only populated on masters.
	Overrides map[string]*Override

	// Transient reconciliation state, never persisted.
	NewEntity    bool
	InstanceOnly bool
}

// FindOverrideEntry returns the override record for a recurrence id, or nil.
func (e *Entity) FindOverrideEntry(rid string) *Override {
	if e.Overrides == nil {
		return nil
	}
	return e.Overrides[rid]
}

// AddOverrideEntry registers an override under its recurrence id.
func (e *Entity) AddOverrideEntry(o *Override) {
	if e.Overrides == nil {
		e.Overrides = make(map[string]*Override)
	}
	e.Overrides[o.RecurrenceID] = o
}

// RemoveOverrideEntry drops the override for a recurrence id.
func (e *Entity) RemoveOverrideEntry(rid string) {
	delete(e.Overrides, rid)
}

// RecomputeRecurring derives the recurring flag from the accumulated
// recurrence state. It is recomputed, never just assigned, at the end of a
// conversion.
func (e *Entity) RecomputeRecurring() {
	e.Recurring = len(e.RRules) > 0 || len(e.RDates) > 0 || len(e.ExRules) > 0 ||
		e.Status == StatusMasterSuppressed
}
