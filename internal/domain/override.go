package domain

// Override is one recurrence instance that diverges from its master. Only
// the fields present in OverrideFields may diverge; identity (uid, colpath,
// owner) and the entity type always come from the master.
type Override struct {
	RecurrenceID string

	// RecurrenceRange carries a RANGE qualifier (THISANDFUTURE or
	// THISANDPRIOR) when the client sent one. It is recorded and logged
	// but never expanded into this-and-future semantics.
	RecurrenceRange string

	// Retrieved marks overrides that came from the store at the start of
	// a reconciliation; the pruning pass only deletes retrieved overrides
	// that the batch failed to mention again.
	Retrieved bool

	// Touched marks overrides the current batch named. Transient.
	Touched bool

	Fields OverrideFields
}

// OverrideFields is the sparse per-instance field set. A nil pointer (or an
// unset collection flag) means the master's value applies. Immutable fields
// are deliberately not representable here.
type OverrideFields struct {
	Summary         *string
	Description     *string
	Class           *string
	Status          *string
	Transparency    *string
	Priority        *int
	PercentComplete *int
	Completed       *string
	Cost            *string
	Link            *string
	Geo             *string
	RelatedTo       *string

	Sequence       *int
	ScheduleMethod *string
	Organizer      *Organizer

	Start    *DateTime
	End      *DateTime
	Duration *string
	EndType  *EndType
	NoStart  *bool

	DTStamp      *string
	Created      *string
	LastModified *string

	Location *Location

	Attendees    []*Attendee
	AttendeesSet bool

	Categories    []*Category
	CategoriesSet bool

	Contacts    []*Contact
	ContactsSet bool

	Comments    []string
	CommentsSet bool

	Resources    []string
	ResourcesSet bool

	Attachments    []*Attachment
	AttachmentsSet bool

	XProps    []XProp
	XPropsSet bool

	Alarms    []*Alarm
	AlarmsSet bool
}

// Empty reports whether the override carries no values of its own.
func (f *OverrideFields) Empty() bool {
	return f.Summary == nil && f.Description == nil && f.Class == nil &&
		f.Status == nil && f.Transparency == nil && f.Priority == nil &&
		f.PercentComplete == nil && f.Completed == nil && f.Cost == nil &&
		f.Link == nil && f.Geo == nil && f.RelatedTo == nil &&
		f.Sequence == nil && f.ScheduleMethod == nil && f.Organizer == nil &&
		f.Start == nil && f.End == nil && f.Duration == nil &&
		f.EndType == nil && f.NoStart == nil &&
		f.DTStamp == nil && f.Created == nil && f.LastModified == nil &&
		f.Location == nil &&
		!f.AttendeesSet && !f.CategoriesSet && !f.ContactsSet &&
		!f.CommentsSet && !f.ResourcesSet && !f.AttachmentsSet &&
		!f.XPropsSet && !f.AlarmsSet
}
