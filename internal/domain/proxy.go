package domain

// EventRef is the read/write view the converter merges properties into:
// either a master entity or an override resolving against its master. The
// resolution rule lives here, once: an override getter returns its own
// value when set, else the master's; identity getters always answer from
// the master and have no setter.
type EventRef interface {
	Master() *Entity
	IsOverride() bool
	RecurrenceID() string

	EntityType() EntityType
	UID() string
	ColPath() string
	Owner() string

	Summary() string
	SetSummary(string)
	Description() string
	SetDescription(string)
	Class() string
	SetClass(string)
	Status() string
	SetStatus(string)
	Transparency() string
	SetTransparency(string)
	Priority() int
	SetPriority(int)
	PercentComplete() int
	SetPercentComplete(int)
	Completed() string
	SetCompleted(string)
	Cost() string
	SetCost(string)
	Link() string
	SetLink(string)
	Geo() string
	SetGeo(string)
	RelatedTo() string
	SetRelatedTo(string)

	Sequence() int
	SetSequence(int)
	ScheduleMethod() string
	SetScheduleMethod(string)
	Organizer() *Organizer
	SetOrganizer(*Organizer)

	Start() *DateTime
	SetStart(*DateTime)
	End() *DateTime
	SetEnd(*DateTime)
	Duration() string
	SetDuration(string)
	EndType() EndType
	SetEndType(EndType)
	NoStart() bool
	SetNoStart(bool)

	DTStamp() string
	SetDTStamp(string)
	Created() string
	SetCreated(string)
	LastModified() string
	SetLastModified(string)

	Location() *Location
	SetLocation(*Location)

	Attendees() []*Attendee
	SetAttendees([]*Attendee)
	Categories() []*Category
	SetCategories([]*Category)
	Contacts() []*Contact
	SetContacts([]*Contact)
	Comments() []string
	SetComments([]string)
	Resources() []string
	SetResources([]string)
	Attachments() []*Attachment
	SetAttachments([]*Attachment)
	XProps() []XProp
	SetXProps([]XProp)
	Alarms() []*Alarm
	SetAlarms([]*Alarm)
}

// Ref wraps a master entity in the EventRef view.
func Ref(e *Entity) EventRef {
	return masterRef{e}
}

type masterRef struct {
	e *Entity
}

func (m masterRef) Master() *Entity        { return m.e }
func (m masterRef) IsOverride() bool       { return false }
func (m masterRef) RecurrenceID() string   { return "" }
func (m masterRef) EntityType() EntityType { return m.e.Type }
func (m masterRef) UID() string            { return m.e.UID }
func (m masterRef) ColPath() string        { return m.e.ColPath }
func (m masterRef) Owner() string          { return m.e.Owner }

func (m masterRef) Summary() string              { return m.e.Summary }
func (m masterRef) SetSummary(v string)          { m.e.Summary = v }
func (m masterRef) Description() string          { return m.e.Description }
func (m masterRef) SetDescription(v string)      { m.e.Description = v }
func (m masterRef) Class() string                { return m.e.Class }
func (m masterRef) SetClass(v string)            { m.e.Class = v }
func (m masterRef) Status() string               { return m.e.Status }
func (m masterRef) SetStatus(v string)           { m.e.Status = v }
func (m masterRef) Transparency() string         { return m.e.Transparency }
func (m masterRef) SetTransparency(v string)     { m.e.Transparency = v }
func (m masterRef) Priority() int                { return m.e.Priority }
func (m masterRef) SetPriority(v int)            { m.e.Priority = v }
func (m masterRef) PercentComplete() int         { return m.e.PercentComplete }
func (m masterRef) SetPercentComplete(v int)     { m.e.PercentComplete = v }
func (m masterRef) Completed() string            { return m.e.Completed }
func (m masterRef) SetCompleted(v string)        { m.e.Completed = v }
func (m masterRef) Cost() string                 { return m.e.Cost }
func (m masterRef) SetCost(v string)             { m.e.Cost = v }
func (m masterRef) Link() string                 { return m.e.Link }
func (m masterRef) SetLink(v string)             { m.e.Link = v }
func (m masterRef) Geo() string                  { return m.e.Geo }
func (m masterRef) SetGeo(v string)              { m.e.Geo = v }
func (m masterRef) RelatedTo() string            { return m.e.RelatedTo }
func (m masterRef) SetRelatedTo(v string)        { m.e.RelatedTo = v }
func (m masterRef) Sequence() int                { return m.e.Sequence }
func (m masterRef) SetSequence(v int)            { m.e.Sequence = v }
func (m masterRef) ScheduleMethod() string       { return m.e.ScheduleMethod }
func (m masterRef) SetScheduleMethod(v string)   { m.e.ScheduleMethod = v }
func (m masterRef) Organizer() *Organizer        { return m.e.Organizer }
func (m masterRef) SetOrganizer(v *Organizer)    { m.e.Organizer = v }
func (m masterRef) Start() *DateTime             { return m.e.Start }
func (m masterRef) SetStart(v *DateTime)         { m.e.Start = v }
func (m masterRef) End() *DateTime               { return m.e.End }
func (m masterRef) SetEnd(v *DateTime)           { m.e.End = v }
func (m masterRef) Duration() string             { return m.e.Duration }
func (m masterRef) SetDuration(v string)         { m.e.Duration = v }
func (m masterRef) EndType() EndType             { return m.e.EndType }
func (m masterRef) SetEndType(v EndType)         { m.e.EndType = v }
func (m masterRef) NoStart() bool                { return m.e.NoStart }
func (m masterRef) SetNoStart(v bool)            { m.e.NoStart = v }
func (m masterRef) DTStamp() string              { return m.e.DTStamp }
func (m masterRef) SetDTStamp(v string)          { m.e.DTStamp = v }
func (m masterRef) Created() string              { return m.e.Created }
func (m masterRef) SetCreated(v string)          { m.e.Created = v }
func (m masterRef) LastModified() string         { return m.e.LastModified }
func (m masterRef) SetLastModified(v string)     { m.e.LastModified = v }
func (m masterRef) Location() *Location          { return m.e.Location }
func (m masterRef) SetLocation(v *Location)      { m.e.Location = v }
func (m masterRef) Attendees() []*Attendee       { return m.e.Attendees }
func (m masterRef) SetAttendees(v []*Attendee)   { m.e.Attendees = v }
func (m masterRef) Categories() []*Category      { return m.e.Categories }
func (m masterRef) SetCategories(v []*Category)  { m.e.Categories = v }
func (m masterRef) Contacts() []*Contact         { return m.e.Contacts }
func (m masterRef) SetContacts(v []*Contact)     { m.e.Contacts = v }
func (m masterRef) Comments() []string           { return m.e.Comments }
func (m masterRef) SetComments(v []string)       { m.e.Comments = v }
func (m masterRef) Resources() []string          { return m.e.Resources }
func (m masterRef) SetResources(v []string)      { m.e.Resources = v }
func (m masterRef) Attachments() []*Attachment   { return m.e.Attachments }
func (m masterRef) SetAttachments(v []*Attachment) { m.e.Attachments = v }
func (m masterRef) XProps() []XProp              { return m.e.XProps }
func (m masterRef) SetXProps(v []XProp)          { m.e.XProps = v }
func (m masterRef) Alarms() []*Alarm             { return m.e.Alarms }
func (m masterRef) SetAlarms(v []*Alarm)         { m.e.Alarms = v }

// OverrideProxy is the runtime view of one override: getters fall back to
// the master for unset fields, setters write the override's own fields.
type OverrideProxy struct {
	master *Entity
	ov     *Override
}

// NewProxy pairs an override with its master.
func NewProxy(master *Entity, ov *Override) *OverrideProxy {
	return &OverrideProxy{master: master, ov: ov}
}

func (p *OverrideProxy) Master() *Entity        { return p.master }
func (p *OverrideProxy) Entry() *Override       { return p.ov }
func (p *OverrideProxy) IsOverride() bool       { return true }
func (p *OverrideProxy) RecurrenceID() string   { return p.ov.RecurrenceID }
func (p *OverrideProxy) EntityType() EntityType { return p.master.Type }
func (p *OverrideProxy) UID() string            { return p.master.UID }
func (p *OverrideProxy) ColPath() string        { return p.master.ColPath }
func (p *OverrideProxy) Owner() string          { return p.master.Owner }

func (p *OverrideProxy) Summary() string {
	if p.ov.Fields.Summary != nil {
		return *p.ov.Fields.Summary
	}
	return p.master.Summary
}
func (p *OverrideProxy) SetSummary(v string) { p.ov.Fields.Summary = &v }

func (p *OverrideProxy) Description() string {
	if p.ov.Fields.Description != nil {
		return *p.ov.Fields.Description
	}
	return p.master.Description
}
func (p *OverrideProxy) SetDescription(v string) { p.ov.Fields.Description = &v }

func (p *OverrideProxy) Class() string {
	if p.ov.Fields.Class != nil {
		return *p.ov.Fields.Class
	}
	return p.master.Class
}
func (p *OverrideProxy) SetClass(v string) { p.ov.Fields.Class = &v }

func (p *OverrideProxy) Status() string {
	if p.ov.Fields.Status != nil {
		return *p.ov.Fields.Status
	}
	return p.master.Status
}
func (p *OverrideProxy) SetStatus(v string) { p.ov.Fields.Status = &v }

func (p *OverrideProxy) Transparency() string {
	if p.ov.Fields.Transparency != nil {
		return *p.ov.Fields.Transparency
	}
	return p.master.Transparency
}
func (p *OverrideProxy) SetTransparency(v string) { p.ov.Fields.Transparency = &v }

func (p *OverrideProxy) Priority() int {
	if p.ov.Fields.Priority != nil {
		return *p.ov.Fields.Priority
	}
	return p.master.Priority
}
func (p *OverrideProxy) SetPriority(v int) { p.ov.Fields.Priority = &v }

func (p *OverrideProxy) PercentComplete() int {
	if p.ov.Fields.PercentComplete != nil {
		return *p.ov.Fields.PercentComplete
	}
	return p.master.PercentComplete
}
func (p *OverrideProxy) SetPercentComplete(v int) { p.ov.Fields.PercentComplete = &v }

func (p *OverrideProxy) Completed() string {
	if p.ov.Fields.Completed != nil {
		return *p.ov.Fields.Completed
	}
	return p.master.Completed
}
func (p *OverrideProxy) SetCompleted(v string) { p.ov.Fields.Completed = &v }

func (p *OverrideProxy) Cost() string {
	if p.ov.Fields.Cost != nil {
		return *p.ov.Fields.Cost
	}
	return p.master.Cost
}
func (p *OverrideProxy) SetCost(v string) { p.ov.Fields.Cost = &v }

func (p *OverrideProxy) Link() string {
	if p.ov.Fields.Link != nil {
		return *p.ov.Fields.Link
	}
	return p.master.Link
}
func (p *OverrideProxy) SetLink(v string) { p.ov.Fields.Link = &v }

func (p *OverrideProxy) Geo() string {
	if p.ov.Fields.Geo != nil {
		return *p.ov.Fields.Geo
	}
	return p.master.Geo
}
func (p *OverrideProxy) SetGeo(v string) { p.ov.Fields.Geo = &v }

func (p *OverrideProxy) RelatedTo() string {
	if p.ov.Fields.RelatedTo != nil {
		return *p.ov.Fields.RelatedTo
	}
	return p.master.RelatedTo
}
func (p *OverrideProxy) SetRelatedTo(v string) { p.ov.Fields.RelatedTo = &v }

func (p *OverrideProxy) Sequence() int {
	if p.ov.Fields.Sequence != nil {
		return *p.ov.Fields.Sequence
	}
	return p.master.Sequence
}
func (p *OverrideProxy) SetSequence(v int) { p.ov.Fields.Sequence = &v }

func (p *OverrideProxy) ScheduleMethod() string {
	if p.ov.Fields.ScheduleMethod != nil {
		return *p.ov.Fields.ScheduleMethod
	}
	return p.master.ScheduleMethod
}
func (p *OverrideProxy) SetScheduleMethod(v string) { p.ov.Fields.ScheduleMethod = &v }

func (p *OverrideProxy) Organizer() *Organizer {
	if p.ov.Fields.Organizer != nil {
		return p.ov.Fields.Organizer
	}
	return p.master.Organizer
}
func (p *OverrideProxy) SetOrganizer(v *Organizer) { p.ov.Fields.Organizer = v }

func (p *OverrideProxy) Start() *DateTime {
	if p.ov.Fields.Start != nil {
		return p.ov.Fields.Start
	}
	return p.master.Start
}
func (p *OverrideProxy) SetStart(v *DateTime) { p.ov.Fields.Start = v }

func (p *OverrideProxy) End() *DateTime {
	if p.ov.Fields.End != nil {
		return p.ov.Fields.End
	}
	return p.master.End
}
func (p *OverrideProxy) SetEnd(v *DateTime) { p.ov.Fields.End = v }

func (p *OverrideProxy) Duration() string {
	if p.ov.Fields.Duration != nil {
		return *p.ov.Fields.Duration
	}
	return p.master.Duration
}
func (p *OverrideProxy) SetDuration(v string) { p.ov.Fields.Duration = &v }

func (p *OverrideProxy) EndType() EndType {
	if p.ov.Fields.EndType != nil {
		return *p.ov.Fields.EndType
	}
	return p.master.EndType
}
func (p *OverrideProxy) SetEndType(v EndType) { p.ov.Fields.EndType = &v }

func (p *OverrideProxy) NoStart() bool {
	if p.ov.Fields.NoStart != nil {
		return *p.ov.Fields.NoStart
	}
	return p.master.NoStart
}
func (p *OverrideProxy) SetNoStart(v bool) { p.ov.Fields.NoStart = &v }

func (p *OverrideProxy) DTStamp() string {
	if p.ov.Fields.DTStamp != nil {
		return *p.ov.Fields.DTStamp
	}
	return p.master.DTStamp
}
func (p *OverrideProxy) SetDTStamp(v string) { p.ov.Fields.DTStamp = &v }

func (p *OverrideProxy) Created() string {
	if p.ov.Fields.Created != nil {
		return *p.ov.Fields.Created
	}
	return p.master.Created
}
func (p *OverrideProxy) SetCreated(v string) { p.ov.Fields.Created = &v }

func (p *OverrideProxy) LastModified() string {
	if p.ov.Fields.LastModified != nil {
		return *p.ov.Fields.LastModified
	}
	return p.master.LastModified
}
func (p *OverrideProxy) SetLastModified(v string) { p.ov.Fields.LastModified = &v }

func (p *OverrideProxy) Location() *Location {
	if p.ov.Fields.Location != nil {
		return p.ov.Fields.Location
	}
	return p.master.Location
}
func (p *OverrideProxy) SetLocation(v *Location) { p.ov.Fields.Location = v }

func (p *OverrideProxy) Attendees() []*Attendee {
	if p.ov.Fields.AttendeesSet {
		return p.ov.Fields.Attendees
	}
	return p.master.Attendees
}
func (p *OverrideProxy) SetAttendees(v []*Attendee) {
	p.ov.Fields.Attendees = v
	p.ov.Fields.AttendeesSet = true
}

func (p *OverrideProxy) Categories() []*Category {
	if p.ov.Fields.CategoriesSet {
		return p.ov.Fields.Categories
	}
	return p.master.Categories
}
func (p *OverrideProxy) SetCategories(v []*Category) {
	p.ov.Fields.Categories = v
	p.ov.Fields.CategoriesSet = true
}

func (p *OverrideProxy) Contacts() []*Contact {
	if p.ov.Fields.ContactsSet {
		return p.ov.Fields.Contacts
	}
	return p.master.Contacts
}
func (p *OverrideProxy) SetContacts(v []*Contact) {
	p.ov.Fields.Contacts = v
	p.ov.Fields.ContactsSet = true
}

func (p *OverrideProxy) Comments() []string {
	if p.ov.Fields.CommentsSet {
		return p.ov.Fields.Comments
	}
	return p.master.Comments
}
func (p *OverrideProxy) SetComments(v []string) {
	p.ov.Fields.Comments = v
	p.ov.Fields.CommentsSet = true
}

func (p *OverrideProxy) Resources() []string {
	if p.ov.Fields.ResourcesSet {
		return p.ov.Fields.Resources
	}
	return p.master.Resources
}
func (p *OverrideProxy) SetResources(v []string) {
	p.ov.Fields.Resources = v
	p.ov.Fields.ResourcesSet = true
}

func (p *OverrideProxy) Attachments() []*Attachment {
	if p.ov.Fields.AttachmentsSet {
		return p.ov.Fields.Attachments
	}
	return p.master.Attachments
}
func (p *OverrideProxy) SetAttachments(v []*Attachment) {
	p.ov.Fields.Attachments = v
	p.ov.Fields.AttachmentsSet = true
}

func (p *OverrideProxy) XProps() []XProp {
	if p.ov.Fields.XPropsSet {
		return p.ov.Fields.XProps
	}
	return p.master.XProps
}
func (p *OverrideProxy) SetXProps(v []XProp) {
	p.ov.Fields.XProps = v
	p.ov.Fields.XPropsSet = true
}

func (p *OverrideProxy) Alarms() []*Alarm {
	if p.ov.Fields.AlarmsSet {
		return p.ov.Fields.Alarms
	}
	return p.master.Alarms
}
func (p *OverrideProxy) SetAlarms(v []*Alarm) {
	p.ov.Fields.Alarms = v
	p.ov.Fields.AlarmsSet = true
}
