package domain

// Attendee is the flat ATTENDEE record: one calendar user invited to an
// entity, addressed by calendar address (usually a mailto URI).
type Attendee struct {
	Address             string
	CommonName          string
	Role                string
	ParticipationStatus string
	UserType            string
	RSVP                bool
	DelegatedFrom       string
	DelegatedTo         string
	Member              string
	SentBy              string
	Dir                 string
	Language            string
}

func (a *Attendee) Clone() *Attendee {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Equal compares every field, not just the address; the attendee merge rule
// needs to know whether an incoming record would change anything.
func (a *Attendee) Equal(o *Attendee) bool {
	if a == nil || o == nil {
		return a == o
	}
	return *a == *o
}

// Organizer is the flat ORGANIZER record, the legacy scheduling-owner form.
type Organizer struct {
	Address    string
	CommonName string
	SentBy     string
	Dir        string
	Language   string
}

func (o *Organizer) Clone() *Organizer {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}

func (o *Organizer) Equal(other *Organizer) bool {
	if o == nil || other == nil {
		return o == other
	}
	return *o == *other
}
