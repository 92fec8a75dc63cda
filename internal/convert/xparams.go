package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/emersion/go-ical"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
)

// commonParams are accepted on any property.
var commonParams = map[string]bool{
	"VALUE":    true,
	"LANGUAGE": true,
	"ALTREP":   true,
}

var dateParams = map[string]bool{"TZID": true, "RANGE": true}

var addressParams = map[string]bool{
	"CN":              true,
	"ROLE":            true,
	"PARTSTAT":        true,
	"CUTYPE":          true,
	"RSVP":            true,
	"DELEGATED-FROM":  true,
	"DELEGATED-TO":    true,
	"MEMBER":          true,
	"SENT-BY":         true,
	"DIR":             true,
	"SCHEDULE-STATUS": true,
	"SCHEDULE-AGENT":  true,
}

// knownParams lists the additional parameters with understood semantics
// per property kind. A parameter outside the known set marks the
// conversion lossy, which triggers the defensive raw copy.
var knownParams = map[change.PropIndex]map[string]bool{
	change.PropDtStart:      dateParams,
	change.PropDtEnd:        dateParams,
	change.PropDue:          dateParams,
	change.PropRecurrenceID: dateParams,
	change.PropRDate:        dateParams,
	change.PropExDate:       dateParams,
	change.PropAttendee:     addressParams,
	change.PropOrganizer:    addressParams,
	change.PropAttach:       {"FMTTYPE": true, "ENCODING": true},
	change.PropFreeBusy:     {"FBTYPE": true},
	change.PropRelatedTo:    {"RELTYPE": true},
}

// scanParams flags the conversion lossy when a property carries a
// parameter the engine has no dedicated handling for. X-parameters and
// whole x-properties always count: their semantics are unknowable.
func (cv *conversion) scanParams(idx change.PropIndex, prop *ical.Prop) {
	if cv.hasXParams {
		return
	}
	if idx == change.PropXProp {
		// Vendor properties keep their parameters verbatim in the
		// extension bag; nothing is lost.
		return
	}
	extra := knownParams[idx]
	for name := range prop.Params {
		upper := strings.ToUpper(name)
		if commonParams[upper] || (extra != nil && extra[upper]) {
			continue
		}
		cv.hasXParams = true
		return
	}
}

// storeRawCopy stores a serialized copy of the incoming component in the
// extension bag so a later export can recover parameters the conversion
// had to drop. Bulky values are elided to a digest.
func (cv *conversion) storeRawCopy() {
	raw := serializeComponent(cv.comp)
	kept := make([]domain.XProp, 0, len(cv.target.XProps()))
	for _, x := range cv.target.XProps() {
		if x.Name != domain.XPropRawComponent {
			kept = append(kept, x)
		}
	}
	cv.target.SetXProps(append(kept, domain.XProp{
		Name:  domain.XPropRawComponent,
		Value: raw,
	}))
}

func serializeComponent(comp *ical.Component) string {
	var b strings.Builder
	writeComponent(&b, comp)
	return b.String()
}

func writeComponent(b *strings.Builder, comp *ical.Component) {
	b.WriteString("BEGIN:")
	b.WriteString(comp.Name)
	b.WriteByte('\n')

	names := make([]string, 0, len(comp.Props))
	for name := range comp.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, prop := range comp.Props.Values(name) {
			writeProp(b, &prop)
		}
	}

	for _, child := range comp.Children {
		writeComponent(b, child)
	}

	b.WriteString("END:")
	b.WriteString(comp.Name)
	b.WriteByte('\n')
}

func writeProp(b *strings.Builder, prop *ical.Prop) {
	b.WriteString(strings.ToUpper(prop.Name))

	params := make([]string, 0, len(prop.Params))
	for name := range prop.Params {
		params = append(params, name)
	}
	sort.Strings(params)
	for _, name := range params {
		b.WriteByte(';')
		b.WriteString(strings.ToUpper(name))
		b.WriteByte('=')
		b.WriteString(prop.Params.Get(name))
	}

	b.WriteByte(':')
	switch strings.ToUpper(prop.Name) {
	case "DESCRIPTION", "ATTACH":
		// Bulky payloads are elided; the digest is enough to tell whether
		// the stored value still matches.
		sum := sha256.Sum256([]byte(prop.Value))
		b.WriteString("sha256:")
		b.WriteString(hex.EncodeToString(sum[:]))
	default:
		b.WriteString(prop.Value)
	}
	b.WriteByte('\n')
}
