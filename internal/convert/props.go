package convert

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"
	rrule "github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
	"gitea.jw6.us/james/calconv/internal/store"
)

// mergeProps iterates every wire property once and applies its
// type-specific merge rule. Properties already resolved by the date
// routine or identity extraction are explicit no-ops here; unknown
// properties land in the extension bag; nothing malformed is silently
// dropped without a log line.
//
// The prop map has no iteration order, so names are sorted with the
// canonical properties first and the extension-bag ones last: the
// second-chance lookups (X-LOCATION, X-CATEGORY, X-CONTACT) must resolve
// against the canonical values, not race them.
func (cv *conversion) mergeProps(ctx context.Context) error {
	var canonical, vendor []string
	for name := range cv.comp.Props {
		if change.Lookup(name) == change.PropXProp {
			vendor = append(vendor, name)
		} else {
			canonical = append(canonical, name)
		}
	}
	sort.Strings(canonical)
	sort.Strings(vendor)

	for _, name := range append(canonical, vendor...) {
		props := cv.comp.Props.Values(name)
		for i := range props {
			if err := cv.mergeProp(ctx, &props[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cv *conversion) mergeProp(ctx context.Context, prop *ical.Prop) error {
	idx := change.Lookup(prop.Name)
	cv.scanParams(idx, prop)
	val := strings.TrimSpace(prop.Value)

	switch idx {
	case change.PropDtStart, change.PropDtEnd, change.PropDue, change.PropDuration,
		change.PropUID, change.PropRecurrenceID:
		// Already handled in identity extraction and the date routine.
		cv.table.MarkPresent(idx)

	case change.PropSummary:
		cv.mergeString(idx, cv.target.Summary(), cv.target.SetSummary, val)
	case change.PropDescription:
		cv.mergeString(idx, cv.target.Description(), cv.target.SetDescription, val)
	case change.PropClass:
		cv.mergeString(idx, cv.target.Class(), cv.target.SetClass, val)
	case change.PropStatus:
		cv.mergeString(idx, cv.target.Status(), cv.target.SetStatus, val)
	case change.PropTransparency:
		cv.mergeString(idx, cv.target.Transparency(), cv.target.SetTransparency, val)
	case change.PropURL:
		cv.mergeString(idx, cv.target.Link(), cv.target.SetLink, val)
	case change.PropGeo:
		cv.mergeString(idx, cv.target.Geo(), cv.target.SetGeo, val)
	case change.PropRelatedTo:
		cv.mergeString(idx, cv.target.RelatedTo(), cv.target.SetRelatedTo, val)
	case change.PropCompleted:
		cv.mergeString(idx, cv.target.Completed(), cv.target.SetCompleted, val)
	case change.PropCreated:
		cv.mergeString(idx, cv.target.Created(), cv.target.SetCreated, val)
	case change.PropLastModified:
		cv.mergeString(idx, cv.target.LastModified(), cv.target.SetLastModified, val)
	case change.PropDtStamp:
		cv.mergeString(idx, cv.target.DTStamp(), cv.target.SetDTStamp, val)
	case change.PropMethod:
		cv.mergeString(idx, cv.target.ScheduleMethod(), cv.target.SetScheduleMethod, val)

	case change.PropPriority:
		return cv.mergeInt(idx, prop, cv.target.Priority(), cv.target.SetPriority)
	case change.PropPercentComplete:
		return cv.mergeInt(idx, prop, cv.target.PercentComplete(), cv.target.SetPercentComplete)
	case change.PropSequence:
		return cv.mergeInt(idx, prop, cv.target.Sequence(), cv.target.SetSequence)

	case change.PropOrganizer:
		return cv.mergeOrganizer(prop)
	case change.PropAttendee:
		return cv.collectAttendee(prop)

	case change.PropCategories:
		return cv.mergeCategories(ctx, prop)
	case change.PropComment:
		cv.mergeMultiString(idx, cv.target.Comments(), val)
	case change.PropResources:
		cv.mergeMultiString(idx, cv.target.Resources(), val)
	case change.PropContact:
		return cv.mergeContact(ctx, prop, true)
	case change.PropLocation:
		return cv.mergeLocation(ctx, prop)
	case change.PropAttach:
		cv.mergeAttach(prop)

	case change.PropRRule:
		return cv.mergeRule(idx, cv.masterRules(idx), val)
	case change.PropExRule:
		return cv.mergeRule(idx, cv.masterRules(idx), val)
	case change.PropRDate:
		return cv.mergeRecurDates(idx, prop)
	case change.PropExDate:
		return cv.mergeRecurDates(idx, prop)

	case change.PropFreeBusy:
		return cv.mergeFreeBusy(prop)
	case change.PropBusyType:
		cv.table.MarkPresent(idx)
		if cv.master.BusyType != val {
			cv.master.BusyType = val
			cv.table.MarkChanged(idx)
		}

	case change.PropPollMode:
		cv.table.MarkPresent(idx)
		if cv.master.PollMode != val {
			cv.master.PollMode = val
			cv.table.MarkChanged(idx)
		}
	case change.PropPollProperties:
		cv.table.MarkPresent(idx)
		if cv.master.PollProperties != val {
			cv.master.PollProperties = val
			cv.table.MarkChanged(idx)
		}
	case change.PropPollWinner:
		cv.table.MarkPresent(idx)
		n, err := strconv.Atoi(val)
		if err != nil {
			return cv.badValue(prop, err)
		}
		if cv.master.PollWinner != n {
			cv.master.PollWinner = n
			cv.table.MarkChanged(idx)
		}
	case change.PropPollItemID:
		// Only meaningful on poll candidate sub-components; a stray one
		// at the top level is recorded but carries no semantics.
		cv.table.MarkPresent(idx)
		cv.c.log.Debug("top-level poll-item-id ignored", zap.String("uid", cv.uid))

	case change.PropXProp:
		return cv.mergeXProp(ctx, prop)

	default:
		cv.table.MarkPresent(idx)
		cv.c.log.Debug("property skipped",
			zap.String("uid", cv.uid), zap.String("prop", prop.Name))
	}
	return nil
}

// mergeString is the changed-value replacement rule for scalar properties.
func (cv *conversion) mergeString(idx change.PropIndex, cur string, set func(string), val string) {
	cv.table.MarkPresent(idx)
	if cur != val {
		set(val)
		cv.table.MarkChanged(idx)
	}
}

func (cv *conversion) mergeInt(idx change.PropIndex, prop *ical.Prop, cur int, set func(int)) error {
	cv.table.MarkPresent(idx)
	n, err := strconv.Atoi(strings.TrimSpace(prop.Value))
	if err != nil {
		return cv.badValue(prop, err)
	}
	if cur != n {
		set(n)
		cv.table.MarkChanged(idx)
	}
	return nil
}

// mergeMultiString is the add-value rule for string collections: values
// accumulate, and a value the entity already holds records presence only.
func (cv *conversion) mergeMultiString(idx change.PropIndex, cur []string, val string) {
	cv.table.MarkPresent(idx)
	for _, existing := range cur {
		if existing == val {
			return
		}
	}
	cv.table.AddValue(idx, val)
}

// badValue is the strict-vs-lenient escape for malformed property values:
// strict conformance aborts, everything else logs and skips.
func (cv *conversion) badValue(prop *ical.Prop, err error) error {
	if cv.c.cb.Conformance() == store.ConformanceStrict {
		return fmt.Errorf("uid %s: property %s: %w", cv.uid, prop.Name, err)
	}
	cv.c.log.Warn("malformed property skipped",
		zap.String("uid", cv.uid), zap.String("prop", prop.Name), zap.Error(err))
	return nil
}

func (cv *conversion) masterRules(idx change.PropIndex) []string {
	if idx == change.PropRRule {
		return cv.master.RRules
	}
	return cv.master.ExRules
}

// mergeRule accumulates an RRULE/EXRULE after validating it parses.
// Recurrence definitions belong to masters; an override carrying one is
// recorded as present and otherwise ignored.
func (cv *conversion) mergeRule(idx change.PropIndex, cur []string, val string) error {
	cv.table.MarkPresent(idx)
	if cv.target.IsOverride() {
		cv.c.log.Debug("recurrence rule on override ignored",
			zap.String("uid", cv.uid), zap.String("rid", cv.target.RecurrenceID()))
		return nil
	}
	if _, err := rrule.StrToRRule(val); err != nil {
		if cv.c.cb.Conformance() == store.ConformanceStrict {
			return fmt.Errorf("uid %s: invalid %s %q: %w", cv.uid, idx, val, err)
		}
		cv.c.log.Warn("unparseable recurrence rule stored verbatim",
			zap.String("uid", cv.uid), zap.String("rule", val), zap.Error(err))
	}
	for _, existing := range cur {
		if existing == val {
			return nil
		}
	}
	cv.table.AddValue(idx, val)
	return nil
}

func (cv *conversion) mergeRecurDates(idx change.PropIndex, prop *ical.Prop) error {
	cv.table.MarkPresent(idx)
	if cv.target.IsOverride() {
		cv.c.log.Debug("recurrence dates on override ignored",
			zap.String("uid", cv.uid), zap.String("rid", cv.target.RecurrenceID()))
		return nil
	}
	cur := cv.master.RDates
	if idx == change.PropExDate {
		cur = cv.master.ExDates
	}
	for _, one := range strings.Split(prop.Value, ",") {
		one = strings.TrimSpace(one)
		if one == "" {
			continue
		}
		sub := ical.Prop{Name: prop.Name, Params: prop.Params, Value: one}
		dt, err := parseDateTimeProp(&sub)
		if err != nil {
			return fmt.Errorf("uid %s: %w", cv.uid, err)
		}
		known := false
		for _, existing := range cur {
			if existing.Equal(dt) {
				known = true
				break
			}
		}
		if !known {
			cv.table.AddValue(idx, dt)
		}
	}
	return nil
}

func (cv *conversion) mergeCategories(ctx context.Context, prop *ical.Prop) error {
	cv.table.MarkPresent(change.PropCategories)
	lang := prop.Params.Get(ical.ParamLanguage)

	for _, word := range strings.Split(prop.Value, ",") {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if cv.hasCategory(word, lang) {
			continue
		}
		cat, err := cv.resolveCategory(ctx, word, lang, true)
		if err != nil {
			return err
		}
		if cat != nil {
			cv.table.AddValue(change.PropCategories, cat)
		}
	}
	return nil
}

// hasCategory checks the stored set and the additions already queued in
// this call, so CATEGORIES and X-CATEGORY in one component cannot queue
// the same word twice.
func (cv *conversion) hasCategory(word, lang string) bool {
	for _, c := range cv.target.Categories() {
		if c.Word == word && c.Language == lang {
			return true
		}
	}
	for _, v := range cv.table.Entry(change.PropCategories).Added {
		if c, ok := v.(*domain.Category); ok && c.Word == word && c.Language == lang {
			return true
		}
	}
	return false
}

// resolveCategory looks the word+language pair up through the callback,
// creating it when allowed.
func (cv *conversion) resolveCategory(ctx context.Context, word, lang string, create bool) (*domain.Category, error) {
	cat, err := cv.c.cb.FindCategory(ctx, word, lang)
	if err == nil {
		return cat, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("uid %s: find category %q: %w", cv.uid, word, err)
	}
	if !create {
		return nil, nil
	}
	cat = &domain.Category{Word: word, Language: lang}
	if err := cv.c.cb.AddCategory(ctx, cat); err != nil {
		return nil, fmt.Errorf("uid %s: add category %q: %w", cv.uid, word, err)
	}
	return cat, nil
}

func (cv *conversion) hasContact(name string) bool {
	for _, c := range cv.target.Contacts() {
		if c.Name == name {
			return true
		}
	}
	for _, v := range cv.table.Entry(change.PropContact).Added {
		if c, ok := v.(*domain.Contact); ok && c.Name == name {
			return true
		}
	}
	return false
}

func (cv *conversion) mergeContact(ctx context.Context, prop *ical.Prop, create bool) error {
	cv.table.MarkPresent(change.PropContact)
	name := strings.TrimSpace(prop.Value)
	if name == "" || cv.hasContact(name) {
		return nil
	}

	contact, err := cv.c.cb.FindContact(ctx, name)
	switch {
	case err == nil:
	case err == store.ErrNotFound && create:
		contact = &domain.Contact{Name: name, Language: prop.Params.Get(ical.ParamLanguage)}
		if aerr := cv.c.cb.AddContact(ctx, contact); aerr != nil {
			return fmt.Errorf("uid %s: add contact %q: %w", cv.uid, name, aerr)
		}
	case err == store.ErrNotFound:
		return nil
	default:
		return fmt.Errorf("uid %s: find contact %q: %w", cv.uid, name, err)
	}
	cv.table.AddValue(change.PropContact, contact)
	return nil
}

// mergeLocation resolves the flat LOCATION string, unless the component
// carries a structured VLOCATION sub-component, which wins.
func (cv *conversion) mergeLocation(ctx context.Context, prop *ical.Prop) error {
	cv.table.MarkPresent(change.PropLocation)
	if childNamed(cv.comp, compVLocation) != nil {
		// The structured form is handled with the sub-components.
		return nil
	}
	val := strings.TrimSpace(prop.Value)
	if val == "" {
		return nil
	}
	loc, err := cv.resolveLocation(ctx, val, true)
	if err != nil {
		return err
	}
	cv.setLocation(loc)
	return nil
}

func (cv *conversion) setLocation(loc *domain.Location) {
	if loc == nil {
		return
	}
	cur := cv.target.Location()
	if cur != nil && cur.Address == loc.Address && cur.Href == loc.Href {
		return
	}
	cv.target.SetLocation(loc)
	cv.table.MarkChanged(change.PropLocation)
}

// resolveLocation runs the three-way lookup: combined form, plain
// address, then create when allowed.
func (cv *conversion) resolveLocation(ctx context.Context, val string, create bool) (*domain.Location, error) {
	loc, err := cv.c.cb.FetchLocationByCombined(ctx, val)
	if err == nil {
		return loc, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("uid %s: fetch location: %w", cv.uid, err)
	}
	loc, err = cv.c.cb.FindLocation(ctx, val)
	if err == nil {
		return loc, nil
	}
	if err != store.ErrNotFound {
		return nil, fmt.Errorf("uid %s: find location: %w", cv.uid, err)
	}
	if !create {
		return nil, nil
	}
	loc = &domain.Location{Address: val, Combined: val}
	if err := cv.c.cb.AddLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("uid %s: add location: %w", cv.uid, err)
	}
	return loc, nil
}

func (cv *conversion) mergeAttach(prop *ical.Prop) {
	cv.table.MarkPresent(change.PropAttach)
	att := &domain.Attachment{
		FmtType:  prop.Params.Get(ical.ParamFormatType),
		Encoding: prop.Params.Get(ical.ParamEncoding),
	}
	if strings.EqualFold(prop.Params.Get(ical.ParamValue), "BINARY") {
		att.Value = prop.Value
	} else {
		att.URI = strings.TrimSpace(prop.Value)
	}
	for _, existing := range cv.target.Attachments() {
		if existing.URI == att.URI && existing.Value == att.Value {
			return
		}
	}
	cv.table.AddValue(change.PropAttach, att)
}

var knownFreeBusyTypes = map[string]bool{
	"":                 true, // defaults to BUSY
	"FREE":             true,
	"BUSY":             true,
	"BUSY-UNAVAILABLE": true,
	"BUSY-TENTATIVE":   true,
}

func (cv *conversion) mergeFreeBusy(prop *ical.Prop) error {
	cv.table.MarkPresent(change.PropFreeBusy)
	if cv.typ != domain.TypeFreeBusy {
		cv.c.log.Debug("freebusy property outside vfreebusy skipped", zap.String("uid", cv.uid))
		return nil
	}

	fbtype := strings.ToUpper(prop.Params.Get(ical.ParamFreeBusyType))
	if !knownFreeBusyTypes[fbtype] && !strings.HasPrefix(fbtype, "X-") {
		if cv.c.cb.Conformance() == store.ConformanceStrict {
			return newErrorf(CodeUnsupportedParameterValue, "uid %s: unknown FBTYPE %q", cv.uid, fbtype)
		}
		cv.c.log.Warn("unknown FBTYPE skipped",
			zap.String("uid", cv.uid), zap.String("fbtype", fbtype))
		return nil
	}
	if fbtype == "" {
		fbtype = "BUSY"
	}

	var group *domain.FreeBusyPeriods
	for _, g := range cv.master.FreeBusy {
		if g.Type == fbtype {
			group = g
			break
		}
	}
	if group == nil {
		group = &domain.FreeBusyPeriods{Type: fbtype}
		cv.master.FreeBusy = append(cv.master.FreeBusy, group)
	}

	for _, period := range strings.Split(prop.Value, ",") {
		period = strings.TrimSpace(period)
		if period == "" {
			continue
		}
		known := false
		for _, existing := range group.Periods {
			if existing == period {
				known = true
				break
			}
		}
		if !known {
			group.Periods = append(group.Periods, period)
			cv.table.MarkChanged(change.PropFreeBusy)
		}
	}
	return nil
}

// mergeXProp handles the vendor x-properties with dedicated semantics and
// files everything else into the extension bag with add-value semantics.
func (cv *conversion) mergeXProp(ctx context.Context, prop *ical.Prop) error {
	cv.table.MarkPresent(change.PropXProp)
	name := strings.ToUpper(prop.Name)
	val := strings.TrimSpace(prop.Value)

	switch name {
	case domain.XPropCost:
		cv.mergeString(change.PropCost, cv.target.Cost(), cv.target.SetCost, val)
		return nil

	case domain.XPropLocation:
		// Second-chance lookup; fall back to the literal x-prop when the
		// location is unknown.
		loc, err := cv.resolveLocation(ctx, val, false)
		if err != nil {
			return err
		}
		if loc != nil {
			cv.setLocation(loc)
			return nil
		}

	case domain.XPropCategory:
		cat, err := cv.resolveCategory(ctx, val, prop.Params.Get(ical.ParamLanguage), false)
		if err != nil {
			return err
		}
		if cat != nil {
			if !cv.hasCategory(cat.Word, cat.Language) {
				cv.table.AddValue(change.PropCategories, cat)
			}
			return nil
		}

	case domain.XPropContact:
		contact, err := cv.c.cb.FindContact(ctx, val)
		if err != nil && err != store.ErrNotFound {
			return fmt.Errorf("uid %s: find contact %q: %w", cv.uid, val, err)
		}
		if contact != nil {
			if !cv.hasContact(contact.Name) {
				cv.table.AddValue(change.PropContact, contact)
			}
			return nil
		}

	case domain.XPropMozSnooze, domain.XPropMozLastAck:
		// Routed onto the alarm records with the sub-components.
		return nil
	}

	x := domain.XProp{Name: name, Params: flattenParams(prop.Params), Value: prop.Value}
	for _, existing := range cv.target.XProps() {
		if existing.Name == x.Name && existing.Value == x.Value {
			return nil
		}
	}
	cv.table.AddValue(change.PropXProp, x)
	return nil
}

func flattenParams(params ical.Params) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for name := range params {
		out[name] = params.Get(name)
	}
	return out
}

func childNamed(comp *ical.Component, name string) *ical.Component {
	for _, child := range comp.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}
