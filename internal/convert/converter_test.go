package convert

import (
	"context"
	"testing"

	"github.com/emersion/go-ical"

	"gitea.jw6.us/james/calconv/internal/change"
	"gitea.jw6.us/james/calconv/internal/domain"
	"gitea.jw6.us/james/calconv/internal/store"
)

func newComp(name string, props ...*ical.Prop) *ical.Component {
	c := ical.NewComponent(name)
	for _, p := range props {
		c.Props.Add(p)
	}
	return c
}

func prop(name, value string, params ...string) *ical.Prop {
	p := ical.NewProp(name)
	p.Value = value
	for i := 0; i+1 < len(params); i += 2 {
		p.Params.Set(params[i], params[i+1])
	}
	return p
}

func newTestConverter(level store.ConformanceLevel) (*Converter, *store.Memory) {
	mem := store.NewMemory("alice", level)
	return New(mem, nil), mem
}

func basicEvent(uid string) *ical.Component {
	return newComp(ical.CompEvent,
		prop("UID", uid),
		prop("DTSTART", "20240304T100000Z"),
		prop("DTEND", "20240304T110000Z"),
		prop("SUMMARY", "Weekly sync"),
		prop("DESCRIPTION", "Status round"),
		prop("STATUS", "CONFIRMED"),
	)
}

func TestConvertFreshEvent(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	batch := &Batch{ColPath: "/cal/work/"}

	comp := basicEvent("ev-1")
	comp.Props.Add(prop("CATEGORIES", "Work,Travel"))

	res, err := conv.Convert(context.Background(), batch, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Status != StatusOK {
		t.Fatalf("Status = %v", res.Status)
	}
	if !res.New {
		t.Error("expected New for an unseen uid")
	}

	e := res.Entity
	if e.Type != domain.TypeEvent || e.UID != "ev-1" || e.ColPath != "/cal/work/" {
		t.Errorf("identity = %v/%s/%s", e.Type, e.UID, e.ColPath)
	}
	if e.Name != "ev-1.ics" {
		t.Errorf("resource name = %q", e.Name)
	}
	if e.Owner != "alice" {
		t.Errorf("owner = %q", e.Owner)
	}
	if e.Summary != "Weekly sync" || e.Status != "CONFIRMED" {
		t.Errorf("content = %q/%q", e.Summary, e.Status)
	}
	if e.EndType != domain.EndTypeDate || e.End == nil || e.End.Value != "20240304T110000Z" {
		t.Errorf("end = %v/%+v", e.EndType, e.End)
	}
	if len(e.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(e.Categories))
	}
	for _, cat := range e.Categories {
		if cat.Href == "" {
			t.Errorf("category %q not resolved through the callback", cat.Word)
		}
	}
	if e.Created == "" || e.Created != e.LastModified || e.Created != e.DTStamp {
		t.Errorf("synthesized timestamps differ: %q/%q/%q", e.Created, e.LastModified, e.DTStamp)
	}
	if batch.FindEntity("ev-1") != e {
		t.Error("master not registered in the batch")
	}
	if !res.Changes.IsChanged(change.PropSummary) {
		t.Error("summary change not recorded")
	}
}

func TestConvertRejectsBadInput(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	batch := &Batch{ColPath: "/cal/work/"}
	ctx := context.Background()

	if _, err := conv.Convert(ctx, batch, nil, false); !IsCode(err, CodeEmptyComponent) {
		t.Errorf("nil component: %v", err)
	}
	if _, err := conv.Convert(ctx, batch, newComp(ical.CompEvent), false); !IsCode(err, CodeEmptyComponent) {
		t.Errorf("empty component: %v", err)
	}
	if _, err := conv.Convert(ctx, batch, newComp("VJUNK", prop("UID", "x")), false); !IsCode(err, CodeUnsupportedComponentType) {
		t.Errorf("unknown component: %v", err)
	}
	if _, err := conv.Convert(ctx, batch, newComp(ical.CompEvent, prop("SUMMARY", "no uid")), false); !IsCode(err, CodeMissingUID) {
		t.Errorf("missing uid: %v", err)
	}
}

func TestConvertTypeMismatch(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	mem.PutEvent(&domain.Entity{
		Type: domain.TypeEvent, UID: "ev-1", ColPath: "/cal/work/", Owner: "alice",
	})

	todo := newComp(ical.CompToDo, prop("UID", "ev-1"), prop("SUMMARY", "now a task"))
	_, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, todo, false)
	if !IsCode(err, CodeMismatchedEntityType) {
		t.Errorf("got %v, want mismatched-entity-type", err)
	}
}

func TestConvertIdempotent(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	comp := basicEvent("ev-1")
	comp.Props.Add(prop("CATEGORIES", "Work"))

	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	mem.PutEvent(res.Entity)

	res2, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if res2.New {
		t.Error("reconversion must not report New")
	}
	if n := res2.Changes.ChangedCount(); n != 0 {
		t.Errorf("reconversion changed %d properties (%v), want 0", n, res2.Changes.Changed())
	}
}

func TestConvertOverrideWithMasterInBatch(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	batch := &Batch{ColPath: "/cal/work/"}
	ctx := context.Background()

	master := basicEvent("series-1")
	master.Props.Add(prop("RRULE", "FREQ=WEEKLY"))
	mres, err := conv.Convert(ctx, batch, master, false)
	if err != nil {
		t.Fatalf("master Convert: %v", err)
	}
	if !mres.Entity.Recurring {
		t.Error("master with RRULE must be recurring")
	}

	ov := newComp(ical.CompEvent,
		prop("UID", "series-1"),
		prop("RECURRENCE-ID", "20240311T100000Z"),
		prop("DTSTART", "20240311T140000Z"),
		prop("SUMMARY", "Moved sync"),
	)
	ores, err := conv.Convert(ctx, batch, ov, false)
	if err != nil {
		t.Fatalf("override Convert: %v", err)
	}
	if ores.Status != StatusOK {
		t.Fatalf("override Status = %v, want OK when the master is in the batch", ores.Status)
	}
	if !ores.Ref.IsOverride() {
		t.Fatal("expected an override ref")
	}
	if got := ores.Ref.Summary(); got != "Moved sync" {
		t.Errorf("override summary = %q", got)
	}
	if mres.Entity.Summary != "Weekly sync" {
		t.Errorf("master summary mutated to %q", mres.Entity.Summary)
	}
	// Unset fields read through to the master.
	if got := ores.Ref.Status(); got != "CONFIRMED" {
		t.Errorf("override status = %q, want master fallback", got)
	}
	if mres.Entity.FindOverrideEntry("20240311T100000Z") == nil {
		t.Error("override not attached to the master")
	}
}

func TestConvertOrphanOverrideSynthesizesMaster(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	batch := &Batch{ColPath: "/cal/work/"}

	ov := newComp(ical.CompEvent,
		prop("UID", "orphan-1"),
		prop("RECURRENCE-ID", "20240311T100000Z"),
		prop("DTSTART", "20240311T140000Z"),
		prop("SUMMARY", "Only instance"),
	)
	res, err := conv.Convert(context.Background(), batch, ov, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Status != StatusNotFound {
		t.Fatalf("Status = %v, want the not-found sentinel", res.Status)
	}
	if res.Entity != nil {
		t.Error("sentinel result must not expose the master")
	}

	master := batch.FindEntity("orphan-1")
	if master == nil {
		t.Fatal("synthesized master missing from the batch")
	}
	if master.Status != domain.StatusMasterSuppressed {
		t.Errorf("master status = %q", master.Status)
	}
	if !master.Recurring {
		t.Error("synthesized master must be recurring")
	}
	if master.Start == nil || master.Start.Value != "19980118T230000Z" {
		t.Errorf("sentinel start = %+v", master.Start)
	}
	if master.FindOverrideEntry("20240311T100000Z") == nil {
		t.Error("override not attached to the synthesized master")
	}
}

func TestConvertInstanceOnlyBatchPreservesOverrides(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)

	stored := &domain.Entity{
		Type: domain.TypeEvent, UID: "series-1", ColPath: "/cal/work/", Owner: "alice",
		Start:  &domain.DateTime{Value: "20240304T100000Z"},
		RRules: []string{"FREQ=WEEKLY"}, Recurring: true,
		Summary: "Weekly sync",
	}
	stored.AddOverrideEntry(&domain.Override{RecurrenceID: "20240318T100000Z"})
	mem.PutEvent(stored)

	batch := &Batch{ColPath: "/cal/work/"}
	ov := newComp(ical.CompEvent,
		prop("UID", "series-1"),
		prop("RECURRENCE-ID", "20240311T100000Z"),
		prop("SUMMARY", "Moved"),
	)
	res, err := conv.Convert(context.Background(), batch, ov, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if res.Status != StatusNotFound {
		t.Fatalf("Status = %v, want not-found for an override behind a fetched master", res.Status)
	}
	if !stored.InstanceOnly {
		t.Error("fetched master must be instance-only")
	}

	removed := conv.FinishBatch(batch)
	if len(removed) != 0 {
		t.Errorf("instance-only batch pruned overrides: %v", removed)
	}
	if stored.FindOverrideEntry("20240318T100000Z") == nil {
		t.Error("unmentioned override pruned from an instance-only batch")
	}
}

func TestFinishBatchPrunesDroppedOverrides(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)

	stored := &domain.Entity{
		Type: domain.TypeEvent, UID: "series-1", ColPath: "/cal/work/", Owner: "alice",
		Start:  &domain.DateTime{Value: "20240304T100000Z"},
		RRules: []string{"FREQ=WEEKLY"}, Recurring: true,
		Summary: "Weekly sync",
	}
	stored.AddOverrideEntry(&domain.Override{RecurrenceID: "20240311T100000Z"})
	stored.AddOverrideEntry(&domain.Override{RecurrenceID: "20240318T100000Z"})
	mem.PutEvent(stored)

	// The batch re-sends the whole series: the master plus one of the two
	// stored overrides.
	batch := &Batch{ColPath: "/cal/work/"}
	ctx := context.Background()
	master := newComp(ical.CompEvent,
		prop("UID", "series-1"),
		prop("DTSTART", "20240304T100000Z"),
		prop("RRULE", "FREQ=WEEKLY"),
		prop("SUMMARY", "Weekly sync"),
	)
	if _, err := conv.Convert(ctx, batch, master, false); err != nil {
		t.Fatalf("master Convert: %v", err)
	}
	ov := newComp(ical.CompEvent,
		prop("UID", "series-1"),
		prop("RECURRENCE-ID", "20240311T100000Z"),
		prop("SUMMARY", "Moved"),
	)
	if _, err := conv.Convert(ctx, batch, ov, false); err != nil {
		t.Fatalf("override Convert: %v", err)
	}

	removed := conv.FinishBatch(batch)
	if rids := removed["series-1"]; len(rids) != 1 || rids[0] != "20240318T100000Z" {
		t.Errorf("removed = %v, want the unmentioned override", removed)
	}
	if stored.FindOverrideEntry("20240311T100000Z") == nil {
		t.Error("mentioned override pruned")
	}
}

func TestOverrideBeforeMasterRestoresPruning(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)

	stored := &domain.Entity{
		Type: domain.TypeEvent, UID: "series-2", ColPath: "/cal/work/", Owner: "alice",
		Start:  &domain.DateTime{Value: "20240101T090000Z"},
		RRules: []string{"FREQ=WEEKLY"}, Recurring: true,
		Summary: "Standup",
	}
	stored.AddOverrideEntry(&domain.Override{RecurrenceID: "20240108T090000Z"})
	stored.AddOverrideEntry(&domain.Override{RecurrenceID: "20240115T090000Z"})
	mem.PutEvent(stored)

	batch := &Batch{ColPath: "/cal/work/"}
	ctx := context.Background()

	// The override arrives first, fetching the master instance-only.
	ov := newComp(ical.CompEvent,
		prop("UID", "series-2"),
		prop("RECURRENCE-ID", "20240108T090000Z"),
		prop("SUMMARY", "Moved"),
	)
	if _, err := conv.Convert(ctx, batch, ov, false); err != nil {
		t.Fatalf("override Convert: %v", err)
	}

	// The master follows in the same payload; the batch now carries the
	// whole series definition and pruning applies again.
	master := newComp(ical.CompEvent,
		prop("UID", "series-2"),
		prop("DTSTART", "20240101T090000Z"),
		prop("RRULE", "FREQ=WEEKLY"),
		prop("SUMMARY", "Standup"),
	)
	if _, err := conv.Convert(ctx, batch, master, false); err != nil {
		t.Fatalf("master Convert: %v", err)
	}
	if stored.InstanceOnly {
		t.Error("instance-only flag still set after the master converted")
	}

	removed := conv.FinishBatch(batch)
	if rids := removed["series-2"]; len(rids) != 1 || rids[0] != "20240115T090000Z" {
		t.Errorf("removed = %v, want the override the batch stopped mentioning", removed)
	}
	if stored.FindOverrideEntry("20240108T090000Z") == nil {
		t.Error("mentioned override pruned")
	}
}

func TestVendorLocationWinsOverCanonical(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	// The second-chance lookup only resolves known locations.
	_ = mem.AddLocation(context.Background(), &domain.Location{Address: "Room B", Combined: "Room B"})

	// Property merge order must not depend on map iteration; the vendor
	// name dispatches after the canonical one every time.
	for i := 0; i < 8; i++ {
		comp := basicEvent("ev-loc")
		comp.Props.Add(prop("LOCATION", "Room A"))
		comp.Props.Add(prop("X-LOCATION", "Room B"))

		res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		loc := res.Entity.Location
		if loc == nil || loc.Address != "Room B" {
			t.Fatalf("location = %+v, want Room B", loc)
		}
	}
}

func TestCategoryQueuedOnce(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)

	comp := basicEvent("ev-cat")
	comp.Props.Add(prop("CATEGORIES", "Work"))
	comp.Props.Add(prop("X-CATEGORY", "Work"))

	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if cats := res.Entity.Categories; len(cats) != 1 || cats[0].Word != "Work" {
		t.Errorf("categories = %+v, want the word queued once", cats)
	}
}

func TestAttendeeMergeSelfOnly(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	mem.PutEvent(&domain.Entity{
		Type: domain.TypeEvent, UID: "ev-1", ColPath: "/cal/work/", Owner: "alice",
		Start:   &domain.DateTime{Value: "20240304T100000Z"},
		Summary: "Team lunch",
		Attendees: []*domain.Attendee{
			{Address: "mailto:alice", ParticipationStatus: "NEEDS-ACTION"},
			{Address: "mailto:bob", ParticipationStatus: "NEEDS-ACTION"},
		},
	})

	comp := newComp(ical.CompEvent,
		prop("UID", "ev-1"),
		prop("DTSTART", "20240304T100000Z"),
		prop("SUMMARY", "Team lunch"),
		prop("ATTENDEE", "mailto:alice", "PARTSTAT", "ACCEPTED"),
		prop("ATTENDEE", "mailto:bob", "PARTSTAT", "DECLINED"),
		prop("ATTENDEE", "mailto:carol", "PARTSTAT", "ACCEPTED"),
	)
	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, true)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	got := map[string]string{}
	for _, att := range res.Entity.Attendees {
		got[att.Address] = att.ParticipationStatus
	}
	if got["mailto:alice"] != "ACCEPTED" {
		t.Errorf("alice = %q, want her own update accepted", got["mailto:alice"])
	}
	if got["mailto:bob"] != "NEEDS-ACTION" {
		t.Errorf("bob = %q, want the stored record preserved", got["mailto:bob"])
	}
	if got["mailto:carol"] != "NEEDS-ACTION" {
		t.Errorf("carol = %q, want new attendees forced to NEEDS-ACTION", got["mailto:carol"])
	}
}

func TestAttendeeReplaceWithoutMerge(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	mem.PutEvent(&domain.Entity{
		Type: domain.TypeEvent, UID: "ev-1", ColPath: "/cal/work/", Owner: "alice",
		Start:   &domain.DateTime{Value: "20240304T100000Z"},
		Summary: "Team lunch",
		Attendees: []*domain.Attendee{
			{Address: "mailto:bob", ParticipationStatus: "ACCEPTED"},
		},
	})

	comp := newComp(ical.CompEvent,
		prop("UID", "ev-1"),
		prop("DTSTART", "20240304T100000Z"),
		prop("SUMMARY", "Team lunch"),
		prop("ATTENDEE", "mailto:carol", "PARTSTAT", "TENTATIVE"),
	)
	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(res.Entity.Attendees) != 1 || res.Entity.Attendees[0].Address != "mailto:carol" {
		t.Errorf("attendees = %+v, want verbatim replacement", res.Entity.Attendees)
	}
	if !res.Changes.IsChanged(change.PropAttendee) {
		t.Error("attendee change not recorded")
	}
}

func TestAttendeeAbsenceLeavesStoredSet(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	mem.PutEvent(&domain.Entity{
		Type: domain.TypeEvent, UID: "ev-1", ColPath: "/cal/work/", Owner: "alice",
		Start:   &domain.DateTime{Value: "20240304T100000Z"},
		Summary: "Team lunch",
		Attendees: []*domain.Attendee{
			{Address: "mailto:bob", ParticipationStatus: "ACCEPTED"},
		},
	})

	comp := newComp(ical.CompEvent,
		prop("UID", "ev-1"),
		prop("DTSTART", "20240304T100000Z"),
		prop("SUMMARY", "Renamed lunch"),
	)
	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(res.Entity.Attendees) != 1 {
		t.Errorf("attendees = %+v, absence must not clear the stored set", res.Entity.Attendees)
	}
	if res.Changes.IsPresent(change.PropAttendee) {
		t.Error("absent attendee property marked present")
	}
}

func TestStrictPublishRejectsAttendees(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceStrict)
	batch := &Batch{ColPath: "/cal/work/", Method: "PUBLISH"}

	comp := basicEvent("ev-1")
	comp.Props.Add(prop("ATTENDEE", "mailto:bob"))

	_, err := conv.Convert(context.Background(), batch, comp, false)
	if !IsCode(err, CodeAttendeesInStrictPublish) {
		t.Errorf("got %v, want attendees-in-strict-publish", err)
	}
}

func TestTodoDueBecomesEnd(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	comp := newComp(ical.CompToDo,
		prop("UID", "task-1"),
		prop("DTSTART", "20240304T100000Z"),
		prop("DUE", "20240308T170000Z"),
		prop("SUMMARY", "File report"),
		prop("PERCENT-COMPLETE", "40"),
	)
	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/tasks/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	e := res.Entity
	if e.EndType != domain.EndTypeDate || e.End == nil || e.End.Value != "20240308T170000Z" {
		t.Errorf("due not aliased to end: %v/%+v", e.EndType, e.End)
	}
	if e.PercentComplete != 40 {
		t.Errorf("percent-complete = %d", e.PercentComplete)
	}
}

func TestDurationClearsEnd(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	mem.PutEvent(&domain.Entity{
		Type: domain.TypeEvent, UID: "ev-1", ColPath: "/cal/work/", Owner: "alice",
		Start:   &domain.DateTime{Value: "20240304T100000Z"},
		End:     &domain.DateTime{Value: "20240304T110000Z"},
		EndType: domain.EndTypeDate,
		Summary: "Sync",
	})

	comp := newComp(ical.CompEvent,
		prop("UID", "ev-1"),
		prop("DTSTART", "20240304T100000Z"),
		prop("DURATION", "PT45M"),
		prop("SUMMARY", "Sync"),
	)
	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	e := res.Entity
	if e.EndType != domain.EndTypeDuration || e.Duration != "PT45M" {
		t.Errorf("end type = %v, duration = %q", e.EndType, e.Duration)
	}
}

func TestInvalidRRuleStrictVsWarn(t *testing.T) {
	bad := func() *ical.Component {
		c := basicEvent("ev-1")
		c.Props.Add(prop("RRULE", "FREQ=BOGUS"))
		return c
	}

	strict, _ := newTestConverter(store.ConformanceStrict)
	if _, err := strict.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, bad(), false); err == nil {
		t.Error("strict conformance accepted an unparseable RRULE")
	}

	warn, _ := newTestConverter(store.ConformanceWarn)
	res, err := warn.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, bad(), false)
	if err != nil {
		t.Fatalf("warn Convert: %v", err)
	}
	if len(res.Entity.RRules) != 1 || res.Entity.RRules[0] != "FREQ=BOGUS" {
		t.Errorf("rrules = %v, want the rule stored verbatim", res.Entity.RRules)
	}
	if !res.Entity.Recurring {
		t.Error("entity with a stored rule must be recurring")
	}
}

func TestPollCandidates(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	ctx := context.Background()

	poll := newComp("VPOLL",
		prop("UID", "poll-1"),
		prop("SUMMARY", "Pick a slot"),
		prop("POLL-MODE", "BASIC"),
	)
	cand := func(id, start string) *ical.Component {
		return newComp(ical.CompEvent,
			prop("POLL-ITEM-ID", id),
			prop("DTSTART", start),
			prop("SUMMARY", "Option "+id),
		)
	}
	poll.Children = append(poll.Children, cand("1", "20240304T100000Z"), cand("2", "20240305T100000Z"))

	res, err := conv.Convert(ctx, &Batch{ColPath: "/cal/polls/"}, poll, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	e := res.Entity
	if e.Type != domain.TypePoll || e.PollMode != "BASIC" {
		t.Errorf("poll = %v/%q", e.Type, e.PollMode)
	}
	if len(e.PollItems) != 2 {
		t.Errorf("poll items = %v", e.PollItems)
	}
	if xs := e.XPropsNamed(domain.XPropPollCandidate); len(xs) != 2 {
		t.Errorf("candidate records = %d, want 2", len(xs))
	}

	dup := newComp("VPOLL", prop("UID", "poll-2"))
	dup.Children = append(dup.Children, cand("1", "20240304T100000Z"), cand("1", "20240305T100000Z"))
	if _, err := conv.Convert(ctx, &Batch{ColPath: "/cal/polls/"}, dup, false); !IsCode(err, CodeDuplicatePollItemID) {
		t.Errorf("duplicate item id: %v", err)
	}

	missing := newComp("VPOLL", prop("UID", "poll-3"))
	missing.Children = append(missing.Children, newComp(ical.CompEvent, prop("SUMMARY", "no id")))
	if _, err := conv.Convert(ctx, &Batch{ColPath: "/cal/polls/"}, missing, false); !IsCode(err, CodeMissingPollItemID) {
		t.Errorf("missing item id: %v", err)
	}

	org := newComp("VPOLL", prop("UID", "poll-4"), prop("ORGANIZER", "mailto:alice"))
	if _, err := conv.Convert(ctx, &Batch{ColPath: "/cal/polls/"}, org, false); !IsCode(err, CodeOrganizerOnPoll) {
		t.Errorf("organizer on poll: %v", err)
	}
}

func TestAvailabilityContained(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)

	avail := newComp(compAvailability,
		prop("UID", "avail-1"),
		prop("DTSTART", "20240304T000000Z"),
		prop("BUSYTYPE", "BUSY-UNAVAILABLE"),
	)
	block := newComp(compAvailable,
		prop("UID", "avail-1-block-1"),
		prop("DTSTART", "20240304T090000Z"),
		prop("DTEND", "20240304T170000Z"),
		prop("RRULE", "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"),
	)
	avail.Children = append(avail.Children, block)

	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/avail/"}, avail, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	e := res.Entity
	if e.Type != domain.TypeAvailability || e.BusyType != "BUSY-UNAVAILABLE" {
		t.Errorf("availability = %v/%q", e.Type, e.BusyType)
	}
	if len(e.Contained) != 1 {
		t.Fatalf("contained = %d, want 1", len(e.Contained))
	}
	c := e.Contained[0]
	if c.Type != domain.TypeAvailable || c.UID != "avail-1-block-1" {
		t.Errorf("contained = %v/%q", c.Type, c.UID)
	}
	if !c.Recurring || len(c.RRules) != 1 {
		t.Errorf("contained recurrence = %v/%v", c.Recurring, c.RRules)
	}
}

func TestFreeBusyPeriodsGrouped(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)

	fb := newComp(ical.CompFreeBusy,
		prop("UID", "fb-1"),
		prop("DTSTART", "20240304T000000Z"),
		prop("DTEND", "20240305T000000Z"),
		prop("FREEBUSY", "20240304T090000Z/20240304T100000Z,20240304T130000Z/20240304T140000Z", "FBTYPE", "BUSY"),
		prop("FREEBUSY", "20240304T110000Z/20240304T120000Z", "FBTYPE", "FREE"),
	)
	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/fb/"}, fb, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	e := res.Entity
	if len(e.FreeBusy) != 2 {
		t.Fatalf("freebusy groups = %d, want 2", len(e.FreeBusy))
	}
	byType := map[string]int{}
	for _, g := range e.FreeBusy {
		byType[g.Type] = len(g.Periods)
	}
	if byType["BUSY"] != 2 || byType["FREE"] != 1 {
		t.Errorf("periods by type = %v", byType)
	}
}

func TestUnknownFBTypeStrict(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceStrict)
	fb := newComp(ical.CompFreeBusy,
		prop("UID", "fb-1"),
		prop("DTSTART", "20240304T000000Z"),
		prop("FREEBUSY", "20240304T090000Z/20240304T100000Z", "FBTYPE", "SORT-OF-BUSY"),
	)
	_, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/fb/"}, fb, false)
	if !IsCode(err, CodeUnsupportedParameterValue) {
		t.Errorf("got %v, want unsupported-parameter-value", err)
	}
}

func TestUnknownParamTriggersRawCopy(t *testing.T) {
	conv, _ := newTestConverter(store.ConformanceWarn)
	comp := basicEvent("ev-1")
	comp.Props.Add(prop("SUMMARY", "ignored duplicate", "X-VENDOR-HINT", "keepme"))

	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	raw := res.Entity.XPropsNamed(domain.XPropRawComponent)
	if len(raw) != 1 {
		t.Fatalf("raw copies = %d, want 1", len(raw))
	}
	if raw[0].Value == "" {
		t.Error("raw copy empty")
	}
}

func TestVendorXPropsResolved(t *testing.T) {
	conv, mem := newTestConverter(store.ConformanceWarn)
	_ = mem.AddCategory(context.Background(), &domain.Category{Word: "Offsite"})

	comp := basicEvent("ev-1")
	comp.Props.Add(prop("X-COST", "120 EUR"))
	comp.Props.Add(prop("X-CATEGORY", "Offsite"))
	comp.Props.Add(prop("X-CATEGORY", "Totally-Unknown"))

	res, err := conv.Convert(context.Background(), &Batch{ColPath: "/cal/work/"}, comp, false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	e := res.Entity
	if e.Cost != "120 EUR" {
		t.Errorf("cost = %q", e.Cost)
	}
	if len(e.Categories) != 1 || e.Categories[0].Word != "Offsite" {
		t.Errorf("categories = %+v, want the known word resolved", e.Categories)
	}
	literal := false
	for _, x := range e.XProps {
		if x.Name == "X-CATEGORY" && x.Value == "Totally-Unknown" {
			literal = true
		}
	}
	if !literal {
		t.Error("unknown x-category must fall back to a literal x-prop")
	}
}
