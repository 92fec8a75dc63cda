package change

import "testing"

func TestLookupKnownAndUnknown(t *testing.T) {
	if got := Lookup("summary"); got != PropSummary {
		t.Errorf("Lookup(summary) = %v, want PropSummary", got)
	}
	if got := Lookup("DTSTART"); got != PropDtStart {
		t.Errorf("Lookup(DTSTART) = %v, want PropDtStart", got)
	}
	if got := Lookup("X-APPLE-TRAVEL-TIME"); got != PropXProp {
		t.Errorf("Lookup(x-prop) = %v, want PropXProp", got)
	}
	if got := Lookup("NO-SUCH-PROP"); got != PropXProp {
		t.Errorf("Lookup(unknown) = %v, want PropXProp", got)
	}
}

func TestMarkPresentDoesNotImplyChanged(t *testing.T) {
	tbl := NewTable()
	tbl.MarkPresent(PropSummary)

	if !tbl.IsPresent(PropSummary) {
		t.Error("expected PropSummary present")
	}
	if tbl.IsChanged(PropSummary) {
		t.Error("presence must not imply change")
	}
	if n := tbl.ChangedCount(); n != 0 {
		t.Errorf("ChangedCount = %d, want 0", n)
	}
}

func TestMarkChangedImpliesPresent(t *testing.T) {
	tbl := NewTable()
	tbl.MarkChanged(PropStatus)

	if !tbl.IsPresent(PropStatus) {
		t.Error("change must imply presence")
	}
	if !tbl.IsChanged(PropStatus) {
		t.Error("expected PropStatus changed")
	}
}

func TestAddRemoveValueAccumulate(t *testing.T) {
	tbl := NewTable()
	tbl.AddValue(PropCategories, "work")
	tbl.AddValue(PropCategories, "travel")
	tbl.RemoveValue(PropCategories, "home")

	e := tbl.Entry(PropCategories)
	if len(e.Added) != 2 || len(e.Removed) != 1 {
		t.Fatalf("Added=%d Removed=%d, want 2/1", len(e.Added), len(e.Removed))
	}
	if !e.Changed {
		t.Error("collection delta must mark the entry changed")
	}
}

func TestChangedSorted(t *testing.T) {
	tbl := NewTable()
	tbl.MarkChanged(PropAttendee)
	tbl.MarkChanged(PropSummary)
	tbl.MarkChanged(PropDtStart)

	got := tbl.Changed()
	if len(got) != 3 {
		t.Fatalf("Changed() = %v, want 3 entries", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Errorf("Changed() not sorted: %v", got)
		}
	}
}
