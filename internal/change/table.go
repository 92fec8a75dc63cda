package change

import "sort"

// Entry is the per-property diff record for one conversion call.
type Entry struct {
	Index PropIndex

	// Present means the property appeared in the wire input at all.
	// Absence is never deletion; a property not marked present must not
	// be mutated on the target entity.
	Present bool

	// Changed means the incoming value differs from the stored one.
	Changed bool

	// Added and Removed accumulate collection deltas; they are applied
	// to the entity in one commit pass, not as the loop runs.
	Added   []any
	Removed []any
}

// Table is the per-conversion change ledger, keyed by property index. It
// accumulates state across a single conversion call only and must not be
// reused.
type Table struct {
	entries map[PropIndex]*Entry
}

func NewTable() *Table {
	return &Table{entries: make(map[PropIndex]*Entry)}
}

// Entry returns the record for an index, creating it on first use.
func (t *Table) Entry(i PropIndex) *Entry {
	e, ok := t.entries[i]
	if !ok {
		e = &Entry{Index: i}
		t.entries[i] = e
	}
	return e
}

// MarkPresent records that the property appeared in the input.
func (t *Table) MarkPresent(i PropIndex) {
	t.Entry(i).Present = true
}

// MarkChanged records a value change; it implies presence.
func (t *Table) MarkChanged(i PropIndex) {
	e := t.Entry(i)
	e.Present = true
	e.Changed = true
}

// AddValue queues a collection addition.
func (t *Table) AddValue(i PropIndex, v any) {
	e := t.Entry(i)
	e.Present = true
	e.Changed = true
	e.Added = append(e.Added, v)
}

// RemoveValue queues a collection removal.
func (t *Table) RemoveValue(i PropIndex, v any) {
	e := t.Entry(i)
	e.Present = true
	e.Changed = true
	e.Removed = append(e.Removed, v)
}

// IsPresent reports whether the property appeared in the input.
func (t *Table) IsPresent(i PropIndex) bool {
	e, ok := t.entries[i]
	return ok && e.Present
}

// IsChanged reports whether the property's value changed.
func (t *Table) IsChanged(i PropIndex) bool {
	e, ok := t.entries[i]
	return ok && e.Changed
}

// Changed lists every index with a recorded change, sorted for stable
// iteration.
func (t *Table) Changed() []PropIndex {
	var out []PropIndex
	for i, e := range t.entries {
		if e.Changed {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// ChangedCount is the number of properties with recorded changes; a zero
// count after a reconversion is the idempotence signal downstream
// scheduling checks for.
func (t *Table) ChangedCount() int {
	n := 0
	for _, e := range t.entries {
		if e.Changed {
			n++
		}
	}
	return n
}

// Entries returns every record, sorted by index.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}
