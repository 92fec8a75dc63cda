package domain

// XProp is one entry of the extension bag: a name→value pair with optional
// parameters. The bag is a multimap; the same name may repeat.
type XProp struct {
	Name   string
	Params map[string]string
	Value  string
}

// Vendor x-property names the engine itself writes into the bag.
const (
	XPropParticipant   = "X-CALCONV-PARTICIPANT"
	XPropPerUserTransp = "X-CALCONV-PERUSER-TRANSP"
	XPropPollCandidate = "X-CALCONV-POLL-CANDIDATE"
	XPropRawComponent  = "X-CALCONV-RAW"
)

// Well-known third-party x-properties with dedicated merge semantics.
const (
	XPropCost     = "X-COST"
	XPropLocation = "X-LOCATION"
	XPropCategory = "X-CATEGORY"
	XPropContact  = "X-CONTACT"

	XPropMozSnooze  = "X-MOZ-SNOOZE-TIME"
	XPropMozLastAck = "X-MOZ-LASTACK"
)

// Param returns a parameter value, or "" when absent.
func (x XProp) Param(name string) string {
	return x.Params[name]
}

// Equal compares name, value and the full parameter map.
func (x XProp) Equal(o XProp) bool {
	if x.Name != o.Name || x.Value != o.Value || len(x.Params) != len(o.Params) {
		return false
	}
	for k, v := range x.Params {
		if o.Params[k] != v {
			return false
		}
	}
	return true
}

// Clone copies the x-prop including its parameter map.
func (x XProp) Clone() XProp {
	c := x
	if x.Params != nil {
		c.Params = make(map[string]string, len(x.Params))
		for k, v := range x.Params {
			c.Params[k] = v
		}
	}
	return c
}

// XPropsNamed returns every bag entry with the given name, in bag order.
func (e *Entity) XPropsNamed(name string) []XProp {
	var out []XProp
	for _, x := range e.XProps {
		if x.Name == name {
			out = append(out, x)
		}
	}
	return out
}

// AddXProp appends to the bag.
func (e *Entity) AddXProp(x XProp) {
	e.XProps = append(e.XProps, x)
}

// ReplaceXProps removes every entry with the given name and appends the
// replacements, preserving the rest of the bag.
func (e *Entity) ReplaceXProps(name string, repl []XProp) {
	out := e.XProps[:0]
	for _, x := range e.XProps {
		if x.Name != name {
			out = append(out, x)
		}
	}
	e.XProps = append(out, repl...)
}

// RemoveXProps drops every entry with the given name, reporting whether any
// were removed.
func (e *Entity) RemoveXProps(name string) bool {
	n := len(e.XProps)
	e.ReplaceXProps(name, nil)
	return len(e.XProps) != n
}
