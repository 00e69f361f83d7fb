package projector

// Slot is a single optional named value. A Slot that was not explicitly
// supplied is absent: it never contributes to an assembled node, whatever
// its value holds.
type Slot struct {
	name  string
	value any
	set   bool
}

// SetIfPresent builds a Slot. When isSet is false the slot is absent and
// value is dropped, so an absent slot is indistinguishable from one that
// never existed.
func SetIfPresent(name string, value any, isSet bool) Slot {
	if !isSet {
		return Slot{name: name}
	}
	return Slot{name: name, value: value, set: true}
}

func (s Slot) Name() string { return s.name }
func (s Slot) Value() any   { return s.value }
func (s Slot) IsSet() bool  { return s.set }

func (s Slot) part() (string, any, bool) { return s.name, s.value, s.set }
