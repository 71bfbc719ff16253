// Package taxonomy holds the local view of known node and edge types and the
// values registered under each. Types and values keep first-registration order.
package taxonomy

// Taxonomy maps type names to ordered, duplicate-free value lists.
// The zero value is not usable; call New.
type Taxonomy struct {
	order  []string
	values map[string][]string
	seen   map[string]map[string]struct{}
}

// New returns an empty taxonomy.
func New() *Taxonomy {
	return &Taxonomy{
		values: make(map[string][]string),
		seen:   make(map[string]map[string]struct{}),
	}
}

// AddType registers typ with an empty value set if it is not present.
// It reports whether the type was added.
func (t *Taxonomy) AddType(typ string) bool {
	if _, ok := t.seen[typ]; ok {
		return false
	}
	t.order = append(t.order, typ)
	t.values[typ] = nil
	t.seen[typ] = make(map[string]struct{})
	return true
}

// Add registers typ if needed and appends values not yet present.
func (t *Taxonomy) Add(typ string, values ...string) {
	t.AddType(typ)
	seen := t.seen[typ]
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		t.values[typ] = append(t.values[typ], v)
	}
}

// Has reports whether typ is registered.
func (t *Taxonomy) Has(typ string) bool {
	_, ok := t.seen[typ]
	return ok
}

// HasValue reports whether value is registered under typ.
func (t *Taxonomy) HasValue(typ, value string) bool {
	_, ok := t.seen[typ][value]
	return ok
}

// Types returns the registered type names in registration order.
func (t *Taxonomy) Types() []string {
	return append([]string(nil), t.order...)
}

// Values returns a copy of the values under typ, nil for unknown types.
func (t *Taxonomy) Values(typ string) []string {
	v := t.values[typ]
	if v == nil {
		return nil
	}
	return append([]string(nil), v...)
}

// Len returns the number of registered types.
func (t *Taxonomy) Len() int { return len(t.order) }

// Clone returns a deep copy.
func (t *Taxonomy) Clone() *Taxonomy {
	c := New()
	for _, typ := range t.order {
		c.Add(typ, t.values[typ]...)
	}
	return c
}

// Entry is one type and its values, used for serialisation.
type Entry struct {
	Type   string   `json:"type" yaml:"type"`
	Values []string `json:"values" yaml:"values"`
}

// Entries returns the taxonomy as an ordered list.
func (t *Taxonomy) Entries() []Entry {
	out := make([]Entry, 0, len(t.order))
	for _, typ := range t.order {
		vals := t.Values(typ)
		if vals == nil {
			vals = []string{}
		}
		out = append(out, Entry{Type: typ, Values: vals})
	}
	return out
}

// FromEntries builds a taxonomy from an ordered entry list.
func FromEntries(entries []Entry) *Taxonomy {
	t := New()
	for _, e := range entries {
		t.Add(e.Type, e.Values...)
	}
	return t
}
