// Package selection models the operator's current pick of node A, edge, and
// node B: one type per slot and an ordered set of values under it.
package selection

import (
	"strings"

	"github.com/WessleyAI/relgraph/engine/domain"
	"github.com/WessleyAI/relgraph/pkg/fn"
)

type slot struct {
	typ    string
	hasTyp bool
	values []string
}

// Set is the current selection. It is not safe for concurrent use.
type Set struct {
	mode  domain.Mode
	slots [len(domain.Slots)]slot
}

// New returns an empty selection in the given mode.
func New(mode domain.Mode) *Set {
	return &Set{mode: mode}
}

// Mode returns the global selection mode.
func (s *Set) Mode() domain.Mode { return s.mode }

// SetMode switches mode. Moving to single mode keeps only the first value of
// each slot.
func (s *Set) SetMode(m domain.Mode) {
	s.mode = m
	if m == domain.ModeSingle {
		for i := range s.slots {
			if len(s.slots[i].values) > 1 {
				s.slots[i].values = s.slots[i].values[:1]
			}
		}
	}
}

// ChooseType sets the slot's type and clears its values; values are scoped to a type.
func (s *Set) ChooseType(sl domain.Slot, typ string) {
	s.slots[sl] = slot{typ: typ, hasTyp: true}
}

// Type returns the slot's chosen type.
func (s *Set) Type(sl domain.Slot) (string, bool) {
	return s.slots[sl].typ, s.slots[sl].hasTyp
}

// Values returns a copy of the slot's chosen values.
func (s *Set) Values(sl domain.Slot) []string {
	return append([]string(nil), s.slots[sl].values...)
}

// SetValues replaces the slot's values. Single mode keeps only the first
// element; bulk mode keeps all of them, deduplicated in order.
func (s *Set) SetValues(sl domain.Slot, values []string) {
	if s.mode == domain.ModeSingle {
		if len(values) == 0 {
			s.slots[sl].values = nil
			return
		}
		s.slots[sl].values = []string{values[0]}
		return
	}
	s.slots[sl].values = fn.Unique(values)
}

// Select applies one pick of value: single mode replaces the selection, bulk
// mode toggles the value in or out.
func (s *Set) Select(sl domain.Slot, value string) {
	if s.mode == domain.ModeSingle {
		s.SetValues(sl, []string{value})
		return
	}
	s.SetValues(sl, Toggle(s.slots[sl].values, value))
}

// Reset clears all slots. The mode is kept.
func (s *Set) Reset() {
	s.slots = [len(domain.Slots)]slot{}
}

// Toggle returns current with value removed if present, appended otherwise.
func Toggle(current []string, value string) []string {
	out := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == value {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, value)
	}
	return out
}

// ParseEntries splits multi-line input into entries: one per line, trimmed,
// blanks dropped, duplicates removed keeping the first occurrence.
func ParseEntries(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return fn.Unique(out)
}

// SlotView is the serialisable state of one slot.
type SlotView struct {
	Type   string   `json:"type,omitempty"`
	Values []string `json:"values"`
	Count  int      `json:"count"`
}

// View is the serialisable state of a Set.
type View struct {
	Mode  string   `json:"mode"`
	NodeA SlotView `json:"node_a"`
	Edge  SlotView `json:"edge"`
	NodeB SlotView `json:"node_b"`
}

// View returns a copy of the selection for display.
func (s *Set) View() View {
	sv := func(sl domain.Slot) SlotView {
		vals := s.Values(sl)
		if vals == nil {
			vals = []string{}
		}
		return SlotView{Type: s.slots[sl].typ, Values: vals, Count: len(vals)}
	}
	return View{
		Mode:  s.mode.String(),
		NodeA: sv(domain.SlotNodeA),
		Edge:  sv(domain.SlotEdge),
		NodeB: sv(domain.SlotNodeB),
	}
}
