// Package domain defines the shared vocabulary of the relation engine: taxonomy
// kinds, selection slots and modes, the error taxonomy, and name validation.
package domain

import "fmt"

// Kind distinguishes the node taxonomy from the edge taxonomy. Type names in
// the two kinds live in separate namespaces.
type Kind int

const (
	KindNode Kind = iota
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// ParseKind parses "node" or "edge".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "node":
		return KindNode, nil
	case "edge":
		return KindEdge, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Slot is one of the three positions of a relation: source node, edge, target node.
type Slot int

const (
	SlotNodeA Slot = iota
	SlotEdge
	SlotNodeB
)

// Slots lists the slots in expansion order.
var Slots = [...]Slot{SlotNodeA, SlotEdge, SlotNodeB}

func (s Slot) String() string {
	switch s {
	case SlotNodeA:
		return "node_a"
	case SlotEdge:
		return "edge"
	case SlotNodeB:
		return "node_b"
	default:
		return "unknown"
	}
}

// Kind returns the taxonomy a slot draws its types and values from.
func (s Slot) Kind() Kind {
	if s == SlotEdge {
		return KindEdge
	}
	return KindNode
}

// ParseSlot accepts the String form plus the short aliases "a" and "b".
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "node_a", "a":
		return SlotNodeA, nil
	case "edge":
		return SlotEdge, nil
	case "node_b", "b":
		return SlotNodeB, nil
	}
	return 0, fmt.Errorf("unknown slot %q", s)
}

// Mode controls how value picks merge into a slot.
type Mode int

const (
	// ModeSingle keeps at most one value per slot; a new pick replaces it.
	ModeSingle Mode = iota
	// ModeBulk accumulates values; picking a selected value removes it.
	ModeBulk
)

func (m Mode) String() string {
	if m == ModeBulk {
		return "bulk"
	}
	return "single"
}

// ParseMode parses "single" or "bulk".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "single":
		return ModeSingle, nil
	case "bulk":
		return ModeBulk, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
