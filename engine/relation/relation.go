// Package relation expands a selection into the individual relations to commit.
package relation

import (
	"fmt"

	"github.com/WessleyAI/relgraph/engine/domain"
)

// Triple is one relation to create: (A:NodeAType {NodeAValue})-[:EdgeType {EdgeLabel}]->(B:NodeBType {NodeBValue}).
type Triple struct {
	NodeAType  string `json:"node_a_type"`
	NodeAValue string `json:"node_a_value"`
	EdgeType   string `json:"edge_type"`
	EdgeLabel  string `json:"edge_label"`
	NodeBType  string `json:"node_b_type"`
	NodeBValue string `json:"node_b_value"`
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s:%s)-[%s:%s]->(%s:%s)",
		t.NodeAType, t.NodeAValue, t.EdgeType, t.EdgeLabel, t.NodeBType, t.NodeBValue)
}

// Selection is the read side of selection.Set that expansion needs.
type Selection interface {
	Type(slot domain.Slot) (string, bool)
	Values(slot domain.Slot) []string
}

// Expand returns the Cartesian product NodeA values x Edge values x NodeB
// values, NodeA outermost and NodeB innermost. The result is not deduplicated.
// If any slot lacks a type or values, it returns an IncompleteSelectionError
// and no triples.
func Expand(sel Selection) ([]Triple, error) {
	if err := check(sel); err != nil {
		return nil, err
	}
	aType, _ := sel.Type(domain.SlotNodeA)
	eType, _ := sel.Type(domain.SlotEdge)
	bType, _ := sel.Type(domain.SlotNodeB)
	as := sel.Values(domain.SlotNodeA)
	es := sel.Values(domain.SlotEdge)
	bs := sel.Values(domain.SlotNodeB)

	out := make([]Triple, 0, len(as)*len(es)*len(bs))
	for _, a := range as {
		for _, e := range es {
			for _, b := range bs {
				out = append(out, Triple{
					NodeAType: aType, NodeAValue: a,
					EdgeType: eType, EdgeLabel: e,
					NodeBType: bType, NodeBValue: b,
				})
			}
		}
	}
	return out, nil
}

// Count returns the number of triples Expand would produce.
func Count(sel Selection) (int, error) {
	if err := check(sel); err != nil {
		return 0, err
	}
	n := 1
	for _, sl := range domain.Slots {
		n *= len(sel.Values(sl))
	}
	return n, nil
}

func check(sel Selection) error {
	for _, sl := range domain.Slots {
		if _, ok := sel.Type(sl); !ok {
			return &domain.IncompleteSelectionError{Slot: sl, Missing: "type"}
		}
		if len(sel.Values(sl)) == 0 {
			return &domain.IncompleteSelectionError{Slot: sl, Missing: "values"}
		}
	}
	return nil
}
