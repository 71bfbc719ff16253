package taxonomy

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/WessleyAI/relgraph/engine/domain"
)

// Seed is a taxonomy file: the types and values known before any store sync.
//
//	nodes:
//	  - type: Person
//	    values: [Alice, Bob]
//	edges:
//	  - type: Friendship
//	    values: [Close Friend]
type Seed struct {
	Nodes []Entry `yaml:"nodes"`
	Edges []Entry `yaml:"edges"`
}

// LoadSeed decodes and validates a YAML seed.
func LoadSeed(r io.Reader) (Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	for _, group := range [][]Entry{s.Nodes, s.Edges} {
		for _, e := range group {
			if err := domain.ValidateTypeName(e.Type); err != nil {
				return Seed{}, err
			}
			for _, v := range e.Values {
				if err := domain.ValidateValueName(v); err != nil {
					return Seed{}, fmt.Errorf("seed type %q: %w", e.Type, err)
				}
			}
		}
	}
	return s, nil
}

// LoadSeedFile reads a seed from path.
func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, err
	}
	defer f.Close()
	return LoadSeed(f)
}

// Taxonomies returns the node and edge taxonomies described by the seed.
func (s Seed) Taxonomies() (nodes, edges *Taxonomy) {
	return FromEntries(s.Nodes), FromEntries(s.Edges)
}
