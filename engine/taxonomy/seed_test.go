package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WessleyAI/relgraph/engine/domain"
)

func TestLoadSeed(t *testing.T) {
	src := `
nodes:
  - type: Person
    values: [Alice, Bob, Alice]
  - type: Event
edges:
  - type: Friendship
    values: [Close Friend]
`
	s, err := LoadSeed(strings.NewReader(src))
	require.NoError(t, err)

	nodes, edges := s.Taxonomies()
	assert.Equal(t, []string{"Person", "Event"}, nodes.Types())
	assert.Equal(t, []string{"Alice", "Bob"}, nodes.Values("Person"))
	assert.Empty(t, nodes.Values("Event"))
	assert.Equal(t, []string{"Close Friend"}, edges.Values("Friendship"))
}

func TestLoadSeed_Empty(t *testing.T) {
	s, err := LoadSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, s.Nodes)
}

func TestLoadSeed_UnknownField(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("vertices: []\n"))
	require.Error(t, err)
}

func TestLoadSeed_InvalidType(t *testing.T) {
	_, err := LoadSeed(strings.NewReader("nodes:\n  - type: \"\"\n"))
	require.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestLoadSeedFile_Default(t *testing.T) {
	s, err := LoadSeedFile("../../configs/seed.yaml")
	require.NoError(t, err)
	nodes, edges := s.Taxonomies()
	assert.Equal(t, []string{"Person", "Location", "Event", "Object"}, nodes.Types())
	assert.Equal(t, []string{"Friendship", "Ownership", "Participation", "Located_In"}, edges.Types())
	assert.Len(t, edges.Values("Located_In"), 5)
}
