package graph

import (
	"fmt"
	"strings"

	"github.com/WessleyAI/relgraph/engine/domain"
)

// quoteIdentifier renders a label or relationship type as a backtick-quoted
// Cypher identifier with embedded backticks doubled. Labels cannot be passed
// as parameters, so this is the only route by which a name reaches query text.
func quoteIdentifier(name string) (string, error) {
	if err := domain.ValidateTypeName(name); err != nil {
		return "", err
	}
	// Older servers decode the escape \u0060 inside quoted identifiers into a backtick.
	if strings.Contains(strings.ToLower(name), `\u0060`) {
		return "", domain.NewValidationError("type", name, domain.ErrInvalidName)
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}

const (
	listNodeTypesQuery = `CALL db.labels() YIELD label RETURN label AS type ORDER BY type`
	listEdgeTypesQuery = `CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType AS type ORDER BY type`
	nodeCountsQuery    = `MATCH (n) UNWIND labels(n) AS type RETURN type, count(*) AS count`
	relCountsQuery     = `MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS count`
)

func nodeValuesQuery(label string) string {
	return fmt.Sprintf(
		`MATCH (n:%s) WHERE n.%s IS NOT NULL
		 RETURN DISTINCT n.%s AS value ORDER BY value`,
		label, NodeValueProperty, NodeValueProperty)
}

func edgeLabelsQuery(relType string) string {
	return fmt.Sprintf(
		`MATCH ()-[r:%s]->() WHERE r.%s IS NOT NULL
		 RETURN DISTINCT r.%s AS value ORDER BY value`,
		relType, EdgeLabelProperty, EdgeLabelProperty)
}

func mergeNodeQuery(label string) string {
	return fmt.Sprintf(
		`MERGE (n:%s {%s: $value})
		 RETURN elementId(n) AS id`,
		label, NodeValueProperty)
}

func mergeEdgeQuery(relType string) string {
	return fmt.Sprintf(
		`MATCH (a) WHERE elementId(a) = $from
		 MATCH (b) WHERE elementId(b) = $to
		 MERGE (a)-[r:%s {%s: $label}]->(b)
		 RETURN elementId(r) AS id`,
		relType, EdgeLabelProperty)
}
