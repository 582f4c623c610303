package csv

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// NodeToRecords converts an AST node produced by Parse or ParseReader back
// into rows, header first.
//
//   - *ast.ArrayDataNode (file) → [][]string (slice of records)
//   - *ast.ArrayDataNode (record) → [][]string with that one record
//   - *ast.LiteralNode (field) → [][]string with one single-cell record
//
// Example:
//
//	node, _ := csv.Parse("name,age\nAlice,30\n")
//	records := csv.NodeToRecords(node)
//	// records is [][]string{{"name","age"}, {"Alice","30"}}
func NodeToRecords(node ast.SchemaNode) [][]string {
	switch n := node.(type) {
	case *ast.LiteralNode:
		return [][]string{{literalString(n)}}
	case *ast.ArrayDataNode:
		elements := n.Elements()
		if len(elements) == 0 {
			return [][]string{}
		}
		if _, ok := elements[0].(*ast.LiteralNode); ok {
			return [][]string{nodeFields(n)}
		}
		records := make([][]string, len(elements))
		for i, elem := range elements {
			if rec, ok := elem.(*ast.ArrayDataNode); ok {
				records[i] = nodeFields(rec)
			} else {
				records[i] = []string{}
			}
		}
		return records
	}
	return [][]string{}
}

func nodeFields(n *ast.ArrayDataNode) []string {
	fields := make([]string, 0, n.Len())
	for _, elem := range n.Elements() {
		if lit, ok := elem.(*ast.LiteralNode); ok {
			fields = append(fields, literalString(lit))
		} else {
			fields = append(fields, fmt.Sprintf("%v", elem))
		}
	}
	return fields
}

// RecordsToNode converts rows to an AST node, the inverse of NodeToRecords.
//
// Example:
//
//	records := [][]string{
//	    {"name", "age"},
//	    {"Alice", "30"},
//	}
//	node := csv.RecordsToNode(records)
func RecordsToNode(records [][]string) *ast.ArrayDataNode {
	nodes := make([]ast.SchemaNode, len(records))
	for i, rec := range records {
		nodes[i] = recordNode(rec, 0)
	}
	return ast.NewArrayDataNode(nodes, ast.ZeroPosition())
}
