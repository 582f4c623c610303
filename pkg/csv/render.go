package csv

import (
	"bytes"
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Render converts an AST node to CSV bytes with DefaultWriterOptions.
//
// The node should be the result of Parse, ParseReader or Document.ToAST.
//
// Rendering handles:
//   - Automatic quoting of cells containing the delimiter, quotes, or newlines
//   - Proper escaping of quotes (doubled)
//   - Preservation of empty cells
//
// Example:
//
//	node, _ := csv.Parse("name,age\nAlice,30\nBob,25\n")
//	bytes, _ := csv.Render(node)
//	// bytes: name,age\nAlice,30\nBob,25\n
func Render(node ast.SchemaNode) ([]byte, error) {
	return RenderWithOptions(node, DefaultWriterOptions())
}

// RenderWithOptions converts an AST node to CSV bytes with custom options.
//
// Example:
//
//	opts := csv.DefaultWriterOptions()
//	opts.Delimiter = '\t'
//	opts.UseCRLF = true
//	bytes, err := csv.RenderWithOptions(node, opts)
func RenderWithOptions(node ast.SchemaNode, opts WriterOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if node == nil {
		return []byte{}, nil
	}

	r := renderer{opts: opts, lineEnding: "\n"}
	if opts.UseCRLF {
		r.lineEnding = "\r\n"
	}
	if err := r.node(node); err != nil {
		return nil, err
	}
	return r.buf.Bytes(), nil
}

type renderer struct {
	buf        bytes.Buffer
	opts       WriterOptions
	lineEnding string
}

func (r *renderer) node(node ast.SchemaNode) error {
	switch n := node.(type) {
	case *ast.ArrayDataNode:
		return r.file(n)
	case *ast.LiteralNode:
		r.cell(literalString(n))
		r.buf.WriteString(r.lineEnding)
		return nil
	default:
		return fmt.Errorf("unsupported node type for CSV rendering: %T", node)
	}
}

// file renders an array of records. A bare array of literals is one record.
func (r *renderer) file(node *ast.ArrayDataNode) error {
	elements := node.Elements()
	if len(elements) == 0 {
		return nil
	}
	if _, ok := elements[0].(*ast.LiteralNode); ok {
		return r.record(node)
	}
	for _, elem := range elements {
		rec, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return fmt.Errorf("unexpected element type in array: %T", elem)
		}
		if err := r.record(rec); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) record(node *ast.ArrayDataNode) error {
	for i, elem := range node.Elements() {
		lit, ok := elem.(*ast.LiteralNode)
		if !ok {
			return fmt.Errorf("unexpected field type in record: %T", elem)
		}
		if i > 0 {
			r.buf.WriteByte(r.opts.Delimiter)
		}
		r.cell(literalString(lit))
	}
	r.buf.WriteString(r.lineEnding)
	return nil
}

func (r *renderer) cell(value string) {
	r.buf.Write(quoteCell(value, r.opts.Delimiter, r.opts.Quote))
}

// quoteCell quotes value when it contains the delimiter, the quote or a
// line break, doubling inner quotes.
func quoteCell(value string, delim, quote byte) []byte {
	needsQuoting := false
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case delim, quote, '\n', '\r':
			needsQuoting = true
		}
	}
	if !needsQuoting {
		return []byte(value)
	}

	out := make([]byte, 0, len(value)+2)
	out = append(out, quote)
	for i := 0; i < len(value); i++ {
		if value[i] == quote {
			out = append(out, quote)
		}
		out = append(out, value[i])
	}
	return append(out, quote)
}

func literalString(node *ast.LiteralNode) string {
	switch v := node.Value().(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
