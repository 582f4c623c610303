package csv

import (
	"fmt"
	"io"
	"strings"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Document represents a whole CSV input held in memory: the header row and
// the accepted data records.
// All setter methods return *Document to enable method chaining.
//
//	doc := csv.NewDocument().
//		SetHeaders([]string{"name", "age"}).
//		AddRecord([]string{"Alice", "30"}).
//		AddRecord([]string{"Bob", "25"})
type Document struct {
	headers []string
	records [][]string
	lines   []int
}

// Record represents a single row in a CSV file.
// It provides access to cell values by index or by header name.
type Record struct {
	fields  []string
	headers []string // Reference to document headers for name-based access
	line    int
}

// NewDocument creates a new empty Document.
func NewDocument() *Document {
	return &Document{
		headers: []string{},
		records: make([][]string, 0),
	}
}

// ReadDocument reads every record of r into a Document.
// Rejected rows are handled according to opts.OnBadLine.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.OnBadLine = csv.BadLineModeError
//	doc, err := csv.ReadDocument(file, opts)
func ReadDocument(r io.Reader, opts ReaderOptions) (*Document, error) {
	s := NewScannerWithOptions(r, opts)
	doc := NewDocument()
	for s.Scan() {
		rec := s.Record()
		doc.records = append(doc.records, rec.fields)
		doc.lines = append(doc.lines, rec.line)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if h := s.Headers(); h != nil {
		doc.headers = h
	}
	return doc, nil
}

// ParseDocument parses a CSV string into a Document with DefaultReaderOptions.
//
// Example:
//
//	doc, err := csv.ParseDocument("name,age\nAlice,30\nBob,25")
//	if err != nil {
//	    // handle error
//	}
//	rec, _ := doc.GetRecord(0)
//	name, _ := rec.GetByName("name") // "Alice"
func ParseDocument(input string) (*Document, error) {
	return ReadDocument(strings.NewReader(input), DefaultReaderOptions())
}

// SetHeaders sets the column headers for this CSV document.
// Returns the Document for method chaining.
func (d *Document) SetHeaders(headers []string) *Document {
	d.headers = headers
	return d
}

// AddRecord adds a data record (row) to the document.
// Returns the Document for method chaining.
func (d *Document) AddRecord(fields []string) *Document {
	d.records = append(d.records, fields)
	if d.lines != nil {
		d.lines = append(d.lines, 0)
	}
	return d
}

// Headers returns the column headers.
func (d *Document) Headers() []string {
	return d.headers
}

// Records returns all data records as Record objects.
func (d *Document) Records() []Record {
	records := make([]Record, len(d.records))
	for i := range d.records {
		records[i], _ = d.GetRecord(i)
	}
	return records
}

// RecordCount returns the number of data records in the document.
// This does not include the header row.
func (d *Document) RecordCount() int {
	return len(d.records)
}

// GetRecord returns the record at the specified index.
// Returns (Record, false) if the index is out of bounds.
// Index is 0-based (0 = first data record, not the header).
func (d *Document) GetRecord(index int) (Record, bool) {
	if index < 0 || index >= len(d.records) {
		return Record{}, false
	}
	rec := Record{fields: d.records[index], headers: d.headers}
	if index < len(d.lines) {
		rec.line = d.lines[index]
	}
	return rec, true
}

// CSV renders the Document back to CSV with DefaultWriterOptions.
//
// Example:
//
//	doc := csv.NewDocument().
//	    SetHeaders([]string{"name", "age"}).
//	    AddRecord([]string{"Alice", "30"})
//	csvStr, _ := doc.CSV()
//	// Output: name,age\nAlice,30\n
func (d *Document) CSV() (string, error) {
	node, err := d.ToAST()
	if err != nil {
		return "", err
	}
	out, err := Render(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Get gets the field value at the specified index.
// Returns (value, false) if the index is out of bounds.
func (r Record) Get(index int) (string, bool) {
	if index < 0 || index >= len(r.fields) {
		return "", false
	}
	return r.fields[index], true
}

// GetByName gets the field value by header name. The first column with that
// name wins.
// Returns (value, false) if the header name is not found or if no headers are set.
func (r Record) GetByName(name string) (string, bool) {
	for i, header := range r.headers {
		if header == name {
			return r.Get(i)
		}
	}
	return "", false
}

// Fields returns a copy of all field values in the record.
func (r Record) Fields() []string {
	fields := make([]string, len(r.fields))
	copy(fields, r.fields)
	return fields
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.fields)
}

// Line returns the 1-based input line of the record, or 0 if it was not
// read from an input.
func (r Record) Line() int {
	return r.line
}

// ToAST converts the Document to an AST ArrayDataNode. The header is the
// first element when set. Record nodes carry their input line as position.
func (d *Document) ToAST() (*ast.ArrayDataNode, error) {
	all := make([]ast.SchemaNode, 0, len(d.records)+1)

	if len(d.headers) > 0 {
		all = append(all, recordNode(d.headers, 1))
	}
	for i, fields := range d.records {
		line := 0
		if i < len(d.lines) {
			line = d.lines[i]
		}
		all = append(all, recordNode(fields, line))
	}
	return ast.NewArrayDataNode(all, ast.ZeroPosition()), nil
}

func recordNode(fields []string, line int) *ast.ArrayDataNode {
	pos := ast.ZeroPosition()
	if line > 0 {
		pos = ast.NewPosition(0, line, 1)
	}
	nodes := make([]ast.SchemaNode, len(fields))
	for i, f := range fields {
		nodes[i] = ast.NewLiteralNode(f, pos)
	}
	return ast.NewArrayDataNode(nodes, pos)
}

// FromAST creates a Document from an AST ArrayDataNode. The first record
// becomes the header, matching what Parse produces.
func FromAST(node ast.SchemaNode) (*Document, error) {
	arrayNode, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return nil, fmt.Errorf("expected *ast.ArrayDataNode, got %T", node)
	}

	doc := NewDocument()
	for i, elem := range arrayNode.Elements() {
		recordNode, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return nil, fmt.Errorf("expected record to be *ast.ArrayDataNode, got %T", elem)
		}

		fields := make([]string, 0, recordNode.Len())
		for _, fieldNode := range recordNode.Elements() {
			literalNode, ok := fieldNode.(*ast.LiteralNode)
			if !ok {
				return nil, fmt.Errorf("expected field to be *ast.LiteralNode, got %T", fieldNode)
			}
			value, ok := literalNode.Value().(string)
			if !ok {
				return nil, fmt.Errorf("expected field value to be string, got %T", literalNode.Value())
			}
			fields = append(fields, value)
		}

		if i == 0 {
			doc.SetHeaders(fields)
			continue
		}
		doc.AddRecord(fields)
	}
	return doc, nil
}
