// Package csv reads CSV-family text (delimited rows with a header) as a
// stream.
//
// Input is consumed in chunks by an incremental parser, so quoted cells,
// escape sequences and CRLF pairs may straddle any read boundary. The row
// terminator (LF, CRLF or CR) is detected from the first row unless it is
// configured. Cells are decoded from the configured text encoding and have
// CR, LF, tab and backspace characters removed.
//
// The first row is the header. A later row whose cell count differs from
// the header is rejected on its own; ReaderOptions.OnBadLine decides whether
// that stops the scan, is logged, or is ignored. A row longer than
// ReaderOptions.MaxRowSize stops the scan.
//
// # Thread Safety
//
// Package-level functions are safe for concurrent use; each call builds its
// own parser. A Scanner or Conversion must not be shared between goroutines
// while it runs.
//
// # APIs
//
//   - Scanner - record-at-a-time streaming over any io.Reader
//   - Open - a reader for a plain or compressed file
//   - Conversion - header-driven mapping of rows to objects, and NDJSON output
//   - Document - an in-memory table with header-aware access
//   - Parse / ParseReader - a shape AST (*ast.ArrayDataNode) of the whole input
//   - Render - CSV text from an AST
//   - Sniff - delimiter and newline detection from a sample
//
// # Example usage with Scanner:
//
//	f, err := csv.Open("data.csv.gz")
//	if err != nil {
//	    // handle error
//	}
//	defer f.Close()
//
//	scanner := csv.NewScanner(f)
//	for scanner.Scan() {
//	    rec := scanner.Record()
//	    // use rec
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
package csv

import (
	"io"
	"strings"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Parse parses CSV into an AST from a string with DefaultReaderOptions.
//
// Returns an ast.ArrayDataNode representing the parsed CSV:
//   - *ast.ArrayDataNode for the file (array of records, header first)
//   - Each record is an *ast.ArrayDataNode of fields
//   - Each field is an *ast.LiteralNode containing a string value
//
// Example:
//
//	node, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	arrayNode := node.(*ast.ArrayDataNode)
//	records := arrayNode.Elements()
//	// records[0] is the header row
//	// records[1] is the first data row
func Parse(input string) (ast.SchemaNode, error) {
	return ParseReaderWithOptions(strings.NewReader(input), DefaultReaderOptions())
}

// ParseReader parses CSV into an AST from an io.Reader with DefaultReaderOptions.
// The reader is consumed in chunks; only the resulting tree is held in memory.
//
// Example:
//
//	file, err := os.Open("data.csv")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	node, err := csv.ParseReader(file)
func ParseReader(reader io.Reader) (ast.SchemaNode, error) {
	return ParseReaderWithOptions(reader, DefaultReaderOptions())
}

// ParseWithOptions parses CSV into an AST from a string with custom options.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Delimiter = '\t'
//	node, err := csv.ParseWithOptions("name\tage\nAlice\t30", opts)
func ParseWithOptions(input string, opts ReaderOptions) (ast.SchemaNode, error) {
	return ParseReaderWithOptions(strings.NewReader(input), opts)
}

// ParseReaderWithOptions parses CSV into an AST from an io.Reader with custom options.
func ParseReaderWithOptions(reader io.Reader, opts ReaderOptions) (ast.SchemaNode, error) {
	doc, err := ReadDocument(reader, opts)
	if err != nil {
		return nil, err
	}
	return doc.ToAST()
}

// Format returns the format identifier for this parser.
func Format() string {
	return "CSV"
}

// Validate checks if the input string is valid CSV.
//
// Validation is strict: the first row whose cell count differs from the
// header is reported as a *ParseError. No AST is built.
//
//	if err := csv.Validate(input); err != nil {
//	    fmt.Println("Invalid CSV:", err)
//	}
func Validate(input string) error {
	return ValidateReader(strings.NewReader(input))
}

// ValidateReader checks if the input from an io.Reader is valid CSV.
// The reader is consumed in chunks.
func ValidateReader(reader io.Reader) error {
	return ValidateReaderWithOptions(reader, DefaultReaderOptions())
}

// ValidateReaderWithOptions is ValidateReader with a custom dialect.
// OnBadLine is forced to BadLineModeError.
func ValidateReaderWithOptions(reader io.Reader, opts ReaderOptions) error {
	opts.OnBadLine = BadLineModeError
	s := NewScannerWithOptions(reader, opts)
	for s.Scan() {
	}
	return s.Err()
}
