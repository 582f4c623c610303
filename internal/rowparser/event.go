package rowparser

import "errors"

var (
	// ErrFieldCount reports a data row whose cell count differs from the header.
	// It is row-scoped: parsing continues with the next row.
	ErrFieldCount = errors.New("row length does not match header")

	// ErrRowTooLarge reports a row longer than Config.MaxRowSize.
	// It is fatal to the stream.
	ErrRowTooLarge = errors.New("row exceeds the maximum size")
)

// EventKind identifies what an Event carries.
type EventKind uint8

const (
	// HeaderEvent carries the first row of the input.
	HeaderEvent EventKind = iota + 1
	// RowEvent carries a data row with as many cells as the header.
	RowEvent
	// RowErrorEvent carries a data row that was rejected; Err says why.
	RowErrorEvent
)

func (k EventKind) String() string {
	switch k {
	case HeaderEvent:
		return "header"
	case RowEvent:
		return "row"
	case RowErrorEvent:
		return "row-error"
	default:
		return "unknown"
	}
}

// Event is one result of Feed or Finish.
type Event struct {
	Kind EventKind
	// Cells holds the decoded cells. For RowErrorEvent it holds the offending row.
	Cells []string
	// Line is the 1-based logical row number; the header is line 1.
	Line int
	// Err is set for RowErrorEvent.
	Err error
}
