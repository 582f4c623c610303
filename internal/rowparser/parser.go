// Package rowparser implements an incremental, push-style parser for
// CSV-family text.
//
// Bytes arrive through Feed in chunks of any size. The parser keeps its
// quoting state and the unfinished tail of the current row between calls, so
// a quoted cell, an escape sequence or a CRLF pair may be split anywhere
// without changing the result. Every decision that needs the next byte is
// suspended until that byte arrives, or until Finish resolves it against the
// end of input.
//
// The first completed row is reported as the header. Every later row is
// reported as a RowEvent, or as a RowErrorEvent when its cell count differs
// from the header.
//
// A Parser is not safe for concurrent use.
package rowparser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

type scanState uint8

const (
	stateUnquoted scanState = iota
	stateQuoted
	// escape byte seen inside a quoted cell; the next byte decides
	stateQuotedEscape
	// quote byte seen inside a quoted cell; the next byte decides
	stateQuotedQuote
	// CR seen while the newline convention is still unknown
	stateCarriageReturn
	// escape byte seen outside quotes, when escape differs from quote
	stateUnquotedEscape
)

// Parser turns a stream of byte chunks into header and row events.
type Parser struct {
	cfg     Config
	decoder *encoding.Decoder

	delim   byte
	quote   byte
	escape  byte
	newline byte // 0 until configured or detected

	state   scanState
	pending []byte // unconsumed bytes; always starts at a row boundary
	delims  []int  // unquoted delimiter offsets, relative to the row start

	headerEmitted bool
	header        []string
	line          int
	err           error

	events []Event
}

// New creates a Parser for cfg.
func New(cfg Config) (*Parser, error) {
	dec, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	return &Parser{
		cfg:     cfg,
		decoder: dec,
		delim:   cfg.Delimiter,
		quote:   cfg.Quote,
		escape:  cfg.Escape,
		newline: cfg.Newline,
		delims:  make([]int, 0, 16),
	}, nil
}

// Feed scans chunk as the continuation of everything fed so far and returns
// the events for the rows it completed.
//
// If a row grows past MaxRowSize, Feed returns the events completed before
// that row together with an error wrapping ErrRowTooLarge. The parser then
// refuses further input until Reset.
//
// chunk is not retained; the caller may reuse it once Feed returns.
func (p *Parser) Feed(chunk []byte) ([]Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(chunk) == 0 {
		return nil, nil
	}

	work := chunk
	from := 0
	pooled := false
	if len(p.pending) > 0 {
		work = getBuffer(len(p.pending) + len(chunk))
		work = append(work, p.pending...)
		work = append(work, chunk...)
		from = len(p.pending)
		pooled = true
	}

	rowStart, err := p.scan(work, from)
	if err != nil {
		p.err = err
		p.pending = nil
	} else if rowStart == len(work) {
		p.pending = nil
	} else {
		p.pending = bytes.Clone(work[rowStart:])
	}
	if pooled {
		putBuffer(work)
	}

	events := p.events
	p.events = nil
	return events, err
}

// Finish signals the end of input. A trailing row without a terminator is
// reported exactly as if it had one. A row still inside a quoted cell is
// incomplete and is dropped.
//
// After Finish the parser starts a fresh row; the header is kept.
func (p *Parser) Finish() ([]Event, error) {
	if p.err != nil {
		return nil, p.err
	}

	work := p.pending
	p.pending = nil

	switch p.state {
	case stateQuotedEscape:
		// A lone escape byte is plain data.
		p.state = stateQuoted
	case stateUnquotedEscape:
		p.state = stateUnquoted
	case stateQuotedQuote:
		// A quote right before the end of input closes the cell.
		p.state = stateUnquoted
	case stateCarriageReturn:
		p.state = stateUnquoted
		p.newline = '\r'
		p.completeRow(work[:len(work)-1])
		work = nil
	}

	if p.state == stateUnquoted && len(work) > 0 {
		p.completeRow(work)
	}

	p.state = stateUnquoted
	p.delims = p.delims[:0]

	events := p.events
	p.events = nil
	return events, nil
}

// Reset discards all state, including the header and a previous failure.
func (p *Parser) Reset() {
	p.newline = p.cfg.Newline
	p.state = stateUnquoted
	p.pending = nil
	p.delims = p.delims[:0]
	p.headerEmitted = false
	p.header = nil
	p.line = 0
	p.err = nil
	p.events = nil
}

// Header returns a copy of the header cells, or nil before the first row completes.
func (p *Parser) Header() []string {
	if !p.headerEmitted {
		return nil
	}
	return append([]string(nil), p.header...)
}

// Line returns the number of rows completed so far, header included.
func (p *Parser) Line() int {
	return p.line
}

// Newline returns the row terminator in use, or 0 while it is still unknown.
// A CRLF stream reports '\n'.
func (p *Parser) Newline() byte {
	return p.newline
}

// scan walks work from offset from and returns the offset where the
// unfinished row starts.
func (p *Parser) scan(work []byte, from int) (int, error) {
	rowStart := 0
	limit := p.cfg.MaxRowSize

	for i := from; i < len(work); {
		if limit > 0 && p.state != stateCarriageReturn && i-rowStart >= limit {
			return rowStart, fmt.Errorf("line %d: %w (limit %d bytes)", p.line+1, ErrRowTooLarge, limit)
		}

		b := work[i]
		switch p.state {
		case stateUnquoted:
			switch {
			case b == p.escape && p.escape != p.quote:
				p.state = stateUnquotedEscape
			case b == p.quote:
				p.state = stateQuoted
			case b == p.delim:
				p.delims = append(p.delims, i-rowStart)
			case b == p.newline || (p.newline == 0 && b == '\n'):
				p.newline = b
				p.completeRow(work[rowStart:i])
				rowStart = i + 1
			case p.newline == 0 && b == '\r':
				p.state = stateCarriageReturn
			}
			i++

		case stateCarriageReturn:
			p.state = stateUnquoted
			if b == '\n' {
				// CRLF: the LF terminates the row and the CR is trimmed.
				p.newline = '\n'
				continue
			}
			p.newline = '\r'
			p.completeRow(work[rowStart : i-1])
			rowStart = i

		case stateUnquotedEscape:
			// An escaped quote is data and does not open a quoted cell.
			p.state = stateUnquoted
			if b == p.quote {
				i++
			}

		case stateQuoted:
			switch b {
			case p.quote:
				p.state = stateQuotedQuote
			case p.escape:
				p.state = stateQuotedEscape
			}
			i++

		case stateQuotedEscape:
			p.state = stateQuoted
			if b == p.quote {
				i++
			}

		case stateQuotedQuote:
			switch {
			case p.escape == p.quote && b == p.quote:
				p.state = stateQuoted
				i++
			case b == p.delim || p.isTerminator(b):
				p.state = stateUnquoted
			default:
				// Stray quote inside the cell; it is data.
				p.state = stateQuoted
			}
		}
	}
	return rowStart, nil
}

func (p *Parser) isTerminator(b byte) bool {
	return b == '\n' || b == '\r' || (p.newline != 0 && b == p.newline)
}

// completeRow extracts the cells of span, which excludes the terminator,
// and appends the resulting event.
func (p *Parser) completeRow(span []byte) {
	p.line++
	if n := len(span); n > 0 && span[n-1] == '\r' && p.newline != '\r' {
		span = span[:n-1]
	}
	if len(span) == 0 && p.cfg.SkipBlankRows {
		p.delims = p.delims[:0]
		return
	}

	cells := p.splitCells(span)
	p.delims = p.delims[:0]

	if !p.headerEmitted {
		p.headerEmitted = true
		p.header = append([]string(nil), cells...)
		p.events = append(p.events, Event{Kind: HeaderEvent, Cells: cells, Line: p.line})
		return
	}
	if len(cells) != len(p.header) {
		p.events = append(p.events, Event{
			Kind:  RowErrorEvent,
			Cells: cells,
			Line:  p.line,
			Err:   fmt.Errorf("%w: got %d cells, header has %d", ErrFieldCount, len(cells), len(p.header)),
		})
		return
	}
	p.events = append(p.events, Event{Kind: RowEvent, Cells: cells, Line: p.line})
}

// splitCells cuts span at the recorded delimiter offsets. An empty span has no cells.
func (p *Parser) splitCells(span []byte) []string {
	if len(span) == 0 {
		return []string{}
	}
	cells := make([]string, 0, len(p.delims)+1)
	start := 0
	for _, d := range p.delims {
		cells = append(cells, p.cell(span[start:d]))
		start = d + 1
	}
	return append(cells, p.cell(span[start:]))
}

// cell strips the surrounding quotes, collapses escaped quotes, decodes and
// normalizes one cell.
func (p *Parser) cell(b []byte) string {
	if n := len(b); n >= 2 && b[0] == p.quote && b[n-1] == p.quote {
		b = b[1 : n-1]
	}
	if bytes.IndexByte(b, p.escape) < 0 {
		return normalize(p.decode(b))
	}

	scratch := getBuffer(len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == p.escape && i+1 < len(b) && b[i+1] == p.quote {
			i++
		}
		scratch = append(scratch, b[i])
	}
	s := p.decode(scratch)
	putBuffer(scratch)
	return normalize(s)
}

func (p *Parser) decode(b []byte) string {
	if p.decoder == nil {
		if utf8.Valid(b) {
			return string(b)
		}
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	out, err := p.decoder.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// normalize removes CR, backspace, LF and tab from a decoded cell.
func normalize(s string) string {
	if !strings.ContainsAny(s, "\r\b\n\t") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\b', '\n', '\t':
			return -1
		}
		return r
	}, s)
}
