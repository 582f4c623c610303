package csv

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shapestone/shape-csvstream/internal/rowparser"
)

// Scanner provides a streaming interface for reading CSV records one at a time.
// It reads the source in chunks of ReaderOptions.ChunkSize and feeds them to
// an incremental parser, so memory stays bounded by one chunk plus the
// longest row no matter how large the input is.
//
// The first row is the header; Record().GetByName resolves names against it.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    name, _ := record.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	reader io.Reader
	opts   ReaderOptions
	ctx    context.Context
	log    *slog.Logger

	parser  *rowparser.Parser
	buf     []byte
	queue   []rowparser.Event
	headers []string
	current Record
	rows    int

	// onHeader runs once, when the header arrives and before any row.
	onHeader func(header []string) error

	done  bool  // source exhausted or failed; only queued events remain
	fatal error // reported once the queue drains
	err   error
}

// NewScanner creates a Scanner with DefaultReaderOptions.
//
// Example:
//
//	scanner := csv.NewScanner(reader)
func NewScanner(reader io.Reader) *Scanner {
	return NewScannerWithOptions(reader, DefaultReaderOptions())
}

// NewScannerWithOptions creates a Scanner with custom options. Invalid
// options are reported by Err after the first call to Scan.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Delimiter = ';'
//	opts.Encoding = "latin1"
//	scanner := csv.NewScannerWithOptions(file, opts)
func NewScannerWithOptions(reader io.Reader, opts ReaderOptions) *Scanner {
	s := &Scanner{
		reader: reader,
		opts:   opts,
		ctx:    context.Background(),
		log:    opts.logger(),
	}
	if err := opts.Validate(); err != nil {
		s.err = err
		return s
	}
	p, err := rowparser.New(opts.config())
	if err != nil {
		s.err = optionsError(err)
		return s
	}
	s.parser = p
	s.buf = make([]byte, opts.chunkSize())
	return s
}

// WithContext makes the scan stop with ctx.Err() once ctx is done.
// The context is checked before every read.
// Returns the Scanner for method chaining.
func (s *Scanner) WithContext(ctx context.Context) *Scanner {
	if ctx != nil {
		s.ctx = ctx
	}
	return s
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or an error occurs.
// After Scan returns false, the Err method will return any error that occurred.
//
// Rows whose cell count differs from the header are handled according to
// ReaderOptions.OnBadLine and are never returned as records.
func (s *Scanner) Scan() bool {
	for s.err == nil {
		for len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			if s.accept(ev) {
				return true
			}
			if s.err != nil {
				return false
			}
		}
		if s.done {
			s.err = s.fatal
			if s.err == nil {
				s.log.Debug("scan complete", "rows", s.rows, "lines", s.parser.Line())
			}
			return false
		}
		s.fill()
	}
	return false
}

// Record returns the current record.
// This should only be called after Scan() returns true.
func (s *Scanner) Record() Record {
	return s.current
}

// Headers returns a copy of the header row, or nil before it has been read.
func (s *Scanner) Headers() []string {
	if s.headers == nil {
		return nil
	}
	return append([]string(nil), s.headers...)
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil at a clean end of input.
func (s *Scanner) Err() error {
	return s.err
}

// Line returns the line of the current record.
func (s *Scanner) Line() int {
	return s.current.line
}

// fill reads one chunk and queues the events it completes.
func (s *Scanner) fill() {
	if err := s.ctx.Err(); err != nil {
		s.fail(err)
		return
	}

	n, rerr := s.reader.Read(s.buf)
	if n > 0 {
		events, err := s.parser.Feed(s.buf[:n])
		s.queue = append(s.queue, events...)
		if err != nil {
			s.fail(err)
			return
		}
	}

	switch {
	case rerr == io.EOF:
		events, err := s.parser.Finish()
		s.queue = append(s.queue, events...)
		s.done = true
		if err != nil {
			s.fail(err)
		}
	case rerr != nil:
		s.fail(fmt.Errorf("%w: %w", ErrRead, rerr))
	}
}

// fail stops reading; rows completed before err are still delivered.
func (s *Scanner) fail(err error) {
	s.done = true
	s.fatal = err
	s.log.Error("scan failed", "line", s.parser.Line()+1, "code", Code(err), "error", err)
}

// accept processes one event and reports whether it produced a record.
func (s *Scanner) accept(ev rowparser.Event) bool {
	switch ev.Kind {
	case rowparser.HeaderEvent:
		s.headers = ev.Cells
		s.log.Debug("header read", "columns", len(ev.Cells))
		if s.onHeader != nil {
			if err := s.onHeader(ev.Cells); err != nil {
				s.err = err
			}
		}
		return false
	case rowparser.RowEvent:
		s.rows++
		s.current = Record{fields: ev.Cells, headers: s.headers, line: ev.Line}
		return true
	case rowparser.RowErrorEvent:
		if err := s.badLine(ev.Line, ev.Err); err != nil {
			s.err = err
		}
		return false
	}
	return false
}

// badLine applies OnBadLine to a rejected row. It returns an error only in
// BadLineModeError.
func (s *Scanner) badLine(line int, err error) error {
	switch s.opts.OnBadLine {
	case BadLineModeError:
		return &ParseError{Line: line, Err: err}
	case BadLineModeWarn:
		s.log.Warn("skipping row", "line", line, "code", Code(err), "error", err)
		if s.opts.WarningCallback != nil {
			s.opts.WarningCallback(line, err.Error())
		}
	default:
		s.log.Debug("skipping row", "line", line, "code", Code(err))
	}
	return nil
}
