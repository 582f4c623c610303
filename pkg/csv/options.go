package csv

import (
	"io"
	"log/slog"

	"github.com/shapestone/shape-csvstream/internal/rowparser"
)

// DefaultChunkSize is the number of bytes a Scanner reads per Feed.
const DefaultChunkSize = 64 * 1024

// ReaderOptions configures CSV parsing behavior.
// The zero value is not usable; start from DefaultReaderOptions.
type ReaderOptions struct {
	// Delimiter separates cells.
	// Default: ','
	Delimiter byte

	// Quote wraps cells that contain the delimiter or a newline.
	// Default: '"'
	Quote byte

	// Escape precedes a quote inside a quoted cell to make it literal.
	// When Escape equals Quote, a doubled quote is a literal quote.
	// Default: '"'
	Escape byte

	// Newline fixes the row terminator. 0 detects LF, CRLF or CR from the
	// first row and keeps that convention for the rest of the input.
	// Default: 0
	Newline byte

	// Encoding names the text codec of the input, for example "latin1" or
	// "windows-1252". Empty means UTF-8.
	// Default: ""
	Encoding string

	// MaxRowSize caps the bytes of one logical row, terminator included.
	// Exceeding it stops the scan with ErrRowTooLarge.
	// 0 means no limit.
	// Default: 0
	MaxRowSize int

	// SkipBlankRows drops empty rows instead of reporting them as rows with
	// no cells.
	// Default: false
	SkipBlankRows bool

	// ChunkSize is the number of bytes read from the source per step.
	// Default: DefaultChunkSize
	ChunkSize int

	// OnBadLine decides what happens to a row that is rejected, either
	// because its cell count differs from the header or because a value
	// transform failed.
	// Default: BadLineModeWarn
	OnBadLine BadLineMode

	// WarningCallback is invoked for each rejected row when OnBadLine is
	// BadLineModeWarn.
	// Default: nil
	WarningCallback WarningHandler

	// Logger receives structured diagnostics. nil discards them.
	// Default: nil
	Logger *slog.Logger
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Delimiter: ',',
		Quote:     '"',
		Escape:    '"',
		ChunkSize: DefaultChunkSize,
		OnBadLine: BadLineModeWarn,
	}
}

// Validate checks if the options are valid.
func (o ReaderOptions) Validate() error {
	if o.ChunkSize < 0 {
		return &OptionsError{Field: "ChunkSize", Message: "must not be negative"}
	}
	switch o.OnBadLine {
	case BadLineModeError, BadLineModeWarn, BadLineModeSkip:
	default:
		return &OptionsError{Field: "OnBadLine", Message: "unknown mode " + o.OnBadLine.String()}
	}
	if err := o.config().Validate(); err != nil {
		return optionsError(err)
	}
	return nil
}

func (o ReaderOptions) config() rowparser.Config {
	return rowparser.Config{
		Delimiter:     o.Delimiter,
		Quote:         o.Quote,
		Escape:        o.Escape,
		Newline:       o.Newline,
		Encoding:      o.Encoding,
		MaxRowSize:    o.MaxRowSize,
		SkipBlankRows: o.SkipBlankRows,
	}
}

func (o ReaderOptions) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

func (o ReaderOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// optionsError translates a rowparser configuration error into an OptionsError.
func optionsError(err error) error {
	if cerr, ok := err.(*rowparser.ConfigError); ok {
		return &OptionsError{Field: cerr.Field, Message: cerr.Message}
	}
	return err
}

// WriterOptions configures CSV writing behavior.
type WriterOptions struct {
	// Delimiter separates cells.
	// Default: ','
	Delimiter byte

	// Quote wraps cells that need quoting; a quote inside a cell is doubled.
	// Default: '"'
	Quote byte

	// UseCRLF controls whether to use \r\n (true) or \n (false) as the line terminator.
	// Default: false (use \n)
	UseCRLF bool
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Delimiter: ',',
		Quote:     '"',
		UseCRLF:   false,
	}
}

// Validate checks if the writer options are valid.
func (o WriterOptions) Validate() error {
	switch {
	case o.Delimiter == 0 || o.Delimiter == '\r' || o.Delimiter == '\n':
		return &OptionsError{Field: "Delimiter", Message: "invalid delimiter"}
	case o.Quote == 0 || o.Quote == '\r' || o.Quote == '\n':
		return &OptionsError{Field: "Quote", Message: "invalid quote"}
	case o.Quote == o.Delimiter:
		return &OptionsError{Field: "Quote", Message: "quote same as delimiter"}
	}
	return nil
}

// OptionsError represents an invalid option configuration.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "csv: invalid " + e.Field + ": " + e.Message
}
