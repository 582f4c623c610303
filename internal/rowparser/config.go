package rowparser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Config holds the dialect of the input. All structural codes are single bytes.
type Config struct {
	// Delimiter separates cells. Default: ','
	Delimiter byte
	// Quote wraps cells that contain the delimiter or a newline. Default: '"'
	Quote byte
	// Escape precedes a quote byte to make it literal inside a quoted cell. Default: '"'
	Escape byte
	// Newline fixes the row terminator. 0 means detect it from the first row.
	Newline byte
	// Encoding names the text codec used to decode cell bytes. Empty means UTF-8.
	Encoding string
	// MaxRowSize caps the bytes of one logical row, terminator included. 0 means no limit.
	MaxRowSize int
	// SkipBlankRows drops rows with no bytes instead of reporting them as zero-cell rows.
	SkipBlankRows bool
}

// DefaultConfig returns the comma/double-quote dialect with newline detection.
func DefaultConfig() Config {
	return Config{
		Delimiter: ',',
		Quote:     '"',
		Escape:    '"',
	}
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "rowparser: invalid " + e.Field + ": " + e.Message
}

// Validate checks that the structural bytes do not collide and that the
// encoding is known and ASCII-compatible.
func (c Config) Validate() error {
	_, err := c.resolve()
	return err
}

// resolve validates c and returns the decoder for Encoding (nil for UTF-8).
func (c Config) resolve() (*encoding.Decoder, error) {
	switch {
	case c.Delimiter == '\r' || c.Delimiter == '\n':
		return nil, &ConfigError{Field: "Delimiter", Message: "cannot be CR or LF"}
	case c.Quote == '\r' || c.Quote == '\n':
		return nil, &ConfigError{Field: "Quote", Message: "cannot be CR or LF"}
	case c.Escape == '\r' || c.Escape == '\n':
		return nil, &ConfigError{Field: "Escape", Message: "cannot be CR or LF"}
	case c.Delimiter == c.Quote:
		return nil, &ConfigError{Field: "Quote", Message: "same as delimiter"}
	case c.Delimiter == c.Escape:
		return nil, &ConfigError{Field: "Escape", Message: "same as delimiter"}
	case c.Newline != 0 && (c.Newline == c.Delimiter || c.Newline == c.Quote || c.Newline == c.Escape):
		return nil, &ConfigError{Field: "Newline", Message: "collides with delimiter, quote or escape"}
	case c.MaxRowSize < 0:
		return nil, &ConfigError{Field: "MaxRowSize", Message: "must not be negative"}
	}

	enc, err := LookupEncoding(c.Encoding)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, nil
	}

	// Structure is scanned on raw bytes, so the codec must leave them alone.
	structural := []byte{c.Delimiter, c.Quote, c.Escape, '\r', '\n'}
	if c.Newline != 0 {
		structural = append(structural, c.Newline)
	}
	decoded, err := enc.NewDecoder().Bytes(structural)
	if err != nil || !bytes.Equal(decoded, structural) {
		return nil, &ConfigError{Field: "Encoding", Message: fmt.Sprintf("%q is not ASCII-compatible", c.Encoding)}
	}
	return enc.NewDecoder(), nil
}

// encodingAliases covers names accepted by Node-style tooling that the
// WHATWG index does not know.
var encodingAliases = map[string]encoding.Encoding{
	"latin1":     charmap.ISO8859_1,
	"binary":     charmap.ISO8859_1,
	"iso-8859-1": charmap.ISO8859_1,
	"iso8859-1":  charmap.ISO8859_1,
}

// LookupEncoding resolves a codec name. It returns a nil Encoding for UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	if enc, ok := encodingAliases[n]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(n)
	if err != nil {
		return nil, &ConfigError{Field: "Encoding", Message: fmt.Sprintf("unknown encoding %q", name)}
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}
