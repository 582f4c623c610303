package csv

import (
	"github.com/shapestone/shape-csvstream/internal/rowparser"
)

// Dialect is the result of sniffing a sample.
type Dialect struct {
	// Delimiter is the most consistent candidate delimiter.
	Delimiter byte
	// Newline is the detected row terminator ('\n' for LF and CRLF, '\r'
	// for CR), or 0 if the sample holds no complete row.
	Newline byte
	// Columns is the header width under Delimiter.
	Columns int
}

// SniffDelimiters are the candidates Sniff tries, in order of preference.
var SniffDelimiters = []byte{',', '\t', ';', '|'}

// Sniff detects the delimiter and newline of a sample of the input, such as
// its first few kilobytes. Each candidate delimiter is parsed with the real
// row scanner, so quoted cells are respected. The winner is the candidate
// whose header has more than one column and whose following rows most often
// agree with it; ties go to the earlier candidate. A trailing partial row
// is ignored.
//
// Example:
//
//	d := csv.Sniff(sample)
//	opts := csv.DefaultReaderOptions()
//	opts.Delimiter = d.Delimiter
func Sniff(sample []byte) Dialect {
	return SniffWithOptions(sample, DefaultReaderOptions())
}

// SniffWithOptions is Sniff with the quote, escape, newline and encoding
// of opts. opts.Delimiter is ignored. Candidates that clash with the quote
// or escape byte are skipped.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Quote = '\''
//	d := csv.SniffWithOptions(sample, opts)
func SniffWithOptions(sample []byte, opts ReaderOptions) Dialect {
	best := Dialect{Delimiter: ','}
	bestScore := -1

	base := opts.config()
	base.MaxRowSize = 0
	for _, delim := range SniffDelimiters {
		cfg := base
		cfg.Delimiter = delim
		p, err := rowparser.New(cfg)
		if err != nil {
			continue
		}
		events, _ := p.Feed(sample)

		columns, matched := 0, 0
		for _, ev := range events {
			switch ev.Kind {
			case rowparser.HeaderEvent:
				columns = len(ev.Cells)
			case rowparser.RowEvent:
				matched++
			}
		}
		if p.Newline() != 0 && best.Newline == 0 {
			best.Newline = p.Newline()
		}
		if columns < 2 {
			continue
		}

		score := (matched + 1) * columns
		if score > bestScore {
			bestScore = score
			best.Delimiter = delim
			best.Columns = columns
		}
	}
	return best
}
