// Command csv2json converts a CSV file to newline-delimited JSON.
//
// Usage:
//
//	csv2json [flags] FILE|-
//
// Compressed inputs (.gz, .bz2, .xz, .zst) are decompressed by extension.
// Each data row becomes one JSON object on stdout; without -map every header
// name is a field. Diagnostics go to stderr.
//
// Exit codes: 0 success, 1 conversion failure, 2 usage error.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/shapestone/shape-csvstream/pkg/csv"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// sniffSize is how much input -delimiter auto inspects.
const sniffSize = 64 * 1024

type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("csv2json", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		flagDelimiter  string
		flagQuote      string
		flagEscape     string
		flagEncoding   string
		flagMaxRowSize int
		flagOnBadLine  string
		flagSkipBlank  bool
		flagFieldCase  string
		flagLogLevel   string
		flagMap        stringList
	)
	fs.StringVar(&flagDelimiter, "delimiter", ",", `cell delimiter: one byte, "tab", or "auto" to detect it`)
	fs.StringVar(&flagQuote, "quote", `"`, "quote byte")
	fs.StringVar(&flagEscape, "escape", `"`, "byte that makes a following quote literal inside quotes")
	fs.StringVar(&flagEncoding, "encoding", "utf-8", "input text encoding, e.g. latin1, windows-1252")
	fs.IntVar(&flagMaxRowSize, "max-row-size", 0, "maximum bytes per row; 0 means no limit")
	fs.StringVar(&flagOnBadLine, "on-bad-line", "warn", "rejected rows: error, warn or skip")
	fs.BoolVar(&flagSkipBlank, "skip-blank", false, "ignore empty rows")
	fs.StringVar(&flagFieldCase, "field-case", "none", "rename header fields: none, lower, upper or snake")
	fs.StringVar(&flagLogLevel, "log-level", "warn", "debug, info, warn or error")
	fs.Var(&flagMap, "map", "field=column[:type]; column may be #N for an index (repeatable)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: csv2json [flags] FILE|-\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		fmt.Fprintf(stderr, "csv2json: invalid -log-level %q\n", flagLogLevel)
		return exitUsage
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := csv.DefaultReaderOptions()
	opts.Logger = logger
	opts.Encoding = flagEncoding
	opts.MaxRowSize = flagMaxRowSize
	opts.SkipBlankRows = flagSkipBlank

	usageErr := func(err error) int {
		fmt.Fprintf(stderr, "csv2json: %v\n", err)
		return exitUsage
	}

	var err error
	if opts.OnBadLine, err = csv.ParseBadLineMode(flagOnBadLine); err != nil {
		return usageErr(err)
	}
	sniff := strings.EqualFold(flagDelimiter, "auto")
	if !sniff {
		if opts.Delimiter, err = parseByteFlag("delimiter", flagDelimiter); err != nil {
			return usageErr(err)
		}
	}
	if opts.Quote, err = parseByteFlag("quote", flagQuote); err != nil {
		return usageErr(err)
	}
	if opts.Escape, err = parseByteFlag("escape", flagEscape); err != nil {
		return usageErr(err)
	}
	rename, err := csv.HeaderConverterByName(flagFieldCase)
	if err != nil {
		return usageErr(err)
	}
	mapping, err := csv.ParseMapping(flagMap)
	if err != nil {
		return usageErr(err)
	}

	var src io.Reader
	if path := fs.Arg(0); path == "-" {
		src = stdin
	} else {
		f, err := csv.Open(path)
		if err != nil {
			logger.Error("cannot open input", "path", path, "code", csv.Code(err), "error", err)
			return exitFail
		}
		defer f.Close()
		src = f
	}

	if sniff {
		br := bufio.NewReaderSize(src, sniffSize)
		sample, _ := br.Peek(sniffSize)
		d := csv.SniffWithOptions(sample, opts)
		logger.Info("detected dialect", "delimiter", string(d.Delimiter), "columns", d.Columns)
		opts.Delimiter = d.Delimiter
		src = br
	}
	if err := opts.Validate(); err != nil {
		return usageErr(err)
	}

	n, err := csv.NewConversion().
		Options(opts).
		Mapping(mapping).
		HeaderNames(rename).
		WriteJSON(ctx, src, stdout)
	if err != nil {
		logger.Error("conversion failed", "objects", n, "code", csv.Code(err), "error", err)
		return exitFail
	}
	logger.Info("conversion complete", "objects", n)
	return exitOK
}

// parseByteFlag accepts a single byte, "tab", or a backslash escape such as \t.
func parseByteFlag(name, v string) (byte, error) {
	switch v {
	case "tab", `\t`:
		return '\t', nil
	case "space":
		return ' ', nil
	case `\\`:
		return '\\', nil
	}
	if len(v) != 1 {
		return 0, fmt.Errorf("-%s must be a single byte, got %q", name, v)
	}
	return v[0], nil
}
