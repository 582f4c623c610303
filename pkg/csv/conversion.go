package csv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// Conversion turns CSV rows into objects keyed by field name.
// All setter methods return *Conversion to enable method chaining.
//
// Without a Mapping every header name becomes a field holding the raw cell.
// With a Mapping, the mapping is bound to the header as soon as the header
// is read; if it does not fit, the conversion fails before any row is
// produced.
//
// Example:
//
//	m, _ := csv.ParseMapping([]string{"id=ID:int", "name=Name"})
//	objs, err := csv.NewConversion().
//	    Delimiter(';').
//	    Encoding("latin1").
//	    Mapping(m).
//	    Convert(ctx, "people.csv.gz")
type Conversion struct {
	opts     ReaderOptions
	mapping  Mapping
	registry *ConverterRegistry
	rename   HeaderConverter
}

// NewConversion creates a Conversion with DefaultReaderOptions.
func NewConversion() *Conversion {
	return &Conversion{opts: DefaultReaderOptions()}
}

// Options replaces all reader options, including a delimiter or encoding
// set earlier.
func (c *Conversion) Options(opts ReaderOptions) *Conversion {
	c.opts = opts
	return c
}

// Delimiter sets the cell delimiter.
func (c *Conversion) Delimiter(d byte) *Conversion {
	c.opts.Delimiter = d
	return c
}

// Encoding sets the text encoding of the input.
func (c *Conversion) Encoding(name string) *Conversion {
	c.opts.Encoding = name
	return c
}

// Mapping sets an explicit field mapping.
func (c *Conversion) Mapping(m Mapping) *Conversion {
	c.mapping = m
	return c
}

// Registry sets the converters available to Binding.Type.
func (c *Conversion) Registry(r *ConverterRegistry) *Conversion {
	c.registry = r
	return c
}

// HeaderNames renames header-derived fields when no Mapping is set.
func (c *Conversion) HeaderNames(fn HeaderConverter) *Conversion {
	c.rename = fn
	return c
}

// Each calls fn for every converted row, in input order. A row whose
// transform fails is handled like a row with the wrong cell count,
// according to ReaderOptions.OnBadLine. An error from fn stops the
// conversion and is returned as is.
func (c *Conversion) Each(ctx context.Context, r io.Reader, fn func(line int, obj map[string]any) error) error {
	return c.run(ctx, r, func(line int, obj orderedObject) error {
		return fn(line, obj.toMap())
	})
}

// ConvertReader converts every row of r.
func (c *Conversion) ConvertReader(ctx context.Context, r io.Reader) ([]map[string]any, error) {
	out := make([]map[string]any, 0)
	err := c.Each(ctx, r, func(_ int, obj map[string]any) error {
		out = append(out, obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Convert opens path with Open and converts every row.
func (c *Conversion) Convert(ctx context.Context, path string) ([]map[string]any, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.ConvertReader(ctx, f)
}

// WriteJSON writes one JSON object per row to w, each followed by a
// newline, with keys in mapping order. It returns the number of objects
// written.
func (c *Conversion) WriteJSON(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	n := 0
	err := c.run(ctx, r, func(_ int, obj orderedObject) error {
		if err := enc.Encode(obj); err != nil {
			return err
		}
		n++
		return nil
	})
	if ferr := bw.Flush(); err == nil {
		err = ferr
	}
	return n, err
}

func (c *Conversion) run(ctx context.Context, r io.Reader, fn func(line int, obj orderedObject) error) error {
	s := NewScannerWithOptions(r, c.opts).WithContext(ctx)

	var bound *BoundMapping
	s.onHeader = func(header []string) error {
		m := c.mapping
		if len(m) == 0 {
			m = HeaderMappingFunc(header, c.rename)
		}
		b, err := m.Bind(header, c.registry)
		if err != nil {
			s.log.Error("mapping does not fit header", "code", Code(err), "error", err)
			return err
		}
		bound = b
		return nil
	}

	rows := 0
	for s.Scan() {
		rec := s.Record()
		obj, err := bound.ordered(rec.fields)
		if err != nil {
			if err := s.badLine(rec.line, err); err != nil {
				return err
			}
			continue
		}
		if err := fn(rec.line, obj); err != nil {
			return err
		}
		rows++
	}
	if err := s.Err(); err != nil {
		return err
	}
	if bound == nil && len(c.mapping) > 0 {
		return ErrNoHeader
	}
	s.log.Debug("conversion complete", "objects", rows)
	return nil
}

// orderedObject is a JSON object that keeps its keys in mapping order.
type orderedObject struct {
	keys   []string
	values []any
}

func (b *BoundMapping) ordered(cells []string) (orderedObject, error) {
	obj := orderedObject{
		keys:   make([]string, 0, len(b.fields)),
		values: make([]any, 0, len(b.fields)),
	}
	err := b.each(cells, func(name string, v any) {
		obj.keys = append(obj.keys, name)
		obj.values = append(obj.values, v)
	})
	return obj, err
}

func (o orderedObject) toMap() map[string]any {
	m := make(map[string]any, len(o.keys))
	for i, k := range o.keys {
		m[k] = o.values[i]
	}
	return m
}

// MarshalJSON implements json.Marshaler. HTML characters are not escaped.
func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
		buf.WriteByte(':')
		if err := enc.Encode(o.values[i]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
