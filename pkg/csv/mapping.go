package csv

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ColumnRef selects a column by header name or by 0-based index.
type ColumnRef struct {
	name    string
	index   int
	byIndex bool
}

// ByName selects the first column whose header equals name.
func ByName(name string) ColumnRef {
	return ColumnRef{name: name}
}

// ByIndex selects the column at the 0-based index i.
func ByIndex(i int) ColumnRef {
	return ColumnRef{index: i, byIndex: true}
}

// String renders the reference the way ParseBinding reads it.
func (c ColumnRef) String() string {
	if c.byIndex {
		return "#" + strconv.Itoa(c.index)
	}
	return strconv.Quote(c.name)
}

// Binding maps one output field to one column.
type Binding struct {
	// Field is the key in the output object.
	Field string
	// Column selects the source cell.
	Column ColumnRef
	// Type names a converter in the registry. Empty keeps the raw string.
	Type string
	// Transform, when set, takes precedence over Type.
	Transform Converter
}

// Mapping is an ordered list of bindings. Output objects keep this order.
//
// Example:
//
//	m := csv.Mapping{
//	    {Field: "id", Column: csv.ByName("ID"), Type: "int"},
//	    {Field: "name", Column: csv.ByIndex(1)},
//	}
type Mapping []Binding

// ParseBinding parses "field=column[:type]". A column of the form #N
// selects index N. A bare "column" maps the column to a field of the same
// name.
//
// Example:
//
//	b, _ := csv.ParseBinding("age=Age:int")
//	b, _ = csv.ParseBinding("first=#0")
func ParseBinding(s string) (Binding, error) {
	field, column, hasField := strings.Cut(s, "=")
	if !hasField {
		column = s
	}

	var typ string
	if i := strings.LastIndexByte(column, ':'); i >= 0 {
		column, typ = column[:i], column[i+1:]
	}
	if !hasField {
		field = column
	}

	field = strings.TrimSpace(field)
	column = strings.TrimSpace(column)
	typ = strings.TrimSpace(typ)
	if field == "" || column == "" {
		return Binding{}, fmt.Errorf("%w: cannot parse binding %q: want field=column[:type]", ErrInvalidMapping, s)
	}

	b := Binding{Field: field, Column: ByName(column), Type: typ}
	if rest, ok := strings.CutPrefix(column, "#"); ok {
		if n, err := strconv.Atoi(rest); err == nil {
			b.Column = ByIndex(n)
		}
	}
	return b, nil
}

// ParseMapping parses one binding per element, as accepted by ParseBinding.
func ParseMapping(specs []string) (Mapping, error) {
	m := make(Mapping, 0, len(specs))
	for _, s := range specs {
		b, err := ParseBinding(s)
		if err != nil {
			return nil, err
		}
		m = append(m, b)
	}
	return m, nil
}

// HeaderMapping maps every header name to its own column, keeping raw
// strings. When a name repeats, the field keeps the position of its first
// appearance and reads the last column with that name.
// Columns with an empty name are left out.
func HeaderMapping(header []string) Mapping {
	return HeaderMappingFunc(header, nil)
}

// HeaderMappingFunc is HeaderMapping with field names passed through rename.
// Names that collide after renaming are resolved like repeated names.
//
// Example:
//
//	m := csv.HeaderMappingFunc([]string{"First Name", "Age"}, csv.SnakeCaseHeader)
//	// fields: first_name, age
func HeaderMappingFunc(header []string, rename HeaderConverter) Mapping {
	m := make(Mapping, 0, len(header))
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if rename != nil {
			name = rename(name)
		}
		if name == "" {
			continue
		}
		if j, ok := pos[name]; ok {
			m[j].Column = ByIndex(i)
			continue
		}
		pos[name] = len(m)
		m = append(m, Binding{Field: name, Column: ByIndex(i)})
	}
	return m
}

// HeaderConverter is a function that transforms header names.
type HeaderConverter func(string) string

// LowercaseHeader converts headers to lowercase.
func LowercaseHeader(s string) string {
	return strings.ToLower(s)
}

// UppercaseHeader converts headers to uppercase.
func UppercaseHeader(s string) string {
	return strings.ToUpper(s)
}

// SnakeCaseHeader converts headers to snake_case.
func SnakeCaseHeader(s string) string {
	var result strings.Builder
	prevWasSep := false
	for i, ch := range strings.TrimSpace(s) {
		if ch == ' ' || ch == '-' || ch == '_' {
			if result.Len() > 0 && !prevWasSep {
				result.WriteRune('_')
			}
			prevWasSep = true
			continue
		}
		if unicode.IsUpper(ch) && i > 0 && !prevWasSep {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(ch))
		prevWasSep = false
	}
	return result.String()
}

// HeaderConverterByName returns the converter for "lower", "upper" or
// "snake". "" and "none" return nil.
func HeaderConverterByName(name string) (HeaderConverter, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "lower":
		return LowercaseHeader, nil
	case "upper":
		return UppercaseHeader, nil
	case "snake":
		return SnakeCaseHeader, nil
	}
	return nil, &OptionsError{Field: "HeaderConverter", Message: fmt.Sprintf("unknown name %q", name)}
}

// Bind resolves every binding against header. All problems are reported
// together in one *MappingError. A nil registry means NewConverterRegistry().
func (m Mapping) Bind(header []string, registry *ConverterRegistry) (*BoundMapping, error) {
	if registry == nil {
		registry = NewConverterRegistry()
	}

	var problems []MappingProblem
	seen := make(map[string]bool, len(m))
	bound := &BoundMapping{fields: make([]boundField, 0, len(m))}

	for _, b := range m {
		problem := func(msg string, args ...any) {
			problems = append(problems, MappingProblem{
				Field:   b.Field,
				Column:  b.Column.String(),
				Message: fmt.Sprintf(msg, args...),
			})
		}

		switch {
		case b.Field == "":
			problem("empty field name")
			continue
		case seen[b.Field]:
			problem("duplicate field")
			continue
		}
		seen[b.Field] = true

		col := -1
		if b.Column.byIndex {
			if b.Column.index < 0 || b.Column.index >= len(header) {
				problem("index out of range, header has %d columns", len(header))
			} else {
				col = b.Column.index
			}
		} else {
			for i, name := range header {
				if name == b.Column.name {
					col = i
					break
				}
			}
			if col < 0 {
				problem("no such column in header")
			}
		}

		conv := b.Transform
		if conv == nil && b.Type != "" {
			c, ok := registry.Get(b.Type)
			if !ok {
				problem("unknown type %q", b.Type)
				continue
			}
			conv = c
		}
		if col >= 0 {
			bound.fields = append(bound.fields, boundField{name: b.Field, col: col, conv: conv})
		}
	}

	if len(problems) > 0 {
		return nil, &MappingError{Problems: problems}
	}
	return bound, nil
}

// BoundMapping is a Mapping resolved against one header.
type BoundMapping struct {
	fields []boundField
}

type boundField struct {
	name string
	col  int
	conv Converter
}

// Fields returns the output field names in mapping order.
func (b *BoundMapping) Fields() []string {
	names := make([]string, len(b.fields))
	for i, f := range b.fields {
		names[i] = f.name
	}
	return names
}

// Apply builds the output object for one row. A cell missing from a short
// row maps to "".
func (b *BoundMapping) Apply(cells []string) (map[string]any, error) {
	obj := make(map[string]any, len(b.fields))
	err := b.each(cells, func(name string, v any) {
		obj[name] = v
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// each yields the converted fields of one row in mapping order.
func (b *BoundMapping) each(cells []string, fn func(name string, v any)) error {
	for _, f := range b.fields {
		var raw string
		if f.col < len(cells) {
			raw = cells[f.col]
		}
		if f.conv == nil {
			fn(f.name, raw)
			continue
		}
		v, err := f.conv.Convert(raw)
		if err != nil {
			return &TransformError{Field: f.name, Column: f.col, Value: raw, Err: err}
		}
		fn(f.name, v)
	}
	return nil
}
