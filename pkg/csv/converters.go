package csv

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Converter transforms a cell value into a typed Go value.
type Converter interface {
	// Convert transforms a string value into the target type.
	Convert(value string) (any, error)
}

// ConverterFunc is a function adapter for the Converter interface.
type ConverterFunc func(string) (any, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(value string) (any, error) {
	return f(value)
}

// StringConverter returns the value unchanged.
type StringConverter struct{}

// Convert implements Converter for StringConverter.
func (StringConverter) Convert(value string) (any, error) {
	return value, nil
}

// TrimConverter removes leading and trailing white space.
type TrimConverter struct{}

// Convert implements Converter for TrimConverter.
func (TrimConverter) Convert(value string) (any, error) {
	return strings.TrimSpace(value), nil
}

// IntConverter converts string values to int64.
type IntConverter struct {
	// Base is the numeric base for parsing (default: 10)
	Base int
}

// Convert implements Converter for IntConverter.
func (c IntConverter) Convert(value string) (any, error) {
	if value == "" {
		return int64(0), nil
	}
	base := c.Base
	if base == 0 {
		base = 10
	}
	return strconv.ParseInt(strings.TrimSpace(value), base, 64)
}

// FloatConverter converts string values to float64.
type FloatConverter struct{}

// Convert implements Converter for FloatConverter.
func (FloatConverter) Convert(value string) (any, error) {
	if value == "" {
		return float64(0), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// BoolConverter converts string values to bool.
// Recognizes: true/false, 1/0, yes/no, y/n, on/off, t/f (case-insensitive)
type BoolConverter struct{}

// Convert implements Converter for BoolConverter.
func (BoolConverter) Convert(value string) (any, error) {
	if value == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, nil
	case "false", "0", "no", "n", "off", "f":
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %q to bool", value)
	}
}

// TimeConverter parses values with a time layout.
// An empty value converts to the zero time.
type TimeConverter struct {
	// Layout is the time layout (default: time.RFC3339)
	Layout string
	// Location is the timezone for parsing (default: UTC)
	Location *time.Location
}

// Convert implements Converter for TimeConverter.
func (c TimeConverter) Convert(value string) (any, error) {
	if value == "" {
		return time.Time{}, nil
	}
	layout := c.Layout
	if layout == "" {
		layout = time.RFC3339
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(layout, strings.TrimSpace(value), loc)
}

// AutoConverter converts a value to the type InferType detects.
type AutoConverter struct{}

// Convert implements Converter for AutoConverter.
func (AutoConverter) Convert(value string) (any, error) {
	_, v := InferType(value)
	return v, nil
}

// ConverterRegistry maps type names used in mappings to converters.
type ConverterRegistry struct {
	converters map[string]Converter
}

// NewConverterRegistry creates a registry with the built-in converters:
// string, trim, int, float, bool, date, time, datetime and auto.
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{
		converters: make(map[string]Converter),
	}
	r.Register("string", StringConverter{})
	r.Register("trim", TrimConverter{})
	r.Register("int", IntConverter{})
	r.Register("float", FloatConverter{})
	r.Register("bool", BoolConverter{})
	r.Register("date", TimeConverter{Layout: "2006-01-02"})
	r.Register("time", TimeConverter{Layout: "15:04:05"})
	r.Register("datetime", TimeConverter{Layout: "2006-01-02 15:04:05"})
	r.Register("auto", AutoConverter{})
	return r
}

// Register adds or replaces a converter.
func (r *ConverterRegistry) Register(name string, conv Converter) {
	r.converters[name] = conv
}

// Get retrieves a converter by name.
func (r *ConverterRegistry) Get(name string) (Converter, bool) {
	conv, ok := r.converters[name]
	return conv, ok
}

// Names returns the registered names in sorted order.
func (r *ConverterRegistry) Names() []string {
	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InferType attempts to infer the type of a string value.
// Returns the inferred type name and converted value.
func InferType(value string) (string, any) {
	if value == "" {
		return "string", value
	}

	v := strings.TrimSpace(value)

	lower := strings.ToLower(v)
	if lower == "true" || lower == "false" {
		return "bool", lower == "true"
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return "int", i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return "float", f
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006", "02-Jan-2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return "date", t
		}
	}
	return "string", value
}
