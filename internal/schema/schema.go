// Package schema holds the per-data-type column specifications applied
// during conversion. The registry is a closed, process-wide table: adding a
// data type is a code change, never a runtime registration.
package schema

import (
	"strings"

	apperrors "bnvault/internal/errors"
)

// SemanticType is the closed set of column types the converter understands.
type SemanticType int

const (
	// Integer64 is a 64-bit integer column.
	Integer64 SemanticType = iota
	// Float64 is a 64-bit float column.
	Float64
	// DecimalScaled is a text-encoded numeric column cast to a fixed-scale
	// decimal; the scale is inferred per column at conversion time.
	DecimalScaled
	// Timestamp is a UTC timestamp column, declared with the unit the raw
	// data reports it in and normalized to epoch milliseconds.
	Timestamp
	// Utf8 is a plain string column.
	Utf8
	// Boolean is a true/false column.
	Boolean
)

// TimeUnit declares how the raw data encodes a Timestamp column.
type TimeUnit string

const (
	// UnitMillis is epoch milliseconds.
	UnitMillis TimeUnit = "ms"
	// UnitMicros is epoch microseconds.
	UnitMicros TimeUnit = "us"
	// UnitDateTime is a wall-clock string, e.g. "2025-03-07 00:01:00.123".
	UnitDateTime TimeUnit = "datetime"
)

// ColumnSpec describes one column: its name in the raw data, its name in the
// converted output, its semantic type, and whether values may be absent.
type ColumnSpec struct {
	Source   string
	Target   string
	Type     SemanticType
	Unit     TimeUnit // set only for Timestamp columns
	Nullable bool
}

// PivotSpec describes the long-to-wide reshape applied before casting.
// Long rows keyed by (Index, Key) carry the Values columns; the wide form
// has one row per Index value and one `{value}_{key}` column per declared
// key slot, null where the raw data has no row for that slot.
type PivotSpec struct {
	Index  string
	Key    string
	Values []string
	Keys   []string
}

// WideColumn returns the wide-form source name for one (value, key) slot.
func (p *PivotSpec) WideColumn(value, key string) string {
	return value + "_" + key
}

// TypeSchema is the ordered column specification for one data type. For
// pivoted data types the columns describe the wide (post-reshape) form,
// since casting runs after the reshape.
type TypeSchema struct {
	DataType string
	Columns  []ColumnSpec
	Pivot    *PivotSpec
}

// Column returns the spec for a source column name.
func (s TypeSchema) Column(source string) (ColumnSpec, bool) {
	for _, c := range s.Columns {
		if c.Source == source {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// Lookup resolves the schema for a data type. Asking for an unregistered
// type is an UNKNOWN_DATA_TYPE error.
func Lookup(dataType string) (TypeSchema, error) {
	s, ok := registry[dataType]
	if !ok {
		return TypeSchema{}, apperrors.NewUnknownDataTypeError(dataType)
	}
	return s, nil
}

// RegisteredTypes returns the names of all registered data types.
func RegisteredTypes() []string {
	types := make([]string, 0, len(registry))
	for name := range registry {
		types = append(types, name)
	}
	return types
}

// PascalCase converts a snake_case column name to PascalCase. Names that
// already start with an upper-case letter pass through unchanged.
func PascalCase(name string) string {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return name
	}
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
