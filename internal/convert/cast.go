package convert

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	apperrors "bnvault/internal/errors"
	"bnvault/internal/schema"
)

// decimalPrecision is the precision of DECIMAL output columns; 18 is the
// widest that fits an int64 unscaled value.
const decimalPrecision = 18

// dateTimeLayout parses wall-clock timestamps like
// "2025-03-07 00:01:00.123"; the fraction is optional.
const dateTimeLayout = "2006-01-02 15:04:05.999999999"

// Cast applies the schema's types to a raw table. The result keeps the raw
// (source) column naming; Rename switches it to the target convention.
//
// A schema column absent from the raw data is a SCHEMA_MISMATCH error. A
// cell that cannot parse under its declared type fails the whole column
// with a CAST error; there is no per-cell leniency.
func Cast(raw *RawTable, ts schema.TypeSchema) (*TypedTable, error) {
	indexes := make([]int, len(ts.Columns))
	for i, spec := range ts.Columns {
		idx := raw.ColumnIndex(spec.Source)
		if idx < 0 {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("column %q required by data type %q is absent from the raw data", spec.Source, ts.DataType))
		}
		indexes[i] = idx
	}

	typed := &TypedTable{
		Schema: ts,
		Scales: make(map[string]int32),
		Rows:   make([]map[string]any, len(raw.Rows)),
	}
	for i := range typed.Rows {
		typed.Rows[i] = make(map[string]any, len(ts.Columns))
	}

	for i, spec := range ts.Columns {
		if err := castColumn(raw, indexes[i], spec, typed); err != nil {
			return nil, err
		}
	}
	return typed, nil
}

// castColumn casts one source column into every row of the typed table.
func castColumn(raw *RawTable, idx int, spec schema.ColumnSpec, typed *TypedTable) error {
	cells := make([]*string, len(raw.Rows))
	for i, row := range raw.Rows {
		cells[i] = row[idx]
	}

	var scale int32
	if spec.Type == schema.DecimalScaled {
		s, err := InferScale(spec.Source, cells)
		if err != nil {
			return err
		}
		scale = s
		typed.Scales[spec.Source] = scale
	}

	for i, cell := range cells {
		if cell == nil {
			if !spec.Nullable {
				return apperrors.NewCastError(
					fmt.Sprintf("column %q is not nullable but row %d is null", spec.Source, i), nil)
			}
			continue
		}

		value, err := castCell(*cell, spec, scale)
		if err != nil {
			return apperrors.NewCastError(
				fmt.Sprintf("column %q row %d: cannot cast %q", spec.Source, i, *cell), err)
		}
		typed.Rows[i][spec.Source] = value
	}
	return nil
}

// castCell parses one cell under its declared semantic type.
func castCell(cell string, spec schema.ColumnSpec, scale int32) (any, error) {
	switch spec.Type {
	case schema.Integer64:
		return strconv.ParseInt(cell, 10, 64)
	case schema.Float64:
		return strconv.ParseFloat(cell, 64)
	case schema.Boolean:
		return strconv.ParseBool(cell)
	case schema.Utf8:
		return cell, nil
	case schema.Timestamp:
		return castTimestamp(cell, spec.Unit)
	case schema.DecimalScaled:
		d, err := decimal.NewFromString(cell)
		if err != nil {
			return nil, err
		}
		// scale covers every fractional digit in the column, so the
		// shifted value is integral and the representation lossless.
		return d.Shift(scale).IntPart(), nil
	default:
		return nil, fmt.Errorf("unhandled semantic type %d", spec.Type)
	}
}

// castTimestamp parses a timestamp in its declared input unit and
// normalizes it to epoch UTC milliseconds.
func castTimestamp(cell string, unit schema.TimeUnit) (int64, error) {
	switch unit {
	case schema.UnitDateTime:
		t, err := time.ParseInLocation(dateTimeLayout, cell, time.UTC)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	case schema.UnitMicros:
		us, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return 0, err
		}
		return us / 1000, nil
	default: // UnitMillis
		return strconv.ParseInt(cell, 10, 64)
	}
}

// InferScale scans a DecimalScaled column for the maximum number of digits
// after the decimal point across all non-null values and returns it as the
// minimal lossless scale. Trailing zeros count ("1.50" needs scale 2); a
// column with no fractional digits, or no values at all, infers scale 0.
func InferScale(column string, cells []*string) (int32, error) {
	var scale int32
	for i, cell := range cells {
		if cell == nil {
			continue
		}
		d, err := decimal.NewFromString(*cell)
		if err != nil {
			return 0, apperrors.NewCastError(
				fmt.Sprintf("column %q row %d: %q is not numeric", column, i, *cell), err)
		}
		if exp := d.Exponent(); exp < 0 && -exp > scale {
			scale = -exp
		}
	}
	return scale, nil
}
