package convert

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	apperrors "bnvault/internal/errors"
	"bnvault/internal/schema"
)

// parquetSchema builds the output schema for one typed table. Decimal
// columns carry the scale inferred for this file; every column is named by
// its target name, so Rename must have run first.
func parquetSchema(t *TypedTable) (*parquet.Schema, error) {
	group := parquet.Group{}
	for _, spec := range t.Schema.Columns {
		node, err := parquetNode(spec, t.Scales)
		if err != nil {
			return nil, err
		}
		if spec.Nullable {
			node = parquet.Optional(node)
		}
		group[spec.Target] = node
	}
	return parquet.NewSchema(t.Schema.DataType, group), nil
}

func parquetNode(spec schema.ColumnSpec, scales map[string]int32) (parquet.Node, error) {
	switch spec.Type {
	case schema.Integer64:
		return parquet.Int(64), nil
	case schema.Float64:
		return parquet.Leaf(parquet.DoubleType), nil
	case schema.DecimalScaled:
		return parquet.Decimal(int(scales[spec.Target]), decimalPrecision, parquet.Int64Type), nil
	case schema.Timestamp:
		return parquet.Timestamp(parquet.Millisecond), nil
	case schema.Utf8:
		return parquet.String(), nil
	case schema.Boolean:
		return parquet.Leaf(parquet.BooleanType), nil
	default:
		return nil, apperrors.NewCastError(fmt.Sprintf("unhandled semantic type %d for column %q", spec.Type, spec.Target), nil)
	}
}

// writeParquet writes the typed table to path, via a temporary file so a
// failed write never leaves a truncated output behind.
func writeParquet(path string, t *TypedTable) error {
	ps, err := parquetSchema(t)
	if err != nil {
		return err
	}

	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", tmp), err)
	}

	w := parquet.NewGenericWriter[map[string]any](f, ps)
	if _, err := w.Write(t.Rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("failed to write rows to %s", tmp), err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("failed to finalize %s", tmp), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("failed to close %s", tmp), err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("failed to move %s into place", path), err)
	}
	return nil
}
