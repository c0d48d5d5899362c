package convert

import (
	"fmt"

	apperrors "bnvault/internal/errors"
	"bnvault/internal/schema"
)

// Pivot reshapes a long-form raw table into wide form: one row per distinct
// index value (in first-seen order) and one `{value}_{key}` column per
// declared key slot. Slots with no matching long row stay null.
//
// A key value outside the declared slots means the upstream format drifted
// from the registered schema and fails the reshape.
func Pivot(raw *RawTable, spec *schema.PivotSpec) (*RawTable, error) {
	idxIndex := raw.ColumnIndex(spec.Index)
	if idxIndex < 0 {
		return nil, apperrors.NewSchemaMismatchError(
			fmt.Sprintf("pivot index column %q is absent from the raw data", spec.Index))
	}
	keyIndex := raw.ColumnIndex(spec.Key)
	if keyIndex < 0 {
		return nil, apperrors.NewSchemaMismatchError(
			fmt.Sprintf("pivot key column %q is absent from the raw data", spec.Key))
	}
	valueIndexes := make([]int, len(spec.Values))
	for i, value := range spec.Values {
		idx := raw.ColumnIndex(value)
		if idx < 0 {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("pivot value column %q is absent from the raw data", value))
		}
		valueIndexes[i] = idx
	}

	// Wide layout: index column first, then every declared slot.
	wide := &RawTable{Columns: []string{spec.Index}}
	slot := make(map[string]int) // wide column name -> wide column index
	for _, value := range spec.Values {
		for _, key := range spec.Keys {
			name := spec.WideColumn(value, key)
			slot[name] = len(wide.Columns)
			wide.Columns = append(wide.Columns, name)
		}
	}

	rowFor := make(map[string]int) // index value -> wide row position
	for i, row := range raw.Rows {
		if row[idxIndex] == nil || row[keyIndex] == nil {
			return nil, apperrors.NewSchemaMismatchError(
				fmt.Sprintf("pivot row %d has a null %q or %q", i, spec.Index, spec.Key))
		}
		indexValue := *row[idxIndex]
		key := *row[keyIndex]

		pos, ok := rowFor[indexValue]
		if !ok {
			pos = len(wide.Rows)
			rowFor[indexValue] = pos
			wideRow := make([]*string, len(wide.Columns))
			wideRow[0] = row[idxIndex]
			wide.Rows = append(wide.Rows, wideRow)
		}

		for v, value := range spec.Values {
			name := spec.WideColumn(value, key)
			col, ok := slot[name]
			if !ok {
				return nil, apperrors.NewSchemaMismatchError(
					fmt.Sprintf("pivot row %d carries undeclared %s %q", i, spec.Key, key))
			}
			wide.Rows[pos][col] = row[valueIndexes[v]]
		}
	}
	return wide, nil
}
