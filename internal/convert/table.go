// Package convert turns extracted tabular files into typed columnar output:
// loading raw CSV rows, reshaping long-form data types, casting columns to
// their schema types, renaming to the target convention, and writing
// Parquet. It also carries the migration mode that renames columns of
// previously produced Parquet files in place.
package convert

import (
	"encoding/csv"
	"fmt"
	"os"

	apperrors "bnvault/internal/errors"
	"bnvault/internal/schema"
)

// RawTable is one extracted tabular file after parsing and before casting:
// every cell is text. A nil cell is a null, produced only by the pivot
// reshape. A RawTable is owned by a single conversion and never shared.
type RawTable struct {
	Columns []string
	Rows    [][]*string
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// LoadCSV reads a whole extracted file into a RawTable. The first record is
// the header row.
func LoadCSV(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to parse %s", path), err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewStorageError(fmt.Sprintf("%s holds no header row", path), nil)
	}

	table := &RawTable{
		Columns: records[0],
		Rows:    make([][]*string, 0, len(records)-1),
	}
	for _, record := range records[1:] {
		row := make([]*string, len(record))
		for i := range record {
			row[i] = &record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// TypedTable is a RawTable after casting: rows keyed by column name with
// native Go values, ready to be written to columnar storage. Null cells are
// simply absent from their row.
type TypedTable struct {
	Schema schema.TypeSchema
	// Scales holds the inferred decimal scale per DecimalScaled column,
	// keyed by the current column naming of Rows.
	Scales map[string]int32
	Rows   []map[string]any
}

// Rename re-keys every row from each ColumnSpec's source name to its target
// name. This is a pure rename; values are never touched.
func (t *TypedTable) Rename() {
	mapping := make(map[string]string, len(t.Schema.Columns))
	for _, c := range t.Schema.Columns {
		mapping[c.Source] = c.Target
	}

	for i, row := range t.Rows {
		renamed := make(map[string]any, len(row))
		for name, value := range row {
			renamed[mapping[name]] = value
		}
		t.Rows[i] = renamed
	}

	scales := make(map[string]int32, len(t.Scales))
	for name, scale := range t.Scales {
		scales[mapping[name]] = scale
	}
	t.Scales = scales
}
