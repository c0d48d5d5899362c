package convert

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bnvault/internal/errors"
)

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "data.csv", "a,b\n1,2\n3,4\n")

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1", *table.Rows[0][0])
	assert.Equal(t, "4", *table.Rows[1][1])
}

func TestLoadCSV_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "data.csv", "a,b\n")

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestLoadCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(dir, "absent.csv"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeCSV(t, dir, "empty.csv", "")
		_, err := LoadCSV(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})

	t.Run("ragged rows", func(t *testing.T) {
		path := writeCSV(t, dir, "ragged.csv", "a,b\n1\n")
		_, err := LoadCSV(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	})
}

func TestColumnIndex(t *testing.T) {
	table := &RawTable{Columns: []string{"a", "b"}}
	assert.Equal(t, 0, table.ColumnIndex("a"))
	assert.Equal(t, 1, table.ColumnIndex("b"))
	assert.Equal(t, -1, table.ColumnIndex("c"))
}
