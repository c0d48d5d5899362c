package convert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bnvault/internal/errors"
)

const aggTradesCSV = `agg_trade_id,price,quantity,first_trade_id,last_trade_id,transact_time,is_buyer_maker
1,50000.10,0.500,10,12,1741305600000,true
2,50001.25,1.25,13,13,1741305600500,false
`

const bookDepthCSV = `timestamp,percentage,depth,notional
2025-03-07 00:01:00,-1,100,5000000
2025-03-07 00:01:00,-2,99,4900000
2025-03-07 00:01:00,1,101,5100000
`

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readRows(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)
	pf, err := parquet.OpenFile(f, st.Size())
	require.NoError(t, err)

	r := parquet.NewGenericReader[map[string]any](f, pf.Schema())
	defer r.Close()

	rows := make([]map[string]any, r.NumRows())
	for i := range rows {
		rows[i] = map[string]any{}
	}
	n, err := r.Read(rows)
	if err != nil && n != len(rows) {
		t.Fatalf("read %d of %d rows: %v", n, len(rows), err)
	}
	return rows
}

func fieldNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)
	pf, err := parquet.OpenFile(f, st.Size())
	require.NoError(t, err)

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	return names
}

func TestEngine_ConvertAggTrades(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "BTCUSDT.csv", aggTradesCSV)

	out, err := NewEngine(false).Convert(context.Background(), csvPath, "aggTrades")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "BTCUSDT.parquet"), out)

	// Renamed targets, in the file's (sorted) field order.
	assert.Equal(t,
		[]string{"AggTradeId", "FirstTradeId", "IsBuyerMaker", "LastTradeId", "Price", "Qty", "TxnTime"},
		fieldNames(t, out))

	rows := readRows(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["AggTradeId"])
	assert.Equal(t, int64(5000010), rows[0]["Price"])
	// quantity has three fractional digits at most, so scale 3.
	assert.Equal(t, int64(500), rows[0]["Qty"])
	assert.Equal(t, int64(1250), rows[1]["Qty"])
	assert.Equal(t, true, rows[0]["IsBuyerMaker"])

	// Source CSV stays in place unless removal was asked for.
	_, err = os.Stat(csvPath)
	assert.NoError(t, err)
}

func TestEngine_ConvertBookDepth(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "BTCUSDT.csv", bookDepthCSV)

	out, err := NewEngine(false).Convert(context.Background(), csvPath, "bookDepth")
	require.NoError(t, err)

	names := fieldNames(t, out)
	assert.Len(t, names, 21)
	assert.Contains(t, names, "Timestamp")
	assert.Contains(t, names, "BidDepth1")
	assert.Contains(t, names, "AskNotional5")

	rows := readRows(t, out)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1741305660000), rows[0]["Timestamp"])
	assert.Equal(t, int64(100), rows[0]["BidDepth1"])
	assert.Equal(t, int64(99), rows[0]["BidDepth2"])
	assert.Equal(t, int64(101), rows[0]["AskDepth1"])
}

func TestEngine_ConvertRemovesSource(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "BTCUSDT.csv", aggTradesCSV)

	_, err := NewEngine(true).Convert(context.Background(), csvPath, "aggTrades")
	require.NoError(t, err)

	_, err = os.Stat(csvPath)
	assert.True(t, os.IsNotExist(err))
}

func TestEngine_UnknownDataType(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "BTCUSDT.csv", aggTradesCSV)

	_, err := NewEngine(false).Convert(context.Background(), csvPath, "fundingRate")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeUnknownDataType))
}

func TestEngine_SchemaMismatchLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "BTCUSDT.csv", "agg_trade_id,price\n1,50000.10\n")

	_, err := NewEngine(false).Convert(context.Background(), csvPath, "aggTrades")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchemaMismatch))

	_, err = os.Stat(filepath.Join(dir, "BTCUSDT.parquet"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "BTCUSDT.parquet.partial"))
	assert.True(t, os.IsNotExist(err))
}
