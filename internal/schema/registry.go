package schema

import "strings"

// registry maps each data type to its schema. Built once at package
// initialization; read-only afterwards.
var registry = map[string]TypeSchema{
	"klines":             klineSchema("klines"),
	"indexPriceKlines":   klineSchema("indexPriceKlines"),
	"premiumIndexKlines": klineSchema("premiumIndexKlines"),
	"aggTrades":          aggTradesSchema(),
	"bookDepth":          bookDepthSchema(),
	"metrics":            metricsSchema(),
}

// klineSchema covers klines, indexPriceKlines and premiumIndexKlines, which
// share one row layout.
func klineSchema(dataType string) TypeSchema {
	return TypeSchema{
		DataType: dataType,
		Columns: []ColumnSpec{
			{Source: "open_time", Target: "OpenTime", Type: Timestamp, Unit: UnitMillis},
			{Source: "open", Target: "Open", Type: DecimalScaled},
			{Source: "high", Target: "High", Type: DecimalScaled},
			{Source: "low", Target: "Low", Type: DecimalScaled},
			{Source: "close", Target: "Close", Type: DecimalScaled},
			{Source: "volume", Target: "Volume", Type: DecimalScaled},
			{Source: "close_time", Target: "CloseTime", Type: Timestamp, Unit: UnitMillis},
			{Source: "quote_volume", Target: "QuoteVolume", Type: DecimalScaled},
			{Source: "count", Target: "Count", Type: Integer64},
			{Source: "taker_buy_volume", Target: "TakerBuyVolume", Type: DecimalScaled},
			{Source: "taker_buy_quote_volume", Target: "TakerBuyQuoteVolume", Type: DecimalScaled},
			{Source: "ignore", Target: "Ignore", Type: Integer64},
		},
	}
}

func aggTradesSchema() TypeSchema {
	return TypeSchema{
		DataType: "aggTrades",
		Columns: []ColumnSpec{
			{Source: "agg_trade_id", Target: "AggTradeId", Type: Integer64},
			{Source: "price", Target: "Price", Type: DecimalScaled},
			{Source: "quantity", Target: "Qty", Type: DecimalScaled},
			{Source: "first_trade_id", Target: "FirstTradeId", Type: Integer64},
			{Source: "last_trade_id", Target: "LastTradeId", Type: Integer64},
			{Source: "transact_time", Target: "TxnTime", Type: Timestamp, Unit: UnitMillis},
			{Source: "is_buyer_maker", Target: "IsBuyerMaker", Type: Boolean},
		},
	}
}

// bookDepthSchema describes the wide form of the order-book depth snapshot.
// The raw data is long: one row per (timestamp, percentage) with depth and
// notional. Percentage sign encodes the book side (negative = bid, positive
// = ask), its magnitude the level. Not every snapshot carries every level,
// so every pivoted column is nullable.
func bookDepthSchema() TypeSchema {
	pivot := &PivotSpec{
		Index:  "timestamp",
		Key:    "percentage",
		Values: []string{"depth", "notional"},
		Keys:   []string{"-5", "-4", "-3", "-2", "-1", "1", "2", "3", "4", "5"},
	}

	columns := []ColumnSpec{
		{Source: "timestamp", Target: "Timestamp", Type: Timestamp, Unit: UnitDateTime},
	}
	for _, value := range pivot.Values {
		for _, key := range pivot.Keys {
			columns = append(columns, ColumnSpec{
				Source:   pivot.WideColumn(value, key),
				Target:   wideTarget(value, key),
				Type:     DecimalScaled,
				Nullable: true,
			})
		}
	}

	return TypeSchema{DataType: "bookDepth", Columns: columns, Pivot: pivot}
}

// wideTarget names a pivoted column after its book side and level:
// ("depth", "-3") becomes "BidDepth3", ("notional", "2") "AskNotional2".
func wideTarget(value, key string) string {
	side := "Ask"
	level := key
	if strings.HasPrefix(key, "-") {
		side = "Bid"
		level = key[1:]
	}
	return side + PascalCase(value) + level
}

func metricsSchema() TypeSchema {
	return TypeSchema{
		DataType: "metrics",
		Columns: []ColumnSpec{
			{Source: "create_time", Target: "CreateTime", Type: Timestamp, Unit: UnitDateTime},
			{Source: "symbol", Target: "Symbol", Type: Utf8},
			{Source: "sum_open_interest", Target: "SumOpenInterest", Type: DecimalScaled},
			{Source: "sum_open_interest_value", Target: "SumOpenInterestValue", Type: DecimalScaled},
			{Source: "count_toptrader_long_short_ratio", Target: "CountToptraderLongShortRatio", Type: DecimalScaled},
			{Source: "sum_toptrader_long_short_ratio", Target: "SumToptraderLongShortRatio", Type: DecimalScaled},
			{Source: "count_long_short_ratio", Target: "CountLongShortRatio", Type: DecimalScaled},
			{Source: "sum_taker_long_short_vol_ratio", Target: "SumTakerLongShortVolRatio", Type: DecimalScaled},
		},
	}
}
