// Package source describes the public exchange data endpoint: the known
// sources, their base URLs, and the archive naming template.
package source

import (
	"fmt"
	"time"
)

// Source selects one market on the public data endpoint.
type Source string

const (
	// UM is the USD-margined futures market.
	UM Source = "um"
	// Spot is the spot market.
	Spot Source = "spot"
)

// Parse converts a CLI/config selector into a Source.
func Parse(s string) (Source, error) {
	switch Source(s) {
	case UM:
		return UM, nil
	case Spot:
		return Spot, nil
	default:
		return "", fmt.Errorf("unsupported source %q (want %q or %q)", s, UM, Spot)
	}
}

// BaseURL returns the daily-archive base URL for the source.
func (s Source) BaseURL() string {
	switch s {
	case Spot:
		return "https://data.binance.vision/data/spot/daily"
	default:
		return "https://data.binance.vision/data/futures/um/daily"
	}
}

func (s Source) String() string {
	return string(s)
}

// intervalScoped data types publish one archive per kline interval and carry
// the interval, not the data type, in the file name.
var intervalScoped = map[string]bool{
	"klines":             true,
	"indexPriceKlines":   true,
	"premiumIndexKlines": true,
}

// IntervalScoped reports whether dataType's remote layout includes the kline
// interval path segment.
func IntervalScoped(dataType string) bool {
	return intervalScoped[dataType]
}

// ArchiveURL builds the remote URL of the archive for one unit of work.
// Plain data types follow
//
//	{base}/{dataType}/{symbol}/{symbol}-{dataType}-{YYYY-MM-DD}.zip
//
// and interval-scoped data types follow
//
//	{base}/{dataType}/{symbol}/{interval}/{symbol}-{interval}-{YYYY-MM-DD}.zip
func ArchiveURL(s Source, dataType, symbol, interval string, date time.Time) string {
	day := date.Format("2006-01-02")
	if IntervalScoped(dataType) {
		return fmt.Sprintf("%s/%s/%s/%s/%s-%s-%s.zip", s.BaseURL(), dataType, symbol, interval, symbol, interval, day)
	}
	return fmt.Sprintf("%s/%s/%s/%s-%s-%s.zip", s.BaseURL(), dataType, symbol, symbol, dataType, day)
}

// ChecksumURL builds the remote URL of the archive's checksum sidecar.
func ChecksumURL(s Source, dataType, symbol, interval string, date time.Time) string {
	return ArchiveURL(s, dataType, symbol, interval, date) + ".CHECKSUM"
}
