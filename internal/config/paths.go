package config

import (
	"path/filepath"
	"time"
)

// File extensions for the recognized terminal forms of one work unit.
const (
	ExtArchive  = ".zip"
	ExtChecksum = ".zip.CHECKSUM"
	ExtCSV      = ".csv"
	ExtParquet  = ".parquet"
)

// DataDir returns the directory holding all files for one
// (source, date, data type) combination:
//
//	{dest}/{source}/{YYYY}/{MM}/{DD}/{dataType}
//
// The layout is the single source of truth for ALL file placement: the
// downloader writes into it, the converter and migrator discover files
// through it, and skip-existing checks resolve against it. It is a pure
// function of its inputs, so two runs targeting the same unit always
// resolve to the same location and concurrent workers can never collide.
func DataDir(dest, source string, date time.Time, dataType string) string {
	return filepath.Join(
		dest,
		source,
		date.Format("2006"),
		date.Format("01"),
		date.Format("02"),
		dataType,
	)
}

// ArchivePath returns the on-disk path of the downloaded archive.
func ArchivePath(dest, source string, date time.Time, dataType, symbol string) string {
	return filepath.Join(DataDir(dest, source, date, dataType), symbol+ExtArchive)
}

// ChecksumPath returns the on-disk path of the checksum sidecar.
func ChecksumPath(dest, source string, date time.Time, dataType, symbol string) string {
	return filepath.Join(DataDir(dest, source, date, dataType), symbol+ExtChecksum)
}

// CSVPath returns the on-disk path of the extracted tabular file.
func CSVPath(dest, source string, date time.Time, dataType, symbol string) string {
	return filepath.Join(DataDir(dest, source, date, dataType), symbol+ExtCSV)
}

// ParquetPath returns the on-disk path of the converted columnar file.
func ParquetPath(dest, source string, date time.Time, dataType, symbol string) string {
	return filepath.Join(DataDir(dest, source, date, dataType), symbol+ExtParquet)
}

// TerminalPaths returns every recognized terminal form for one unit, in the
// order they are produced: archive, extracted CSV, converted Parquet.
func TerminalPaths(dest, source string, date time.Time, dataType, symbol string) []string {
	return []string{
		ArchivePath(dest, source, date, dataType, symbol),
		CSVPath(dest, source, date, dataType, symbol),
		ParquetPath(dest, source, date, dataType, symbol),
	}
}
