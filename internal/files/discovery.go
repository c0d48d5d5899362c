package files

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bnvault/internal/config"
	apperrors "bnvault/internal/errors"
)

// Entry is one discovered data file with the coordinates decoded from its
// path in the destination tree.
type Entry struct {
	Path     string
	Source   string
	Date     time.Time
	DataType string
	Symbol   string
	Ext      string
}

// Filter narrows a scan. Zero-valued fields match everything: an empty
// Source matches every source, zero Start/End leave the date range
// unbounded, and empty slices match every symbol or data type. Ext is
// required, since the three terminal forms of a unit live side by side and
// a caller always wants exactly one of them.
type Filter struct {
	Ext       string
	Source    string
	Start     time.Time
	End       time.Time
	Symbols   []string
	DataTypes []string
}

// Discovery scans one destination tree.
type Discovery struct {
	root string
}

// NewDiscovery creates a discovery instance rooted at the destination
// directory.
func NewDiscovery(root string) *Discovery {
	return &Discovery{root: root}
}

// Scan walks the tree and returns every file matching the filter, ordered
// by source, date, data type and symbol. Files whose paths do not follow
// the destination layout are skipped, so a log file or editor leftover in
// the tree never fails a scan. A missing root is an empty result, not an
// error.
func (d *Discovery) Scan(filter Filter) ([]Entry, error) {
	if filter.Ext == "" {
		return nil, apperrors.NewConfigError("scan filter needs a file extension", nil)
	}

	var entries []Entry
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			if path == d.root {
				return nil
			}
			return err
		}
		if de.IsDir() {
			return nil
		}

		entry, ok := d.decode(path)
		if !ok {
			return nil
		}
		if matches(entry, filter) {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to scan %s", d.root), err)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.DataType != b.DataType {
			return a.DataType < b.DataType
		}
		return a.Symbol < b.Symbol
	})
	return entries, nil
}

// knownExts is checked in order; the checksum sidecar comes first so it is
// never mistaken for an archive.
var knownExts = []string{config.ExtChecksum, config.ExtArchive, config.ExtCSV, config.ExtParquet}

// decode parses {source}/{YYYY}/{MM}/{DD}/{dataType}/{symbol}{ext} relative
// to the root.
func (d *Discovery) decode(path string) (Entry, bool) {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return Entry{}, false
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 6 {
		return Entry{}, false
	}

	date, err := time.Parse("2006/01/02", strings.Join(parts[1:4], "/"))
	if err != nil {
		return Entry{}, false
	}

	name := parts[5]
	var symbol, ext string
	for _, known := range knownExts {
		if strings.HasSuffix(name, known) {
			symbol = strings.TrimSuffix(name, known)
			ext = known
			break
		}
	}
	if symbol == "" {
		return Entry{}, false
	}

	return Entry{
		Path:     path,
		Source:   parts[0],
		Date:     date,
		DataType: parts[4],
		Symbol:   symbol,
		Ext:      ext,
	}, true
}

func matches(e Entry, f Filter) bool {
	if e.Ext != f.Ext {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if !f.Start.IsZero() && e.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.Date.After(f.End) {
		return false
	}
	if len(f.Symbols) > 0 && !contains(f.Symbols, e.Symbol) {
		return false
	}
	if len(f.DataTypes) > 0 && !contains(f.DataTypes, e.DataType) {
		return false
	}
	return true
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
