// Package download implements the acquisition pipeline: enumerating the
// date x data-type x symbol work matrix for a source, fetching each archive
// and its checksum sidecar, verifying the digest, and extracting the payload
// into the canonical data tree.
package download

import (
	"fmt"
	"time"

	"bnvault/internal/config"
	"bnvault/internal/source"
)

// WorkUnit is one (date, symbol, data type, source) combination. Identity is
// the tuple itself; all on-disk paths are pure functions of it.
type WorkUnit struct {
	Date     time.Time
	Symbol   string
	DataType string
	Source   source.Source
}

func (u WorkUnit) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", u.Source, u.Date.Format("2006-01-02"), u.DataType, u.Symbol)
}

// ArchivePath returns the unit's archive path under dest.
func (u WorkUnit) ArchivePath(dest string) string {
	return config.ArchivePath(dest, u.Source.String(), u.Date, u.DataType, u.Symbol)
}

// ChecksumPath returns the unit's checksum sidecar path under dest.
func (u WorkUnit) ChecksumPath(dest string) string {
	return config.ChecksumPath(dest, u.Source.String(), u.Date, u.DataType, u.Symbol)
}

// CSVPath returns the unit's extracted CSV path under dest.
func (u WorkUnit) CSVPath(dest string) string {
	return config.CSVPath(dest, u.Source.String(), u.Date, u.DataType, u.Symbol)
}

// TerminalPaths returns every recognized terminal form of the unit under
// dest, used by the skip-if-present policy.
func (u WorkUnit) TerminalPaths(dest string) []string {
	return config.TerminalPaths(dest, u.Source.String(), u.Date, u.DataType, u.Symbol)
}

// ArchivePair holds the local paths of one downloaded archive and its
// checksum sidecar.
type ArchivePair struct {
	ArchivePath  string
	ChecksumPath string
}

// Status classifies the terminal state of one work unit in a scheduler run.
type Status int

const (
	// StatusDownloaded means the unit was fetched, verified and extracted.
	StatusDownloaded Status = iota
	// StatusSkipped means a terminal-form file already existed and the unit
	// was resolved without network access.
	StatusSkipped
	// StatusVerificationFailed means the archive digest did not match the
	// checksum sidecar; the archive was discarded.
	StatusVerificationFailed
	// StatusNetworkError means the fetch failed.
	StatusNetworkError
	// StatusExtractionFailed means the archive was not a valid container.
	StatusExtractionFailed
)

func (s Status) String() string {
	switch s {
	case StatusDownloaded:
		return "downloaded"
	case StatusSkipped:
		return "skipped"
	case StatusVerificationFailed:
		return "verification_failed"
	case StatusNetworkError:
		return "network_error"
	case StatusExtractionFailed:
		return "extraction_failed"
	default:
		return "unknown"
	}
}

// Success reports whether the status is a non-failure terminal state.
func (s Status) Success() bool {
	return s == StatusDownloaded || s == StatusSkipped
}

// Outcome is the terminal result of one work unit. Exactly one Outcome is
// produced per unit per run; the scheduler owns aggregation.
type Outcome struct {
	Unit      WorkUnit
	Status    Status
	LocalPath string
	Err       error
}

// Summary aggregates the outcomes of one scheduler run.
type Summary struct {
	Counts   map[Status]int
	Outcomes map[WorkUnit]Outcome
}

// Total returns the number of units attempted.
func (s Summary) Total() int {
	return len(s.Outcomes)
}

// Failures returns the number of units that ended in a failure state.
func (s Summary) Failures() int {
	return s.Counts[StatusVerificationFailed] + s.Counts[StatusNetworkError] + s.Counts[StatusExtractionFailed]
}
