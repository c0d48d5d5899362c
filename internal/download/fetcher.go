package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	apperrors "bnvault/internal/errors"
	"bnvault/internal/source"
)

// DefaultRequestTimeout bounds a single archive transfer.
const DefaultRequestTimeout = 5 * time.Minute

// Fetcher retrieves one archive and its checksum sidecar over HTTP,
// streaming each to disk in chunks so memory stays constant regardless of
// archive size.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithBaseURL overrides the source's base URL. Used by tests to point the
// fetcher at a local server.
func WithBaseURL(baseURL string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = baseURL }
}

// NewFetcher creates a Fetcher paced at requestsPerSecond against the remote
// endpoint. Zero disables pacing.
func NewFetcher(requestsPerSecond float64, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: DefaultRequestTimeout},
	}
	if requestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads the unit's archive and checksum sidecar into the dest
// tree and returns their local paths. A non-2xx status, connection failure
// or timeout is a NETWORK error; the caller decides whether to retry.
func (f *Fetcher) Fetch(ctx context.Context, unit WorkUnit, interval, dest string) (ArchivePair, error) {
	dir := filepath.Dir(unit.ArchivePath(dest))
	// MkdirAll reports success when the directory already exists, so
	// sibling workers can race on creation safely.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ArchivePair{}, apperrors.NewStorageError(fmt.Sprintf("failed to create directory %s", dir), err)
	}

	pair := ArchivePair{
		ArchivePath:  unit.ArchivePath(dest),
		ChecksumPath: unit.ChecksumPath(dest),
	}

	archiveURL := source.ArchiveURL(unit.Source, unit.DataType, unit.Symbol, interval, unit.Date)
	checksumURL := source.ChecksumURL(unit.Source, unit.DataType, unit.Symbol, interval, unit.Date)
	if f.baseURL != "" {
		archiveURL = f.rebase(archiveURL, unit.Source)
		checksumURL = f.rebase(checksumURL, unit.Source)
	}

	if err := f.download(ctx, archiveURL, pair.ArchivePath); err != nil {
		return ArchivePair{}, err
	}
	if err := f.download(ctx, checksumURL, pair.ChecksumPath); err != nil {
		return ArchivePair{}, err
	}
	return pair, nil
}

// rebase swaps the production endpoint prefix for the configured one.
func (f *Fetcher) rebase(url string, s source.Source) string {
	return f.baseURL + url[len(s.BaseURL()):]
}

// download streams one URL to dest via a temporary path, renaming into
// place only after the full body has been written.
func (f *Fetcher) download(ctx context.Context, url, dest string) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return apperrors.NewNetworkError("rate limiter interrupted", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("failed to build request for %s", url), err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(fmt.Sprintf("download failed for %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apperrors.NewNetworkError(fmt.Sprintf("bad status for %s: %s", url, resp.Status), nil)
	}

	tmp := dest + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", tmp), err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return apperrors.NewNetworkError(fmt.Sprintf("transfer interrupted for %s", url), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("failed to close %s", tmp), err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("failed to move %s into place", dest), err)
	}
	return nil
}
