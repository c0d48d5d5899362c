package download

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	apperrors "bnvault/internal/errors"
)

// Extract unpacks the single CSV payload expected inside a verified archive
// into csvPath, overwriting any existing file. When keepArchive is false the
// archive and its checksum sidecar are removed after a successful
// extraction. An unreadable container, or one holding anything other than
// exactly one file entry, is an EXTRACTION error.
func Extract(pair ArchivePair, csvPath string, keepArchive bool) error {
	zr, err := zip.OpenReader(pair.ArchivePath)
	if err != nil {
		return apperrors.NewExtractionError(fmt.Sprintf("%s is not a valid archive", pair.ArchivePath), err)
	}
	defer zr.Close()

	var payload *zip.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if payload != nil {
			return apperrors.NewExtractionError(
				fmt.Sprintf("archive %s holds more than one entry", pair.ArchivePath), nil)
		}
		payload = entry
	}
	if payload == nil {
		return apperrors.NewExtractionError(fmt.Sprintf("archive %s holds no entries", pair.ArchivePath), nil)
	}

	if err := writeEntry(payload, csvPath); err != nil {
		return err
	}

	if !keepArchive {
		// Extraction succeeded; pruning failures are not worth failing
		// the unit over, the next run simply finds the files again.
		os.Remove(pair.ArchivePath)
		os.Remove(pair.ChecksumPath)
	}
	return nil
}

func writeEntry(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return apperrors.NewExtractionError(fmt.Sprintf("failed to open archive entry %s", entry.Name), err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to create %s", dest), err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(dest)
		return apperrors.NewExtractionError(fmt.Sprintf("failed to extract %s", entry.Name), err)
	}
	return out.Close()
}
