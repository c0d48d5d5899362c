package download

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "bnvault/internal/errors"
)

// Verify computes the SHA-256 digest of the archive and compares it to the
// expected digest published in the checksum sidecar. The archive is streamed
// through the hash, so memory stays constant. A digest mismatch or a
// malformed sidecar is a VERIFICATION error.
//
// Verification is mandatory for every downloaded archive: a re-downloaded
// file is always re-verified, even if a previous run verified the same unit.
func Verify(pair ArchivePair) error {
	expected, err := parseSidecar(pair.ChecksumPath)
	if err != nil {
		return err
	}

	actual, err := digestFile(pair.ArchivePath)
	if err != nil {
		return err
	}

	if actual != expected {
		return apperrors.NewVerificationError("checksum mismatch", nil).
			WithContext("archive", pair.ArchivePath).
			WithContext("expected", expected).
			WithContext("actual", actual)
	}
	return nil
}

// parseSidecar reads the sidecar's "<hex-digest>  <filename>" line and
// returns the expected digest.
func parseSidecar(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewVerificationError(fmt.Sprintf("failed to read checksum sidecar %s", path), err)
	}

	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return "", apperrors.NewVerificationError(
			fmt.Sprintf("malformed checksum sidecar %s: want 2 tokens, got %d", path, len(fields)), nil)
	}

	digest := strings.ToLower(fields[0])
	if raw, err := hex.DecodeString(digest); err != nil || len(raw) != sha256.Size {
		return "", apperrors.NewVerificationError(
			fmt.Sprintf("malformed checksum sidecar %s: %q is not a sha256 hex digest", path, fields[0]), err)
	}
	return digest, nil
}

// digestFile streams the file through sha256 and returns the hex digest.
func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.NewVerificationError(fmt.Sprintf("failed to open archive %s", path), err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", apperrors.NewVerificationError(fmt.Sprintf("failed to read archive %s", path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
