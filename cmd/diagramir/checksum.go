package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// checksumMismatchError reports a release asset whose digest differs from the
// pinned one.
type checksumMismatchError struct {
	asset, want, got string
}

func (e *checksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s (expected %s, got %s)", e.asset, e.want, e.got)
}

// assetDigest returns the hex SHA-256 of the downloaded archive at path.
func assetDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// verifyAsset checks the archive at path against the digest pinned for asset.
// It reports false without error when no digest is pinned.
func verifyAsset(pinned map[string]string, asset, path string) (bool, error) {
	want, ok := pinned[asset]
	if !ok {
		return false, nil
	}
	got, err := assetDigest(path)
	if err != nil {
		return false, fmt.Errorf("compute checksum: %w", err)
	}
	if got != want {
		return false, &checksumMismatchError{asset: asset, want: want, got: got}
	}
	return true, nil
}
