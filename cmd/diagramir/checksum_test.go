package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAsset(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asset.tar.gz")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestAssetDigest(t *testing.T) {
	data := []byte("diagramir test data")
	got, err := assetDigest(writeAsset(t, data))
	require.NoError(t, err)

	h := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(h[:]), got)
}

func TestAssetDigest_NotFound(t *testing.T) {
	_, err := assetDigest("/nonexistent/file")
	assert.Error(t, err)
}

func TestVerifyAsset(t *testing.T) {
	data := []byte("archive bytes")
	path := writeAsset(t, data)
	pinned := map[string]string{"good.tar.gz": checksumOf(data), "bad.tar.gz": checksumOf([]byte("other"))}

	ok, err := verifyAsset(pinned, "good.tar.gz", path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyAsset(pinned, "unknown.tar.gz", path)
	require.NoError(t, err)
	assert.False(t, ok, "unpinned assets are not verified")

	_, err = verifyAsset(pinned, "bad.tar.gz", path)
	var mismatch *checksumMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "bad.tar.gz", mismatch.asset)
	assert.Equal(t, checksumOf(data), mismatch.got)
	assert.Contains(t, err.Error(), "checksum mismatch for bad.tar.gz")
}

func TestVerifyAsset_MissingFile(t *testing.T) {
	_, err := verifyAsset(map[string]string{"a": "x"}, "a", "/nonexistent/file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compute checksum")
}
