package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycvault/internal/checksum"
	"kycvault/internal/extract"
	vaulterrors "kycvault/pkg/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestDirectoryDeterministic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "edited")
	writeTree(t, src, map[string]string{
		"settlements.csv":       "settlement_id,population\nGHA001,4500\n",
		"meta/survey_notes.txt": "cleaned 2020",
	})

	first := filepath.Join(dir, "kyc_cln_data_Accra_Ghana_v2.zip")
	second := filepath.Join(dir, "kyc_cln_data_Accra_Ghana_v3.zip")

	res1, err := Directory(src, first)
	require.NoError(t, err)
	assert.Equal(t, 2, res1.Files)

	_, err = Directory(src, second)
	require.NoError(t, err)

	d1, err := checksum.File(first)
	require.NoError(t, err)
	d2, err := checksum.File(second)
	require.NoError(t, err)
	// Same bytes in, same archive out.
	assert.Equal(t, d1, d2)
}

// Extracting and re-packing with no edits yields a byte-identical archive.
func TestRoundTripIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "original")
	writeTree(t, src, map[string]string{
		"settlements.csv":      "settlement_id,calc_density\nNGA010,812\n",
		"shapes/boundary.json": `{"type":"FeatureCollection"}`,
	})

	original := filepath.Join(dir, "kyc_cln_data_Lagos_Nigeria.zip")
	_, err := Directory(src, original)
	require.NoError(t, err)

	unpacked := filepath.Join(dir, "unpacked")
	_, err = extract.Archive(original, unpacked, extract.Options{})
	require.NoError(t, err)

	repacked := filepath.Join(dir, "kyc_cln_data_Lagos_Nigeria_v2.zip")
	_, err = Directory(unpacked, repacked)
	require.NoError(t, err)

	d1, err := checksum.File(original)
	require.NoError(t, err)
	d2, err := checksum.File(repacked)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestDirectoryRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "edited")
	writeTree(t, src, map[string]string{"a.csv": "x"})

	target := filepath.Join(dir, "kyc_ori_data_Accra_Ghana.zip")
	_, err := Directory(src, target)
	require.NoError(t, err)

	// Archives are immutable; packing over one is refused.
	_, err = Directory(src, target)
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeImmutableArchive, ve.Code)
}

func TestDirectoryEmpty(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(src, 0o755))

	_, err := Directory(src, filepath.Join(dir, "out.zip"))
	require.Error(t, err)
}

func TestDirectorySkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "edited")
	writeTree(t, src, map[string]string{
		"settlements.csv": "settlement_id\nGHA001\n",
		".DS_Store":       "junk",
		".git/config":     "junk",
	})

	res, err := Directory(src, filepath.Join(dir, "kyc_ori_data_Accra_Ghana.zip"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
}
