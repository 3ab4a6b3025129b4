package extract

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vaulterrors "kycvault/pkg/errors"
)

func buildZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "kyc_cln_data_Accra_Ghana.zip")
	buildZip(t, archivePath, map[string]string{
		"settlements.csv":       "settlement_id,name\nGHA001,Old Fadama\n",
		"meta/survey_notes.txt": "collected 2019",
		"meta/calc_readme.txt":  "derived columns",
	})

	dest := filepath.Join(dir, "out", "Accra")
	result, err := Archive(archivePath, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Files)

	content, err := os.ReadFile(filepath.Join(dest, "settlements.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "GHA001")

	_, err = os.Stat(filepath.Join(dest, "meta", "survey_notes.txt"))
	assert.NoError(t, err)
}

func TestArchiveRefusesExistingDestination(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "kyc_ori_data_Accra_Ghana.zip")
	buildZip(t, archivePath, map[string]string{"a.csv": "x"})

	dest := filepath.Join(dir, "existing")
	require.NoError(t, os.MkdirAll(dest, 0o755))

	_, err := Archive(archivePath, dest, Options{})
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeConflict, ve.Code)

	// The operator accepts overwrite risk explicitly.
	_, err = Archive(archivePath, dest, Options{Overwrite: true})
	assert.NoError(t, err)
}

func TestArchiveCorrupt(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "kyc_ori_data_Accra_Ghana.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("this is not a zip"), 0o644))

	_, err := Archive(archivePath, filepath.Join(dir, "out"), Options{})
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeCorruptArchive, ve.Code)
}

func TestArchiveBlocksZipSlip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "kyc_ori_data_Accra_Ghana.zip")
	buildZip(t, archivePath, map[string]string{"../escape.txt": "nope"})

	_, err := Archive(archivePath, filepath.Join(dir, "out"), Options{})
	require.Error(t, err)
	ve, ok := err.(vaulterrors.VaultError)
	require.True(t, ok)
	assert.Equal(t, vaulterrors.CodeCorruptArchive, ve.Code)

	_, statErr := os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

// Dots inside a filename are not traversal; only a whole ".." component is.
func TestArchiveAllowsDottedFilenames(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "kyc_cln_data_Accra_Ghana.zip")
	buildZip(t, archivePath, map[string]string{
		"report..final.csv":       "settlement_id\nGHA001\n",
		"notes/draft..2019.txt":   "kept for the record",
		"..hidden_calc_readme.md": "derived columns",
	})

	dest := filepath.Join(dir, "out")
	result, err := Archive(archivePath, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Files)

	_, err = os.Stat(filepath.Join(dest, "report..final.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "notes", "draft..2019.txt"))
	assert.NoError(t, err)
}
