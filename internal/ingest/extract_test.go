package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZipFixture builds a zip holding the given entry names with small payloads.
func writeZipFixture(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(dir, "upload.zip")
	out, err := os.Create(zipPath)
	require.NoError(t, err)

	zw := zip.NewWriter(out)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
	return zipPath
}

func TestExtractArchiveFlattensAndSkipsHidden(t *testing.T) {
	zipPath := writeZipFixture(t, t.TempDir(), map[string]string{
		"data/parcels.shp":   "shp bytes",
		"data/parcels.shx":   "shx bytes",
		"data/parcels.dbf":   "dbf bytes",
		"data/._parcels.shp": "resource fork",
		".DS_Store":          "junk",
	})

	files, destDir, err := ExtractArchive(zipPath)
	require.NoError(t, err)
	defer os.RemoveAll(destDir)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"parcels.dbf", "parcels.shp", "parcels.shx"}, names)

	// Nested entries end up side by side with their content intact.
	data, err := os.ReadFile(filepath.Join(destDir, "parcels.shp"))
	require.NoError(t, err)
	assert.Equal(t, "shp bytes", string(data))
}

func TestExtractArchiveUnreadable(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "upload.zip")
	require.NoError(t, os.WriteFile(bogus, []byte("not an archive"), 0o644))

	_, _, err := ExtractArchive(bogus)
	assert.Error(t, err)
}
