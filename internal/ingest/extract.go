package ingest

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

// ExtractArchive unpacks an uploaded shapefile archive into a temporary directory
// and returns the extracted file paths plus the directory for later cleanup.
// Entries are flattened to their base name so the .shp/.shx/.dbf companions end up
// side by side regardless of how the archive was built.
func ExtractArchive(archivePath string) ([]string, string, error) {
	destDir, err := os.MkdirTemp("", "shapefile-extract-*")
	if err != nil {
		return nil, "", err
	}

	ctx := context.Background()
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		os.RemoveAll(destDir)
		return nil, "", err
	}

	var files []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := filepath.Base(path)
		// macOS resource forks and other hidden entries
		if name == "" || name[0] == '.' {
			return nil
		}

		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()

		destPath := filepath.Join(destDir, name)
		outFile, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer outFile.Close()

		if _, err := io.Copy(outFile, reader); err != nil {
			return err
		}

		files = append(files, destPath)
		return nil
	})
	if err != nil {
		os.RemoveAll(destDir)
		return nil, "", err
	}

	return files, destDir, nil
}
