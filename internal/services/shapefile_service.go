package services

import (
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"shapefile-service/internal/ingest"
	"shapefile-service/internal/metrics"
	"shapefile-service/internal/models"
	"shapefile-service/internal/repository"
)

const (
	maxUploadFiles    = 4
	maxUploadFileSize = 10 << 20 // 10MB per file
)

// ShapefileService runs the upload pipeline: multipart files to temp storage,
// shapefile parsing, then the transactional replace of the dataset's rows.
type ShapefileService struct {
	Repo repository.ShapefileRepository
}

// NewShapefileService creates a ShapefileService over the given repository.
func NewShapefileService(repo repository.ShapefileRepository) *ShapefileService {
	return &ShapefileService{Repo: repo}
}

// UploadDataset ingests one uploaded dataset: either a .shp with its .shx/.dbf
// companions, or a single archive containing them. All temp files are removed on
// every exit path.
func (s *ShapefileService) UploadDataset(fileHeaders []*multipart.FileHeader) (*models.UploadResponse, error) {
	started := time.Now()

	if len(fileHeaders) == 0 {
		return nil, Validationf("no files uploaded")
	}
	if len(fileHeaders) > maxUploadFiles {
		return nil, Validationf("too many files: at most %d allowed", maxUploadFiles)
	}
	for _, fh := range fileHeaders {
		if fh.Size > maxUploadFileSize {
			return nil, Validationf("file %s exceeds the %dMB limit", fh.Filename, maxUploadFileSize>>20)
		}
	}

	tempDir, err := os.MkdirTemp("", "shapefile-upload-*")
	if err != nil {
		return nil, errors.Wrap(err, "could not create temp directory")
	}
	defer os.RemoveAll(tempDir)

	paths, err := saveUploadedFiles(tempDir, fileHeaders)
	if err != nil {
		return nil, err
	}

	// A single archive upload is unpacked first; its contents replace the path set.
	if len(paths) == 1 && isArchive(paths[0]) {
		extracted, extractDir, err := ingest.ExtractArchive(paths[0])
		if err != nil {
			return nil, Validationf("could not read archive: %v", err)
		}
		defer os.RemoveAll(extractDir)
		paths = extracted
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	if err := ingest.ValidateCompanionSet(names); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	shpPath, ok := ingest.FindShpFile(paths)
	if !ok {
		return nil, Validationf("missing required files: .shp")
	}
	datasetName := filepath.Base(shpPath)

	features, err := ingest.ParseShapefile(shpPath)
	if err != nil {
		if errors.Is(err, ingest.ErrNoValidFeatures) {
			metrics.UploadsTotal.WithLabelValues("invalid").Inc()
			return nil, &ValidationError{Msg: err.Error()}
		}
		metrics.UploadsTotal.WithLabelValues("parse_error").Inc()
		return nil, Validationf("could not parse shapefile: %v", err)
	}

	count, err := s.Repo.ReplaceDataset(datasetName, features)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("db_error").Inc()
		return nil, errors.Wrap(err, "failed to persist dataset")
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	metrics.UploadFeatures.Observe(float64(count))
	metrics.UploadDurationMs.Observe(float64(time.Since(started).Milliseconds()))
	log.Printf("Persisted dataset name=%s features=%d duration=%s", datasetName, count, time.Since(started))

	return &models.UploadResponse{Success: true, Count: count, Name: datasetName}, nil
}

// saveUploadedFiles copies each multipart part into dir under its base filename,
// so the shapefile companions keep their shared base name.
func saveUploadedFiles(dir string, fileHeaders []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			return nil, errors.Wrap(err, "could not open uploaded file")
		}

		destPath := filepath.Join(dir, filepath.Base(fh.Filename))
		out, err := os.Create(destPath)
		if err != nil {
			src.Close()
			return nil, errors.Wrap(err, "could not create temp file")
		}
		_, err = io.Copy(out, src)
		out.Close()
		src.Close()
		if err != nil {
			return nil, errors.Wrap(err, "failed to write uploaded file")
		}
		paths = append(paths, destPath)
	}
	return paths, nil
}

func isArchive(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".tar", ".gz", ".rar", ".7z":
		return true
	}
	return false
}
