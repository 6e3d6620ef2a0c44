package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"shapefile-service/internal/gee"
	"shapefile-service/internal/imagery"
	"shapefile-service/internal/metrics"
	"shapefile-service/internal/models"
	"shapefile-service/internal/processing"
	"shapefile-service/internal/repository"
	"shapefile-service/internal/storage"
	"shapefile-service/internal/utils"
)

// ProcessedImage is the outcome of one raster-script run: the GeoTIFF to hand
// back to the caller and the served preview location.
type ProcessedImage struct {
	Filename   string
	GeoTIFF    []byte
	PreviewURL string
}

// SatelliteService orchestrates the imagery provider, the external raster script
// and the preview storage around stored shapefile records.
type SatelliteService struct {
	Repo    repository.ShapefileRepository
	Imagery *imagery.Client
	Runner  *processing.ScriptRunner
	Archive *storage.RasterArchive

	DataDir       string
	MaxImageBytes int64
}

// NewSatelliteService creates a SatelliteService with its collaborators.
func NewSatelliteService(repo repository.ShapefileRepository, client *imagery.Client,
	runner *processing.ScriptRunner, archive *storage.RasterArchive,
	dataDir string, maxImageBytes int64) *SatelliteService {
	return &SatelliteService{
		Repo:          repo,
		Imagery:       client,
		Runner:        runner,
		Archive:       archive,
		DataDir:       dataDir,
		MaxImageBytes: maxImageBytes,
	}
}

// FetchImages searches the imagery provider over a record's bounding box, or an
// explicit envelope when one is supplied.
func (s *SatelliteService) FetchImages(ctx context.Context, req models.FetchImageRequest) ([]imagery.ImageItem, error) {
	var bbox *utils.BBox
	var err error
	switch {
	case len(req.BBox) > 0:
		bbox, err = utils.BBoxFromSlice(req.BBox)
		if err != nil {
			return nil, &ValidationError{Msg: err.Error()}
		}
	case req.ShapefileID > 0:
		bbox, err = s.Repo.GetBBox(req.ShapefileID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, Validationf("either shapefileId or bbox is required")
	}

	items, err := s.Imagery.Search(ctx, imagery.SearchRequest{
		Geometry:   bbox.ToGeometry(),
		FromDate:   req.FromDate,
		ToDate:     req.ToDate,
		CloudCover: req.CloudCover,
		Quality:    req.Quality,
	})
	if err != nil {
		metrics.ImagerySearchTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ImagerySearchTotal.WithLabelValues("success").Inc()
	return items, nil
}

// ProcessImage downloads the remote image, clips and indexes it through the
// external script, stores the preview under the served data directory and merges
// its URL into the record's metadata. The GeoTIFF comes back in memory; every
// temp file is removed before returning.
func (s *SatelliteService) ProcessImage(ctx context.Context, req models.ProcessImageRequest) (*ProcessedImage, error) {
	if req.ShapefileID == 0 {
		return nil, Validationf("shapefileId is required")
	}
	if req.ImageURL == "" {
		return nil, Validationf("imageUrl is required")
	}
	if !gee.IsSupported(req.IndexType) {
		return nil, Validationf("unsupported index type %q, expected one of: %s",
			req.IndexType, strings.Join(gee.SupportedTypes(), ", "))
	}

	geometry, err := s.Repo.GetGeometry(req.ShapefileID)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "satellite-process-*")
	if err != nil {
		return nil, errors.Wrap(err, "could not create temp directory")
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.Printf("Temp cleanup failed for %s: %v", tempDir, err)
		}
	}()

	imagePath := filepath.Join(tempDir, "image.tif")
	if err := s.Imagery.DownloadImage(ctx, req.ImageURL, imagePath, s.MaxImageBytes); err != nil {
		if errors.Is(err, imagery.ErrImageTooLarge) {
			return nil, Validationf("image exceeds the %dMB limit", s.MaxImageBytes>>20)
		}
		return nil, err
	}

	geometryPath := filepath.Join(tempDir, "geometry.geojson")
	if err := os.WriteFile(geometryPath, geometry, 0o644); err != nil {
		return nil, errors.Wrap(err, "could not write geometry file")
	}

	indexType := strings.ToLower(req.IndexType)
	started := time.Now()
	result, err := s.Runner.Run(ctx, imagePath, indexType, geometryPath)
	metrics.ScriptDurationMs.Observe(float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.ScriptRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ScriptRunsTotal.WithLabelValues("success").Inc()

	previewURL, err := s.publishPreview(req.ShapefileID, result.PreviewPath)
	if err != nil {
		return nil, err
	}

	s.archiveOutputs(ctx, req.ShapefileID, indexType, result)

	if err := s.Repo.MergeMetadata(req.ShapefileID, map[string]interface{}{
		"preview_url":     previewURL,
		"last_index_type": indexType,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to store preview location")
	}

	geotiff, err := os.ReadFile(result.GeoTIFFPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not read processed GeoTIFF")
	}

	return &ProcessedImage{
		Filename:   fmt.Sprintf("shapefile_%d_%s.tif", req.ShapefileID, indexType),
		GeoTIFF:    geotiff,
		PreviewURL: previewURL,
	}, nil
}

// publishPreview copies the script's preview PNG into the served data directory
// and returns its public path.
func (s *SatelliteService) publishPreview(shapefileID uint, previewPath string) (string, error) {
	previewDir := filepath.Join(s.DataDir, "previews")
	if err := os.MkdirAll(previewDir, 0o755); err != nil {
		return "", errors.Wrap(err, "could not create preview directory")
	}

	name := fmt.Sprintf("%d_%s.png", shapefileID, uuid.New().String())
	destPath := filepath.Join(previewDir, name)

	src, err := os.Open(previewPath)
	if err != nil {
		return "", errors.Wrap(err, "could not open preview image")
	}
	defer src.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return "", errors.Wrap(err, "could not create preview file")
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(destPath)
		return "", errors.Wrap(err, "failed to copy preview image")
	}
	return "/data/previews/" + name, nil
}

// archiveOutputs pushes the processed rasters to the archive bucket. Failures are
// logged only; the request outcome does not depend on the archive.
func (s *SatelliteService) archiveOutputs(ctx context.Context, shapefileID uint, indexType string, result *processing.Result) {
	if s.Archive == nil {
		return
	}
	prefix := fmt.Sprintf("processed/%d/%s", shapefileID, indexType)
	if err := s.Archive.ArchiveFile(ctx, prefix+".tif", result.GeoTIFFPath, "image/tiff"); err != nil {
		log.Printf("Raster archive failed for shapefile=%d: %v", shapefileID, err)
	}
	if err := s.Archive.ArchiveFile(ctx, prefix+"_preview.png", result.PreviewPath, "image/png"); err != nil {
		log.Printf("Preview archive failed for shapefile=%d: %v", shapefileID, err)
	}
}

// Preview returns the stored preview location for a record.
func (s *SatelliteService) Preview(id uint) (string, error) {
	record, err := s.Repo.GetByID(id)
	if err != nil {
		return "", err
	}
	if len(record.Metadata) == 0 {
		return "", ErrPreviewNotFound
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(record.Metadata, &meta); err != nil {
		return "", errors.Wrap(err, "could not decode record metadata")
	}
	previewURL, ok := meta["preview_url"].(string)
	if !ok || previewURL == "" {
		return "", ErrPreviewNotFound
	}
	return previewURL, nil
}
