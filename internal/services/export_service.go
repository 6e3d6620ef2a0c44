package services

import (
	"time"

	"shapefile-service/internal/gee"
	"shapefile-service/internal/models"
	"shapefile-service/internal/repository"
)

// ExportService turns stored geometries into analysis-platform scripts.
type ExportService struct {
	Repo repository.ShapefileRepository
}

// NewExportService creates an ExportService over the given repository.
func NewExportService(repo repository.ShapefileRepository) *ExportService {
	return &ExportService{Repo: repo}
}

// GenerateGEE renders the Earth Engine script for a stored geometry and index type.
func (s *ExportService) GenerateGEE(req models.ExportGEERequest) (*models.GEEExportResponse, error) {
	if req.ShapefileID == 0 {
		return nil, Validationf("shapefileId is required")
	}
	if !gee.IsSupported(req.Type) {
		return nil, Validationf("unsupported index type %q", req.Type)
	}

	geometry, err := s.Repo.GetGeometry(req.ShapefileID)
	if err != nil {
		return nil, err
	}

	code, spec, err := gee.RenderScript(string(geometry), req.Type, "", "")
	if err != nil {
		return nil, err
	}

	return &models.GEEExportResponse{
		GeeCode:   code,
		Formula:   spec.Formula,
		Type:      spec.Name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}
