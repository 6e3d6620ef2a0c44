package models

import "encoding/json"

// UpdateShapefileRequest carries the optional fields of PUT /api/shapefile/:id.
// At least one of Name or Metadata must be present; nil pointers mean "not supplied".
type UpdateShapefileRequest struct {
	Name     *string          `json:"name"`
	Metadata *json.RawMessage `json:"metadata"`
}

// IsEmpty reports whether the request patches nothing.
func (r UpdateShapefileRequest) IsEmpty() bool {
	return r.Name == nil && r.Metadata == nil
}

// FetchImageRequest selects the search area for the imagery provider, either by a
// stored record's bbox or an explicit [minLng, minLat, maxLng, maxLat] envelope.
type FetchImageRequest struct {
	ShapefileID uint      `json:"shapefileId"`
	BBox        []float64 `json:"bbox"`
	FromDate    string    `json:"fromDate"`
	ToDate      string    `json:"toDate"`
	CloudCover  *float64  `json:"cloudCover"`
	Quality     *int      `json:"quality"`
}

// ProcessImageRequest asks for one remote image to be clipped to a stored geometry
// and turned into a spectral-index raster.
type ProcessImageRequest struct {
	ShapefileID uint   `json:"shapefileId"`
	ImageURL    string `json:"imageUrl"`
	IndexType   string `json:"indexType"`
}

// ExportGEERequest asks for a Google Earth Engine script for a stored geometry.
type ExportGEERequest struct {
	ShapefileID uint   `json:"shapefileId"`
	Type        string `json:"type"`
}

// UploadResponse is the body of a successful dataset upload.
type UploadResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Name    string `json:"name"`
}

// PreviewResponse carries the stored preview image location for a record.
type PreviewResponse struct {
	PreviewURL string `json:"previewUrl"`
}

// GEEExportResponse is the generated analysis-platform script plus its provenance.
type GEEExportResponse struct {
	GeeCode   string `json:"gee_code"`
	Formula   string `json:"formula"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}
