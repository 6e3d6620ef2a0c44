package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"shapefile-service/internal/models"
	"shapefile-service/internal/services"
)

// SatelliteHandler defines handlers for imagery search and raster processing.
type SatelliteHandler struct {
	Service *services.SatelliteService
}

// NewSatelliteHandler creates a new SatelliteHandler.
func NewSatelliteHandler(service *services.SatelliteService) *SatelliteHandler {
	return &SatelliteHandler{Service: service}
}

// FetchImage handles POST /api/satellite/fetch-image.
// @Summary Search satellite imagery for a stored record's bounding box
// @Tags satellite
// @Accept json
// @Produce json
// @Param body body models.FetchImageRequest true "Search filters"
// @Success 200 {array} imagery.ImageItem "Matching scenes"
// @Failure 400 {object} map[string]interface{} "Missing or invalid bbox"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /satellite/fetch-image [post]
func (h *SatelliteHandler) FetchImage(c *fiber.Ctx) error {
	var req models.FetchImageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, "fetch-image", services.Validationf("invalid request body: %v", err))
	}

	items, err := h.Service.FetchImages(c.Context(), req)
	if err != nil {
		return respondError(c, "fetch-image", err)
	}
	log.Printf("[%s] Imagery search returned %d scenes", reqID(c), len(items))
	return c.JSON(items)
}

// ProcessImage handles POST /api/satellite/process-image.
// @Summary Clip and index a satellite image against a stored geometry
// @Description Downloads the image, runs the external processing script and responds with the GeoTIFF result
// @Tags satellite
// @Accept json
// @Produce application/octet-stream
// @Param body body models.ProcessImageRequest true "Image and index selection"
// @Success 200 {file} binary "Processed GeoTIFF"
// @Failure 400 {object} map[string]interface{} "Invalid parameters or oversize image"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Processing error"
// @Router /satellite/process-image [post]
func (h *SatelliteHandler) ProcessImage(c *fiber.Ctx) error {
	var req models.ProcessImageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, "process-image", services.Validationf("invalid request body: %v", err))
	}
	log.Printf("[%s] Processing image shapefile=%d index=%s", reqID(c), req.ShapefileID, req.IndexType)

	result, err := h.Service.ProcessImage(c.Context(), req)
	if err != nil {
		return respondError(c, "process-image", err)
	}

	log.Printf("[%s] Processing complete shapefile=%d bytes=%d preview=%s",
		reqID(c), req.ShapefileID, len(result.GeoTIFF), result.PreviewURL)
	c.Set(fiber.HeaderContentType, "image/tiff")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.Filename))
	return c.Send(result.GeoTIFF)
}

// Preview handles GET /api/satellite/preview/:id.
// @Summary Get the stored preview location for a record
// @Tags satellite
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} models.PreviewResponse "Preview location"
// @Failure 404 {object} map[string]interface{} "Record or preview not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /satellite/preview/{id} [get]
func (h *SatelliteHandler) Preview(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, "preview", err)
	}
	previewURL, err := h.Service.Preview(id)
	if err != nil {
		return respondError(c, "preview", err)
	}
	return c.JSON(models.PreviewResponse{PreviewURL: previewURL})
}
