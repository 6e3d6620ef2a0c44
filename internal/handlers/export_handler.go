package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"shapefile-service/internal/models"
	"shapefile-service/internal/services"
)

// ExportHandler defines handlers for analysis-platform script generation.
type ExportHandler struct {
	Service *services.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(service *services.ExportService) *ExportHandler {
	return &ExportHandler{Service: service}
}

// ExportGEE handles POST /api/export/gee.
// @Summary Generate an Earth Engine script for a stored geometry
// @Tags export
// @Accept json
// @Produce json
// @Param body body models.ExportGEERequest true "Record and index type"
// @Success 200 {object} models.GEEExportResponse "Generated script"
// @Failure 400 {object} map[string]interface{} "Unsupported type or missing id"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /export/gee [post]
func (h *ExportHandler) ExportGEE(c *fiber.Ctx) error {
	var req models.ExportGEERequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, "export-gee", services.Validationf("invalid request body: %v", err))
	}

	resp, err := h.Service.GenerateGEE(req)
	if err != nil {
		return respondError(c, "export-gee", err)
	}
	log.Printf("[%s] Generated %s script for shapefile=%d", reqID(c), resp.Type, req.ShapefileID)
	return c.JSON(resp)
}
