package handlers

import (
	"log"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"shapefile-service/internal/models"
	"shapefile-service/internal/repository"
	"shapefile-service/internal/services"
)

// ShapefileHandler defines handlers for the shapefile upload and query endpoints.
type ShapefileHandler struct {
	Service *services.ShapefileService
	Repo    repository.ShapefileRepository
}

// NewShapefileHandler creates a new ShapefileHandler.
func NewShapefileHandler(service *services.ShapefileService, repo repository.ShapefileRepository) *ShapefileHandler {
	return &ShapefileHandler{Service: service, Repo: repo}
}

// Upload handles POST /api/shapefile/upload to ingest a dataset.
// @Summary Upload a shapefile dataset
// @Description Multipart upload of a .shp with its .shx/.dbf companions, or one archive containing them. Re-uploading a dataset name replaces its rows.
// @Tags shapefile
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Dataset files (max 4, 10MB each)"
// @Success 201 {object} models.UploadResponse "Dataset persisted"
// @Failure 400 {object} map[string]interface{} "Missing or invalid files"
// @Failure 500 {object} map[string]interface{} "Processing error"
// @Router /shapefile/upload [post]
func (h *ShapefileHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("[%s] Upload rejected: unreadable multipart form: %v", reqID(c), err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "expected a multipart upload",
		})
	}

	var fileHeaders []*multipart.FileHeader
	for _, headers := range form.File {
		fileHeaders = append(fileHeaders, headers...)
	}
	log.Printf("[%s] Uploading dataset files=%d IP=%s", reqID(c), len(fileHeaders), c.IP())

	resp, err := h.Service.UploadDataset(fileHeaders)
	if err != nil {
		return respondError(c, "upload", err)
	}

	log.Printf("[%s] Upload complete name=%s count=%d", reqID(c), resp.Name, resp.Count)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List handles GET /api/shapefile to page through stored records.
// @Summary List shapefile records
// @Description Paginated listing ordered by creation time, newest first
// @Tags shapefile
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.ShapefilePage "One page of records"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /shapefile [get]
func (h *ShapefileHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	result, err := h.Repo.List(page, limit)
	if err != nil {
		return respondError(c, "list", err)
	}
	if result.Data == nil {
		result.Data = []models.ShapefileRecord{}
	}
	return c.JSON(result)
}

// Get handles GET /api/shapefile/:id for a single record.
// @Summary Get a shapefile record by ID
// @Tags shapefile
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} models.ShapefileRecord "Record found"
// @Failure 400 {object} map[string]interface{} "Invalid ID"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /shapefile/{id} [get]
func (h *ShapefileHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, "get", err)
	}
	record, err := h.Repo.GetByID(id)
	if err != nil {
		return respondError(c, "get", err)
	}
	return c.JSON(record)
}

// GetGeometry handles GET /api/shapefile/:id/geometry.
// @Summary Get only a record's geometry
// @Tags shapefile
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} object "GeoJSON geometry"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /shapefile/{id}/geometry [get]
func (h *ShapefileHandler) GetGeometry(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, "geometry", err)
	}
	geometry, err := h.Repo.GetGeometry(id)
	if err != nil {
		return respondError(c, "geometry", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(geometry)
}

// GetGeoJSON handles GET /api/shapefile/:id/geojson, returning the record as a
// single-feature FeatureCollection.
// @Summary Get a record as a GeoJSON document
// @Tags shapefile
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} object "FeatureCollection with one feature"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /shapefile/{id}/geojson [get]
func (h *ShapefileHandler) GetGeoJSON(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, "geojson", err)
	}
	doc, err := h.Repo.GetFeatureCollection(id)
	if err != nil {
		return respondError(c, "geojson", err)
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(doc)
}

// Update handles PUT /api/shapefile/:id to patch name and/or metadata.
// @Summary Update a record's name or metadata
// @Description At least one of name or metadata must be supplied
// @Tags shapefile
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Param body body models.UpdateShapefileRequest true "Fields to update"
// @Success 200 {object} models.ShapefileRecord "Updated record"
// @Failure 400 {object} map[string]interface{} "No fields supplied"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /shapefile/{id} [put]
func (h *ShapefileHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, "update", err)
	}

	var patch models.UpdateShapefileRequest
	if err := c.BodyParser(&patch); err != nil {
		return respondError(c, "update", services.Validationf("invalid request body: %v", err))
	}
	if patch.IsEmpty() {
		return respondError(c, "update", services.Validationf("at least one of name or metadata is required"))
	}

	record, err := h.Repo.Update(id, patch)
	if err != nil {
		return respondError(c, "update", err)
	}
	log.Printf("[%s] Updated record id=%d", reqID(c), id)
	return c.JSON(record)
}

// Delete handles DELETE /api/shapefile/:id.
// @Summary Delete a shapefile record
// @Tags shapefile
// @Param id path int true "Record ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]interface{} "Record not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /shapefile/{id} [delete]
func (h *ShapefileHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, "delete", err)
	}
	if err := h.Repo.Delete(id); err != nil {
		return respondError(c, "delete", err)
	}
	log.Printf("[%s] Deleted record id=%d", reqID(c), id)
	return c.SendStatus(fiber.StatusNoContent)
}
