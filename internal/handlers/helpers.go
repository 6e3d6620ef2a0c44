package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"shapefile-service/internal/imagery"
	"shapefile-service/internal/services"
)

const RecordNotFoundError = "shapefile record not found"
const InternalError = "internal server error"

// reqID returns the correlation id set by the requestid middleware.
func reqID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// respondError maps a service error onto the HTTP taxonomy: validation to 400,
// missing records to 404, provider failures to their upstream status, everything
// else to a generic 500. Internal detail is logged with the correlation id and
// never sent to the caller.
func respondError(c *fiber.Ctx, op string, err error) error {
	var upstream *imagery.UpstreamError
	switch {
	case services.IsValidation(err):
		log.Printf("[%s] %s rejected: %v", reqID(c), op, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("[%s] %s: record not found", reqID(c), op)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": RecordNotFoundError,
		})
	case errors.Is(err, services.ErrPreviewNotFound):
		log.Printf("[%s] %s: preview not found", reqID(c), op)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.As(err, &upstream):
		log.Printf("[%s] %s upstream failure: status=%d body=%s", reqID(c), op, upstream.StatusCode, upstream.Body)
		return c.Status(upstream.StatusCode).JSON(fiber.Map{
			"error": true, "message": "imagery provider error", "upstreamStatus": upstream.StatusCode,
		})
	default:
		log.Printf("[%s] %s failed: %v", reqID(c), op, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": InternalError,
		})
	}
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, services.Validationf("invalid id %q", c.Params("id"))
	}
	return uint(id), nil
}
