package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapefile-service/internal/handlers"
)

func TestHealthEndpointAtRoot(t *testing.T) {
	app := fiber.New()
	registerRoutes(app, &handlers.ShapefileHandler{}, &handlers.SatelliteHandler{}, &handlers.ExportHandler{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIRoutesRegistered(t *testing.T) {
	app := fiber.New()
	registerRoutes(app, &handlers.ShapefileHandler{}, &handlers.SatelliteHandler{}, &handlers.ExportHandler{})

	registered := make(map[string]bool)
	for _, r := range app.GetRoutes() {
		registered[r.Method+" "+r.Path] = true
	}

	for _, route := range []string{
		"POST /api/shapefile/upload",
		"GET /api/shapefile",
		"GET /api/shapefile/:id",
		"GET /api/shapefile/:id/geometry",
		"GET /api/shapefile/:id/geojson",
		"PUT /api/shapefile/:id",
		"DELETE /api/shapefile/:id",
		"POST /api/satellite/fetch-image",
		"POST /api/satellite/process-image",
		"GET /api/satellite/preview/:id",
		"POST /api/export/gee",
		"GET /health",
	} {
		assert.True(t, registered[route], "missing route %s", route)
	}
}
