package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shapefile-service/internal/imagery"
	"shapefile-service/internal/models"
	"shapefile-service/internal/processing"
	"shapefile-service/internal/utils"
)

const processScript = `#!/bin/sh
cp "$1" "$1.$2.tif"
cp "$1" "$1.$2.png"
echo "geotiff:$1.$2.tif"
echo "preview:$1.$2.png"
`

// newProcessRunner writes a shell stand-in for the raster script that copies
// its input into the expected outputs.
func newProcessRunner(t *testing.T) *processing.ScriptRunner {
	t.Helper()
	scriptPath := filepath.Join(t.TempDir(), "process.sh")
	require.NoError(t, os.WriteFile(scriptPath, []byte(processScript), 0o755))
	return processing.NewScriptRunner("sh", scriptPath, time.Minute)
}

func TestFetchImagesRequiresAreaOfInterest(t *testing.T) {
	service := NewSatelliteService(newFakeRepo(), imagery.NewClient("http://unused", ""), nil, nil, t.TempDir(), 1<<20)

	_, err := service.FetchImages(context.Background(), models.FetchImageRequest{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFetchImagesInvalidBBox(t *testing.T) {
	service := NewSatelliteService(newFakeRepo(), imagery.NewClient("http://unused", ""), nil, nil, t.TempDir(), 1<<20)

	_, err := service.FetchImages(context.Background(), models.FetchImageRequest{BBox: []float64{10, 48, 9, 49}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestFetchImagesByRecordBBox(t *testing.T) {
	var captured imagery.SearchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": "S2A_0001", "downloadUrl": "https://img.example/S2A_0001.tif", "cloudCover": 4.2},
			},
		})
	}))
	defer server.Close()

	repo := newFakeRepo()
	repo.bboxes[3] = &utils.BBox{MinLng: 10, MinLat: 48, MaxLng: 11, MaxLat: 49}
	service := NewSatelliteService(repo, imagery.NewClient(server.URL, "key"), nil, nil, t.TempDir(), 1<<20)

	items, err := service.FetchImages(context.Background(), models.FetchImageRequest{ShapefileID: 3, FromDate: "2024-03-01"})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "S2A_0001", items[0].ID)
	assert.Equal(t, "2024-03-01", captured.FromDate)
	require.NotNil(t, captured.Geometry)
	assert.Equal(t, "Polygon", captured.Geometry.Type)
}

func TestFetchImagesUnknownRecord(t *testing.T) {
	service := NewSatelliteService(newFakeRepo(), imagery.NewClient("http://unused", ""), nil, nil, t.TempDir(), 1<<20)

	_, err := service.FetchImages(context.Background(), models.FetchImageRequest{ShapefileID: 99})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProcessImageValidation(t *testing.T) {
	service := NewSatelliteService(newFakeRepo(), imagery.NewClient("http://unused", ""), nil, nil, t.TempDir(), 1<<20)

	tests := []struct {
		name string
		req  models.ProcessImageRequest
	}{
		{name: "missing id", req: models.ProcessImageRequest{ImageURL: "http://x", IndexType: "ndvi"}},
		{name: "missing url", req: models.ProcessImageRequest{ShapefileID: 1, IndexType: "ndvi"}},
		{name: "unsupported index", req: models.ProcessImageRequest{ShapefileID: 1, ImageURL: "http://x", IndexType: "savi"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.ProcessImage(context.Background(), tc.req)
			assert.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestProcessImageSuccess(t *testing.T) {
	payload := []byte("pretend raster bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	repo := newFakeRepo()
	repo.geometries[5] = json.RawMessage(`{"type":"Point","coordinates":[10.0,48.0]}`)

	dataDir := t.TempDir()
	service := NewSatelliteService(repo, imagery.NewClient(server.URL, ""), newProcessRunner(t), nil, dataDir, 1<<20)

	result, err := service.ProcessImage(context.Background(), models.ProcessImageRequest{
		ShapefileID: 5,
		ImageURL:    server.URL + "/scene.tif",
		IndexType:   "NDVI",
	})
	require.NoError(t, err)

	assert.Equal(t, "shapefile_5_ndvi.tif", result.Filename)
	assert.Equal(t, payload, result.GeoTIFF)
	assert.True(t, strings.HasPrefix(result.PreviewURL, "/data/previews/"), "unexpected preview URL %q", result.PreviewURL)

	published := filepath.Join(dataDir, "previews", filepath.Base(result.PreviewURL))
	data, err := os.ReadFile(published)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	require.NotNil(t, repo.merged[5])
	assert.Equal(t, result.PreviewURL, repo.merged[5]["preview_url"])
	assert.Equal(t, "ndvi", repo.merged[5]["last_index_type"])
}

func TestProcessImageTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer server.Close()

	repo := newFakeRepo()
	repo.geometries[5] = json.RawMessage(`{"type":"Point","coordinates":[10.0,48.0]}`)
	service := NewSatelliteService(repo, imagery.NewClient(server.URL, ""), newProcessRunner(t), nil, t.TempDir(), 1024)

	_, err := service.ProcessImage(context.Background(), models.ProcessImageRequest{
		ShapefileID: 5,
		ImageURL:    server.URL + "/scene.tif",
		IndexType:   "ndvi",
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestPreview(t *testing.T) {
	repo := newFakeRepo()
	repo.records[1] = &models.ShapefileRecord{ID: 1, Name: "parcels.shp"}
	repo.records[2] = &models.ShapefileRecord{
		ID:       2,
		Name:     "fields.shp",
		Metadata: []byte(`{"preview_url":"/data/previews/2_abc.png"}`),
	}
	service := NewSatelliteService(repo, nil, nil, nil, t.TempDir(), 1<<20)

	url, err := service.Preview(2)
	require.NoError(t, err)
	assert.Equal(t, "/data/previews/2_abc.png", url)

	_, err = service.Preview(1)
	assert.ErrorIs(t, err, ErrPreviewNotFound)

	_, err = service.Preview(9)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
