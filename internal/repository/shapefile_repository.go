package repository

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"shapefile-service/internal/ingest"
	"shapefile-service/internal/models"
	"shapefile-service/internal/utils"
)

// ShapefileRepository defines the persistence operations over the shapefiles table.
type ShapefileRepository interface {
	ReplaceDataset(name string, features []ingest.Feature) (int, error)
	List(page, limit int) (*models.ShapefilePage, error)
	GetByID(id uint) (*models.ShapefileRecord, error)
	GetGeometry(id uint) (json.RawMessage, error)
	GetFeatureCollection(id uint) (json.RawMessage, error)
	GetBBox(id uint) (*utils.BBox, error)
	Update(id uint, patch models.UpdateShapefileRequest) (*models.ShapefileRecord, error)
	MergeMetadata(id uint, fields map[string]interface{}) error
	Delete(id uint) error
}

// ShapefileRepositoryImpl provides methods to interact with the shapefiles table.
// All geometry values cross the boundary as GeoJSON text so PostGIS remains the
// single serialization path.
type ShapefileRepositoryImpl struct {
	db *gorm.DB
}

// NewShapefileRepository creates a new ShapefileRepositoryImpl with the provided GORM connection.
func NewShapefileRepository(db *gorm.DB) *ShapefileRepositoryImpl {
	return &ShapefileRepositoryImpl{db: db}
}

// ReplaceDataset deletes every row of the dataset name and inserts the parsed
// features in order, all inside one transaction. An advisory transaction lock on
// the name serializes concurrent uploads of the same dataset, so two uploads can
// never interleave their delete and insert phases.
func (r *ShapefileRepositoryImpl) ReplaceDataset(name string, features []ingest.Feature) (int, error) {
	count := 0
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, name).Error; err != nil {
			return errors.Wrap(err, "failed to acquire dataset lock")
		}
		if err := tx.Exec(`DELETE FROM shapefiles WHERE name = ?`, name).Error; err != nil {
			return errors.Wrap(err, "failed to delete previous dataset rows")
		}

		for _, feature := range features {
			geomJSON, err := json.Marshal(feature.Geometry)
			if err != nil {
				return errors.Wrap(err, "failed to serialize geometry")
			}

			var metadata interface{}
			if feature.Properties != nil {
				propsJSON, err := json.Marshal(feature.Properties)
				if err != nil {
					return errors.Wrap(err, "failed to serialize properties")
				}
				metadata = datatypes.JSON(propsJSON)
			}

			err = tx.Exec(`
				INSERT INTO shapefiles (name, geom, bbox, metadata, created_at, updated_at)
				VALUES (?,
					ST_SetSRID(ST_GeomFromGeoJSON(?), 4326),
					ST_Envelope(ST_SetSRID(ST_GeomFromGeoJSON(?), 4326)),
					?, NOW(), NOW())`,
				name, string(geomJSON), string(geomJSON), metadata).Error
			if err != nil {
				return errors.Wrap(err, "failed to insert feature")
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// List returns one page of records ordered by creation time, newest first.
func (r *ShapefileRepositoryImpl) List(page, limit int) (*models.ShapefilePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int64
	if err := r.db.Model(&models.Shapefile{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var records []models.ShapefileRecord
	err := r.db.Raw(`
		SELECT id, name, ST_AsGeoJSON(geom) AS geometry, ST_AsGeoJSON(bbox) AS bbox,
		       metadata, created_at, updated_at
		FROM shapefiles
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, limit, (page-1)*limit).Scan(&records).Error
	if err != nil {
		return nil, err
	}

	return &models.ShapefilePage{
		Data: records,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: TotalPages(total, limit),
		},
	}, nil
}

// TotalPages computes the page count for a listing.
func TotalPages(total int64, limit int) int64 {
	if limit < 1 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// GetByID retrieves one record with its geometry and bbox rendered as GeoJSON.
func (r *ShapefileRepositoryImpl) GetByID(id uint) (*models.ShapefileRecord, error) {
	var record models.ShapefileRecord
	result := r.db.Raw(`
		SELECT id, name, ST_AsGeoJSON(geom) AS geometry, ST_AsGeoJSON(bbox) AS bbox,
		       metadata, created_at, updated_at
		FROM shapefiles
		WHERE id = ?`, id).Scan(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &record, nil
}

// GetGeometry returns just the record's geometry in GeoJSON form.
func (r *ShapefileRepositoryImpl) GetGeometry(id uint) (json.RawMessage, error) {
	var row struct {
		Geometry json.RawMessage
	}
	result := r.db.Raw(`SELECT ST_AsGeoJSON(geom) AS geometry FROM shapefiles WHERE id = ?`, id).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return row.Geometry, nil
}

// GetFeatureCollection returns the record as a single-feature FeatureCollection
// document, built entirely inside the database. Null metadata becomes an empty
// properties object.
func (r *ShapefileRepositoryImpl) GetFeatureCollection(id uint) (json.RawMessage, error) {
	var row struct {
		Doc json.RawMessage
	}
	result := r.db.Raw(`
		SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', json_build_array(json_build_object(
				'type', 'Feature',
				'geometry', ST_AsGeoJSON(geom)::json,
				'properties', COALESCE(metadata, '{}'::jsonb)
			))
		) AS doc
		FROM shapefiles
		WHERE id = ?`, id).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return row.Doc, nil
}

// GetBBox returns the record's envelope corners.
func (r *ShapefileRepositoryImpl) GetBBox(id uint) (*utils.BBox, error) {
	var row struct {
		MinLng float64
		MinLat float64
		MaxLng float64
		MaxLat float64
	}
	result := r.db.Raw(`
		SELECT ST_XMin(bbox) AS min_lng, ST_YMin(bbox) AS min_lat,
		       ST_XMax(bbox) AS max_lng, ST_YMax(bbox) AS max_lat
		FROM shapefiles
		WHERE id = ?`, id).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &utils.BBox{MinLng: row.MinLng, MinLat: row.MinLat, MaxLng: row.MaxLng, MaxLat: row.MaxLat}, nil
}

// Update applies the patch's supplied fields as one parameterized assignment set.
// The bbox is intentionally left untouched by metadata-only updates.
func (r *ShapefileRepositoryImpl) Update(id uint, patch models.UpdateShapefileRequest) (*models.ShapefileRecord, error) {
	assignments := BuildAssignments(patch)
	result := r.db.Model(&models.Shapefile{}).Where("id = ?", id).Updates(assignments)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(id)
}

// BuildAssignments compiles the typed patch into a column assignment map.
// updated_at is always refreshed.
func BuildAssignments(patch models.UpdateShapefileRequest) map[string]interface{} {
	assignments := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if patch.Name != nil {
		assignments["name"] = *patch.Name
	}
	if patch.Metadata != nil {
		assignments["metadata"] = datatypes.JSON(*patch.Metadata)
	}
	return assignments
}

// MergeMetadata merge-patches the given fields into the record's metadata object,
// creating it when null.
func (r *ShapefileRepositoryImpl) MergeMetadata(id uint, fields map[string]interface{}) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "failed to serialize metadata patch")
	}
	result := r.db.Exec(`
		UPDATE shapefiles
		SET metadata = COALESCE(metadata, '{}'::jsonb) || ?::jsonb, updated_at = NOW()
		WHERE id = ?`, string(patch), id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the record by id.
func (r *ShapefileRepositoryImpl) Delete(id uint) error {
	result := r.db.Exec(`DELETE FROM shapefiles WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
