package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Shapefile represents one vector feature row persisted from an uploaded dataset.
// Geometry columns are written and read exclusively through PostGIS expressions
// (ST_GeomFromGeoJSON / ST_AsGeoJSON); the struct tags exist so AutoMigrate creates
// the right column types.
type Shapefile struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"index;size:255;not null" json:"name"`

	// Geometry stored as PostGIS GEOMETRY in WGS84 (SRID 4326)
	Geom string `gorm:"type:geometry(Geometry,4326);not null" json:"-"`

	// Axis-aligned envelope of Geom, computed at insert time
	Bbox string `gorm:"type:geometry(Polygon,4326)" json:"-"`

	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Shapefile) TableName() string {
	return "shapefiles"
}

// ShapefileRecord is the read shape returned by the query endpoints: the geometry
// and bbox come back as GeoJSON text produced inside the database.
type ShapefileRecord struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Geometry  json.RawMessage `json:"geometry"`
	Bbox      json.RawMessage `json:"bbox,omitempty"`
	Metadata  datatypes.JSON  `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// ShapefilePage bundles listed records with their pagination block.
type ShapefilePage struct {
	Data       []ShapefileRecord `json:"data"`
	Pagination Pagination        `json:"pagination"`
}
