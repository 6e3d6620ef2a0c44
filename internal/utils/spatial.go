package utils

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// BBox is an axis-aligned envelope in WGS84, lng/lat order.
type BBox struct {
	MinLng float64 `json:"minLng"`
	MinLat float64 `json:"minLat"`
	MaxLng float64 `json:"maxLng"`
	MaxLat float64 `json:"maxLat"`
}

// BBoxFromSlice parses a [minLng, minLat, maxLng, maxLat] array.
func BBoxFromSlice(values []float64) (*BBox, error) {
	if len(values) != 4 {
		return nil, fmt.Errorf("bbox must have exactly 4 values, got %d", len(values))
	}
	b := &BBox{MinLng: values[0], MinLat: values[1], MaxLng: values[2], MaxLat: values[3]}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks corner ordering and WGS84 bounds.
func (b *BBox) Validate() error {
	if b.MinLng >= b.MaxLng || b.MinLat >= b.MaxLat {
		return fmt.Errorf("bbox corners are not ordered: min must be strictly below max")
	}
	if b.MinLng < -180 || b.MaxLng > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("bbox exceeds WGS84 bounds")
	}
	return nil
}

// ToGeometry renders the envelope as a closed GeoJSON polygon, the shape imagery
// providers expect as a search area.
func (b *BBox) ToGeometry() *geojson.Geometry {
	ring := orb.Ring{
		{b.MinLng, b.MinLat},
		{b.MaxLng, b.MinLat},
		{b.MaxLng, b.MaxLat},
		{b.MinLng, b.MaxLat},
		{b.MinLng, b.MinLat},
	}
	return geojson.NewGeometry(orb.Polygon{ring})
}

// Slice returns the envelope in [minLng, minLat, maxLng, maxLat] order.
func (b *BBox) Slice() []float64 {
	return []float64{b.MinLng, b.MinLat, b.MaxLng, b.MaxLat}
}
