package ingest

import (
	"path/filepath"
	"testing"

	"gitee.com/LJ_COOL/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePointFixture builds a small point shapefile with one attribute column and
// returns the .shp path. The writer also emits the .shx and .dbf companions.
func writePointFixture(t *testing.T, dir string, points []shp.Point) string {
	t.Helper()
	shpPath := filepath.Join(dir, "fixture.shp")
	writer, err := shp.Create(shpPath, shp.POINT)
	require.NoError(t, err)
	writer.SetFields([]shp.Field{shp.StringField([]byte("NAME"), 32)})
	for i := range points {
		writer.Write(&points[i])
		require.NoError(t, writer.WriteAttribute(i, 0, "feature"))
	}
	writer.Close()
	return shpPath
}

func TestValidateCompanionSet(t *testing.T) {
	tests := []struct {
		name      string
		filenames []string
		wantErr   string
	}{
		{
			name:      "complete set",
			filenames: []string{"parcels.shp", "parcels.shx", "parcels.dbf"},
		},
		{
			name:      "with optional companions",
			filenames: []string{"parcels.shp", "parcels.shx", "parcels.dbf", "parcels.prj"},
		},
		{
			name:      "case insensitive",
			filenames: []string{"PARCELS.SHP", "PARCELS.SHX", "PARCELS.DBF"},
		},
		{
			name:      "stray file of another base",
			filenames: []string{"parcels.shp", "parcels.shx", "parcels.dbf", "roads.prj"},
		},
		{
			name:      "mismatched base names",
			filenames: []string{"a.shp", "b.shx", "c.dbf"},
			wantErr:   "share one base name",
		},
		{
			name:      "missing dbf",
			filenames: []string{"parcels.shp", "parcels.shx"},
			wantErr:   ".dbf",
		},
		{
			name:      "missing everything",
			filenames: []string{"readme.txt"},
			wantErr:   ".shp, .shx, .dbf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCompanionSet(tt.filenames)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFindShpFile(t *testing.T) {
	path, ok := FindShpFile([]string{"/tmp/a.dbf", "/tmp/a.shp", "/tmp/a.shx"})
	require.True(t, ok)
	assert.Equal(t, "/tmp/a.shp", path)

	_, ok = FindShpFile([]string{"/tmp/a.dbf"})
	assert.False(t, ok)
}

func TestParseShapefilePoints(t *testing.T) {
	dir := t.TempDir()
	shpPath := writePointFixture(t, dir, []shp.Point{
		{X: 105.8, Y: 21.0},
		{X: 106.7, Y: 10.8},
	})

	features, err := ParseShapefile(shpPath)
	require.NoError(t, err)
	require.Len(t, features, 2)

	// Record order matches on-disk order
	first, ok := features[0].Geometry.Geometry().(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 105.8, first[0], 1e-9)
	assert.InDelta(t, 21.0, first[1], 1e-9)

	require.NotNil(t, features[0].Properties)
	assert.Equal(t, "feature", features[0].Properties["NAME"])
}

func TestParseShapefileMissingFile(t *testing.T) {
	_, err := ParseShapefile(filepath.Join(t.TempDir(), "absent.shp"))
	assert.Error(t, err)
}

func TestShapeToGeometryNullDropped(t *testing.T) {
	assert.Nil(t, shapeToGeometry(&shp.Null{}))
}

func TestShapeToGeometryPolyLine(t *testing.T) {
	line := &shp.PolyLine{
		Parts:  []int32{0},
		Points: []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}},
	}
	geom := shapeToGeometry(line)
	require.NotNil(t, geom)
	ls, ok := geom.(orb.LineString)
	require.True(t, ok)
	assert.Len(t, ls, 3)
}

func TestShapeToGeometryMultiPartPolyLine(t *testing.T) {
	line := &shp.PolyLine{
		Parts:  []int32{0, 2},
		Points: []shp.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 5, Y: 5}, {X: 6, Y: 6}},
	}
	geom := shapeToGeometry(line)
	mls, ok := geom.(orb.MultiLineString)
	require.True(t, ok)
	assert.Len(t, mls, 2)
}

func TestPolygonGeometryOuterAndHole(t *testing.T) {
	// Outer ring clockwise, hole counter-clockwise, shapefile convention.
	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}, {X: 2, Y: 2}}

	points := append(append([]shp.Point{}, outer...), hole...)
	geom := polygonGeometry(points, []int32{0, int32(len(outer))})

	poly, ok := geom.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 2)
	assert.Len(t, poly[0], 5)
	assert.Len(t, poly[1], 5)
}

func TestPolygonGeometryTwoOuterRings(t *testing.T) {
	a := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	b := []shp.Point{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}, {X: 5, Y: 5}}

	points := append(append([]shp.Point{}, a...), b...)
	geom := polygonGeometry(points, []int32{0, int32(len(a))})

	multi, ok := geom.(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, multi, 2)
}

func TestIsClockwise(t *testing.T) {
	cw := []orb.Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	ccw := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	assert.True(t, isClockwise(cw))
	assert.False(t, isClockwise(ccw))
}
