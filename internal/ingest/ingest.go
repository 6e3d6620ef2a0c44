package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"gitee.com/LJ_COOL/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// ErrNoValidFeatures is returned when a dataset parses cleanly but every record
// carries a null or empty geometry.
var ErrNoValidFeatures = errors.New("no valid features in dataset")

// Feature is one parsed record: a GeoJSON geometry plus its DBF attributes.
// Properties is nil when the attribute table has no columns.
type Feature struct {
	Geometry   *geojson.Geometry
	Properties map[string]interface{}
}

// requiredExts are the companion files a shapefile dataset cannot be read without.
var requiredExts = []string{".shp", ".shx", ".dbf"}

// ValidateCompanionSet checks that the uploaded filenames include the geometry,
// shape-index and attribute-table files, all sharing one base name so the reader
// can locate them. The .prj/.cpg companions are optional.
func ValidateCompanionSet(filenames []string) error {
	present := make(map[string]bool, len(filenames))
	byBase := make(map[string]map[string]bool)
	for _, name := range filenames {
		ext := strings.ToLower(filepath.Ext(name))
		base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
		present[ext] = true
		if byBase[base] == nil {
			byBase[base] = make(map[string]bool, len(requiredExts))
		}
		byBase[base][ext] = true
	}

	for _, exts := range byBase {
		complete := true
		for _, ext := range requiredExts {
			if !exts[ext] {
				complete = false
				break
			}
		}
		if complete {
			return nil
		}
	}

	var missing []string
	for _, ext := range requiredExts {
		if !present[ext] {
			missing = append(missing, ext)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required files: %s", strings.Join(missing, ", "))
	}
	return fmt.Errorf("companion files must share one base name")
}

// FindShpFile returns the single .shp path among the given paths.
func FindShpFile(paths []string) (string, bool) {
	for _, p := range paths {
		if strings.EqualFold(filepath.Ext(p), ".shp") {
			return p, true
		}
	}
	return "", false
}

// ParseShapefile reads the dataset rooted at the given .shp path and returns its
// features in on-disk record order. The .shx and .dbf companions are picked up by
// the reader from the same directory and base name. Records with a null or empty
// geometry are dropped; a dataset that retains zero features yields
// ErrNoValidFeatures.
func ParseShapefile(shpPath string) ([]Feature, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not open shapefile")
	}
	defer reader.Close()

	fields := reader.Fields()

	var features []Feature
	for reader.Next() {
		n, shape := reader.Shape()

		geometry := shapeToGeometry(shape)
		if geometry == nil {
			// Null shape or degenerate geometry; skip the record.
			continue
		}

		features = append(features, Feature{
			Geometry:   geojson.NewGeometry(geometry),
			Properties: readAttributes(reader, n, fields),
		})
	}

	if len(features) == 0 {
		return nil, ErrNoValidFeatures
	}
	return features, nil
}

// readAttributes builds the property map for record n from the DBF columns.
func readAttributes(reader *shp.Reader, n int, fields []shp.Field) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	attrs := make(map[string]interface{}, len(fields))
	for k, f := range fields {
		attrs[f.String()] = strings.TrimSpace(reader.ReadAttribute(n, k))
	}
	return attrs
}

// shapeToGeometry converts a shapefile shape into an orb geometry, or nil when the
// shape is null or has no coordinates.
func shapeToGeometry(shape shp.Shape) orb.Geometry {
	switch s := shape.(type) {
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}
	case *shp.PointM:
		return orb.Point{s.X, s.Y}
	case *shp.MultiPoint:
		if len(s.Points) == 0 {
			return nil
		}
		return orb.MultiPoint(toOrbPoints(s.Points))
	case *shp.PolyLine:
		return polyLineGeometry(s.Points, s.Parts)
	case *shp.PolyLineZ:
		return polyLineGeometry(s.Points, s.Parts)
	case *shp.PolyLineM:
		return polyLineGeometry(s.Points, s.Parts)
	case *shp.Polygon:
		return polygonGeometry(s.Points, s.Parts)
	case *shp.PolygonZ:
		return polygonGeometry(s.Points, s.Parts)
	case *shp.PolygonM:
		return polygonGeometry(s.Points, s.Parts)
	default:
		// shp.Null and anything unrecognized
		return nil
	}
}

func toOrbPoints(points []shp.Point) []orb.Point {
	coords := make([]orb.Point, len(points))
	for i, p := range points {
		coords[i] = orb.Point{p.X, p.Y}
	}
	return coords
}

// splitParts slices the flat point array into its per-part segments.
func splitParts(points []shp.Point, parts []int32) [][]orb.Point {
	if len(parts) == 0 {
		if len(points) == 0 {
			return nil
		}
		return [][]orb.Point{toOrbPoints(points)}
	}
	segments := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i < len(parts)-1 {
			end = parts[i+1]
		}
		if start >= end {
			continue
		}
		segments = append(segments, toOrbPoints(points[start:end]))
	}
	return segments
}

func polyLineGeometry(points []shp.Point, parts []int32) orb.Geometry {
	segments := splitParts(points, parts)
	switch len(segments) {
	case 0:
		return nil
	case 1:
		return orb.LineString(segments[0])
	default:
		lines := make(orb.MultiLineString, len(segments))
		for i, seg := range segments {
			lines[i] = orb.LineString(seg)
		}
		return lines
	}
}

// polygonGeometry groups the shape's rings into polygons. Shapefile winding order
// marks outer rings clockwise and holes counter-clockwise; each outer ring starts a
// new polygon and collects the holes that follow it.
func polygonGeometry(points []shp.Point, parts []int32) orb.Geometry {
	rings := splitParts(points, parts)
	if len(rings) == 0 {
		return nil
	}

	var polygons orb.MultiPolygon
	var current orb.Polygon
	for _, ring := range rings {
		if isClockwise(ring) || len(current) == 0 {
			if len(current) > 0 {
				polygons = append(polygons, current)
			}
			current = orb.Polygon{orb.Ring(ring)}
		} else {
			current = append(current, orb.Ring(ring))
		}
	}
	if len(current) > 0 {
		polygons = append(polygons, current)
	}

	if len(polygons) == 1 {
		return polygons[0]
	}
	return polygons
}

// isClockwise reports the ring's winding via the shoelace sum.
func isClockwise(ring []orb.Point) bool {
	sum := 0.0
	for i := 0; i < len(ring)-1; i++ {
		p1, p2 := ring[i], ring[i+1]
		sum += (p2[0] - p1[0]) * (p2[1] + p1[1])
	}
	return sum > 0
}
