package gee

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// scriptTemplate is the Earth Engine code editor script generated for one stored
// geometry and index type.
const scriptTemplate = `// {{.Spec.Name}} analysis generated by shapefile-service
var geometry = ee.Geometry({{.GeometryJSON}});

var collection = ee.ImageCollection('{{.Spec.Collection}}')
  .filterBounds(geometry)
  .filterDate('{{.FromDate}}', '{{.ToDate}}')
  .filter(ee.Filter.lt('CLOUDY_PIXEL_PERCENTAGE', 20));

var image = collection.median().clip(geometry);

// {{.Spec.Name}} = {{.Spec.Formula}}
var index = image.normalizedDifference(['{{index .Spec.Bands 0}}', '{{index .Spec.Bands 1}}'])
  .rename('{{.Spec.Name}}');

Map.centerObject(geometry);
Map.addLayer(index, {min: -1, max: 1, palette: [{{.PaletteJS}}]}, '{{.Spec.Name}}');

Export.image.toDrive({
  image: index,
  description: '{{.Spec.Name}}_export',
  region: geometry,
  scale: 10,
  maxPixels: 1e13
});
`

var scriptTmpl = template.Must(template.New("gee").Parse(scriptTemplate))

// RenderScript produces the Earth Engine script text for a geometry (GeoJSON
// text, already in WGS84) and a supported index type.
func RenderScript(geometryJSON, indexType, fromDate, toDate string) (string, IndexSpec, error) {
	spec, ok := Lookup(indexType)
	if !ok {
		return "", IndexSpec{}, fmt.Errorf("unsupported index type %q, expected one of: %s",
			indexType, strings.Join(SupportedTypes(), ", "))
	}
	if fromDate == "" {
		fromDate = "2024-01-01"
	}
	if toDate == "" {
		toDate = "2024-12-31"
	}

	var sb strings.Builder
	err := scriptTmpl.Execute(&sb, struct {
		Spec         IndexSpec
		GeometryJSON string
		PaletteJS    string
		FromDate     string
		ToDate       string
	}{
		Spec:         spec,
		GeometryJSON: geometryJSON,
		PaletteJS:    quotedList(spec.Palette),
		FromDate:     fromDate,
		ToDate:       toDate,
	})
	if err != nil {
		return "", IndexSpec{}, errors.Wrap(err, "failed to render script template")
	}
	return sb.String(), spec, nil
}
