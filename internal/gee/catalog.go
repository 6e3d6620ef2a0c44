package gee

import (
	"fmt"
	"strings"
)

// IndexSpec describes how one spectral index is computed on the analysis platform:
// the image collection to load, the normalized-difference band pair, the display
// palette and the human-readable formula.
type IndexSpec struct {
	Name       string
	Collection string
	Bands      [2]string
	Palette    []string
	Formula    string
}

// catalog maps supported index types to their Sentinel-2 configuration.
var catalog = map[string]IndexSpec{
	"ndvi": {
		Name:       "NDVI",
		Collection: "COPERNICUS/S2_SR_HARMONIZED",
		Bands:      [2]string{"B8", "B4"},
		Palette:    []string{"red", "yellow", "green"},
		Formula:    "(NIR - RED) / (NIR + RED)",
	},
	"ndwi": {
		Name:       "NDWI",
		Collection: "COPERNICUS/S2_SR_HARMONIZED",
		Bands:      [2]string{"B3", "B8"},
		Palette:    []string{"white", "cyan", "blue"},
		Formula:    "(GREEN - NIR) / (GREEN + NIR)",
	},
	"ndbi": {
		Name:       "NDBI",
		Collection: "COPERNICUS/S2_SR_HARMONIZED",
		Bands:      [2]string{"B11", "B8"},
		Palette:    []string{"green", "yellow", "red"},
		Formula:    "(SWIR - NIR) / (SWIR + NIR)",
	},
}

// Lookup resolves an index type to its catalog entry, case-insensitively.
func Lookup(indexType string) (IndexSpec, bool) {
	spec, ok := catalog[strings.ToLower(indexType)]
	return spec, ok
}

// SupportedTypes lists the accepted index type values.
func SupportedTypes() []string {
	return []string{"ndvi", "ndwi", "ndbi"}
}

// IsSupported reports whether the index type is one this service can handle.
func IsSupported(indexType string) bool {
	_, ok := Lookup(indexType)
	return ok
}

// quotedList renders a JS string array body from palette entries.
func quotedList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("'%s'", v)
	}
	return strings.Join(quoted, ", ")
}
