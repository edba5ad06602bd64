package layers

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// GeometryType represents the GeoJSON geometry type
type GeometryType string

const (
	GeometryPoint           GeometryType = "Point"
	GeometryPolygon         GeometryType = "Polygon"
	GeometryMultiLineString GeometryType = "MultiLineString"
)

// Geometry represents a GeoJSON geometry object. Coordinates are kept as raw
// JSON so the empty-placeholder form (coordinates: []) can be represented,
// which has no equivalent in typed geometry structs.
type Geometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature represents a GeoJSON feature with geometry and properties
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection represents a GeoJSON FeatureCollection
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeatureCollection creates a new empty FeatureCollection
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]*Feature, 0),
	}
}

// AddFeature appends a feature to the collection
func (fc *FeatureCollection) AddFeature(f *Feature) {
	fc.Features = append(fc.Features, f)
}

// NewFeature creates a Feature with the given geometry and properties
func NewFeature(geom *Geometry, props map[string]interface{}) *Feature {
	if props == nil {
		props = make(map[string]interface{})
	}
	return &Feature{
		Type:       "Feature",
		Geometry:   geom,
		Properties: props,
	}
}

// lineCoords converts an orb.LineString to the [lon, lat] pair form used in
// the wire encoding.
func lineCoords(ls orb.LineString) [][2]float64 {
	coords := make([][2]float64, len(ls))
	for i, p := range ls {
		coords[i] = [2]float64{p[0], p[1]}
	}
	return coords
}

// multiLineCoords converts each line string of a MultiLineString.
func multiLineCoords(mls orb.MultiLineString) [][][2]float64 {
	lines := make([][][2]float64, len(mls))
	for i, ls := range mls {
		lines[i] = lineCoords(ls)
	}
	return lines
}

// PolygonGeometry wraps assembled coordinate sub-sequences as a GeoJSON
// Polygon, one linear ring per sub-sequence.
func PolygonGeometry(mls orb.MultiLineString) *Geometry {
	coordsJSON, _ := json.Marshal(multiLineCoords(mls))
	return &Geometry{
		Type:        GeometryPolygon,
		Coordinates: coordsJSON,
	}
}

// MultiLineGeometry wraps assembled coordinate sub-sequences as a GeoJSON
// MultiLineString.
func MultiLineGeometry(mls orb.MultiLineString) *Geometry {
	coordsJSON, _ := json.Marshal(multiLineCoords(mls))
	return &Geometry{
		Type:        GeometryMultiLineString,
		Coordinates: coordsJSON,
	}
}

// PointGeometry wraps a single position as a GeoJSON Point.
func PointGeometry(p orb.Point) *Geometry {
	coordsJSON, _ := json.Marshal([2]float64{p[0], p[1]})
	return &Geometry{
		Type:        GeometryPoint,
		Coordinates: coordsJSON,
	}
}

// EmptyPointGeometry returns the placeholder geometry used for hidden layers:
// a Point with empty coordinates.
func EmptyPointGeometry() *Geometry {
	return &Geometry{
		Type:        GeometryPoint,
		Coordinates: json.RawMessage("[]"),
	}
}
