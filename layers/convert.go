package layers

import (
	"math"

	"github.com/paulmach/orb"
)

// Options supplies the external style capabilities used during conversion.
// A nil ColorFunc means raw color values pass through unchanged; a nil
// SizeFunc means size values are interpreted as diameters and halved.
type Options struct {
	ColorFunc func(float64) string
	SizeFunc  func(float64) float64
}

// Convert turns one trace into three independent layer descriptors: fill,
// lines, and markers. Each layer defaults to a hidden placeholder and is only
// populated when the trace is visible and the corresponding sub-type applies.
// Conversion never fails: invalid coordinates are dropped and absent style
// attributes simply leave their layer hidden.
func Convert(t *Trace, opts Options) *LayerSet {
	set := &LayerSet{
		Fill:    hiddenLayer(),
		Lines:   hiddenLayer(),
		Markers: hiddenLayer(),
	}

	if t == nil || !t.IsVisible() {
		return set
	}

	// Fill and line layers share one coordinate assembly pass.
	var coords orb.MultiLineString
	if t.HasFill() || t.HasLines() {
		coords = AssembleCoordinates(t.Lon, t.Lat, t.ConnectGaps)
	}

	if t.HasFill() {
		set.Fill = &Layer{
			GeoJSON: PolygonGeometry(coords),
			Layout:  Layout{Visibility: VisibilityVisible},
			Paint: map[PaintKey]interface{}{
				PaintFillColor: t.FillColor,
			},
		}
	}

	if t.HasLines() {
		// line.dash has no translation here; dashed traces render solid.
		set.Lines = &Layer{
			GeoJSON: MultiLineGeometry(coords),
			Layout:  Layout{Visibility: VisibilityVisible},
			Paint: map[PaintKey]interface{}{
				PaintLineWidth:   t.Line.Width,
				PaintLineColor:   t.Line.Color,
				PaintLineOpacity: t.OpacityValue(),
			},
		}
	}

	if t.HasMarkers() {
		set.Markers = markerLayer(t, opts)
	}

	return set
}

// hiddenLayer returns the placeholder for a layer that does not apply.
func hiddenLayer() *Layer {
	return &Layer{
		GeoJSON: EmptyPointGeometry(),
		Layout:  Layout{Visibility: VisibilityNone},
		Paint:   map[PaintKey]interface{}{},
	}
}

// markerLayer builds the marker feature collection and paint rules. Each
// valid point becomes one Point feature; array-valued color and size
// attributes record a categorical index per feature, which the emitted stop
// specs are keyed on.
func markerLayer(t *Trace, opts Options) *Layer {
	indexer := NewValueIndexer()
	fc := NewFeatureCollection()

	colorArray := t.Marker.Color.PerPoint
	sizeArray := t.Marker.Size.PerPoint

	n := len(t.Lon)
	if len(t.Lat) < n {
		n = len(t.Lat)
	}

	for i := 0; i < n; i++ {
		if !t.Lon[i].Valid() || !t.Lat[i].Valid() {
			continue
		}

		props := make(map[string]interface{})
		if colorArray && i < len(t.Marker.Color.Values) {
			props[string(PaintCircleColor)] = indexer.Index(PaintCircleColor, t.Marker.Color.Values[i], i)
		}
		if sizeArray && i < len(t.Marker.Size.Values) {
			// Undecodable size entries arrive as NaN. NaN map keys are
			// unretrievable, so they never enter the index.
			if v := t.Marker.Size.Values[i]; !math.IsNaN(v) {
				props[string(PaintCircleRadius)] = indexer.Index(PaintCircleRadius, v, i)
			}
		}

		point := orb.Point{float64(t.Lon[i]), float64(t.Lat[i])}
		fc.AddFeature(NewFeature(PointGeometry(point), props))
	}

	paint := map[PaintKey]interface{}{
		PaintCircleOpacity: t.OpacityValue() * t.Marker.OpacityValue(),
	}

	if colorArray {
		paint[PaintCircleColor] = ColorStops(PaintCircleColor, indexer.Recorded(PaintCircleColor), opts.ColorFunc)
	} else if t.Marker.Color.Defined() {
		paint[PaintCircleColor] = t.Marker.Color.Scalar
	}

	if sizeArray {
		paint[PaintCircleRadius] = SizeStops(PaintCircleRadius, indexer.Recorded(PaintCircleRadius), opts.SizeFunc)
	} else if t.Marker.Size.Present {
		// Scalar sizes are diameters.
		paint[PaintCircleRadius] = t.Marker.Size.Scalar / 2
	}

	return &Layer{
		GeoJSON: fc,
		Layout:  Layout{Visibility: VisibilityVisible},
		Paint:   paint,
	}
}
