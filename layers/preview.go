package layers

import (
	"encoding/json"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// PreviewRenderer renders converted layer sets as vector graphics. It is a
// debug surface: the layer descriptors target a map-rendering engine, but
// being able to eyeball fill/line/marker output without one catches most
// conversion mistakes.
type PreviewRenderer struct {
	Sets       map[string]*LayerSet
	Scale      float64           // Canvas units per degree
	Padding    float64           // Padding in degrees
	Resolution canvas.Resolution // Resolution for PNG output
}

// NewPreviewRenderer creates a preview renderer with default settings
func NewPreviewRenderer(sets map[string]*LayerSet) *PreviewRenderer {
	return &PreviewRenderer{
		Sets:       sets,
		Scale:      20.0,
		Padding:    1.0,
		Resolution: canvas.DPI(150),
	}
}

// canvasRenderer is an interface that both svg and rasterizer renderers implement
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the preview as an SVG to the provided writer
func (r *PreviewRenderer) RenderToSVG(w io.Writer) error {
	bound, ok := r.calculateBounds()
	if !ok {
		return fmt.Errorf("no visible geometry to render")
	}

	width := (bound.Max[0] - bound.Min[0] + 2*r.Padding) * r.Scale
	height := (bound.Max[1] - bound.Min[1] + 2*r.Padding) * r.Scale

	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, bound, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the preview as a PNG to the provided writer
func (r *PreviewRenderer) RenderToPNG(w io.Writer) error {
	bound, ok := r.calculateBounds()
	if !ok {
		return fmt.Errorf("no visible geometry to render")
	}

	width := (bound.Max[0] - bound.Min[0] + 2*r.Padding) * r.Scale
	height := (bound.Max[1] - bound.Min[1] + 2*r.Padding) * r.Scale

	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, bound, width, height)
	return png.Encode(w, rast)
}

// renderToCanvas renders all layer sets (shared logic for SVG and PNG)
func (r *PreviewRenderer) renderToCanvas(renderer canvasRenderer, bound orb.Bound, width, height float64) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p orb.Point) (float64, float64) {
		return (p[0] - bound.Min[0] + r.Padding) * r.Scale,
			(p[1] - bound.Min[1] + r.Padding) * r.Scale
	}

	for _, set := range r.Sets {
		if set == nil {
			continue
		}
		r.renderFill(renderer, set.Fill, toCanvas)
		r.renderLines(renderer, set.Lines, toCanvas)
		r.renderMarkers(renderer, set.Markers, toCanvas)
	}
}

// renderFill draws a fill layer's polygon rings
func (r *PreviewRenderer) renderFill(renderer canvasRenderer, layer *Layer, toCanvas func(orb.Point) (float64, float64)) {
	if layer == nil || layer.Layout.Visibility != VisibilityVisible {
		return
	}
	geom, ok := layer.GeoJSON.(*Geometry)
	if !ok || geom.Type != GeometryPolygon {
		return
	}

	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: paintColor(layer.Paint[PaintFillColor], color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff})}
	style.Stroke = canvas.Paint{Color: canvas.Transparent}

	for _, ring := range geomLines(geom) {
		if len(ring) < 3 {
			continue
		}
		cp := &canvas.Path{}
		for i, pt := range ring {
			cx, cy := toCanvas(pt)
			if i == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, style, canvas.Identity)
	}
}

// renderLines draws a line layer's line strings
func (r *PreviewRenderer) renderLines(renderer canvasRenderer, layer *Layer, toCanvas func(orb.Point) (float64, float64)) {
	if layer == nil || layer.Layout.Visibility != VisibilityVisible {
		return
	}
	geom, ok := layer.GeoJSON.(*Geometry)
	if !ok || geom.Type != GeometryMultiLineString {
		return
	}

	style := canvas.DefaultStyle
	style.Fill = canvas.Paint{Color: canvas.Transparent}
	style.Stroke = canvas.Paint{Color: paintColor(layer.Paint[PaintLineColor], canvas.Black)}
	style.StrokeWidth = 1.0
	if w, ok := toFloat(layer.Paint[PaintLineWidth]); ok && w > 0 {
		style.StrokeWidth = w
	}

	for _, line := range geomLines(geom) {
		if len(line) < 2 {
			continue
		}
		cp := &canvas.Path{}
		for i, pt := range line {
			cx, cy := toCanvas(pt)
			if i == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		renderer.RenderPath(cp, style, canvas.Identity)
	}
}

// renderMarkers draws circles for a marker layer's features, resolving stop
// specs against each feature's categorical index properties.
func (r *PreviewRenderer) renderMarkers(renderer canvasRenderer, layer *Layer, toCanvas func(orb.Point) (float64, float64)) {
	if layer == nil || layer.Layout.Visibility != VisibilityVisible {
		return
	}
	fc, ok := layer.GeoJSON.(*FeatureCollection)
	if !ok {
		return
	}

	for _, f := range fc.Features {
		pt, ok := featurePoint(f)
		if !ok {
			continue
		}

		radius := 3.0
		if v, ok := toFloat(resolvePaint(layer.Paint[PaintCircleRadius], f.Properties, PaintCircleRadius)); ok && v > 0 {
			radius = v
		}

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: paintColor(resolvePaint(layer.Paint[PaintCircleColor], f.Properties, PaintCircleColor), color.RGBA{R: 0x33, G: 0x66, B: 0xcc, A: 0xff})}
		style.Stroke = canvas.Paint{Color: canvas.Transparent}

		cx, cy := toCanvas(pt)
		circle := canvas.Circle(radius).Translate(cx, cy)
		renderer.RenderPath(circle, style, canvas.Identity)
	}
}

// calculateBounds computes the bound of all visible geometry
func (r *PreviewRenderer) calculateBounds() (orb.Bound, bool) {
	var points []orb.Point

	for _, set := range r.Sets {
		if set == nil {
			continue
		}
		for _, layer := range []*Layer{set.Fill, set.Lines} {
			if layer == nil || layer.Layout.Visibility != VisibilityVisible {
				continue
			}
			if geom, ok := layer.GeoJSON.(*Geometry); ok {
				for _, line := range geomLines(geom) {
					points = append(points, line...)
				}
			}
		}
		if set.Markers != nil && set.Markers.Layout.Visibility == VisibilityVisible {
			if fc, ok := set.Markers.GeoJSON.(*FeatureCollection); ok {
				for _, f := range fc.Features {
					if pt, ok := featurePoint(f); ok {
						points = append(points, pt)
					}
				}
			}
		}
	}

	if len(points) == 0 {
		return orb.Bound{}, false
	}

	mp := orb.MultiPoint(points)
	return mp.Bound(), true
}

// geomLines parses a Polygon or MultiLineString geometry back into orb line
// strings. Both serialize their coordinates in the same nested form.
func geomLines(geom *Geometry) orb.MultiLineString {
	if geom == nil {
		return nil
	}
	var lines [][][2]float64
	if err := json.Unmarshal(geom.Coordinates, &lines); err != nil {
		return nil
	}
	mls := make(orb.MultiLineString, len(lines))
	for i, line := range lines {
		ls := make(orb.LineString, len(line))
		for j, c := range line {
			ls[j] = orb.Point{c[0], c[1]}
		}
		mls[i] = ls
	}
	return mls
}

// featurePoint extracts the position of a Point feature
func featurePoint(f *Feature) (orb.Point, bool) {
	if f == nil || f.Geometry == nil || f.Geometry.Type != GeometryPoint {
		return orb.Point{}, false
	}
	var coords [2]float64
	if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
		return orb.Point{}, false
	}
	return orb.Point{coords[0], coords[1]}, true
}

// resolvePaint resolves a paint value for one feature: scalars pass through,
// stop specs are looked up by the feature's categorical index for key.
func resolvePaint(value interface{}, props map[string]interface{}, key PaintKey) interface{} {
	spec, ok := value.(*StopSpec)
	if !ok {
		return value
	}

	idxValue, ok := props[string(key)]
	if !ok {
		return nil
	}
	idx, ok := toFloat(idxValue)
	if !ok {
		return nil
	}

	for _, stop := range spec.Stops {
		if float64(stop.Index) == idx {
			return stop.Value
		}
	}
	return nil
}

// paintColor parses a paint color value, falling back to def
func paintColor(value interface{}, def color.RGBA) color.RGBA {
	s, ok := value.(string)
	if !ok || s == "" {
		return def
	}
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return nrgbaToRGBA(c)
}

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha.
// The canvas library expects premultiplied RGBA.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{}
	}
	if c.A == 255 {
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// used by tests to sanity-check scale math without rendering
func previewExtent(bound orb.Bound, padding, scale float64) (float64, float64) {
	w := (bound.Max[0] - bound.Min[0] + 2*padding) * scale
	h := (bound.Max[1] - bound.Min[1] + 2*padding) * scale
	return math.Max(w, 0), math.Max(h, 0)
}
