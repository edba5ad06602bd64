package layers

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func previewLayerSets(t *testing.T) map[string]*LayerSet {
	t.Helper()
	trace := &Trace{
		Mode: "lines+markers",
		Fill: "toself",
		Lon:  coordSeq(0, 2, 2, 0),
		Lat:  coordSeq(0, 0, 2, 2),
		Line: LineStyle{Width: 2, Color: "#ff0000"},
		Marker: MarkerStyle{
			Color: StyleValue{Scalar: "#0000ff"},
			Size:  SizeValue{Scalar: 10, Present: true},
		},
	}
	return map[string]*LayerSet{"demo": Convert(trace, Options{})}
}

func TestRenderToSVG(t *testing.T) {
	r := NewPreviewRenderer(previewLayerSets(t))

	var buf bytes.Buffer
	if err := r.RenderToSVG(&buf); err != nil {
		t.Fatalf("RenderToSVG failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Error("Expected SVG output")
	}
	if !strings.Contains(out, "path") {
		t.Error("Expected at least one path element")
	}
}

func TestRenderToPNG(t *testing.T) {
	r := NewPreviewRenderer(previewLayerSets(t))

	var buf bytes.Buffer
	if err := r.RenderToPNG(&buf); err != nil {
		t.Fatalf("RenderToPNG failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a valid PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Error("Expected non-empty image")
	}
}

func TestRenderNoVisibleGeometry(t *testing.T) {
	hidden := Convert(&Trace{Visible: boolPtr(false)}, Options{})
	r := NewPreviewRenderer(map[string]*LayerSet{"hidden": hidden})

	var buf bytes.Buffer
	if err := r.RenderToSVG(&buf); err == nil {
		t.Error("Expected error when nothing is visible")
	}
}

func TestCalculateBounds(t *testing.T) {
	trace := &Trace{
		Mode: "markers",
		Lon:  coordSeq(-10, 10),
		Lat:  coordSeq(-5, 5),
	}
	r := NewPreviewRenderer(map[string]*LayerSet{"a": Convert(trace, Options{})})

	bound, ok := r.calculateBounds()
	if !ok {
		t.Fatal("Expected bounds from marker features")
	}
	if bound.Min != (orb.Point{-10, -5}) || bound.Max != (orb.Point{10, 5}) {
		t.Errorf("Unexpected bounds: %v", bound)
	}
}

func TestPreviewExtent(t *testing.T) {
	bound := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 2}}
	w, h := previewExtent(bound, 1, 20)

	if w != 120 || h != 80 {
		t.Errorf("Expected 120x80, got %vx%v", w, h)
	}
}

func TestResolvePaintScalarPassthrough(t *testing.T) {
	got := resolvePaint("#abcdef", nil, PaintCircleColor)
	if got != "#abcdef" {
		t.Errorf("Scalar must pass through, got %v", got)
	}
}

func TestResolvePaintStopLookup(t *testing.T) {
	spec := &StopSpec{
		Property: PaintCircleColor,
		Stops:    []Stop{{Index: 0, Value: "red"}, {Index: 3, Value: "blue"}},
	}
	props := map[string]interface{}{string(PaintCircleColor): 3.0}

	if got := resolvePaint(spec, props, PaintCircleColor); got != "blue" {
		t.Errorf("Expected blue, got %v", got)
	}

	if got := resolvePaint(spec, map[string]interface{}{}, PaintCircleColor); got != nil {
		t.Errorf("Expected nil for feature without index property, got %v", got)
	}

	props[string(PaintCircleColor)] = 99.0
	if got := resolvePaint(spec, props, PaintCircleColor); got != nil {
		t.Errorf("Expected nil for unmatched index, got %v", got)
	}
}

func TestPaintColorFallback(t *testing.T) {
	def := color.RGBA{R: 1, G: 2, B: 3, A: 255}

	if got := paintColor(nil, def); got != def {
		t.Errorf("Expected fallback for nil, got %v", got)
	}
	if got := paintColor("not-a-color", def); got != def {
		t.Errorf("Expected fallback for unparseable color, got %v", got)
	}
	if got := paintColor("#ffffff", def); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected white, got %v", got)
	}
}

func TestNRGBAToRGBAPremultiplies(t *testing.T) {
	in := color.NRGBA{R: 200, G: 100, B: 0, A: 127}
	out := nrgbaToRGBA(in)

	if out.A != 127 {
		t.Errorf("Alpha must be preserved, got %d", out.A)
	}
	if out.R != uint8(200*127/255) {
		t.Errorf("Red not premultiplied: %d", out.R)
	}

	if nrgbaToRGBA(color.NRGBA{R: 9, A: 0}) != (color.RGBA{}) {
		t.Error("Zero alpha must produce zero color")
	}
}
