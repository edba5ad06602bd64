package layers

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/colornames"
)

// ScaleAnchor is one anchor point of a colorscale: a position t in [0,1] and
// the color at that position.
type ScaleAnchor struct {
	T     float64
	Color string
}

// Scale is an ordered colorscale, e.g. [[0, "#440154"], [1, "#fde725"]].
// Anchors are expected in ascending t order, matching the wire format.
type Scale []ScaleAnchor

// UnmarshalJSON decodes the nested-array wire form. Named scales (a bare
// JSON string) are not supported and decode to an empty scale, which leaves
// color mapping in identity pass-through.
func (s *Scale) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		*s = nil
		return nil
	}

	var raw [][2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	anchors := make(Scale, 0, len(raw))
	for _, pair := range raw {
		var a ScaleAnchor
		if err := json.Unmarshal(pair[0], &a.T); err != nil {
			return err
		}
		if err := json.Unmarshal(pair[1], &a.Color); err != nil {
			return err
		}
		anchors = append(anchors, a)
	}
	*s = anchors
	return nil
}

// MarshalJSON encodes the nested-array wire form.
func (s Scale) MarshalJSON() ([]byte, error) {
	raw := make([][2]interface{}, len(s))
	for i, a := range s {
		raw[i] = [2]interface{}{a.T, a.Color}
	}
	return json.Marshal(raw)
}

// ColorFunc returns the color-scale capability for this scale over the domain
// [cmin, cmax]: raw values are normalized into [0,1], bracketed between the
// surrounding anchors, and linearly interpolated per RGB channel. Values
// outside the domain clamp to the end anchors.
//
// Returns nil (identity pass-through) when the scale has fewer than two
// anchors or the domain is degenerate.
func (s Scale) ColorFunc(cmin, cmax float64) func(float64) string {
	if len(s) < 2 || !(cmax > cmin) {
		return nil
	}

	anchors := make([]ScaleAnchor, len(s))
	copy(anchors, s)

	return func(v float64) string {
		t := (v - cmin) / (cmax - cmin)
		if math.IsNaN(t) {
			t = 0
		}
		if t <= anchors[0].T {
			return normalizeColor(anchors[0].Color)
		}
		last := anchors[len(anchors)-1]
		if t >= last.T {
			return normalizeColor(last.Color)
		}

		for i := 1; i < len(anchors); i++ {
			lo, hi := anchors[i-1], anchors[i]
			if t > hi.T {
				continue
			}
			span := hi.T - lo.T
			frac := 0.0
			if span > 0 {
				frac = (t - lo.T) / span
			}
			c0, err0 := ParseColor(lo.Color)
			c1, err1 := ParseColor(hi.Color)
			if err0 != nil || err1 != nil {
				return normalizeColor(hi.Color)
			}
			return FormatHex(lerpColor(c0, c1, frac))
		}
		return normalizeColor(last.Color)
	}
}

// ParseColor parses #rgb, #rrggbb, and CSS color names into an NRGBA.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color")
	}

	if s[0] == '#' {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
		}
		var r, g, b uint8
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	}

	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}

	return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
}

// FormatHex renders a color in #rrggbb form.
func FormatHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// normalizeColor returns the #rrggbb form of a parseable color, or the input
// unchanged when it cannot be parsed.
func normalizeColor(s string) string {
	c, err := ParseColor(s)
	if err != nil {
		return s
	}
	return FormatHex(c)
}

// lerpColor interpolates per channel.
func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.NRGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: lerp(a.A, b.A),
	}
}

// BubbleSizeFunc returns the size-mapping capability for a marker size
// configuration. sizeMode "area" treats values as areas, anything else as
// diameters. sizeRef scales values down; values at or below zero map to
// radius 0.
func BubbleSizeFunc(sizeMode string, sizeRef float64) func(float64) float64 {
	if sizeRef <= 0 {
		sizeRef = 1
	}

	if sizeMode == "area" {
		return func(v float64) float64 {
			if v <= 0 || math.IsNaN(v) {
				return 0
			}
			return math.Sqrt(v/sizeRef) / 2
		}
	}

	return func(v float64) float64 {
		if v <= 0 || math.IsNaN(v) {
			return 0
		}
		return v / sizeRef / 2
	}
}

// OptionsForTrace derives the conversion capabilities from the trace's own
// style configuration: a colorscale function when the marker color array is
// numeric and a scale is configured, and a bubble-size function when the
// marker size is a per-point array.
//
// The converter treats both capabilities as opaque; callers with their own
// mapping functions can build Options directly instead.
func OptionsForTrace(t *Trace) Options {
	var opts Options
	if t == nil {
		return opts
	}

	if t.Marker.Color.PerPoint && len(t.Marker.Colorscale) >= 2 {
		cmin, cmax, ok := colorDomain(t.Marker)
		if ok {
			opts.ColorFunc = t.Marker.Colorscale.ColorFunc(cmin, cmax)
		}
	}

	if t.Marker.Size.PerPoint {
		opts.SizeFunc = BubbleSizeFunc(t.Marker.SizeMode, t.Marker.SizeRef)
	}

	return opts
}

// colorDomain resolves the colorscale domain bounds, falling back to the
// min/max of the numeric color values when cmin/cmax are absent.
func colorDomain(m MarkerStyle) (float64, float64, bool) {
	if m.Cmin != nil && m.Cmax != nil {
		return *m.Cmin, *m.Cmax, *m.Cmax > *m.Cmin
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range m.Color.Values {
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	if min > max {
		return 0, 0, false
	}
	if m.Cmin != nil {
		min = *m.Cmin
	}
	if m.Cmax != nil {
		max = *m.Cmax
	}
	return min, max, max > min
}
