package layers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coord is a single longitude or latitude component. JSON null, booleans,
// non-numeric strings, and anything else that cannot be coerced to a number
// decode to NaN, which marks the coordinate pair invalid.
type Coord float64

// UnmarshalJSON accepts numbers and numeric strings. Everything else becomes NaN.
func (c *Coord) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) == 0 || s == "null" {
		*c = Coord(math.NaN())
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*c = Coord(math.NaN())
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			*c = Coord(math.NaN())
			return nil
		}
		*c = Coord(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*c = Coord(math.NaN())
		return nil
	}
	*c = Coord(f)
	return nil
}

// Valid reports whether the component is a finite number.
func (c Coord) Valid() bool {
	f := float64(c)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// StyleValue holds a style attribute that is either one scalar value or a
// per-point array. The variant is resolved once at decode time so downstream
// code branches on PerPoint instead of re-inspecting dynamic types.
type StyleValue struct {
	Scalar   interface{}
	Values   []interface{}
	PerPoint bool
}

// UnmarshalJSON decodes either a JSON array (per-point) or any other JSON
// value (scalar).
func (v *StyleValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) > 0 && s[0] == '[' {
		var values []interface{}
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		v.Values = values
		v.PerPoint = true
		return nil
	}

	var scalar interface{}
	if err := json.Unmarshal(data, &scalar); err != nil {
		return err
	}
	v.Scalar = scalar
	v.PerPoint = false
	return nil
}

// Defined reports whether the attribute was present in the trace at all.
func (v StyleValue) Defined() bool {
	return v.PerPoint || v.Scalar != nil
}

// SizeValue is the numeric counterpart of StyleValue for marker sizes.
// Array entries that are not numbers decode to NaN.
type SizeValue struct {
	Scalar   float64
	Values   []float64
	PerPoint bool
	Present  bool
}

// UnmarshalJSON decodes a number or an array of numbers.
func (v *SizeValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) == 0 || s == "null" {
		return nil
	}

	if s[0] == '[' {
		var raw []Coord
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v.Values = make([]float64, len(raw))
		for i, c := range raw {
			v.Values[i] = float64(c)
		}
		v.PerPoint = true
		v.Present = true
		return nil
	}

	var c Coord
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	if !c.Valid() {
		return nil
	}
	v.Scalar = float64(c)
	v.Present = true
	return nil
}

// LineStyle describes the trace's connecting-line appearance.
type LineStyle struct {
	Width float64 `json:"width,omitempty"`
	Color string  `json:"color,omitempty"`
}

// MarkerStyle describes per-point marker appearance. Color and Size may be
// scalars or per-point arrays; Colorscale with Cmin/Cmax indicates a
// continuous color mapping over a numeric color array.
type MarkerStyle struct {
	Color      StyleValue `json:"color,omitempty"`
	Size       SizeValue  `json:"size,omitempty"`
	Opacity    *float64   `json:"opacity,omitempty"`
	Colorscale Scale      `json:"colorscale,omitempty"`
	Cmin       *float64   `json:"cmin,omitempty"`
	Cmax       *float64   `json:"cmax,omitempty"`
	SizeMode   string     `json:"sizemode,omitempty"`
	SizeRef    float64    `json:"sizeref,omitempty"`
}

// OpacityValue returns the marker opacity, defaulting to 1.
func (m MarkerStyle) OpacityValue() float64 {
	if m.Opacity == nil {
		return 1
	}
	return *m.Opacity
}

// Trace is the declarative plot description this package converts. It is
// treated as read-only: conversion never mutates it.
type Trace struct {
	Visible     *bool       `json:"visible,omitempty"`
	Mode        string      `json:"mode,omitempty"`
	Fill        string      `json:"fill,omitempty"`
	FillColor   string      `json:"fillcolor,omitempty"`
	Lon         []Coord     `json:"lon"`
	Lat         []Coord     `json:"lat"`
	ConnectGaps bool        `json:"connectgaps,omitempty"`
	Opacity     *float64    `json:"opacity,omitempty"`
	Line        LineStyle   `json:"line,omitempty"`
	Marker      MarkerStyle `json:"marker,omitempty"`
}

// IsVisible reports whether the trace should produce visible layers.
// An absent visible flag means visible.
func (t *Trace) IsVisible() bool {
	return t.Visible == nil || *t.Visible
}

// HasLines reports whether the trace mode requests connecting lines.
func (t *Trace) HasLines() bool {
	return strings.Contains(t.Mode, "lines")
}

// HasMarkers reports whether the trace mode requests per-point markers.
func (t *Trace) HasMarkers() bool {
	return strings.Contains(t.Mode, "markers")
}

// HasFill reports whether a fill layer was requested.
func (t *Trace) HasFill() bool {
	return t.Fill != "" && t.Fill != "none"
}

// OpacityValue returns the trace opacity, defaulting to 1.
func (t *Trace) OpacityValue() float64 {
	if t.Opacity == nil {
		return 1
	}
	return *t.Opacity
}

// PaintKey identifies a recognized paint property. Using a named type keeps
// the index maps, stop specs, and feature properties keyed consistently.
type PaintKey string

const (
	PaintFillColor     PaintKey = "fill-color"
	PaintLineWidth     PaintKey = "line-width"
	PaintLineColor     PaintKey = "line-color"
	PaintLineOpacity   PaintKey = "line-opacity"
	PaintCircleColor   PaintKey = "circle-color"
	PaintCircleRadius  PaintKey = "circle-radius"
	PaintCircleOpacity PaintKey = "circle-opacity"
)

// Visibility is the layout visibility flag consumed by the renderer.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityNone    Visibility = "none"
)

// Layout carries the layer's layout rules.
type Layout struct {
	Visibility Visibility `json:"visibility"`
}

// Layer is one renderer-facing unit: geometry, layout, and paint rules whose
// values are either literal scalars or *StopSpec piecewise rules.
type Layer struct {
	GeoJSON interface{}              `json:"geojson"`
	Layout  Layout                   `json:"layout"`
	Paint   map[PaintKey]interface{} `json:"paint"`
}

// LayerSet is the full conversion output for one trace.
type LayerSet struct {
	Fill    *Layer `json:"fill"`
	Lines   *Layer `json:"lines"`
	Markers *Layer `json:"markers"`
}

// SourceConfig defines one trace source from the config file.
type SourceConfig struct {
	ID    string `yaml:"id" json:"id"`
	Topic string `yaml:"topic" json:"topic"`
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file.
type Config struct {
	MQTT     MQTTConfig     `yaml:"mqtt" json:"mqtt"`
	Sources  []SourceConfig `yaml:"sources" json:"sources"`
	HTTPPort int            `yaml:"httpPort,omitempty" json:"httpPort,omitempty"`
}

// GetSourceByID returns the source config for the given ID.
func (c *Config) GetSourceByID(id string) *SourceConfig {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i]
		}
	}
	return nil
}
