package layers

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Stop is one [index, value] pair in a piecewise style rule.
type Stop struct {
	Index int
	Value interface{}
}

// MarshalJSON encodes the stop in the [index, value] wire form.
func (s Stop) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{s.Index, s.Value})
}

// UnmarshalJSON decodes the [index, value] wire form.
func (s *Stop) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &s.Index); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &s.Value)
}

// StopSpec is a piecewise paint rule: the renderer interprets Stops as a step
// function over the feature property named by Property.
type StopSpec struct {
	Property PaintKey `json:"property"`
	Stops    []Stop   `json:"stops"`
}

// sortStops orders stops ascending by index. The renderer requires monotonic
// stop keys, and first-seen indices are raw point positions whose discovery
// order need not be ascending.
func sortStops(stops []Stop) {
	sort.Slice(stops, func(i, j int) bool {
		return stops[i].Index < stops[j].Index
	})
}

// toFloat coerces a decoded JSON value to a float64 where possible.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// ColorStops builds the stop spec for an array-valued color attribute from
// the recorded index map. colorFn is the external color-scale capability;
// when nil, raw values pass through as colors unchanged.
func ColorStops(key PaintKey, recorded map[interface{}]int, colorFn func(float64) string) *StopSpec {
	spec := &StopSpec{
		Property: key,
		Stops:    make([]Stop, 0, len(recorded)),
	}

	for value, idx := range recorded {
		out := value
		if colorFn != nil {
			if f, ok := toFloat(value); ok {
				out = colorFn(f)
			}
		}
		spec.Stops = append(spec.Stops, Stop{Index: idx, Value: out})
	}

	sortStops(spec.Stops)
	return spec
}

// SizeStops builds the stop spec for an array-valued size attribute. sizeFn
// is the external size-mapping capability; when nil, sizes are interpreted as
// diameters and halved. Values that cannot be coerced to finite numbers are
// skipped; NaN in particular must never reach the stop list, it is not
// JSON-serializable.
func SizeStops(key PaintKey, recorded map[interface{}]int, sizeFn func(float64) float64) *StopSpec {
	spec := &StopSpec{
		Property: key,
		Stops:    make([]Stop, 0, len(recorded)),
	}

	for value, idx := range recorded {
		f, ok := toFloat(value)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		radius := f / 2
		if sizeFn != nil {
			radius = sizeFn(f)
		}
		spec.Stops = append(spec.Stops, Stop{Index: idx, Value: radius})
	}

	sortStops(spec.Stops)
	return spec
}
