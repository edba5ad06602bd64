package layers

import "github.com/paulmach/orb"

// AssembleCoordinates walks the lon/lat sequences in order and groups the
// valid pairs into line strings. With connectGaps false, every maximal run of
// valid points separated by at least one invalid point becomes its own line
// string; with connectGaps true, invalid points are skipped and all valid
// points form a single line string.
//
// The result always contains at least one (possibly empty) line string so
// fill and line layers have a well-formed geometry container even when no
// valid points exist.
func AssembleCoordinates(lon, lat []Coord, connectGaps bool) orb.MultiLineString {
	n := len(lon)
	if len(lat) < n {
		n = len(lat)
	}

	out := make(orb.MultiLineString, 0, 1)
	line := orb.LineString{}

	for i := 0; i < n; i++ {
		if lon[i].Valid() && lat[i].Valid() {
			line = append(line, orb.Point{float64(lon[i]), float64(lat[i])})
			continue
		}
		if !connectGaps && len(line) > 0 {
			out = append(out, line)
			line = orb.LineString{}
		}
	}

	return append(out, line)
}
