package layers

import (
	"math"
	"testing"
)

func coordSeq(values ...float64) []Coord {
	out := make([]Coord, len(values))
	for i, v := range values {
		out[i] = Coord(v)
	}
	return out
}

var nan = math.NaN()

func TestAssembleCoordinatesSplitsOnGaps(t *testing.T) {
	lon := coordSeq(1, 2, nan, 3)
	lat := coordSeq(1, 2, nan, 3)

	result := AssembleCoordinates(lon, lat, false)

	if len(result) != 2 {
		t.Fatalf("Expected 2 sub-sequences, got %d", len(result))
	}
	if len(result[0]) != 2 {
		t.Errorf("Expected first run of 2 points, got %d", len(result[0]))
	}
	if len(result[1]) != 1 {
		t.Errorf("Expected second run of 1 point, got %d", len(result[1]))
	}
	if result[0][0][0] != 1 || result[0][1][0] != 2 || result[1][0][0] != 3 {
		t.Errorf("Points out of order: %v", result)
	}
}

func TestAssembleCoordinatesConnectGaps(t *testing.T) {
	lon := coordSeq(1, 2, nan, 3)
	lat := coordSeq(1, 2, nan, 3)

	result := AssembleCoordinates(lon, lat, true)

	if len(result) != 1 {
		t.Fatalf("Expected 1 sub-sequence, got %d", len(result))
	}
	if len(result[0]) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(result[0]))
	}
	for i, want := range []float64{1, 2, 3} {
		if result[0][i][0] != want || result[0][i][1] != want {
			t.Errorf("Point %d: expected (%v,%v), got %v", i, want, want, result[0][i])
		}
	}
}

func TestAssembleCoordinatesAlwaysProducesOneSubsequence(t *testing.T) {
	cases := []struct {
		name        string
		lon, lat    []Coord
		connectGaps bool
	}{
		{"empty input", nil, nil, false},
		{"all invalid", coordSeq(nan, nan), coordSeq(nan, nan), false},
		{"all invalid connectgaps", coordSeq(nan, nan), coordSeq(nan, nan), true},
		{"invalid lat only", coordSeq(1, 2), coordSeq(nan, nan), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := AssembleCoordinates(tc.lon, tc.lat, tc.connectGaps)
			if len(result) < 1 {
				t.Fatalf("Expected at least one sub-sequence, got %d", len(result))
			}
			for _, line := range result[:len(result)-1] {
				if len(line) == 0 {
					t.Error("Only the trailing sub-sequence may be empty")
				}
			}
		})
	}
}

func TestAssembleCoordinatesMixedValidity(t *testing.T) {
	// A pair is valid only when both components are finite
	lon := coordSeq(1, nan, 3, 4)
	lat := coordSeq(1, 2, nan, 4)

	result := AssembleCoordinates(lon, lat, false)

	// Points 1 and 2 are invalid: runs are [point0], [point3]
	if len(result) != 2 {
		t.Fatalf("Expected 2 sub-sequences, got %d", len(result))
	}
	if result[0][0][0] != 1 || result[1][0][0] != 4 {
		t.Errorf("Wrong points survived: %v", result)
	}
}

func TestAssembleCoordinatesTrailingGap(t *testing.T) {
	lon := coordSeq(1, 2, nan)
	lat := coordSeq(1, 2, nan)

	result := AssembleCoordinates(lon, lat, false)

	// The closed run plus the always-appended (empty) current sub-sequence
	if len(result) != 2 {
		t.Fatalf("Expected 2 sub-sequences, got %d", len(result))
	}
	if len(result[1]) != 0 {
		t.Errorf("Expected trailing empty sub-sequence, got %d points", len(result[1]))
	}
}

func TestAssembleCoordinatesInfinityIsInvalid(t *testing.T) {
	lon := coordSeq(1, math.Inf(1), 3)
	lat := coordSeq(1, 2, 3)

	result := AssembleCoordinates(lon, lat, false)

	if len(result) != 2 {
		t.Fatalf("Expected 2 sub-sequences, got %d", len(result))
	}
}
