package layers

import "testing"

func TestValueIndexerFirstSeenWins(t *testing.T) {
	ix := NewValueIndexer()

	if got := ix.Index(PaintCircleColor, "a", 0); got != 0 {
		t.Errorf("First value: expected index 0, got %d", got)
	}
	if got := ix.Index(PaintCircleColor, "b", 1); got != 1 {
		t.Errorf("Second value: expected index 1, got %d", got)
	}
	if got := ix.Index(PaintCircleColor, "a", 2); got != 0 {
		t.Errorf("Repeated value: expected first-seen index 0, got %d", got)
	}
}

func TestValueIndexerIdempotent(t *testing.T) {
	ix := NewValueIndexer()
	ix.Index(PaintCircleColor, "x", 5)

	for i := 0; i < 3; i++ {
		if got := ix.Index(PaintCircleColor, "x", 10+i); got != 5 {
			t.Errorf("Call %d: expected stable index 5, got %d", i, got)
		}
	}
}

func TestValueIndexerUsesPointPosition(t *testing.T) {
	// Indices are raw point positions, not dense 0..n-1 renumbering
	ix := NewValueIndexer()

	if got := ix.Index(PaintCircleRadius, 10.0, 3); got != 3 {
		t.Errorf("Expected position 3 as index, got %d", got)
	}
	if got := ix.Index(PaintCircleRadius, 20.0, 7); got != 7 {
		t.Errorf("Expected position 7 as index, got %d", got)
	}
}

func TestValueIndexerPropertiesIndependent(t *testing.T) {
	ix := NewValueIndexer()

	ix.Index(PaintCircleColor, "shared", 0)
	if got := ix.Index(PaintCircleRadius, "shared", 4); got != 4 {
		t.Errorf("Properties must not share index maps: got %d", got)
	}
}

func TestValueIndexerMixedValueTypes(t *testing.T) {
	ix := NewValueIndexer()

	// float64 and string values are distinct keys
	ix.Index(PaintCircleColor, 1.0, 0)
	if got := ix.Index(PaintCircleColor, "1", 1); got != 1 {
		t.Errorf("Expected distinct index for string value, got %d", got)
	}
}

func TestRecordedReturnsCopy(t *testing.T) {
	ix := NewValueIndexer()
	ix.Index(PaintCircleColor, "a", 0)

	recorded := ix.Recorded(PaintCircleColor)
	recorded["a"] = 99
	recorded["injected"] = 1

	if got := ix.Index(PaintCircleColor, "a", 5); got != 0 {
		t.Errorf("Mutating the recorded copy must not affect the indexer, got %d", got)
	}
	if len(ix.Recorded(PaintCircleColor)) != 1 {
		t.Error("Injected entry leaked into the indexer")
	}
}

func TestRecordedUnknownProperty(t *testing.T) {
	ix := NewValueIndexer()
	if m := ix.Recorded(PaintCircleColor); len(m) != 0 {
		t.Errorf("Expected empty map for unknown property, got %d entries", len(m))
	}
}
