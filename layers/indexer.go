package layers

// ValueIndexer deduplicates raw categorical style values into stable integer
// indices, one mapping per paint property. The index assigned to a value is
// the sequence position of the point where the value first occurred; repeated
// occurrences reuse that index unchanged. Indices are therefore raw point
// positions, not a dense 0..n-1 renumbering, which lets them double as
// stop-table keys matched against the same index carried in per-feature
// properties.
//
// An indexer is built fresh for each conversion call and never shared.
type ValueIndexer struct {
	indices map[PaintKey]map[interface{}]int
}

// NewValueIndexer creates an empty indexer.
func NewValueIndexer() *ValueIndexer {
	return &ValueIndexer{
		indices: make(map[PaintKey]map[interface{}]int),
	}
}

// Index returns the stable index for value under key. position is the current
// point's sequence position; it becomes the value's index only on first
// sight.
func (ix *ValueIndexer) Index(key PaintKey, value interface{}, position int) int {
	m := ix.indices[key]
	if m == nil {
		m = make(map[interface{}]int)
		ix.indices[key] = m
	}
	if idx, ok := m[value]; ok {
		return idx
	}
	m[value] = position
	return position
}

// Recorded returns a copy of the value-to-index map for key. The copy keeps
// the stop builder from mutating indexer state.
func (ix *ValueIndexer) Recorded(key PaintKey) map[interface{}]int {
	m := ix.indices[key]
	out := make(map[interface{}]int, len(m))
	for value, idx := range m {
		out[value] = idx
	}
	return out
}
