package layers

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DecodeTraceData decodes a trace payload from either format seen on the
// wire:
// - Raw JSON (starts with '{')
// - Zlib-compressed JSON
func DecodeTraceData(data []byte) (*Trace, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	jsonBytes := data
	if data[0] != '{' {
		inflated, err := inflateZlib(data)
		if err != nil {
			return nil, fmt.Errorf("unknown format: not JSON or zlib-compressed")
		}
		jsonBytes = inflated
	}

	if len(jsonBytes) == 0 {
		return nil, fmt.Errorf("decoded JSON payload is empty")
	}

	return ParseTraceJSON(jsonBytes)
}

// ParseTraceJSON parses trace JSON and applies defaults for absent fields.
func ParseTraceJSON(data []byte) (*Trace, error) {
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing trace JSON: %w", err)
	}
	applyTraceDefaults(&t)
	return &t, nil
}

// applyTraceDefaults fills in the defaults a bare trace omits: markers-only
// mode and full opacity. Visibility defaults are handled by Trace.IsVisible.
func applyTraceDefaults(t *Trace) {
	if t.Mode == "" {
		t.Mode = "markers"
	}
	if t.Line.Width == 0 && t.HasLines() {
		t.Line.Width = 2
	}
}

// DecodeTraceFile reads and decodes a trace file. Convenience for the
// one-shot CLI mode and tests.
func DecodeTraceFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return DecodeTraceData(data)
}

// inflateZlib decompresses zlib-compressed data
func inflateZlib(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating zlib reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("decompressing zlib data: %w", err)
	}

	return decompressed, nil
}
