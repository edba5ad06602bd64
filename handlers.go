package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kwv/geolayers/layers"
)

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(state *layers.StateTracker) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			HasLayers bool      `json:"hasLayers"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			HasLayers: state.HasLayers(),
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// All converted layer sets
	mux.HandleFunc("/layers.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(state.GetAll()); err != nil {
			log.Printf("Error encoding layer sets: %v", err)
		}
	})

	// One source's layer set: /layers/{id}.json
	mux.HandleFunc("/layers/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/layers/")
		id = strings.TrimSuffix(id, ".json")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		set, ok := state.GetLayerSet(id)
		if !ok {
			http.Error(w, "Unknown source: "+id, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(set); err != nil {
			log.Printf("Error encoding layer set for %s: %v", id, err)
		}
	})

	// One-shot conversion: POST a trace, get its layer set back
	mux.HandleFunc("/convert", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16<<20))
		if err != nil {
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}

		trace, err := layers.DecodeTraceData(body)
		if err != nil {
			http.Error(w, "Invalid trace payload: "+err.Error(), http.StatusBadRequest)
			return
		}

		set := layers.Convert(trace, layers.OptionsForTrace(trace))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(set); err != nil {
			log.Printf("Error encoding converted layers: %v", err)
		}
	})

	// SVG preview of all tracked layer sets
	mux.HandleFunc("/preview.svg", func(w http.ResponseWriter, r *http.Request) {
		sets := layerSets(state)
		if len(sets) == 0 {
			http.Error(w, "No layers available", http.StatusServiceUnavailable)
			return
		}

		renderer := layers.NewPreviewRenderer(sets)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToSVG(w); err != nil {
			log.Printf("Error rendering preview SVG: %v", err)
		}
	})

	// PNG preview of all tracked layer sets
	mux.HandleFunc("/preview.png", func(w http.ResponseWriter, r *http.Request) {
		sets := layerSets(state)
		if len(sets) == 0 {
			http.Error(w, "No layers available", http.StatusServiceUnavailable)
			return
		}

		renderer := layers.NewPreviewRenderer(sets)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := renderer.RenderToPNG(w); err != nil {
			log.Printf("Error rendering preview PNG: %v", err)
		}
	})

	// Default route serves an HTML page embedding the SVG preview
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = io.WriteString(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>geolayers</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
html,body{width:100%;height:100%;overflow:hidden;background:#1a1a1a}
img{display:block;width:100vw;height:100vh;object-fit:contain}
</style>
</head>
<body>
<img src="/preview.svg" alt="Layer Preview">
</body>
</html>`)
	})

	// Wrap mux with logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}

// layerSets extracts the layer sets from the tracked source states
func layerSets(state *layers.StateTracker) map[string]*layers.LayerSet {
	sets := make(map[string]*layers.LayerSet)
	for id, s := range state.GetAll() {
		if s.Layers != nil {
			sets[id] = s.Layers
		}
	}
	return sets
}
