package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kwv/geolayers/layers"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	convertFile = flag.String("convert", "", "Convert a single trace JSON file and exit")
	outputFile  = flag.String("output", "", "Output file for --convert mode (default stdout)")
	previewFile = flag.String("preview", "", "Write an SVG preview of the converted trace (with --convert)")
	mqttMode    = flag.Bool("mqtt", false, "Run MQTT service mode: subscribe to trace topics, publish layers")
	httpMode    = flag.Bool("http", false, "Enable HTTP server for serving converted layers")
	httpPort    = flag.Int("http-port", 0, "HTTP server port (overrides config)")
)

func main() {
	flag.Parse()
	fmt.Printf("geolayers version: %s\n", Version)

	if *convertFile != "" {
		runConvert()
		return
	}

	if !*mqttMode && !*httpMode {
		fmt.Println("Nothing to do: pass -convert FILE, -mqtt, or -http")
		flag.Usage()
		os.Exit(1)
	}

	app, err := newApp(*configFile)
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	if err := app.run(*mqttMode, *httpMode, *httpPort); err != nil {
		log.Fatalf("Service failed: %v", err)
	}
}

// runConvert handles the one-shot CLI mode: read one trace file, convert it,
// write the layer set as JSON.
func runConvert() {
	trace, err := layers.DecodeTraceFile(*convertFile)
	if err != nil {
		log.Fatalf("Error decoding trace: %v", err)
	}

	set := layers.Convert(trace, layers.OptionsForTrace(trace))

	payload, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling layer set: %v", err)
	}

	if *outputFile == "" {
		fmt.Println(string(payload))
	} else {
		if err := os.WriteFile(*outputFile, payload, 0644); err != nil {
			log.Fatalf("Error writing %s: %v", *outputFile, err)
		}
		log.Printf("Wrote %s (%d bytes)", *outputFile, len(payload))
	}

	if *previewFile != "" {
		f, err := os.Create(*previewFile)
		if err != nil {
			log.Fatalf("Error creating %s: %v", *previewFile, err)
		}
		defer f.Close()

		renderer := layers.NewPreviewRenderer(map[string]*layers.LayerSet{"trace": set})
		if err := renderer.RenderToSVG(f); err != nil {
			log.Fatalf("Error rendering preview: %v", err)
		}
		log.Printf("Wrote preview %s", *previewFile)
	}
}
