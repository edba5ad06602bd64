package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kwv/geolayers/layers"
)

// app wires the trace ingest, conversion, and output surfaces together.
type app struct {
	config    *layers.Config
	state     *layers.StateTracker
	publisher *layers.Publisher
	mqtt      *layers.MQTTClient
}

func newApp(configPath string) (*app, error) {
	config, err := layers.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &app{
		config: config,
		state:  layers.NewStateTracker(),
	}, nil
}

// run starts the requested service modes and blocks until interrupted.
func (a *app) run(mqttMode, httpMode bool, portOverride int) error {
	if mqttMode {
		if err := a.startMQTT(); err != nil {
			return err
		}
	}

	if httpMode {
		port := a.config.HTTPPort
		if portOverride > 0 {
			port = portOverride
		}
		go a.serveHTTP(port)
	}

	// Block until SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Received %v, shutting down", sig)

	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}
	return nil
}

// startMQTT connects to the broker and registers the trace handler that
// converts and republishes each incoming trace.
func (a *app) startMQTT() error {
	client, err := layers.InitMQTT(a.config, a.handleTrace)
	if err != nil {
		return fmt.Errorf("initializing MQTT: %w", err)
	}
	if client == nil {
		return fmt.Errorf("MQTT mode requested but no broker configured")
	}

	a.mqtt = client
	a.publisher = layers.NewPublisher(client.GetClient())
	return nil
}

// handleTrace is the MQTT ingest callback: convert the trace, track it, and
// republish the layer set.
func (a *app) handleTrace(sourceID string, rawPayload []byte, trace *layers.Trace, err error) {
	if err != nil {
		log.Printf("Dropping undecodable trace for %s (%d bytes): %v", sourceID, len(rawPayload), err)
		return
	}

	set := layers.Convert(trace, layers.OptionsForTrace(trace))
	a.state.Update(sourceID, trace, set)

	if a.publisher != nil {
		if err := a.publisher.PublishLayerSet(sourceID, set); err != nil {
			log.Printf("Error publishing layers for %s: %v", sourceID, err)
		}
	}
}

// serveHTTP starts the HTTP server on the given port.
func (a *app) serveHTTP(port int) {
	addr := fmt.Sprintf(":%d", port)
	log.Printf("HTTP server listening on %s", addr)
	if err := http.ListenAndServe(addr, newHTTPServer(a.state)); err != nil {
		log.Printf("HTTP server stopped: %v", err)
	}
}
