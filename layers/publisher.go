package layers

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes converted layer sets to MQTT for map frontends.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	sets          map[string]*LayerSet
	mu            sync.RWMutex
}

// NewPublisher creates a new layer-set publisher.
// If client is nil, publishing is disabled (for testing).
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "geolayers"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // Retain so frontends get the latest layers on subscribe
		sets:          make(map[string]*LayerSet),
	}
}

// PublishLayerSet publishes one source's converted layers to MQTT.
// Publishes to both the individual topic and the combined topic.
func (p *Publisher) PublishLayerSet(sourceID string, set *LayerSet) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	p.mu.Lock()
	p.sets[sourceID] = set
	p.mu.Unlock()

	// Publish to individual topic: geolayers/{sourceID}/layers
	if err := p.publishIndividual(sourceID, set); err != nil {
		log.Printf("Error publishing layers for %s: %v", sourceID, err)
		return err
	}

	// Publish to combined topic: geolayers/layers
	if err := p.publishCombined(); err != nil {
		log.Printf("Error publishing combined layers: %v", err)
		return err
	}

	return nil
}

// publishIndividual publishes a single source's layer set to its own topic
func (p *Publisher) publishIndividual(sourceID string, set *LayerSet) error {
	topic := fmt.Sprintf("%s/%s/layers", p.publishPrefix, sourceID)

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling layer set: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("Published layers for %s (%d bytes)", sourceID, len(payload))
	return nil
}

// publishCombined publishes all known layer sets to the combined topic
func (p *Publisher) publishCombined() error {
	p.mu.RLock()
	sets := make(map[string]*LayerSet, len(p.sets))
	for id, set := range p.sets {
		sets[id] = set
	}
	p.mu.RUnlock()

	if len(sets) == 0 {
		return nil
	}

	topic := fmt.Sprintf("%s/layers", p.publishPrefix)

	message := map[string]interface{}{
		"sources":   sets,
		"timestamp": time.Now().Unix(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined layers: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	return nil
}

// GetLayerSet returns the last published layer set for a source
func (p *Publisher) GetLayerSet(sourceID string) (*LayerSet, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set, ok := p.sets[sourceID]
	return set, ok
}

// ClearLayerSet removes a source's layer set (e.g., when its trace is withdrawn)
func (p *Publisher) ClearLayerSet(sourceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sets, sourceID)
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
