package layers

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// TraceHandler is called when a trace payload is received for a source.
// rawPayload is provided so callers can log or persist payloads that failed
// to decode.
type TraceHandler func(sourceID string, rawPayload []byte, trace *Trace, err error)

// MQTTClient manages the MQTT connection and the per-source trace
// subscriptions.
type MQTTClient struct {
	client       mqtt.Client
	config       *Config
	traceHandler TraceHandler
	isConnected  bool
	mu           sync.RWMutex
}

// InitMQTT initializes an MQTT client with the provided configuration.
// If neither the MQTT_BROKER env var nor config.MQTT.Broker is set, MQTT is
// disabled and this returns nil.
func InitMQTT(config *Config, handler TraceHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil || len(config.Sources) == 0 {
		return nil, fmt.Errorf("MQTT enabled but no trace sources configured")
	}

	client := &MQTTClient{
		config:       config,
		traceHandler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "geolayers"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // Preserve subscriptions on reconnect
	opts.SetOrderMatters(false) // Allow concurrent processing

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		log.Printf("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to every configured trace source topic
func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Println("MQTT connected, subscribing to trace topics...")
	c.setConnected(true)

	for _, source := range c.config.Sources {
		if source.Topic == "" {
			log.Printf("Warning: source %s has no topic configured", source.ID)
			continue
		}

		log.Printf("Subscribing to %s for source %s", source.Topic, source.ID)
		token := client.Subscribe(source.Topic, 0, c.createTraceHandler(source.ID))

		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("Error subscribing to %s: %v", source.Topic, token.Error())
		} else {
			log.Printf("Successfully subscribed to %s", source.Topic)
		}
	}
}

// onConnectionLost is called when the MQTT connection is lost.
// Auto-reconnect is enabled, so this is typically a transient event.
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

// onReconnecting is called when the client attempts to reconnect
func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("MQTT reconnecting...")
}

// createTraceHandler creates a handler for a specific source's trace topic
func (c *MQTTClient) createTraceHandler(sourceID string) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		log.Printf("Received trace for %s (topic: %s, size: %d bytes)",
			sourceID, msg.Topic(), len(payload))

		trace, err := DecodeTraceData(payload)
		if err != nil {
			log.Printf("Error decoding trace for %s: %v", sourceID, err)
			if c.traceHandler != nil {
				c.traceHandler(sourceID, payload, nil, err)
			}
			return
		}

		if c.traceHandler != nil {
			c.traceHandler(sourceID, payload, trace, nil)
		}
	}
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// setConnected updates the connection status
func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("Disconnecting from MQTT broker...")
		c.client.Disconnect(250) // 250ms quiesce time
		c.setConnected(false)
	}
}

// GetSourceByTopic returns the source ID for a given topic
func (c *MQTTClient) GetSourceByTopic(topic string) (string, bool) {
	for _, source := range c.config.Sources {
		if source.Topic == topic {
			return source.ID, true
		}
	}
	return "", false
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithMock creates an MQTTClient with a provided mqtt.Client.
// This is used for testing with mock clients.
func newMQTTClientWithMock(client mqtt.Client, config *Config, handler TraceHandler) *MQTTClient {
	return &MQTTClient{
		client:       client,
		config:       config,
		traceHandler: handler,
	}
}
