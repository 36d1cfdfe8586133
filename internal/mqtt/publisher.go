// Package mqtt republishes readings and hourly measurements to an MQTT
// broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/room-climate/internal/climate"
)

// Config holds broker settings.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
}

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher implements climate.Observer. Publishing never waits on the
// broker.
type Publisher struct {
	client client
	conn   paho.Client
	topic  string
}

// Connect dials the broker and returns a Publisher.
func Connect(cfg Config) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("INFO: mqtt: broker %s not reachable yet; retrying in background", cfg.Broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}

	p := newPublisher(c, cfg.Topic)
	p.conn = c
	return p, nil
}

func newPublisher(c client, topic string) *Publisher {
	return &Publisher{client: c, topic: topic}
}

// OnReading publishes a live reading.
func (p *Publisher) OnReading(r climate.Reading) {
	p.publish(p.topic+"/reading", false, r)
}

// OnHourly publishes a new hourly measurement as a retained message.
func (p *Publisher) OnHourly(m climate.HourlyMeasurement) {
	p.publish(p.topic+"/hourly", true, m)
}

// PublishLatest republishes r as the retained latest reading.
func (p *Publisher) PublishLatest(r climate.Reading) {
	p.publish(p.topic+"/latest", true, r)
}

func (p *Publisher) publish(topic string, retained bool, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: mqtt: marshal %s payload: %v", topic, err)
		return
	}

	token := p.client.Publish(topic, 0, retained, payload)
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("ERROR: mqtt: publish to %s: %v", topic, token.Error())
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Disconnect(250)
	}
}
