package telemetry

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jdurham/plantwatch/internal/model"
)

// Publisher pushes parsed sensor readings to a topic as JSON, QoS 0: a lost
// sample is replaced by the next one a second later.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

func (p *Publisher) PublishReading(r model.SensorReading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("telemetry: marshal reading: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		log.Printf("telemetry: publish to %s failed: %v", p.topic, token.Error())
		return fmt.Errorf("telemetry: publish: %w", token.Error())
	}
	return nil
}
