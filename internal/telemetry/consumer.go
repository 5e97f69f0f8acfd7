package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jdurham/plantwatch/pkg/dedup"
)

// CommandConsumer subscribes to a command topic and triggers watering when a
// message arrives. Subscribed at QoS 1, so broker redeliveries of the same
// packet are possible; those are filtered out by delivery id.
type CommandConsumer struct {
	client  mqtt.Client
	topic   string
	trigger func() error
	deduper *dedup.Deduper
}

func NewCommandConsumer(client mqtt.Client, topic string, trigger func() error) *CommandConsumer {
	return &CommandConsumer{
		client:  client,
		topic:   topic,
		trigger: trigger,
		deduper: dedup.New(time.Minute, 1024),
	}
}

// Run subscribes and blocks until ctx is cancelled.
func (c *CommandConsumer) Run(ctx context.Context) {
	token := c.client.Subscribe(c.topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		c.handle(msg)
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("telemetry: subscribe to %s failed: %v", c.topic, token.Error())
		return
	}
	log.Printf("telemetry: listening for watering commands on %s", c.topic)

	<-ctx.Done()
	c.client.Unsubscribe(c.topic).Wait()
}

func (c *CommandConsumer) handle(msg mqtt.Message) {
	// Redeliveries reuse the packet id; fresh publishes get a new one.
	if c.deduper.Seen(deliveryID(msg)) {
		log.Printf("telemetry: dropping redelivered command %d", msg.MessageID())
		return
	}

	log.Printf("telemetry: remote watering command received on %s", msg.Topic())
	if err := c.trigger(); err != nil {
		log.Printf("telemetry: remote watering failed: %v", err)
	}
}

func deliveryID(msg mqtt.Message) string {
	return fmt.Sprintf("%s/%d", msg.Topic(), msg.MessageID())
}
