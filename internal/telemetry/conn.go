// Package telemetry is the optional MQTT/InfluxDB side channel: readings go
// out to a broker and a time-series bucket, and a command topic can trigger
// watering remotely. Everything here is off unless configured.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type BrokerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

// Connect dials the MQTT broker with exponential-backoff retries and returns
// a connected client. The client disconnects when ctx is cancelled.
func Connect(ctx context.Context, cfg BrokerConfig) (mqtt.Client, error) {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(addr)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("telemetry: broker connect failed: %v", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		return nil, fmt.Errorf("telemetry: connect to %s: %w", addr, err)
	}
	log.Printf("telemetry: connected to MQTT broker at %s", addr)

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
		log.Printf("telemetry: MQTT connection closed")
	}()

	return client, nil
}
