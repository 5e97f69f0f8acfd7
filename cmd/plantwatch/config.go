package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jdurham/plantwatch/internal/telemetry"
)

// placeholderAPIKey disables weather polling until a real key is supplied.
const placeholderAPIKey = "YOUR_OPENWEATHERMAP_API_KEY"

type Config struct {
	Port   int
	APIKey string
	City   string

	BaudRate          int
	WetMin            int
	DryMax            int
	MoistureThreshold int

	PumpDuration      time.Duration
	PumpBuffer        time.Duration
	WeatherInterval   time.Duration
	SchedulerInterval time.Duration
	StartupDelay      time.Duration

	// Optional side channels; empty host/URL leaves them off.
	Broker        telemetry.BrokerConfig
	ReadingsTopic string
	CommandTopic  string
	Influx        telemetry.InfluxConfig
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// loadConfig reads the environment (plus an optional .env file) and lets
// positional arguments override the API key and city, matching the
// `plantwatch <apiKey> <city>` contract of the install script.
func loadConfig(args []string) Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:   envInt("PORT", 5000),
		APIKey: envStr("OWM_API_KEY", placeholderAPIKey),
		City:   envStr("CITY_NAME", "London"),

		BaudRate:          envInt("BAUD_RATE", 9600),
		WetMin:            envInt("WET_VALUE_MIN", 300),
		DryMax:            envInt("DRY_VALUE_MAX", 650),
		MoistureThreshold: envInt("MOISTURE_THRESHOLD", 500),

		PumpDuration:      envDur("WATERING_DURATION", 3*time.Second),
		PumpBuffer:        envDur("WATERING_BUFFER", time.Second),
		WeatherInterval:   envDur("WEATHER_INTERVAL", time.Hour),
		SchedulerInterval: envDur("SCHEDULER_INTERVAL", time.Minute),
		StartupDelay:      envDur("SCHEDULER_STARTUP_DELAY", 15*time.Second),

		Broker: telemetry.BrokerConfig{
			Host:     envStr("MQTT_HOST", ""),
			Port:     envInt("MQTT_PORT", 1883),
			User:     envStr("MQTT_USER", ""),
			Password: os.Getenv("MQTT_PASSWORD"),
			ClientID: envStr("MQTT_CLIENT_ID", "plantwatch"),
		},
		ReadingsTopic: envStr("MQTT_READINGS_TOPIC", "plantwatch/readings"),
		CommandTopic:  envStr("MQTT_COMMAND_TOPIC", "plantwatch/cmd/water"),

		Influx: telemetry.InfluxConfig{
			URL:         envStr("INFLUX_URL", ""),
			Token:       os.Getenv("INFLUX_TOKEN"),
			Org:         envStr("INFLUX_ORG", "home"),
			Bucket:      envStr("INFLUX_BUCKET", "plants"),
			Measurement: envStr("INFLUX_MEASUREMENT", "plant_conditions"),
		},
	}

	switch {
	case len(args) >= 2:
		cfg.APIKey = args[0]
		cfg.City = args[1]
		log.Printf("config: API key loaded from command line, city set to %s", cfg.City)
	case len(args) == 1:
		cfg.APIKey = args[0]
		log.Printf("config: only API key provided, using default city %s", cfg.City)
	default:
		if cfg.APIKey == placeholderAPIKey {
			log.Printf("config: no API key configured, weather polling disabled")
		}
	}

	return cfg
}
