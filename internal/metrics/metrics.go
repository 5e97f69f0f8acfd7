// Package metrics exposes the Prometheus instruments shared by the loops.
// The original behavior of silently dropping malformed input is kept, but the
// drops are counted so they show up on /metrics instead of vanishing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SensorLinesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantwatch_sensor_lines_parsed_total",
		Help: "Sensor lines successfully parsed from the serial link.",
	})

	SensorLinesMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantwatch_sensor_lines_malformed_total",
		Help: "Sensor lines dropped because they failed to parse.",
	})

	WeatherPollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plantwatch_weather_poll_failures_total",
		Help: "Weather poll cycles that exhausted retries or failed to parse.",
	})

	Waterings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plantwatch_waterings_total",
		Help: "Watering commands successfully sent, by trigger source.",
	}, []string{"source"})

	MoisturePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "plantwatch_moisture_percent",
		Help: "Latest derived soil moisture percentage (100 = wet).",
	})
)
