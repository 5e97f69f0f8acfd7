package telemetry

import (
	"context"
	"log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/jdurham/plantwatch/internal/model"
)

type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// Recorder writes each parsed reading to InfluxDB. Writes are blocking and
// happen from the reading hook; one sample per second is nothing.
type Recorder struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPIBlocking
	measurement string
}

func NewRecorder(cfg InfluxConfig) *Recorder {
	if cfg.Measurement == "" {
		cfg.Measurement = "plant_conditions"
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Recorder{
		client:      client,
		writeAPI:    client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		measurement: cfg.Measurement,
	}
}

func (r *Recorder) WriteReading(ctx context.Context, reading model.SensorReading) {
	point := influxdb2.NewPoint(
		r.measurement,
		map[string]string{"source": "arduino"},
		map[string]interface{}{
			"moisture_raw":     reading.MoistureRaw,
			"moisture_percent": reading.MoisturePercent,
			"temp_c":           reading.TempC,
			"humidity":         reading.Humidity,
		},
		reading.Timestamp,
	)
	if err := r.writeAPI.WritePoint(ctx, point); err != nil {
		log.Printf("telemetry: influx write failed: %v", err)
	}
}

func (r *Recorder) Close() {
	r.client.Close()
}
