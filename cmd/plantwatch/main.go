package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdurham/plantwatch/internal/arduino"
	"github.com/jdurham/plantwatch/internal/metrics"
	"github.com/jdurham/plantwatch/internal/model"
	"github.com/jdurham/plantwatch/internal/scheduler"
	"github.com/jdurham/plantwatch/internal/state"
	"github.com/jdurham/plantwatch/internal/telemetry"
	"github.com/jdurham/plantwatch/internal/weather"
	"github.com/jdurham/plantwatch/internal/web"
)

func main() {
	cfg := loadConfig(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := state.New(model.Calibration{WetMin: cfg.WetMin, DryMax: cfg.DryMax})
	link := &arduino.Link{}

	reader := arduino.NewReader(store, link, arduino.ReaderConfig{BaudRate: cfg.BaudRate})

	// The same watering path serves the HTTP route and the MQTT command
	// topic: send, record, then wait out the pump cycle.
	waterManually := func() error {
		if err := link.Send(arduino.CommandWater); err != nil {
			return err
		}
		store.RecordWatering(model.SourceManual, time.Now())
		metrics.Waterings.WithLabelValues(string(model.SourceManual)).Inc()
		time.Sleep(cfg.PumpDuration + cfg.PumpBuffer)
		return nil
	}

	var hooks []func(model.SensorReading)
	if cfg.Broker.Host != "" {
		client, err := telemetry.Connect(ctx, cfg.Broker)
		if err != nil {
			log.Printf("main: MQTT telemetry disabled: %v", err)
		} else {
			pub := telemetry.NewPublisher(client, cfg.ReadingsTopic)
			hooks = append(hooks, func(r model.SensorReading) {
				_ = pub.PublishReading(r)
			})
			consumer := telemetry.NewCommandConsumer(client, cfg.CommandTopic, waterManually)
			supervise(ctx, "mqtt-commands", consumer.Run)
		}
	}
	if cfg.Influx.URL != "" && cfg.Influx.Token != "" {
		recorder := telemetry.NewRecorder(cfg.Influx)
		defer recorder.Close()
		hooks = append(hooks, func(r model.SensorReading) {
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			recorder.WriteReading(wctx, r)
			cancel()
		})
	}
	if len(hooks) > 0 {
		reader.OnReading(func(r model.SensorReading) {
			for _, h := range hooks {
				h(r)
			}
		})
	}

	poller := weather.NewPoller(store, weather.NewClient(cfg.APIKey, cfg.City), weather.PollerConfig{
		Interval: cfg.WeatherInterval,
		Disabled: cfg.APIKey == placeholderAPIKey,
	})

	sched := scheduler.New(store, link, scheduler.Config{
		Interval:     cfg.SchedulerInterval,
		StartupDelay: cfg.StartupDelay,
		PumpDuration: cfg.PumpDuration,
		PumpBuffer:   cfg.PumpBuffer,
		Threshold:    cfg.MoistureThreshold,
	})

	supervise(ctx, "sensor-reader", reader.Run)
	supervise(ctx, "weather-poller", poller.Run)
	supervise(ctx, "watering-scheduler", sched.Run)

	srv := web.New(store, link, web.Config{
		PumpDuration: cfg.PumpDuration,
		PumpBuffer:   cfg.PumpBuffer,
	})
	hs := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shCtx)
	}()

	log.Printf("plantwatch listening on %s", hs.Addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server: %v", err)
	}
}

// supervise runs a loop in its own goroutine and restarts it if it panics,
// until the context is cancelled.
func supervise(ctx context.Context, name string, run func(context.Context)) {
	go func() {
		for ctx.Err() == nil {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("%s: panic: %v, restarting", name, r)
					}
				}()
				run(ctx)
			}()
			if ctx.Err() == nil {
				time.Sleep(time.Second)
			}
		}
	}()
}
