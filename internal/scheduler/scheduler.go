// Package scheduler runs the automatic watering decision loop.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/jdurham/plantwatch/internal/arduino"
	"github.com/jdurham/plantwatch/internal/metrics"
	"github.com/jdurham/plantwatch/internal/model"
	"github.com/jdurham/plantwatch/internal/state"
)

// CommandSender is satisfied by *arduino.Link.
type CommandSender interface {
	Send(command string) error
}

type Config struct {
	Interval     time.Duration // evaluation cadence, default 1m
	StartupDelay time.Duration // settle time before the first evaluation
	PumpDuration time.Duration // how long the pump runs per activation
	PumpBuffer   time.Duration // extra wait after the pump stops
	Threshold    int           // raw moisture above this counts as dry
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.StartupDelay <= 0 {
		c.StartupDelay = 15 * time.Second
	}
	if c.PumpDuration <= 0 {
		c.PumpDuration = 3 * time.Second
	}
	if c.PumpBuffer < 0 {
		c.PumpBuffer = 0
	}
	if c.Threshold <= 0 {
		c.Threshold = 500
	}
}

// Scheduler evaluates the dryness and rain-delay conditions every cycle and
// fires the pump at most once per cycle. After a successful activation it
// blocks for the pump duration plus a buffer so a still-draining reading
// cannot re-trigger the pump mid-cycle.
type Scheduler struct {
	store  *state.Store
	sender CommandSender
	cfg    Config
	now    func() time.Time
}

func New(store *state.Store, sender CommandSender, cfg Config) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		store:  store,
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	sleepCtx(ctx, s.cfg.StartupDelay)
	for ctx.Err() == nil {
		s.evaluate(ctx)
		sleepCtx(ctx, s.cfg.Interval)
	}
}

func (s *Scheduler) evaluate(ctx context.Context) {
	if !s.store.AutoEnabled() {
		return
	}

	raw := s.store.Reading().MoistureRaw
	dry := raw > s.cfg.Threshold
	weather := s.store.Weather()

	switch {
	case dry && weather.RainLikely:
		log.Printf("scheduler: soil is dry (raw=%d) but weather is %q, rain delay active", raw, weather.Description)
	case dry:
		log.Printf("scheduler: auto watering triggered, raw=%d above threshold %d", raw, s.cfg.Threshold)
		if err := s.sender.Send(arduino.CommandWater); err != nil {
			log.Printf("scheduler: watering command failed: %v", err)
			return
		}
		s.store.RecordWatering(model.SourceAuto, s.now())
		metrics.Waterings.WithLabelValues(string(model.SourceAuto)).Inc()
		// Let the pump cycle finish before evaluating again.
		sleepCtx(ctx, s.cfg.PumpDuration+s.cfg.PumpBuffer)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
