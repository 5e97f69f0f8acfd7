package weather

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/jdurham/plantwatch/internal/metrics"
	"github.com/jdurham/plantwatch/internal/state"
)

// Source is what the poller polls. Client satisfies it; tests substitute
// fakes.
type Source interface {
	Current(ctx context.Context) (Report, error)
}

type PollerConfig struct {
	Interval   time.Duration // default 1h
	MaxRetries uint64        // attempts per cycle, default 5
	RetryBase  time.Duration // first backoff delay, default 1s
	Disabled   bool          // placeholder API key: never call out
}

func (c *PollerConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
}

// Poller refreshes the shared weather summary on a fixed interval. Network
// and non-2xx failures are retried with exponential backoff up to the attempt
// cap; a response that fails to parse aborts the cycle immediately. Calls run
// through a circuit breaker so a dead upstream stops burning retries.
type Poller struct {
	store   *state.Store
	src     Source
	cfg     PollerConfig
	breaker *gobreaker.CircuitBreaker
}

func NewPoller(store *state.Store, src Source, cfg PollerConfig) *Poller {
	cfg.applyDefaults()
	return &Poller{
		store: store,
		src:   src,
		cfg:   cfg,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openweathermap",
			Timeout: 5 * time.Minute,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (p *Poller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		p.poll(ctx)
		sleepCtx(ctx, p.cfg.Interval)
	}
}

func (p *Poller) poll(ctx context.Context) {
	if p.cfg.Disabled {
		log.Printf("weather: API key placeholder detected, skipping poll")
		return
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.RetryBase
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	var report Report
	attempt := func() error {
		res, err := p.breaker.Execute(func() (any, error) {
			return p.src.Current(ctx)
		})
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				// Same body next time; do not retry this cycle.
				return backoff.Permanent(err)
			}
			return err
		}
		report = res.(Report)
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, p.cfg.MaxRetries-1), ctx))
	if err != nil {
		metrics.WeatherPollFailures.Inc()
		log.Printf("weather: poll failed, keeping previous summary: %v", err)
		return
	}

	rain := report.RainLikely()
	p.store.SetWeather(report.Description, rain)
	log.Printf("weather: %s (condition %d, rain=%v)", report.Description, report.ConditionID, rain)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
