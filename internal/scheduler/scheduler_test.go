package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jdurham/plantwatch/internal/model"
	"github.com/jdurham/plantwatch/internal/state"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(command string) error {
	f.sent = append(f.sent, command)
	return f.err
}

func testConfig() Config {
	return Config{
		Interval:     time.Minute,
		StartupDelay: time.Millisecond,
		PumpDuration: time.Millisecond,
		PumpBuffer:   0,
		Threshold:    500,
	}
}

func newTestScheduler(sender *fakeSender) (*Scheduler, *state.Store) {
	store := state.New(model.DefaultCalibration)
	s := New(store, sender, testConfig())
	return s, store
}

func TestEvaluateDryNoRainWatersOnce(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestScheduler(sender)
	store.ApplyReading(600, 25, 40, time.Now())
	store.SetWeather("Clear sky", false)

	s.evaluate(context.Background())

	if len(sender.sent) != 1 || sender.sent[0] != "WET" {
		t.Fatalf("sent = %v, want exactly one WET command", sender.sent)
	}
	ev := store.LastWatering()
	if ev.Source != model.SourceAuto {
		t.Errorf("watering source = %q, want AUTO", ev.Source)
	}
	if ev.At.IsZero() {
		t.Error("watering time not recorded")
	}
}

func TestEvaluateDryWithRainDelaySkips(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestScheduler(sender)
	store.ApplyReading(600, 25, 40, time.Now())
	store.SetWeather("Light rain", true)

	s.evaluate(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want no commands under rain delay", sender.sent)
	}
	if !store.LastWatering().At.IsZero() {
		t.Error("watering history must not change when skipped")
	}
}

func TestEvaluateWetSoilDoesNothing(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestScheduler(sender)
	store.ApplyReading(400, 25, 40, time.Now())
	store.SetWeather("Clear sky", false)

	s.evaluate(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want no commands for wet soil", sender.sent)
	}
}

func TestEvaluateThresholdIsExclusive(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestScheduler(sender)
	// Exactly at the threshold is not dry.
	store.ApplyReading(500, 25, 40, time.Now())
	store.SetWeather("Clear sky", false)

	s.evaluate(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, raw==threshold must not trigger", sender.sent)
	}
}

func TestEvaluateDisabledDoesNothing(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestScheduler(sender)
	store.ApplyReading(600, 25, 40, time.Now())
	store.SetWeather("Clear sky", false)
	store.ToggleAuto() // disable

	s.evaluate(context.Background())

	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want no commands while disabled", sender.sent)
	}
}

func TestEvaluateSendFailureLeavesHistoryAlone(t *testing.T) {
	sender := &fakeSender{err: errors.New("not open")}
	s, store := newTestScheduler(sender)
	store.ApplyReading(600, 25, 40, time.Now())
	store.SetWeather("Clear sky", false)

	s.evaluate(context.Background())

	if !store.LastWatering().At.IsZero() {
		t.Error("failed send must not record a watering")
	}
}
