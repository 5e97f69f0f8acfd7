package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
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

func newTestServer(sender *fakeSender) (*Server, *state.Store) {
	store := state.New(model.DefaultCalibration)
	s := New(store, sender, Config{PumpDuration: time.Millisecond, PumpBuffer: 0})
	s.sleep = func(time.Duration) {}
	return s, store
}

func TestDataRoute(t *testing.T) {
	s, store := newTestServer(&fakeSender{})
	store.ApplyReading(475, 25, 40, time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC))
	store.SetWeather("Clear sky", false)
	store.SetConnected(true)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{
		"moisture_raw", "moisture_percent", "temp_c", "temp_f", "humidity",
		"last_update", "weather_desc", "weather_rain", "last_water",
		"auto_watering_enabled", "arduino_connected",
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("response missing key %q", key)
		}
	}
	if got["moisture_raw"].(float64) != 475 {
		t.Errorf("moisture_raw = %v, want 475", got["moisture_raw"])
	}
	if got["arduino_connected"] != true {
		t.Error("arduino_connected should be true")
	}
}

func TestDashboardWarnsWhenDisconnected(t *testing.T) {
	s, _ := newTestServer(&fakeSender{})

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even while disconnected", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Plant Monitoring Dashboard") {
		t.Error("dashboard title missing")
	}
	if !strings.Contains(body, "Arduino not connected") {
		t.Error("connectivity warning missing while disconnected")
	}
}

func TestDashboardNoWarningWhenConnected(t *testing.T) {
	s, store := newTestServer(&fakeSender{})
	store.SetConnected(true)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Contains(rec.Body.String(), "Arduino not connected") {
		t.Error("warning shown despite connected device")
	}
}

func TestWaterManualSuccess(t *testing.T) {
	sender := &fakeSender{}
	s, store := newTestServer(sender)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/water_manual", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "WET" {
		t.Errorf("sent = %v, want one WET command", sender.sent)
	}
	ev := store.LastWatering()
	if ev.Source != model.SourceManual {
		t.Errorf("watering source = %q, want MANUAL", ev.Source)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("status field = %q, want success", resp["status"])
	}
}

func TestWaterManualFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("not open")}
	s, store := newTestServer(sender)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/water_manual", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !store.LastWatering().At.IsZero() {
		t.Error("failed send must not update watering history")
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("status field = %q, want error", resp["status"])
	}
}

func TestToggleAuto(t *testing.T) {
	s, store := newTestServer(&fakeSender{})
	initial := store.AutoEnabled()

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle_auto", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Enabled == initial {
		t.Error("enabled should flip")
	}
	if resp.Enabled != store.AutoEnabled() {
		t.Error("response disagrees with store")
	}
	if !strings.Contains(resp.Message, "DISABLED") {
		t.Errorf("message = %q, want DISABLED notice after first toggle", resp.Message)
	}

	// Second toggle returns to the initial value.
	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/toggle_auto", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Enabled != initial {
		t.Error("second toggle should restore the original value")
	}
}

func TestMethodRestrictions(t *testing.T) {
	s, _ := newTestServer(&fakeSender{})
	r := s.Routes()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/water_manual", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /water_manual = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/data", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /data = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(&fakeSender{})

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}
