// Package state holds the shared status record every loop reads and writes.
// All access goes through narrow methods on Store; nothing ever sleeps while
// holding the lock, so a blocked watering cycle cannot stall readers.
package state

import (
	"sync"
	"time"

	"github.com/jdurham/plantwatch/internal/model"
)

const clockLayout = "15:04:05"

// Snapshot is a coherent copy of the whole record, shaped for the /data route
// and the dashboard template.
type Snapshot struct {
	MoistureRaw         int     `json:"moisture_raw"`
	MoisturePercent     int     `json:"moisture_percent"`
	TempC               float64 `json:"temp_c"`
	TempF               float64 `json:"temp_f"`
	Humidity            float64 `json:"humidity"`
	LastUpdate          string  `json:"last_update"`
	WeatherDesc         string  `json:"weather_desc"`
	WeatherRain         bool    `json:"weather_rain"`
	LastWater           string  `json:"last_water"`
	AutoWateringEnabled bool    `json:"auto_watering_enabled"`
	ArduinoConnected    bool    `json:"arduino_connected"`
}

type Store struct {
	mu  sync.RWMutex
	cal model.Calibration

	reading   model.SensorReading
	weather   model.WeatherSummary
	lastWater model.WateringEvent

	autoEnabled bool
	connected   bool
}

func New(cal model.Calibration) *Store {
	if cal.DryMax <= cal.WetMin {
		cal = model.DefaultCalibration
	}
	return &Store{
		cal:         cal,
		weather:     model.WeatherSummary{Description: "Fetching..."},
		autoEnabled: true,
	}
}

// ApplyReading replaces the sensor fields as one coherent unit, deriving
// Fahrenheit and the moisture percentage.
func (s *Store) ApplyReading(raw int, tempC, humidity float64, at time.Time) model.SensorReading {
	r := model.SensorReading{
		MoistureRaw:     raw,
		MoisturePercent: s.cal.MoisturePercent(raw),
		TempC:           tempC,
		TempF:           model.Fahrenheit(tempC),
		Humidity:        humidity,
		Timestamp:       at,
	}
	s.mu.Lock()
	s.reading = r
	s.mu.Unlock()
	return r
}

func (s *Store) Reading() model.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading
}

func (s *Store) SetConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Store) SetWeather(description string, rainLikely bool) {
	s.mu.Lock()
	s.weather = model.WeatherSummary{Description: description, RainLikely: rainLikely}
	s.mu.Unlock()
}

func (s *Store) Weather() model.WeatherSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weather
}

func (s *Store) RecordWatering(src model.Source, at time.Time) {
	s.mu.Lock()
	s.lastWater = model.WateringEvent{At: at, Source: src}
	s.mu.Unlock()
}

func (s *Store) LastWatering() model.WateringEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastWater
}

// ToggleAuto flips the auto-watering flag and returns the new value.
func (s *Store) ToggleAuto() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoEnabled = !s.autoEnabled
	return s.autoEnabled
}

func (s *Store) AutoEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoEnabled
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lastUpdate := "N/A"
	if !s.reading.Timestamp.IsZero() {
		lastUpdate = s.reading.Timestamp.Format(clockLayout)
	}
	lastWater := "N/A"
	if !s.lastWater.At.IsZero() {
		lastWater = s.lastWater.At.Format(clockLayout) + " - " + string(s.lastWater.Source)
	}

	return Snapshot{
		MoistureRaw:         s.reading.MoistureRaw,
		MoisturePercent:     s.reading.MoisturePercent,
		TempC:               s.reading.TempC,
		TempF:               s.reading.TempF,
		Humidity:            s.reading.Humidity,
		LastUpdate:          lastUpdate,
		WeatherDesc:         s.weather.Description,
		WeatherRain:         s.weather.RainLikely,
		LastWater:           lastWater,
		AutoWateringEnabled: s.autoEnabled,
		ArduinoConnected:    s.connected,
	}
}
