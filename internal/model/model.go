package model

import (
	"math"
	"time"
)

// Source indicates what triggered a watering event.
type Source string

const (
	SourceManual Source = "MANUAL"
	SourceAuto   Source = "AUTO"
)

// SensorReading is one parsed sample from the soil probe.
type SensorReading struct {
	MoistureRaw     int       `json:"moisture_raw"`     // raw ADC value, lower = wetter
	MoisturePercent int       `json:"moisture_percent"` // 0..100, higher = wetter
	TempC           float64   `json:"temp_c"`
	TempF           float64   `json:"temp_f"`
	Humidity        float64   `json:"humidity"`
	Timestamp       time.Time `json:"timestamp"`
}

// WeatherSummary is the latest report from the weather provider.
type WeatherSummary struct {
	Description string `json:"description"`
	RainLikely  bool   `json:"rain_likely"`
}

// WateringEvent records the last time the pump ran and why.
type WateringEvent struct {
	At     time.Time `json:"at"`
	Source Source    `json:"source"`
}

// Calibration holds the raw-value bounds measured for the moisture probe
// (sensor in water / sensor in air).
type Calibration struct {
	WetMin int
	DryMax int
}

// DefaultCalibration matches the shipped capacitive probe.
var DefaultCalibration = Calibration{WetMin: 300, DryMax: 650}

// MoisturePercent converts a raw probe value into a 0..100 percentage where
// higher means wetter. Raw values are clamped to the calibration bounds first,
// so noise outside the range still maps into [0,100].
func (c Calibration) MoisturePercent(raw int) int {
	span := c.DryMax - c.WetMin
	if span <= 0 {
		return 0
	}
	clamped := raw
	if clamped < c.WetMin {
		clamped = c.WetMin
	}
	if clamped > c.DryMax {
		clamped = c.DryMax
	}
	pct := 100 - int(math.Round(float64(clamped-c.WetMin)/float64(span)*100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Fahrenheit converts a Celsius temperature.
func Fahrenheit(c float64) float64 {
	return c*9/5 + 32
}
