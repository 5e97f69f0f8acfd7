package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jdurham/plantwatch/internal/arduino"
	"github.com/jdurham/plantwatch/internal/metrics"
	"github.com/jdurham/plantwatch/internal/model"
)

const dashboardHTML = `<!DOCTYPE html>
<html>
<head><title>Plant Monitoring Dashboard</title></head>
<body>
<h1>Plant Monitoring Dashboard</h1>
{{if not .ArduinoConnected}}<div class="alert">Arduino not connected. Please check the USB connection and ensure the device has power.</div>{{end}}
<ul>
<li>Soil moisture: {{.MoisturePercent}}% (raw {{.MoistureRaw}})</li>
<li>Temperature: {{printf "%.1f" .TempC}} &deg;C / {{printf "%.1f" .TempF}} &deg;F</li>
<li>Humidity: {{printf "%.1f" .Humidity}}%</li>
<li>Last update: {{.LastUpdate}}</li>
<li>Weather: {{.WeatherDesc}}{{if .WeatherRain}} (rain delay active){{end}}</li>
<li>Last watering: {{.LastWater}}</li>
<li>Auto watering: {{if .AutoWateringEnabled}}enabled{{else}}disabled{{end}}</li>
</ul>
<form method="post" action="/water_manual"><button>Water now</button></form>
<form method="post" action="/toggle_auto"><button>Toggle auto watering</button></form>
</body>
</html>
`

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, snap); err != nil {
		log.Printf("web: render dashboard: %v", err)
	}
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleWaterManual(w http.ResponseWriter, r *http.Request) {
	log.Printf("web: manual watering requested")

	if err := s.sender.Send(arduino.CommandWater); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "Serial connection not available. Check Arduino power.",
		})
		return
	}

	s.store.RecordWatering(model.SourceManual, s.now())
	metrics.Waterings.WithLabelValues(string(model.SourceManual)).Inc()

	// Block until the pump cycle finishes so the caller gets feedback that
	// matches reality. Fine at this request volume.
	s.sleep(s.cfg.PumpDuration + s.cfg.PumpBuffer)

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Manual watering initiated.",
	})
}

func (s *Server) handleToggleAuto(w http.ResponseWriter, r *http.Request) {
	enabled := s.store.ToggleAuto()

	message := "Automatic watering DISABLED."
	if enabled {
		message = "Automatic watering ENABLED."
	}
	log.Printf("web: %s", message)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": message,
		"enabled": enabled,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}
