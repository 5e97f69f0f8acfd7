// Package web exposes the monitoring dashboard and the control routes.
package web

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdurham/plantwatch/internal/state"
)

// CommandSender is satisfied by *arduino.Link.
type CommandSender interface {
	Send(command string) error
}

type Config struct {
	PumpDuration time.Duration
	PumpBuffer   time.Duration
}

func (c *Config) applyDefaults() {
	if c.PumpDuration <= 0 {
		c.PumpDuration = 3 * time.Second
	}
	if c.PumpBuffer < 0 {
		c.PumpBuffer = 0
	}
}

type Server struct {
	store  *state.Store
	sender CommandSender
	cfg    Config
	tmpl   *template.Template
	now    func() time.Time

	// sleep is swapped out in tests so the manual-watering handler does not
	// actually block.
	sleep func(time.Duration)
}

func New(store *state.Store, sender CommandSender, cfg Config) *Server {
	cfg.applyDefaults()
	return &Server{
		store:  store,
		sender: sender,
		cfg:    cfg,
		tmpl:   template.Must(template.New("dashboard").Parse(dashboardHTML)),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Routes builds the router. The watering handler deliberately blocks for the
// pump cycle; net/http runs each request on its own goroutine, so that only
// delays the one caller.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	r.HandleFunc("/water_manual", s.handleWaterManual).Methods(http.MethodPost)
	r.HandleFunc("/toggle_auto", s.handleToggleAuto).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
