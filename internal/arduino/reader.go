package arduino

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jdurham/plantwatch/internal/metrics"
	"github.com/jdurham/plantwatch/internal/model"
	"github.com/jdurham/plantwatch/internal/state"
)

type ReaderConfig struct {
	BaudRate     int           // serial speed, default 9600
	PollInterval time.Duration // cadence of read polls while connected
	SettleDelay  time.Duration // wait after open; the board resets on DTR
	ScanRetry    time.Duration // wait between scans when no device is found
	OpenRetry    time.Duration // wait after a failed open
}

func (c *ReaderConfig) applyDefaults() {
	if c.BaudRate <= 0 {
		c.BaudRate = 9600
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.ScanRetry <= 0 {
		c.ScanRetry = 10 * time.Second
	}
	if c.OpenRetry <= 0 {
		c.OpenRetry = 5 * time.Second
	}
}

// Reader drives the serial connection lifecycle: locate the device, open it,
// parse sensor lines into the store, and start over on any I/O error. While no
// device is present it feeds the store synthetic readings so the web layer and
// the scheduler keep working.
type Reader struct {
	store *state.Store
	link  *Link
	cfg   ReaderConfig

	locate func() (string, bool)
	open   func(path string, baudRate int) (Port, error)

	onReading func(model.SensorReading)
	rng       *rand.Rand
}

func NewReader(store *state.Store, link *Link, cfg ReaderConfig) *Reader {
	cfg.applyDefaults()
	return &Reader{
		store:  store,
		link:   link,
		cfg:    cfg,
		locate: FindPort,
		open:   openPort,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OnReading registers a hook invoked for every successfully parsed reading.
// Telemetry publishing hangs off this. Must be set before Run.
func (r *Reader) OnReading(fn func(model.SensorReading)) {
	r.onReading = fn
}

func (r *Reader) Run(ctx context.Context) {
	for ctx.Err() == nil {
		port, ok := r.connect(ctx)
		if !ok {
			return
		}
		r.readLoop(ctx, port)
	}
}

// connect loops in the disconnected state until a device is opened or the
// context is cancelled.
func (r *Reader) connect(ctx context.Context) (Port, bool) {
	for ctx.Err() == nil {
		path, found := r.locate()
		if !found {
			log.Printf("arduino: device not found, using simulated data; rescanning in %s", r.cfg.ScanRetry)
			r.store.SetConnected(false)
			r.synthesize()
			sleepCtx(ctx, r.cfg.ScanRetry)
			continue
		}

		port, err := r.open(path, r.cfg.BaudRate)
		if err != nil {
			log.Printf("arduino: could not open %s: %v; retrying in %s", path, err, r.cfg.OpenRetry)
			r.store.SetConnected(false)
			sleepCtx(ctx, r.cfg.OpenRetry)
			continue
		}

		// The board reboots when the port opens; give it time, then drop
		// whatever partial output accumulated.
		sleepCtx(ctx, r.cfg.SettleDelay)
		if err := port.ResetInputBuffer(); err != nil {
			log.Printf("arduino: flush after open failed: %v", err)
		}

		r.link.attach(port)
		r.store.SetConnected(true)
		log.Printf("arduino: serial connection established on %s", path)
		return port, true
	}
	return nil, false
}

// readLoop consumes the port until an I/O error or cancellation, then tears
// the connection down so connect starts over.
func (r *Reader) readLoop(ctx context.Context, port Port) {
	defer r.teardown()

	if err := port.SetReadTimeout(r.cfg.PollInterval); err != nil {
		log.Printf("arduino: set read timeout: %v", err)
		return
	}

	buf := make([]byte, 256)
	var line []byte
	for ctx.Err() == nil {
		n, err := port.Read(buf)
		if err != nil {
			log.Printf("arduino: read error (%v), connection lost; re-scanning", err)
			return
		}
		if n == 0 {
			continue // read timeout tick, nothing buffered
		}
		for _, b := range buf[:n] {
			switch b {
			case '\n':
				r.handleLine(string(line))
				line = line[:0]
			case '\r':
			default:
				line = append(line, b)
			}
		}
	}
}

func (r *Reader) teardown() {
	if p := r.link.detach(); p != nil {
		_ = p.Close()
	}
	r.store.SetConnected(false)
}

// handleLine parses one "raw,tempC,humidity" sample. Malformed lines are
// dropped without touching the store; the counter is the only trace they
// leave.
func (r *Reader) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		metrics.SensorLinesMalformed.Inc()
		return false
	}
	raw, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		metrics.SensorLinesMalformed.Inc()
		return false
	}
	tempC, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		metrics.SensorLinesMalformed.Inc()
		return false
	}
	humidity, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		metrics.SensorLinesMalformed.Inc()
		return false
	}

	reading := r.store.ApplyReading(raw, tempC, humidity, time.Now())
	metrics.SensorLinesParsed.Inc()
	metrics.MoisturePercent.Set(float64(reading.MoisturePercent))
	if r.onReading != nil {
		r.onReading(reading)
	}
	return true
}

// synthesize writes one plausible reading so dashboards and the decision loop
// have something to chew on while the hardware is absent.
func (r *Reader) synthesize() {
	// Bounds mirror what the real probe reports in a living room.
	raw := 400 + r.rng.Intn(301)
	tempC := 18 + r.rng.Float64()*10
	humidity := 30 + r.rng.Float64()*30
	reading := r.store.ApplyReading(raw, tempC, humidity, time.Now())
	metrics.MoisturePercent.Set(float64(reading.MoisturePercent))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
