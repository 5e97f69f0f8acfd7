// Package dedup drops duplicate message deliveries. MQTT QoS 1 may redeliver
// a command the broker thinks we missed; watering twice because of a
// redelivery is exactly what this prevents.
package dedup

import (
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	cap  int
	seen map[string]time.Time // id -> expiry
}

func New(ttl time.Duration, cap int) *Deduper {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if cap <= 0 {
		cap = 1024
	}
	return &Deduper{ttl: ttl, cap: cap, seen: make(map[string]time.Time, cap)}
}

// Seen records id and reports whether it was already seen within the TTL.
// An empty id is never considered a duplicate.
func (d *Deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return true
	}
	d.seen[id] = now.Add(d.ttl)
	if len(d.seen) > d.cap {
		d.prune(now)
	}
	return false
}

// prune evicts expired entries; called with the lock held.
func (d *Deduper) prune(now time.Time) {
	for id, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, id)
		}
		if len(d.seen) <= d.cap {
			return
		}
	}
}
