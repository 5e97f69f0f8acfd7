package arduino

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrNotOpen is returned by Send when no serial connection is established.
// Callers treat it as a normal condition: the device may simply be unplugged.
var ErrNotOpen = errors.New("arduino: serial connection not open")

// Link hands out write access to the currently open port. The reader loop is
// the only component that attaches and detaches ports; everyone else just
// sends through whatever is open right now.
type Link struct {
	mu   sync.Mutex
	port Port
}

func (l *Link) attach(p Port) {
	l.mu.Lock()
	l.port = p
	l.mu.Unlock()
}

// detach clears the current port and returns it so the owner can close it.
func (l *Link) detach() Port {
	l.mu.Lock()
	p := l.port
	l.port = nil
	l.mu.Unlock()
	return p
}

// Open reports whether a connection is currently attached.
func (l *Link) Open() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.port != nil
}

// Send writes a newline-terminated command to the device. There is no retry;
// the caller decides what a failure means.
func (l *Link) Send(command string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		log.Printf("arduino: cannot send %q: connection not open", command)
		return ErrNotOpen
	}
	if _, err := l.port.Write([]byte(command + "\n")); err != nil {
		log.Printf("arduino: send %q failed: %v", command, err)
		return fmt.Errorf("send %q: %w", command, err)
	}
	log.Printf("arduino: sent command %q", command)
	return nil
}
