package arduino

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// fakePort is an in-memory Port for tests. Reads are served from queued
// chunks; an empty queue returns (0, nil) like a timed-out serial read.
type fakePort struct {
	chunks   [][]byte
	readErr  error
	writeErr error
	written  bytes.Buffer
	closed   bool
}

func (f *fakePort) Read(p []byte) (int, error) {
	if len(f.chunks) == 0 {
		if f.readErr != nil {
			return 0, f.readErr
		}
		return 0, nil
	}
	n := copy(p, f.chunks[0])
	f.chunks[0] = f.chunks[0][n:]
	if len(f.chunks[0]) == 0 {
		f.chunks = f.chunks[1:]
	}
	return n, nil
}

func (f *fakePort) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.written.Write(p)
}

func (f *fakePort) Close() error                       { f.closed = true; return nil }
func (f *fakePort) SetReadTimeout(time.Duration) error { return nil }
func (f *fakePort) ResetInputBuffer() error            { return nil }

func TestLinkSendNotOpen(t *testing.T) {
	var l Link
	if err := l.Send(CommandWater); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Send on closed link = %v, want ErrNotOpen", err)
	}
	if l.Open() {
		t.Error("Open() should be false before attach")
	}
}

func TestLinkSendWritesNewlineTerminatedCommand(t *testing.T) {
	var l Link
	port := &fakePort{}
	l.attach(port)

	if err := l.Send(CommandWater); err != nil {
		t.Fatalf("Send returned %v", err)
	}
	if got := port.written.String(); got != "WET\n" {
		t.Errorf("wrote %q, want %q", got, "WET\n")
	}
	if !l.Open() {
		t.Error("Open() should be true after attach")
	}
}

func TestLinkSendWriteError(t *testing.T) {
	var l Link
	wantErr := errors.New("device gone")
	l.attach(&fakePort{writeErr: wantErr})

	if err := l.Send(CommandWater); !errors.Is(err, wantErr) {
		t.Errorf("Send = %v, want wrapped %v", err, wantErr)
	}
}

func TestLinkDetachReturnsPort(t *testing.T) {
	var l Link
	port := &fakePort{}
	l.attach(port)

	if got := l.detach(); got != Port(port) {
		t.Error("detach should return the attached port")
	}
	if l.Open() {
		t.Error("Open() should be false after detach")
	}
	if l.detach() != nil {
		t.Error("second detach should return nil")
	}
}
