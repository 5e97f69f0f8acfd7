// Package arduino owns the serial connection to the microcontroller: finding
// the port, reading sensor lines, and sending pump commands.
package arduino

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Watering command understood by the firmware. Commands are newline-terminated
// ASCII; the firmware reads them with readline().
const CommandWater = "WET"

// Port is the subset of go.bug.st/serial.Port the reader and link need,
// narrowed so tests can substitute an in-memory fake.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

func openPort(path string, baudRate int) (Port, error) {
	return serial.Open(path, &serial.Mode{BaudRate: baudRate})
}
