// Package transports provides byte-channel implementations for the LD2410
// driver: a hardware serial port and a mock for tests.
package transports

import (
	"io"
	"time"
)

// Transport is the duplex byte channel the driver talks to the radar module
// over. The module does no framing of its own; reads return whatever bytes
// are available within the timeout, possibly none.
type Transport interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long a Read blocks waiting for bytes.
	// A Read that times out returns (0, nil).
	SetReadTimeout(timeout time.Duration) error

	// Flush discards any buffered input data.
	Flush() error
}
