package ld2410

// syncWindow is a fixed-capacity FIFO over the most recent bytes read from
// the transport, used to find a frame header inside an arbitrary byte
// stream. Once full, pushing drops the oldest byte.
type syncWindow struct {
	buf  []byte
	size int
}

func newSyncWindow(size int) *syncWindow {
	return &syncWindow{buf: make([]byte, 0, size), size: size}
}

func (w *syncWindow) push(b byte) {
	if len(w.buf) == w.size {
		copy(w.buf, w.buf[1:])
		w.buf = w.buf[:w.size-1]
	}
	w.buf = append(w.buf, b)
}

// matches reports whether the window currently holds exactly the pattern.
func (w *syncWindow) matches(pattern []byte) bool {
	if len(w.buf) != len(pattern) {
		return false
	}
	for i, b := range pattern {
		if w.buf[i] != b {
			return false
		}
	}
	return true
}

// readFailWarnThreshold is how many consecutive empty reads the
// synchronizer tolerates before hinting at a baud mismatch.
const readFailWarnThreshold = 32

// syncDataHeader consumes bytes one at a time until the last four read
// equal the telemetry header. It never gives up: empty reads and transport
// errors only bump the failure counter, and past the threshold an
// operator-visible warning suggests checking the baud rate. Returns only
// once synchronized.
func (r *Radar) syncDataHeader() {
	window := newSyncWindow(len(dataHeader))
	var one [1]byte

	for !window.matches(dataHeader) {
		n, err := r.transport.Read(one[:])
		if n == 0 || err != nil {
			fails := r.state.readFailure()
			r.log.Debug().Err(err).Msg("serial failed to read data, trying again")
			if fails == readFailWarnThreshold+1 {
				r.log.Warn().Msg("serial failed to read data many times in a row, " +
					"check that the baud rate is correct (hint: if the firmware version looks weird, it probably is)")
			}
			continue
		}
		window.push(one[0])
	}
}
