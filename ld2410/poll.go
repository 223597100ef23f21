package ld2410

import (
	"sync"
	"time"
)

// readingSlot is the single-value hand-off between the acquisition loop and
// readers: it holds the most recent decoded sample, written only by the
// loop, read by anyone. Last write wins.
type readingSlot struct {
	mu   sync.Mutex
	last *Reading
}

func (s *readingSlot) publish(r *Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
}

func (s *readingSlot) load() *Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// getDataFrame synchronizes to the next telemetry header and reads one
// frame, sized by the current mode. Returns nil on a transient read
// failure; the caller retries.
//
// Two quirks of the protocol are handled here. If a frame carries the
// engineering-format signature while the driver believes the module is in
// standard mode, the driver's flag is self-corrected: the module's actual
// mode survives events the driver cannot see (it is also how a noisy byte
// can misfire the heuristic, a known false-positive risk). And a frame
// whose tail does not match the fixed checksum constant is still returned;
// the mismatch is only logged and counted.
func (r *Radar) getDataFrame() []byte {
	r.syncDataHeader()

	readLen := standardFrameLen
	if r.state.engineeringMode() {
		readLen = engineeringFrameLen
	}

	r.transport.SetReadTimeout(r.timeout)
	buf := make([]byte, readLen)
	total := 0
	for total < readLen {
		n, err := r.transport.Read(buf[total:])
		if err != nil {
			r.log.Debug().Err(err).Msg("serial failed to read data, skipping this read")
			return nil
		}
		if n == 0 {
			break
		}
		total += n
	}
	if total == 0 {
		return nil
	}
	frame := buf[:total]

	r.log.Debug().Hex("frame", frame).Msg("raw data frame")

	if len(frame) > idxFormat && frame[idxFormat] == formatEngineering && !r.state.engineeringMode() {
		r.log.Warn().Msg("data looks like engineering mode format but the driver is not set to parse it, setting it now")
		r.state.setEngineeringMode(true)
	} else if !hasValidTail(frame) {
		r.state.checksumFailure()
		r.log.Warn().Hex("frame", frame).Msg("checksum not correct for received packet")
	}

	r.state.readOK()
	return frame
}

// readRadarData blocks until one telemetry frame has been acquired and
// decoded. Transient failures are retried without bound; this is internal
// to the acquisition loop and does not abort it.
func (r *Radar) readRadarData() *Reading {
	for {
		frame := r.getDataFrame()
		if frame == nil {
			continue
		}
		if reading := decodeReading(frame, r.state.engineeringMode()); reading != nil {
			return reading
		}
	}
}

// poll is the background acquisition loop: synchronize, decode one frame,
// publish it, sleep one interval. The stop signal is checked once per
// iteration, so cancellation latency is bounded by one frame acquisition.
func (r *Radar) poll() {
	defer close(r.donec)

	for {
		select {
		case <-r.stopc:
			return
		default:
		}

		r.slot.publish(r.readRadarData())
		r.sleepInterval()
	}
}

func (r *Radar) sleepInterval() {
	select {
	case <-r.stopc:
	case <-time.After(r.pollInterval):
	}
}

// Start launches the background acquisition loop. When Start returns the
// loop is guaranteed to be running. Calling Start while already polling is
// a no-op.
func (r *Radar) Start() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.running {
		r.log.Debug().Msg("start called but radar is already polling")
		return
	}

	r.stopc = make(chan struct{})
	r.donec = make(chan struct{})
	r.running = true
	go r.poll()

	r.log.Info().Msg("radar polling started")
	time.Sleep(settleTime)
}

// Stop signals the acquisition loop and blocks until it has exited. It is
// idempotent: stopping an already-stopped radar just logs and returns.
// Because cancellation is cooperative and only observed between frames, a
// Stop issued mid-acquisition waits for that acquisition to finish.
func (r *Radar) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if !r.running {
		r.log.Debug().Msg("stop called but radar isn't running, this is normal")
		return
	}

	close(r.stopc)
	<-r.donec
	r.running = false
	r.log.Info().Msg("radar polling stopped")
}

// Data returns the most recent decoded reading, or nil if nothing has been
// published yet. Callers must handle the nil case; reading before the loop
// has produced anything warns instead of blocking.
func (r *Radar) Data() *Reading {
	d := r.slot.load()
	if d == nil {
		r.log.Warn().Msg("data is empty, have you started the radar yet?")
	}
	return d
}
