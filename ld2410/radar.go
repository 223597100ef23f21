package ld2410

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/edgesensors/ld2410/transports"
)

// settleTime is how long the module needs after a restart or polling start
// before it behaves.
const settleTime = time.Second

// Config holds configuration for creating a Radar.
type Config struct {
	// Transport is the underlying byte channel.
	// If nil, Port must be specified to open a serial connection.
	Transport transports.Transport

	// Port is the serial port path (e.g., "/dev/ttyUSB0").
	// Ignored if Transport is provided.
	Port string

	// Baud is the module's configured speed selector. Default is DefaultBaud.
	Baud BaudRate

	// Timeout bounds individual transport reads. Default is 1 second.
	Timeout time.Duration

	// Retry governs transport-level retries on command sends.
	// The zero value retries forever.
	Retry RetryPolicy

	// PollInterval is the cadence of the background acquisition loop.
	// Default is 100ms (10 Hz, the module's own update rate).
	PollInterval time.Duration

	// Dial reopens the transport at a new bit rate after a restart or baud
	// change. Defaults to reopening Port; required for reconnecting
	// behaviour when a custom Transport is supplied.
	Dial func(baudBits int) (transports.Transport, error)

	// Logger receives driver diagnostics. Defaults to a console writer on
	// stderr at info level.
	Logger *zerolog.Logger
}

// driverState is the mutable state shared between the command layer and the
// acquisition loop: the engineering-mode flag, the consecutive read-failure
// counter and the checksum-mismatch counter, behind one lock.
type driverState struct {
	mu               sync.Mutex
	engineering      bool
	readFailures     int
	checksumFailures uint64
}

func (s *driverState) engineeringMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engineering
}

func (s *driverState) setEngineeringMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineering = on
}

// readFailure bumps the consecutive-failure counter and returns it.
func (s *driverState) readFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFailures++
	return s.readFailures
}

func (s *driverState) readOK() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFailures = 0
}

func (s *driverState) checksumFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checksumFailures++
}

func (s *driverState) checksumFailureCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksumFailures
}

// Radar drives a single LD2410 module.
//
// Configuration commands and the background acquisition loop share the one
// transport and are deliberately not serialized against each other: issuing
// commands while polling risks interleaved reads. Stop polling before
// reconfiguring, or accept the risk.
type Radar struct {
	transport transports.Transport
	port      string
	baud      BaudRate
	timeout   time.Duration
	retry     RetryPolicy
	dial      func(baudBits int) (transports.Transport, error)
	log       zerolog.Logger

	state *driverState
	slot  readingSlot

	pollInterval time.Duration

	mu     sync.Mutex
	closed bool

	runMu   sync.Mutex
	running bool
	stopc   chan struct{}
	donec   chan struct{}
}

// NewRadar creates a driver for a module reachable through the given
// configuration.
func NewRadar(cfg Config) (*Radar, error) {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if !cfg.Baud.Valid() {
		return nil, &BaudRateError{Rate: cfg.Baud}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}

	logger := cfg.Logger
	if logger == nil {
		l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()
		logger = &l
	}

	dial := cfg.Dial
	if dial == nil && cfg.Port != "" {
		port, timeout := cfg.Port, cfg.Timeout
		dial = func(baudBits int) (transports.Transport, error) {
			return transports.OpenSerial(transports.SerialConfig{
				Port:     port,
				BaudRate: baudBits,
				Timeout:  timeout,
			})
		}
	}

	transport := cfg.Transport
	if transport == nil {
		if dial == nil {
			return nil, fmt.Errorf("either Transport or Port must be specified")
		}
		var err error
		transport, err = dial(cfg.Baud.Bits())
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port: %w", err)
		}
		logger.Info().Str("port", cfg.Port).Int("baud", cfg.Baud.Bits()).Msg("serial port initialised")
	}

	return &Radar{
		transport:    transport,
		port:         cfg.Port,
		baud:         cfg.Baud,
		timeout:      cfg.Timeout,
		retry:        cfg.Retry,
		dial:         dial,
		log:          *logger,
		state:        &driverState{},
		pollInterval: cfg.PollInterval,
	}, nil
}

// Close stops polling if running and closes the transport.
func (r *Radar) Close() error {
	r.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.transport.Close()
}

// ChecksumFailures returns how many telemetry frames arrived with a
// mismatched tail since the driver was created.
func (r *Radar) ChecksumFailures() uint64 {
	return r.state.checksumFailureCount()
}

// Command layer

// sendFrame wraps a command payload in the frame delimiters, writes it and
// collects the module's response. Transport failures are retried per the
// configured policy; by default that means forever, so a dead link blocks
// the caller instead of failing.
func (r *Radar) sendFrame(payload []byte) ([]byte, error) {
	frame := wrapFrame(payload)

	for attempt := 1; ; attempt++ {
		resp, err := r.exchange(frame)
		if err == nil {
			r.log.Debug().Hex("sent", frame).Hex("received", resp).Msg("frame exchange")
			return resp, nil
		}

		r.log.Debug().Err(err).Int("attempt", attempt).Msg("frame exchange failed")
		if !r.retry.allows(attempt) {
			return nil, &CommError{Op: "send frame", Err: err}
		}
		r.retry.wait()
	}
}

func (r *Radar) exchange(frame []byte) ([]byte, error) {
	r.transport.Flush()

	if _, err := r.transport.Write(frame); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}
	return r.readAck()
}

// readAck collects response bytes until the line goes quiet or the buffer
// fills. An empty response is not an error; some commands are fire-and-forget
// and the module stays silent.
func (r *Radar) readAck() ([]byte, error) {
	r.transport.SetReadTimeout(r.timeout)

	buf := make([]byte, maxAckLen)
	total := 0
	for total < len(buf) {
		n, err := r.transport.Read(buf[total:])
		if err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}
		if n == 0 {
			break
		}
		total += n
	}
	return buf[:total], nil
}

// sendCommand sends a stateful command inside the config-mode bracket:
// enable config mode, send the command, disable config mode. The bracket
// always completes; an inner failure does not skip the disable frame.
func (r *Radar) sendCommand(payload []byte) ([]byte, error) {
	if _, err := r.sendFrame(cmdConfigEnable); err != nil {
		r.sendFrame(cmdConfigDisable)
		return nil, err
	}

	resp, cmdErr := r.sendFrame(payload)

	if _, err := r.sendFrame(cmdConfigDisable); err != nil && cmdErr == nil {
		cmdErr = err
	}
	return resp, cmdErr
}

// FirmwareVersion reads the module's firmware version, formatted
// "V<major>.<minor>.<build>".
func (r *Radar) FirmwareVersion() (string, error) {
	r.log.Info().Msg("reading firmware version")
	resp, err := r.sendCommand(cmdFirmwareRead)
	if err != nil {
		return "", err
	}
	return parseFirmwareVersion(resp)
}

// SetDetectionParams configures the maximum moving and static detection
// gates and the empty-room timeout in seconds.
func (r *Radar) SetDetectionParams(movingMaxGate, staticMaxGate, timeout int) error {
	r.log.Info().Msg("editing detection parameters")
	if err := validateRange("moving max gate", movingMaxGate, GateMin, GateMax); err != nil {
		return err
	}
	if err := validateRange("static max gate", staticMaxGate, GateMin, GateMax); err != nil {
		return err
	}
	if err := validateRange("timeout", timeout, EmptyTimeoutMin, EmptyTimeoutMax); err != nil {
		return err
	}

	_, err := r.sendCommand(detectionParamsPayload(movingMaxGate, staticMaxGate, timeout))
	return err
}

// DetectionParams reads back the configured thresholds and per-gate
// sensitivities.
func (r *Radar) DetectionParams() (*DetectionParams, error) {
	r.log.Info().Msg("reading detection parameters")
	resp, err := r.sendCommand(cmdParamRead)
	if err != nil {
		return nil, err
	}
	params, err := parseDetectionParams(resp)
	if err != nil {
		return nil, err
	}
	r.log.Debug().
		Int("moving_max_gate", params.MovingMaxGate).
		Int("static_max_gate", params.StaticMaxGate).
		Int("empty_timeout", params.EmptyTimeout).
		Msg("detection parameters")
	return params, nil
}

// EnableEngineeringMode switches the module to engineering telemetry
// frames, which carry per-gate energy levels.
func (r *Radar) EnableEngineeringMode() error {
	r.log.Info().Msg("enabling engineering mode")
	r.state.setEngineeringMode(true)
	_, err := r.sendCommand(cmdEngEnable)
	return err
}

// DisableEngineeringMode switches the module back to standard telemetry.
func (r *Radar) DisableEngineeringMode() error {
	r.log.Info().Msg("disabling engineering mode")
	r.state.setEngineeringMode(false)
	_, err := r.sendCommand(cmdEngDisable)
	return err
}

// SetGateSensitivity configures the moving and static sensitivity of one
// gate. Gates 1 and 2 only accept a static sensitivity of 0; the module
// hardware rejects anything else.
func (r *Radar) SetGateSensitivity(gate, movingSens, staticSens int) error {
	r.log.Info().Msg("editing gate sensitivity")
	if err := validateRange("gate", gate, GateMin, GateMax); err != nil {
		return err
	}
	if err := validateRange("moving sensitivity", movingSens, SensitivityMin, SensitivityMax); err != nil {
		return err
	}

	if gate == 1 || gate == 2 {
		if staticSens != 0 {
			r.log.Warn().Int("gate", gate).Msg("gate 1 and 2 static sensitivity must be 0")
			return validateRange("static sensitivity", staticSens, 0, 0)
		}
	} else if err := validateRange("static sensitivity", staticSens, SensitivityMin, SensitivityMax); err != nil {
		return err
	}

	_, err := r.sendCommand(gateSensitivityPayload(gate, movingSens, staticSens))
	return err
}

// SetBaudRate changes the module's serial speed. The new rate takes effect
// after a restart; with reconnect set, the driver restarts the module and
// reopens its own transport at the new rate.
func (r *Radar) SetBaudRate(baud BaudRate, reconnect bool) error {
	if !baud.Valid() {
		return &BaudRateError{Rate: baud}
	}
	r.log.Info().Int("baud", baud.Bits()).Msg("setting baud rate")

	if _, err := r.sendCommand(baudPayload(baud)); err != nil {
		return err
	}

	if reconnect {
		r.log.Info().Msg("baud rate set command issued, restarting")
		return r.Restart(baud)
	}
	return nil
}

// FactoryReset restores the module's default configuration. With reconnect
// set, the module is restarted and the transport reopened at the factory
// default baud rate.
func (r *Radar) FactoryReset(reconnect bool) error {
	r.log.Warn().Msg("module will now be factory reset")
	if _, err := r.sendCommand(cmdFactoryReset); err != nil {
		return err
	}
	if reconnect {
		return r.Restart(DefaultBaud)
	}
	return nil
}

// Restart reboots the module and reopens the transport. A non-zero newBaud
// switches the reopened connection to that rate. Engineering mode does not
// survive a restart.
func (r *Radar) Restart(newBaud BaudRate) error {
	r.log.Info().Msg("restarting module")
	if newBaud != 0 {
		if !newBaud.Valid() {
			return &BaudRateError{Rate: newBaud}
		}
		r.baud = newBaud
	}

	if _, err := r.sendCommand(cmdRestart); err != nil {
		return err
	}

	if r.dial == nil {
		return ErrNoDialer
	}

	r.mu.Lock()
	r.transport.Close()
	transport, err := r.dial(r.baud.Bits())
	if err != nil {
		r.closed = true
		r.mu.Unlock()
		return &CommError{Op: "reconnect", Err: err}
	}
	r.transport = transport
	r.closed = false
	r.mu.Unlock()

	r.state.setEngineeringMode(false)
	time.Sleep(settleTime)
	return nil
}

// BTEnable turns the module's Bluetooth radio on. It is on by default.
func (r *Radar) BTEnable() error {
	r.log.Info().Msg("enabling bluetooth")
	_, err := r.sendCommand(cmdBTEnable)
	return err
}

// BTDisable turns the module's Bluetooth radio off.
func (r *Radar) BTDisable() error {
	r.log.Info().Msg("disabling bluetooth")
	_, err := r.sendCommand(cmdBTDisable)
	return err
}

// BTMACAddress reads the module's Bluetooth MAC address, formatted
// "xx:xx:xx:xx:xx:xx".
func (r *Radar) BTMACAddress() (string, error) {
	r.log.Info().Msg("querying bluetooth address")
	resp, err := r.sendCommand(cmdBTMACQuery)
	if err != nil {
		return "", err
	}
	mac, err := parseBTMAC(resp)
	if err != nil {
		return "", err
	}
	r.log.Debug().Str("mac", mac).Msg("bluetooth address")
	return mac, nil
}
