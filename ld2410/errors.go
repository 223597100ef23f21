package ld2410

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure modes.
var (
	ErrClosed     = errors.New("radar is closed")
	ErrNoResponse = errors.New("no response from module")
	ErrShortAck   = errors.New("acknowledgment too short")
	ErrNoDialer   = errors.New("no dialer configured for reconnect")
)

// RangeError reports a command parameter outside its protocol-defined
// bounds. It is raised before any bytes are written to the transport.
type RangeError struct {
	Param string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d is not a valid setting, pick a value between %d and %d",
		e.Param, e.Value, e.Min, e.Max)
}

// BaudRateError reports a baud selector outside the module's lookup table.
type BaudRateError struct {
	Rate BaudRate
}

func (e *BaudRateError) Error() string {
	rates := make([]string, 0, len(baudLookup))
	for b := Baud9600; b <= Baud460800; b++ {
		rates = append(rates, fmt.Sprintf("%d", b.Bits()))
	}
	return fmt.Sprintf("baud selector %d is not a valid setting, supported rates: %s",
		uint16(e.Rate), strings.Join(rates, ", "))
}

// CommError represents a communication-level error.
type CommError struct {
	Op  string // Operation that failed (e.g., "send frame", "reconnect")
	Err error  // Underlying error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("communication error during %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

// validateRange checks an inclusive bound and names the offending parameter.
func validateRange(param string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Param: param, Value: value, Min: min, Max: max}
	}
	return nil
}
