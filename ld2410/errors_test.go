package ld2410

import (
	"errors"
	"strings"
	"testing"
)

func TestRangeErrorNamesParameterAndBounds(t *testing.T) {
	err := validateRange("gate", 9, GateMin, GateMax)
	if err == nil {
		t.Fatal("expected error for out-of-range value")
	}

	msg := err.Error()
	for _, want := range []string{"gate", "9", "0", "8"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q should mention %q", msg, want)
		}
	}

	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatal("error should be a *RangeError")
	}
	if rangeErr.Value != 9 {
		t.Errorf("value: got %d, want 9", rangeErr.Value)
	}
}

func TestValidateRangeAcceptsBounds(t *testing.T) {
	if err := validateRange("gate", GateMin, GateMin, GateMax); err != nil {
		t.Errorf("lower bound rejected: %v", err)
	}
	if err := validateRange("gate", GateMax, GateMin, GateMax); err != nil {
		t.Errorf("upper bound rejected: %v", err)
	}
}

func TestBaudRateErrorListsTable(t *testing.T) {
	err := &BaudRateError{Rate: BaudRate(42)}
	msg := err.Error()

	for _, rate := range []string{"9600", "115200", "256000", "460800"} {
		if !strings.Contains(msg, rate) {
			t.Errorf("error %q should list supported rate %s", msg, rate)
		}
	}
}

func TestCommErrorUnwrap(t *testing.T) {
	inner := errors.New("broken pipe")
	err := &CommError{Op: "send frame", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("CommError should unwrap to the underlying error")
	}
	if !strings.Contains(err.Error(), "send frame") {
		t.Errorf("error %q should name the operation", err.Error())
	}
}
