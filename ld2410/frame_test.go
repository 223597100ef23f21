package ld2410

import (
	"testing"
)

// standardFrame returns the 19 bytes that follow a data header for a
// moving target at 100cm (energy 85), static at 200cm (energy 40),
// detection distance 150.
func standardFrame() []byte {
	return []byte{
		0x0D, 0x00, // intra-frame length
		formatStandard,
		0xAA,       // head marker
		0x01,       // target type: moving
		0x64, 0x00, // moving distance 100
		0x55,       // moving energy 85
		0xC8, 0x00, // static distance 200
		0x28, // static energy 40
		0x96, // detection distance 150
		0x00, // reserved
		0x55, 0x00, 0xF8, 0xF7, 0xF6, 0xF5,
	}
}

// engineeringFrame returns the 37-byte engineering-mode equivalent, with
// known per-gate energies.
func engineeringFrame() []byte {
	frame := standardFrame()[:13]
	frame = append([]byte(nil), frame...)
	frame[0] = 0x1F
	frame[idxFormat] = formatEngineering
	for i := 0; i < gateCount; i++ {
		frame = append(frame, byte(10+i))
	}
	for i := 0; i < gateCount; i++ {
		frame = append(frame, byte(20+i))
	}
	return append(frame, 0x55, 0x00, 0xF8, 0xF7, 0xF6, 0xF5)
}

func TestDecodeReadingStandard(t *testing.T) {
	r := decodeReading(standardFrame(), false)
	if r == nil {
		t.Fatal("decodeReading returned nil")
	}

	if r.Target != TargetMoving {
		t.Errorf("target: got %v, want %v", r.Target, TargetMoving)
	}
	if r.MovingDistance != 100 {
		t.Errorf("moving distance: got %d, want 100", r.MovingDistance)
	}
	if r.MovingEnergy != 85 {
		t.Errorf("moving energy: got %d, want 85", r.MovingEnergy)
	}
	if r.StaticDistance != 200 {
		t.Errorf("static distance: got %d, want 200", r.StaticDistance)
	}
	if r.StaticEnergy != 40 {
		t.Errorf("static energy: got %d, want 40", r.StaticEnergy)
	}
	if r.DetectionDistance != 150 {
		t.Errorf("detection distance: got %d, want 150", r.DetectionDistance)
	}
	if r.MovingGateEnergy != nil || r.StaticGateEnergy != nil {
		t.Error("gate energies must be nil outside engineering mode")
	}
}

func TestDecodeReadingEngineering(t *testing.T) {
	r := decodeReading(engineeringFrame(), true)
	if r == nil {
		t.Fatal("decodeReading returned nil")
	}

	if len(r.MovingGateEnergy) != gateCount {
		t.Fatalf("moving gate energies: got %d entries, want %d", len(r.MovingGateEnergy), gateCount)
	}
	if len(r.StaticGateEnergy) != gateCount {
		t.Fatalf("static gate energies: got %d entries, want %d", len(r.StaticGateEnergy), gateCount)
	}
	for i := 0; i < gateCount; i++ {
		if r.MovingGateEnergy[i] != byte(10+i) {
			t.Errorf("moving gate %d: got %d, want %d", i, r.MovingGateEnergy[i], 10+i)
		}
		if r.StaticGateEnergy[i] != byte(20+i) {
			t.Errorf("static gate %d: got %d, want %d", i, r.StaticGateEnergy[i], 20+i)
		}
	}

	// Scalar fields decode identically in both layouts.
	if r.MovingDistance != 100 || r.StaticDistance != 200 {
		t.Errorf("distances: got %d/%d, want 100/200", r.MovingDistance, r.StaticDistance)
	}
}

func TestDecodeReadingShortEngineeringFrame(t *testing.T) {
	// After a mode-desync self-correction the first frame is still
	// standard-length; the gate arrays must stay nil rather than panic.
	r := decodeReading(standardFrame(), true)
	if r == nil {
		t.Fatal("decodeReading returned nil")
	}
	if r.MovingGateEnergy != nil || r.StaticGateEnergy != nil {
		t.Error("short frame must not yield gate energies")
	}
}

func TestDecodeReadingTooShort(t *testing.T) {
	if r := decodeReading(standardFrame()[:10], false); r != nil {
		t.Errorf("expected nil for truncated frame, got %+v", r)
	}
}

func TestDecodeReadingBadTailStillDecodes(t *testing.T) {
	frame := standardFrame()
	frame[len(frame)-1] = 0x00 // corrupt the tail

	if hasValidTail(frame) {
		t.Fatal("tail should be invalid")
	}

	// The checksum is advisory: decoding proceeds anyway.
	r := decodeReading(frame, false)
	if r == nil {
		t.Fatal("frame with bad tail must still decode")
	}
	if r.MovingDistance != 100 {
		t.Errorf("moving distance: got %d, want 100", r.MovingDistance)
	}
}

func TestHasValidTail(t *testing.T) {
	if !hasValidTail(standardFrame()) {
		t.Error("standard frame tail should validate")
	}
	if !hasValidTail(engineeringFrame()) {
		t.Error("engineering frame tail should validate")
	}
	if hasValidTail([]byte{0x01, 0x02}) {
		t.Error("short buffer must not validate")
	}
}

func TestParseFirmwareVersion(t *testing.T) {
	ack := []byte{
		0xFD, 0xFC, 0xFB, 0xFA, // header
		0x0C, 0x00, // length
		0xA0, 0x01, // command ack
		0x00, 0x00, // status
		0x00, 0x01, // firmware type
		0x07, 0x01, // major, little-endian
		0x16, 0x24, 0x06, 0x22, // minor, little-endian
		0x04, 0x03, 0x02, 0x01, // footer
	}

	got, err := parseFirmwareVersion(ack)
	if err != nil {
		t.Fatalf("parseFirmwareVersion failed: %v", err)
	}
	if want := "V1.07.22062416"; got != want {
		t.Errorf("version: got %q, want %q", got, want)
	}
}

func TestParseFirmwareVersionShortAck(t *testing.T) {
	if _, err := parseFirmwareVersion([]byte{0xFD, 0xFC}); err == nil {
		t.Error("expected error for truncated ack")
	}
}

func TestParseBTMAC(t *testing.T) {
	ack := []byte{
		0xFD, 0xFC, 0xFB, 0xFA,
		0x0A, 0x00,
		0xA5, 0x01,
		0x00, 0x00,
		0x8F, 0x27, 0x2E, 0xB8, 0x0F, 0x65, // MAC
		0x04, 0x03, 0x02, 0x01,
	}

	got, err := parseBTMAC(ack)
	if err != nil {
		t.Fatalf("parseBTMAC failed: %v", err)
	}
	if want := "8f:27:2e:b8:0f:65"; got != want {
		t.Errorf("mac: got %q, want %q", got, want)
	}
}

func TestParseDetectionParams(t *testing.T) {
	ack := []byte{
		0xFD, 0xFC, 0xFB, 0xFA,
		0x1C, 0x00,
		0x61, 0x01,
		0x00, 0x00,
		0xAA, // marker
		0x08, // max gate
		0x02, // moving max gate
		0x03, // static max gate
	}
	for i := 0; i < gateCount; i++ {
		ack = append(ack, byte(50+i)) // moving sensitivities
	}
	for i := 0; i < gateCount; i++ {
		ack = append(ack, byte(30+i)) // static sensitivities
	}
	ack = append(ack, 0x05, 0x00)             // empty timeout
	ack = append(ack, 0x04, 0x03, 0x02, 0x01) // footer

	params, err := parseDetectionParams(ack)
	if err != nil {
		t.Fatalf("parseDetectionParams failed: %v", err)
	}

	if params.MovingMaxGate != 2 {
		t.Errorf("moving max gate: got %d, want 2", params.MovingMaxGate)
	}
	if params.StaticMaxGate != 3 {
		t.Errorf("static max gate: got %d, want 3", params.StaticMaxGate)
	}
	if params.EmptyTimeout != 5 {
		t.Errorf("empty timeout: got %d, want 5", params.EmptyTimeout)
	}
	for i := 0; i < gateCount; i++ {
		if params.MovingSensitivity[i] != 50+i {
			t.Errorf("moving sensitivity gate %d: got %d, want %d", i, params.MovingSensitivity[i], 50+i)
		}
		if params.StaticSensitivity[i] != 30+i {
			t.Errorf("static sensitivity gate %d: got %d, want %d", i, params.StaticSensitivity[i], 30+i)
		}
	}
}

func TestTargetTypeString(t *testing.T) {
	cases := map[TargetType]string{
		TargetNone:            "none",
		TargetMoving:          "moving",
		TargetStatic:          "static",
		TargetMovingAndStatic: "moving+static",
	}
	for tt, want := range cases {
		if got := tt.String(); got != want {
			t.Errorf("TargetType(%d).String(): got %q, want %q", byte(tt), got, want)
		}
	}
}
