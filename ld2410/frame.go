package ld2410

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"
)

// Telemetry frame layout, as byte offsets into the bytes following the
// 4-byte data header. Standard frames are 19 bytes; engineering frames
// insert the two 9-gate energy arrays before the tail.
const (
	standardFrameLen    = 19
	engineeringFrameLen = standardFrameLen + 2*gateCount

	idxFormat       = 2
	idxTargetType   = 4
	idxMovingDist   = 5 // 2 bytes, little-endian
	idxMovingEnergy = 7
	idxStaticDist   = 8 // 2 bytes, little-endian
	idxStaticEnergy = 10
	idxDetectDist   = 11
	idxMovingGates  = 13 // engineering frames only
	idxStaticGates  = idxMovingGates + gateCount
)

// Format byte values. A standard-configured driver seeing
// formatEngineering is the signature of a mode desync.
const (
	formatEngineering = 0x01
	formatStandard    = 0x02
)

// gateCount is the number of distance gates the sensor reports on.
const gateCount = 9

// Acknowledgment frame offsets, counted over the full response bytes
// (command header included).
const (
	ackFWMajor = 12 // 2 bytes, little-endian
	ackFWMinor = 14 // 4 bytes, little-endian
	ackFWEnd   = 18

	ackParamMovingMax  = 12
	ackParamStaticMax  = 13
	ackParamMovingSens = 14
	ackParamStaticSens = ackParamMovingSens + gateCount
	ackParamTimeout    = ackParamStaticSens + gateCount
	ackParamEnd        = ackParamTimeout + 1

	ackBTMACStart = 10
	ackBTMACEnd   = 16
)

// TargetType classifies what the radar currently sees.
type TargetType byte

const (
	TargetNone TargetType = iota
	TargetMoving
	TargetStatic
	TargetMovingAndStatic
)

func (t TargetType) String() string {
	switch t {
	case TargetNone:
		return "none"
	case TargetMoving:
		return "moving"
	case TargetStatic:
		return "static"
	case TargetMovingAndStatic:
		return "moving+static"
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// Reading is one decoded telemetry sample. Distances are centimetres,
// energies 0-255. The per-gate arrays are populated only for frames
// received in engineering mode; otherwise they are nil.
type Reading struct {
	Target            TargetType `json:"target"`
	MovingDistance    uint16     `json:"moving_distance_cm"`
	MovingEnergy      byte       `json:"moving_energy"`
	StaticDistance    uint16     `json:"static_distance_cm"`
	StaticEnergy      byte       `json:"static_energy"`
	DetectionDistance byte       `json:"detection_distance"`
	MovingGateEnergy  []byte     `json:"moving_gate_energy,omitempty"`
	StaticGateEnergy  []byte     `json:"static_gate_energy,omitempty"`
}

// DetectionParams is the module's detection configuration as returned by
// the parameter-read command.
type DetectionParams struct {
	MovingMaxGate int
	StaticMaxGate int
	EmptyTimeout  int

	MovingSensitivity [gateCount]int
	StaticSensitivity [gateCount]int
}

// hasValidTail reports whether a telemetry frame ends in the fixed
// checksum/tail constant. The check is advisory: a mismatch is logged by
// the caller but the frame is still decoded, matching the module's weak
// integrity guarantees.
func hasValidTail(frame []byte) bool {
	return bytes.HasSuffix(frame, dataTail)
}

// decodeReading decodes the bytes following a data header into a Reading.
// engineering selects the long frame layout. Returns nil if the buffer is
// too short to hold even a standard frame.
func decodeReading(frame []byte, engineering bool) *Reading {
	if len(frame) < standardFrameLen {
		return nil
	}

	r := &Reading{
		Target:            TargetType(frame[idxTargetType]),
		MovingDistance:    binary.LittleEndian.Uint16(frame[idxMovingDist : idxMovingDist+2]),
		MovingEnergy:      frame[idxMovingEnergy],
		StaticDistance:    binary.LittleEndian.Uint16(frame[idxStaticDist : idxStaticDist+2]),
		StaticEnergy:      frame[idxStaticEnergy],
		DetectionDistance: frame[idxDetectDist],
	}

	// The gate arrays are only present once the module actually delivers a
	// full-length frame; after a mode-desync self-correction the first frame
	// read is still standard-length.
	if engineering && len(frame) >= engineeringFrameLen {
		r.MovingGateEnergy = append([]byte(nil), frame[idxMovingGates:idxMovingGates+gateCount]...)
		r.StaticGateEnergy = append([]byte(nil), frame[idxStaticGates:idxStaticGates+gateCount]...)
	}

	return r
}

// parseFirmwareVersion extracts the firmware version string from the
// firmware-read acknowledgment. Both version fields arrive little-endian
// and are byte-reversed before formatting.
func parseFirmwareVersion(ack []byte) (string, error) {
	if len(ack) < ackFWEnd {
		return "", fmt.Errorf("%w: firmware ack is %d bytes", ErrShortAck, len(ack))
	}

	major := []byte{ack[ackFWMajor+1], ack[ackFWMajor]}
	minor := []byte{ack[ackFWMinor+3], ack[ackFWMinor+2], ack[ackFWMinor+1], ack[ackFWMinor]}

	return fmt.Sprintf("V%d.%02d.%s", major[0], major[1], hex.EncodeToString(minor)), nil
}

// parseDetectionParams extracts the configured thresholds and per-gate
// sensitivities from the parameter-read acknowledgment.
func parseDetectionParams(ack []byte) (*DetectionParams, error) {
	if len(ack) < ackParamEnd {
		return nil, fmt.Errorf("%w: parameter ack is %d bytes", ErrShortAck, len(ack))
	}

	p := &DetectionParams{
		MovingMaxGate: int(ack[ackParamMovingMax]),
		StaticMaxGate: int(ack[ackParamStaticMax]),
		EmptyTimeout:  int(ack[ackParamTimeout]),
	}
	for i := 0; i < gateCount; i++ {
		p.MovingSensitivity[i] = int(ack[ackParamMovingSens+i])
		p.StaticSensitivity[i] = int(ack[ackParamStaticSens+i])
	}

	return p, nil
}

// parseBTMAC extracts the Bluetooth MAC from the MAC-query acknowledgment,
// formatted as colon-separated hex octets.
func parseBTMAC(ack []byte) (string, error) {
	if len(ack) < ackBTMACEnd {
		return "", fmt.Errorf("%w: MAC ack is %d bytes", ErrShortAck, len(ack))
	}
	return net.HardwareAddr(ack[ackBTMACStart:ackBTMACEnd]).String(), nil
}
