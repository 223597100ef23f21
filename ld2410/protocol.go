// Package ld2410 provides a Go driver for the Hi-Link LD2410 24GHz mmWave
// presence radar, communicating over its framed binary serial protocol.
package ld2410

import (
	"encoding/binary"
	"fmt"
)

// Frame delimiters. Command frames and telemetry frames use different
// header constants; telemetry frames end in a fixed tail that doubles as the
// protocol's only (advisory) integrity check.
var (
	cmdHeader  = []byte{0xFD, 0xFC, 0xFB, 0xFA}
	cmdFooter  = []byte{0x04, 0x03, 0x02, 0x01}
	dataHeader = []byte{0xF4, 0xF3, 0xF2, 0xF1}
	dataTail   = []byte{0x55, 0x00, 0xF8, 0xF7, 0xF6, 0xF5}
)

// Complete command payloads (intra-frame length, command word, value),
// little-endian on the wire.
var (
	cmdConfigEnable  = []byte{0x04, 0x00, 0xFF, 0x00, 0x01, 0x00}
	cmdConfigDisable = []byte{0x02, 0x00, 0xFE, 0x00}
	cmdParamRead     = []byte{0x02, 0x00, 0x61, 0x00}
	cmdEngEnable     = []byte{0x02, 0x00, 0x62, 0x00}
	cmdEngDisable    = []byte{0x02, 0x00, 0x63, 0x00}
	cmdFirmwareRead  = []byte{0x02, 0x00, 0xA0, 0x00}
	cmdFactoryReset  = []byte{0x02, 0x00, 0xA2, 0x00}
	cmdRestart       = []byte{0x02, 0x00, 0xA3, 0x00}
	cmdBTEnable      = []byte{0x04, 0x00, 0xA4, 0x00, 0x01, 0x00}
	cmdBTDisable     = []byte{0x04, 0x00, 0xA4, 0x00, 0x00, 0x00}
	cmdBTMACQuery    = []byte{0x04, 0x00, 0xA5, 0x00, 0x01, 0x00}
)

// Parameterized command prefixes. Each is followed by (tag, 4-byte value)
// pairs, except baud set which takes a bare 2-byte selector.
var (
	cmdParamEdit    = []byte{0x14, 0x00, 0x60, 0x00}
	cmdGateSensEdit = []byte{0x14, 0x00, 0x64, 0x00}
	cmdBaudSet      = []byte{0x04, 0x00, 0xA1, 0x00}
)

// Parameter tags for the detection-parameter and gate-sensitivity commands.
var (
	tagMovingMaxGate = []byte{0x00, 0x00}
	tagStaticMaxGate = []byte{0x01, 0x00}
	tagEmptyDuration = []byte{0x02, 0x00}

	tagGateSelect     = []byte{0x00, 0x00}
	tagMovingGateSens = []byte{0x01, 0x00}
	tagStaticGateSens = []byte{0x02, 0x00}
)

// Parameter bounds fixed by the protocol.
const (
	GateMin = 0
	GateMax = 8

	SensitivityMin = 0
	SensitivityMax = 100

	EmptyTimeoutMin = 0
	EmptyTimeoutMax = 65535
)

// maxAckLen bounds a single command acknowledgment read.
const maxAckLen = 64

// BaudRate is the module's serial speed selector as it appears on the wire.
// The selector is an index into a fixed table, not a bit rate.
type BaudRate uint16

const (
	Baud9600 BaudRate = iota + 1
	Baud19200
	Baud38400
	Baud57600
	Baud115200
	Baud230400
	Baud256000
	Baud460800
)

// DefaultBaud is the selector the module ships with (256000 bps).
const DefaultBaud = Baud256000

var baudLookup = map[BaudRate]int{
	Baud9600:   9600,
	Baud19200:  19200,
	Baud38400:  38400,
	Baud57600:  57600,
	Baud115200: 115200,
	Baud230400: 230400,
	Baud256000: 256000,
	Baud460800: 460800,
}

// Valid reports whether the selector is in the module's baud table.
func (b BaudRate) Valid() bool {
	_, ok := baudLookup[b]
	return ok
}

// Bits returns the bit rate the selector stands for, or 0 if invalid.
func (b BaudRate) Bits() int {
	return baudLookup[b]
}

// BaudRateFromBits maps a bit rate back to its wire selector.
func BaudRateFromBits(bits int) (BaudRate, bool) {
	for sel, b := range baudLookup {
		if b == bits {
			return sel, true
		}
	}
	return 0, false
}

func (b BaudRate) String() string {
	if bits, ok := baudLookup[b]; ok {
		return fmt.Sprintf("%d bps (selector %d)", bits, uint16(b))
	}
	return fmt.Sprintf("invalid baud selector %d", uint16(b))
}

// wrapFrame encloses a command payload in the command header and footer.
func wrapFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(cmdHeader)+len(payload)+len(cmdFooter))
	frame = append(frame, cmdHeader...)
	frame = append(frame, payload...)
	frame = append(frame, cmdFooter...)
	return frame
}

// encodeParam converts a command parameter to its 4-byte wire form: the
// value is packed big-endian and the bytes reversed, yielding little-endian.
// The module rejects any other ordering.
func encodeParam(v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:]
}

// appendParam appends a (tag, value) pair to a command payload under build.
func appendParam(payload, tag []byte, v uint32) []byte {
	payload = append(payload, tag...)
	return append(payload, encodeParam(v)...)
}

// detectionParamsPayload builds the payload for the detection-parameter edit
// command (maximum gates and empty-room timeout).
func detectionParamsPayload(movingMaxGate, staticMaxGate, timeout int) []byte {
	payload := append([]byte{}, cmdParamEdit...)
	payload = appendParam(payload, tagMovingMaxGate, uint32(movingMaxGate))
	payload = appendParam(payload, tagStaticMaxGate, uint32(staticMaxGate))
	return appendParam(payload, tagEmptyDuration, uint32(timeout))
}

// gateSensitivityPayload builds the payload for the per-gate sensitivity
// edit command.
func gateSensitivityPayload(gate, movingSens, staticSens int) []byte {
	payload := append([]byte{}, cmdGateSensEdit...)
	payload = appendParam(payload, tagGateSelect, uint32(gate))
	payload = appendParam(payload, tagMovingGateSens, uint32(movingSens))
	return appendParam(payload, tagStaticGateSens, uint32(staticSens))
}

// baudPayload builds the payload for the baud-rate set command.
func baudPayload(b BaudRate) []byte {
	payload := append([]byte{}, cmdBaudSet...)
	return binary.LittleEndian.AppendUint16(payload, uint16(b))
}
