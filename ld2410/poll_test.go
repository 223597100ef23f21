package ld2410

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgesensors/ld2410/transports"
)

// cyclicStream serves an endlessly repeating byte sequence, the way a
// radar module streams telemetry frames back to back.
func cyclicStream(seq []byte) func(p []byte) (int, error) {
	pos := 0
	return func(p []byte) (int, error) {
		for i := range p {
			p[i] = seq[pos%len(seq)]
			pos++
		}
		return len(p), nil
	}
}

func newPollingRadar(t *testing.T, stream []byte) (*Radar, *transports.Mock) {
	t.Helper()
	mock := &transports.Mock{ReadFunc: cyclicStream(stream)}
	logger := zerolog.Nop()
	r, err := NewRadar(Config{
		Transport:    mock,
		Logger:       &logger,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return r, mock
}

func TestDataBeforeStartIsEmpty(t *testing.T) {
	mock := &transports.Mock{}
	logger := zerolog.Nop()
	r, err := NewRadar(Config{Transport: mock, Logger: &logger})
	require.NoError(t, err)

	assert.Nil(t, r.Data(), "reading before any publish must be empty, not an error")
}

func TestStartPollStop(t *testing.T) {
	stream := append(append([]byte(nil), dataHeader...), standardFrame()...)
	r, _ := newPollingRadar(t, stream)

	r.Start()
	defer r.Stop()

	require.Eventually(t, func() bool { return r.Data() != nil },
		2*time.Second, 10*time.Millisecond)

	reading := r.Data()
	assert.Equal(t, TargetMoving, reading.Target)
	assert.Equal(t, uint16(100), reading.MovingDistance)
	assert.Nil(t, reading.MovingGateEnergy)
	assert.Nil(t, reading.StaticGateEnergy)
}

func TestStopIsIdempotent(t *testing.T) {
	stream := append(append([]byte(nil), dataHeader...), standardFrame()...)
	r, _ := newPollingRadar(t, stream)

	r.Start()
	r.Stop()
	r.Stop() // second stop must be a quiet no-op
}

func TestStopBlocksUntilLoopExits(t *testing.T) {
	stream := append(append([]byte(nil), dataHeader...), standardFrame()...)
	r, _ := newPollingRadar(t, stream)

	r.Start()
	r.Stop()

	select {
	case <-r.donec:
	default:
		t.Fatal("loop still running after Stop returned")
	}
}

func TestEngineeringModeAutoDetect(t *testing.T) {
	// The driver believes the module is in standard mode, but the stream
	// carries engineering-format frames. The first (short) read trips the
	// self-correction heuristic; subsequent reads deliver full frames with
	// gate energies.
	stream := append(append([]byte(nil), dataHeader...), engineeringFrame()...)
	r, _ := newPollingRadar(t, stream)

	r.Start()
	defer r.Stop()

	require.Eventually(t, func() bool { return r.state.engineeringMode() },
		2*time.Second, 10*time.Millisecond, "mode flag should self-correct")

	require.Eventually(t, func() bool {
		d := r.Data()
		return d != nil && len(d.MovingGateEnergy) == gateCount
	}, 2*time.Second, 10*time.Millisecond, "full engineering frames should follow")

	d := r.Data()
	assert.Len(t, d.StaticGateEnergy, gateCount)
}

func TestChecksumMismatchCountedButDelivered(t *testing.T) {
	frame := standardFrame()
	frame[len(frame)-1] = 0x00 // corrupt the tail
	stream := append(append([]byte(nil), dataHeader...), frame...)
	r, _ := newPollingRadar(t, stream)

	r.Start()
	defer r.Stop()

	require.Eventually(t, func() bool { return r.Data() != nil },
		2*time.Second, 10*time.Millisecond, "corrupt-tail frames are still delivered")
	require.Eventually(t, func() bool { return r.ChecksumFailures() > 0 },
		2*time.Second, 10*time.Millisecond, "mismatches must be counted")
}

func TestReadingSlotLastWriteWins(t *testing.T) {
	var slot readingSlot

	assert.Nil(t, slot.load())

	first := &Reading{MovingDistance: 1}
	second := &Reading{MovingDistance: 2}
	slot.publish(first)
	slot.publish(second)

	assert.Same(t, second, slot.load())
}
