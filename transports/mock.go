package transports

import (
	"sync"
	"time"
)

// Mock implements Transport for testing.
//
// Reads are served from Responses, one entry per request/response exchange:
// the bytes of the current entry are returned (possibly over several Read
// calls), then a single zero-length read signals the inter-exchange gap,
// emulating a serial timeout, before the next entry is served. With no
// Responses and no ReadFunc, Read behaves like a silent line: (0, nil).
type Mock struct {
	Responses   [][]byte
	ReadErr     error
	WriteData   []byte
	WriteErr    error
	Closed      bool
	ReadTimeout time.Duration
	Flushed     bool

	// ReadFunc overrides the Responses behaviour entirely for complex tests.
	ReadFunc func(p []byte) (int, error)

	mu      sync.Mutex
	current []byte
	pending bool
}

func (m *Mock) Read(p []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.current) == 0 {
		if m.pending {
			m.pending = false
			return 0, nil // end of this exchange
		}
		if len(m.Responses) == 0 {
			return 0, nil // silent line
		}
		m.current = m.Responses[0]
		m.Responses = m.Responses[1:]
		if len(m.current) == 0 {
			return 0, nil // scripted empty exchange
		}
		m.pending = true
	}

	n := copy(p, m.current)
	m.current = m.current[n:]
	return n, nil
}

func (m *Mock) Write(p []byte) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteData = append(m.WriteData, p...)
	return len(p), nil
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}

func (m *Mock) SetReadTimeout(timeout time.Duration) error {
	m.ReadTimeout = timeout
	return nil
}

func (m *Mock) Flush() error {
	m.Flushed = true
	// Don't clear queued responses - tests need them preserved
	return nil
}
