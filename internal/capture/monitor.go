package capture

import "sync"

// UnavailableAfter is the number of consecutive read failures after which
// the device is reported unavailable.
const UnavailableAfter = 3

// Status is the health of the frame source.
type Status int

const (
	StatusOK Status = iota
	StatusTransient
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTransient:
		return "transient"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Health is a Status with a display message.
type Health struct {
	Status  Status `json:"-"`
	Name    string `json:"status"`
	Message string `json:"message,omitempty"`
	Failed  int    `json:"consecutive_failures,omitempty"`
}

// Monitor tracks consecutive frame read failures.
type Monitor struct {
	mu     sync.Mutex
	failed int
	last   error
}

// NewMonitor creates a Monitor in the OK state.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Observe records the result of one read and returns the new health.
func (m *Monitor) Observe(err error) Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		m.failed = 0
		m.last = nil
	} else {
		m.failed++
		m.last = err
	}
	return m.health()
}

// Health returns the current health.
func (m *Monitor) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health()
}

func (m *Monitor) health() Health {
	var h Health
	switch {
	case m.failed == 0:
		h.Status = StatusOK
	case m.failed >= UnavailableAfter:
		h.Status = StatusUnavailable
		h.Message = "device unavailable"
	default:
		h.Status = StatusTransient
		h.Message = "frame read failed: " + m.last.Error()
	}
	h.Name = h.Status.String()
	h.Failed = m.failed
	return h
}
