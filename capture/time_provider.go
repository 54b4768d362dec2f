package capture

import (
	"sync"
	"time"
)

// TimeProvider abstracts time operations to enable deterministic testing.
type TimeProvider interface {
	// Now returns the current time.
	Now() time.Time
}

// DefaultTimeProvider implements TimeProvider using the system clock.
type DefaultTimeProvider struct{}

// Now returns the current system time.
func (DefaultTimeProvider) Now() time.Time {
	return time.Now()
}

// MockTimeProvider is a controllable clock for tests. It is safe for
// concurrent use since pipeline goroutines read it.
type MockTimeProvider struct {
	mu          sync.Mutex
	currentTime time.Time
}

// NewMockTimeProvider creates a MockTimeProvider starting at startTime.
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{currentTime: startTime}
}

// Now returns the mock's current time.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

// Advance moves the mock time forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(d)
}

func getTimeProvider(tp TimeProvider) TimeProvider {
	if tp != nil {
		return tp
	}
	return DefaultTimeProvider{}
}
