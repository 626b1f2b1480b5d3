package classifier

import (
	"context"
	"sync"
	"time"
)

// Mock is a test implementation of Classifier.
type Mock struct {
	mu    sync.Mutex
	pred  Prediction
	err   error
	delay time.Duration
	calls int
}

// NewMock returns a Mock that predicts p.
func NewMock(p Prediction) *Mock {
	return &Mock{pred: p}
}

// Set changes the prediction and error returned by Predict.
func (m *Mock) Set(p Prediction, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pred, m.err = p, err
}

// SetDelay makes Predict wait before answering.
func (m *Mock) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns how many times Predict was called.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) Predict(ctx context.Context, _ []float64) (Prediction, error) {
	m.mu.Lock()
	m.calls++
	p, err, delay := m.pred, m.err, m.delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Prediction{}, ctx.Err()
		}
	}
	return p, err
}
