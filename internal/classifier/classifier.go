// Package classifier maps hand feature vectors to label-table indices.
package classifier

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoMatch is returned when no template lies within its tolerance.
	ErrNoMatch = errors.New("no template within tolerance")
	// ErrTimeout is returned by a classifier wrapped with WithTimeout when a
	// prediction does not finish in time.
	ErrTimeout = errors.New("classifier timed out")
)

// Prediction is the outcome of classifying one feature vector.
type Prediction struct {
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// Classifier predicts a label index from a feature vector.
type Classifier interface {
	Predict(ctx context.Context, features []float64) (Prediction, error)
}

type timeoutClassifier struct {
	next    Classifier
	timeout time.Duration
}

// WithTimeout bounds every prediction of c to d. A prediction that runs past
// the deadline returns ErrTimeout; its result is discarded when it arrives.
// A non-positive d returns c unchanged.
func WithTimeout(c Classifier, d time.Duration) Classifier {
	if d <= 0 {
		return c
	}
	return &timeoutClassifier{next: c, timeout: d}
}

func (t *timeoutClassifier) Predict(ctx context.Context, features []float64) (Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		p   Prediction
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := t.next.Predict(ctx, features)
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		return r.p, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Prediction{}, ErrTimeout
		}
		return Prediction{}, ctx.Err()
	}
}
