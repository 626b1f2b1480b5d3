package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is the number of tokens that may wait to be spoken.
const DefaultQueueSize = 16

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("speech queue closed")
	// ErrQueueFull is returned when a token is dropped.
	ErrQueueFull = errors.New("speech queue full")
)

// Queue speaks tokens in order on a single worker goroutine. Enqueue never
// blocks: when the queue is full the token is dropped.
type Queue struct {
	speaker Speaker
	log     logrus.FieldLogger

	mu     sync.RWMutex
	items  chan string
	closed bool

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	dropped atomic.Int64
	spoken  atomic.Int64
}

// NewQueue starts a queue of the given size in front of speaker.
func NewQueue(speaker Speaker, size int, logger logrus.FieldLogger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		speaker: speaker,
		log:     logger.WithField("component", "speech"),
		items:   make(chan string, size),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue schedules token to be spoken.
func (q *Queue) Enqueue(token string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- token:
		return nil
	default:
		q.dropped.Add(1)
		q.log.WithField("token", token).Warn("Speech queue full, dropping token")
		return ErrQueueFull
	}
}

// Dropped returns how many tokens were dropped because the queue was full.
func (q *Queue) Dropped() int64 {
	return q.dropped.Load()
}

// Spoken returns how many tokens were spoken successfully.
func (q *Queue) Spoken() int64 {
	return q.spoken.Load()
}

// Close stops accepting tokens and waits for the queued ones to be spoken.
// If ctx ends first the utterance in progress is cancelled.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	defer q.cancel()

	for token := range q.items {
		if q.ctx.Err() != nil {
			continue
		}
		if err := q.speaker.Speak(q.ctx, token); err != nil {
			q.log.WithError(err).WithField("token", token).Warn("Speech failed")
			continue
		}
		q.spoken.Add(1)
	}
}
