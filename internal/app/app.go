// Package app wires the camera, recognizer, interaction state machine and
// speech queue into the running HandSpeak application.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/classifier"
	"github.com/ayusman/handspeak/internal/interaction"
	"github.com/ayusman/handspeak/internal/recognizer"
	"github.com/ayusman/handspeak/internal/store"
	"github.com/ayusman/handspeak/internal/symbol"
)

// subscriberBuffer is the number of reports a slow subscriber may lag behind
// before reports to it are dropped.
const subscriberBuffer = 8

// ErrNoStore is returned by sample operations when no store is configured.
var ErrNoStore = errors.New("no sample store configured")

// Speaker receives tokens to announce. It must not block.
type Speaker interface {
	Enqueue(token string) error
}

// Config holds the collaborators and settings of an App.
type Config struct {
	Camera     capture.Camera
	Recognizer *recognizer.Recognizer
	Machine    *interaction.Machine
	// Clock defaults to a monotonic clock.
	Clock interaction.Clock
	// Speaker may be nil to disable speech.
	Speaker Speaker
	// Store and Templates enable sample collection and training.
	Store     *store.Store
	Templates *classifier.TemplateClassifier
	Tolerance float64
	// FPS is the pipeline rate; defaults to the camera rate.
	FPS           int
	ProcessWidth  int
	ProcessHeight int
	Logger        logrus.FieldLogger
}

// App runs the detection pipeline and fans its results out to display
// surfaces.
type App struct {
	config  Config
	log     logrus.FieldLogger
	monitor *capture.Monitor

	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
	latest  FrameReport
	jpeg    []byte
	subs    map[int]chan FrameReport
	nextSub int
}

// New creates an App. Camera, Recognizer and Machine are required.
func New(config Config) (*App, error) {
	if config.Camera == nil || config.Recognizer == nil || config.Machine == nil {
		return nil, errors.New("app: camera, recognizer and machine are required")
	}
	if config.Clock == nil {
		config.Clock = interaction.NewMonotonicClock()
	}
	if config.Tolerance <= 0 {
		config.Tolerance = classifier.DefaultTolerance
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}

	a := &App{
		config:  config,
		log:     config.Logger.WithField("component", "app"),
		monitor: capture.NewMonitor(),
		subs:    make(map[int]chan FrameReport),
	}
	a.latest = a.report(interaction.Outcome{}, recognizer.Recognition{}, a.monitor.Health())
	return a, nil
}

// Start opens the camera and starts the pipeline goroutine.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	fps := a.config.FPS
	if fps <= 0 {
		fps = a.config.Camera.FPS()
	}
	if fps <= 0 {
		fps = capture.DefaultFPS
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.runPipeline(ctx, time.Second/time.Duration(fps), a.done)

	a.log.WithField("fps", fps).Info("Detection pipeline started")
	return nil
}

// Stop halts the pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if err := a.config.Camera.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing camera")
	}
	if err := a.config.Recognizer.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing detector")
	}

	a.log.Info("Detection pipeline stopped")
}

// Running reports whether the pipeline is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cancel != nil
}

// Machine returns the interaction state machine.
func (a *App) Machine() *interaction.Machine {
	return a.config.Machine
}

// Recognizer returns the recognizer.
func (a *App) Recognizer() *recognizer.Recognizer {
	return a.config.Recognizer
}

// Table returns the label table.
func (a *App) Table() *symbol.Table {
	return a.config.Recognizer.Table()
}

// Gate returns the mode gate.
func (a *App) Gate() *symbol.Gate {
	return a.config.Recognizer.Gate()
}

// Health returns the current camera health.
func (a *App) Health() capture.Health {
	return a.monitor.Health()
}

// Toggle switches the mode, clearing both buffers, and publishes the new
// state.
func (a *App) Toggle() symbol.Mode {
	mode := a.config.Machine.Toggle()
	a.log.WithField("mode", mode).Info("Mode toggled")
	a.publishState()
	return mode
}

// SetMode switches to mode if it differs from the current one.
func (a *App) SetMode(mode symbol.Mode) bool {
	changed := a.config.Machine.SetMode(mode)
	if changed {
		a.log.WithField("mode", mode).Info("Mode changed")
		a.publishState()
	}
	return changed
}

// Latest returns the most recent frame report.
func (a *App) Latest() FrameReport {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// LatestJPEG returns the most recent camera frame as JPEG, or nil.
func (a *App) LatestJPEG() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.jpeg
}

// Subscribe returns a channel receiving every frame report and a function
// that ends the subscription. Reports are dropped for subscribers that fall
// behind.
func (a *App) Subscribe() (<-chan FrameReport, func()) {
	ch := make(chan FrameReport, subscriberBuffer)

	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
			close(ch)
		})
	}
}

func (a *App) publish(r FrameReport, jpeg []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.latest = r
	if jpeg != nil {
		a.jpeg = jpeg
	}
	for _, ch := range a.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

// publishState publishes the machine state outside of a frame, e.g. after a
// mode change.
func (a *App) publishState() {
	a.publish(a.report(interaction.Outcome{Mode: a.config.Machine.Mode()}, recognizer.Recognition{}, a.monitor.Health()), nil)
}
