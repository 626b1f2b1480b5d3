package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handspeak/internal/capture"
	"github.com/ayusman/handspeak/internal/interaction"
	"github.com/ayusman/handspeak/internal/recognizer"
)

// FrameReport is what display surfaces receive for every processed frame.
type FrameReport struct {
	interaction.Snapshot
	Action     string          `json:"action"`
	Token      string          `json:"token,omitempty"`
	Spoken     bool            `json:"spoken,omitempty"`
	Symbol     string          `json:"symbol,omitempty"`
	Hands      int             `json:"hands"`
	Camera     capture.Health  `json:"camera"`
	Prediction *PredictionView `json:"prediction,omitempty"`
	Timestamp  int64           `json:"timestamp"`
	recognized recognizer.Recognition
}

// PredictionView is the classifier output shown with a report.
type PredictionView struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Recognition returns the raw recognition behind the report.
func (r FrameReport) Recognition() recognizer.Recognition {
	return r.recognized
}

// runPipeline reads one frame per tick until ctx is cancelled.
//
// Pipeline logic:
// 1. Read a frame; failures are tracked by the monitor and the frame is
// skipped without stepping the machine
// 2. Resize for detection and keep a JPEG of the frame for the stream
// 3. Recognize a gated symbol and step the machine
// 4. Queue accepted sentence tokens for speech
// 5. Publish the report
func (a *App) runPipeline(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick reads and processes a single frame.
func (a *App) Tick(ctx context.Context) FrameReport {
	frame, err := a.config.Camera.ReadFrame()
	prev := a.monitor.Health()
	health := a.monitor.Observe(err)

	if err != nil {
		switch {
		case health.Status == capture.StatusUnavailable && prev.Status != capture.StatusUnavailable:
			a.log.WithError(err).Error("Camera unavailable")
		case health.Status == capture.StatusTransient:
			a.log.WithError(err).Warn("Error reading frame")
		}
		return a.skip(health)
	}
	defer frame.Close()

	if prev.Status == capture.StatusUnavailable {
		a.log.Info("Camera recovered")
	}
	return a.ProcessFrame(ctx, frame, health)
}

// ProcessFrame runs recognition on frame and steps the machine.
func (a *App) ProcessFrame(ctx context.Context, frame *gocv.Mat, health capture.Health) FrameReport {
	jpeg, err := capture.EncodeJPEG(frame)
	if err != nil {
		a.log.WithError(err).Debug("Failed to encode stream frame")
	}

	input, err := capture.Resize(frame, a.config.ProcessWidth, a.config.ProcessHeight)
	if err != nil {
		a.log.WithError(err).Warn("Failed to resize frame")
		return a.step(recognizer.Recognition{}, health, jpeg)
	}
	defer input.Close()

	rec, err := a.config.Recognizer.Recognize(ctx, input, a.config.Machine.Mode())
	if err != nil {
		a.log.WithError(err).Warn("Error detecting hands")
	}
	return a.step(rec, health, jpeg)
}

// skip publishes the unchanged machine state for a frame that could not be
// read. Debounce and hold state carry over to the next good frame.
func (a *App) skip(health capture.Health) FrameReport {
	r := a.report(interaction.Outcome{Mode: a.config.Machine.Mode()}, recognizer.Recognition{}, health)
	a.publish(r, nil)
	return r
}

func (a *App) step(rec recognizer.Recognition, health capture.Health, jpeg []byte) FrameReport {
	out := a.config.Machine.Step(interaction.Event{Symbol: rec.Symbol, At: a.config.Clock.Now()})

	entry := a.log.WithField("mode", out.Mode)
	switch out.Action {
	case interaction.ActionAppend:
		entry.WithField("token", out.Token).Info("Token accepted")
	case interaction.ActionPop:
		entry.WithField("token", out.Token).Info("Token deleted")
	case interaction.ActionClear:
		entry.Info("Buffer cleared")
	}

	r := a.report(out, rec, health)
	if token, ok := out.Speak(); ok && a.config.Speaker != nil {
		if err := a.config.Speaker.Enqueue(token); err != nil {
			entry.WithError(err).WithField("token", token).Warn("Token not spoken")
		} else {
			r.Spoken = true
		}
	}

	a.publish(r, jpeg)
	return r
}

func (a *App) report(out interaction.Outcome, rec recognizer.Recognition, health capture.Health) FrameReport {
	r := FrameReport{
		Snapshot:   a.config.Machine.Snapshot(),
		Action:     out.Action.String(),
		Token:      out.Token,
		Symbol:     rec.Symbol,
		Hands:      len(rec.Hands),
		Camera:     health,
		Timestamp:  time.Now().UnixMilli(),
		recognized: rec,
	}
	if rec.Prediction != nil {
		r.Prediction = &PredictionView{
			Index:      rec.Prediction.Index,
			Label:      rec.Label,
			Confidence: rec.Prediction.Confidence,
		}
	}
	return r
}
