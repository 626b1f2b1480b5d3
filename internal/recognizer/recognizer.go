// Package recognizer turns camera frames into gated symbols for the
// interaction state machine.
package recognizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/handspeak/internal/classifier"
	"github.com/ayusman/handspeak/internal/detector"
	"github.com/ayusman/handspeak/internal/symbol"
)

// Recognition is the per-frame result. An empty Symbol means no detection.
type Recognition struct {
	Hands      []detector.HandLandmarks `json:"-"`
	Features   []float64                `json:"-"`
	Prediction *classifier.Prediction   `json:"prediction,omitempty"`
	// Label is the table symbol before gating.
	Label  string `json:"label,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// Detected reports whether the frame produced a symbol.
func (r Recognition) Detected() bool {
	return r.Symbol != ""
}

// Recognizer chains landmark detection, feature extraction, classification,
// label lookup and the mode gate.
type Recognizer struct {
	detector   detector.Detector
	classifier classifier.Classifier
	table      *symbol.Table
	gate       *symbol.Gate
	log        logrus.FieldLogger
}

// New creates a Recognizer. The classifier should already be bounded with
// classifier.WithTimeout.
func New(d detector.Detector, c classifier.Classifier, table *symbol.Table, gate *symbol.Gate, logger logrus.FieldLogger) *Recognizer {
	if table == nil {
		table = symbol.DefaultTable()
	}
	if gate == nil {
		gate = symbol.NewGate("", "")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Recognizer{
		detector:   d,
		classifier: c,
		table:      table,
		gate:       gate,
		log:        logger.WithField("component", "recognizer"),
	}
}

// Table returns the label table.
func (r *Recognizer) Table() *symbol.Table {
	return r.table
}

// Gate returns the mode gate.
func (r *Recognizer) Gate() *symbol.Gate {
	return r.gate
}

// Close releases the detector.
func (r *Recognizer) Close() error {
	if r.detector == nil {
		return nil
	}
	return r.detector.Close()
}

// Recognize detects hands in frame and classifies the first one. Only a
// detector failure is returned as an error; everything else degrades to a
// None recognition.
func (r *Recognizer) Recognize(ctx context.Context, frame *gocv.Mat, mode symbol.Mode) (Recognition, error) {
	hands, err := r.detector.Detect(frame)
	if err != nil {
		return Recognition{}, fmt.Errorf("detect hands: %w", err)
	}
	return r.Classify(ctx, hands, mode), nil
}

// Classify runs the part of the chain after landmark detection.
func (r *Recognizer) Classify(ctx context.Context, hands []detector.HandLandmarks, mode symbol.Mode) Recognition {
	rec := Recognition{Hands: hands}

	features, err := detector.Features(hands)
	if err != nil {
		return rec
	}
	rec.Features = features

	if r.classifier == nil {
		return rec
	}

	pred, err := r.classifier.Predict(ctx, features)
	switch {
	case errors.Is(err, classifier.ErrNoMatch):
		return rec
	case errors.Is(err, classifier.ErrTimeout):
		r.log.Warn("Classifier timed out, treating frame as no detection")
		return rec
	case err != nil:
		r.log.WithError(err).Warn("Classifier failed")
		return rec
	}
	rec.Prediction = &pred

	label, ok := r.table.Lookup(pred.Index)
	if !ok {
		r.log.WithField("index", pred.Index).Debug("Prediction outside label table")
		return rec
	}
	rec.Label = label

	if sym, ok := r.gate.Allow(label, mode); ok {
		rec.Symbol = sym
	}
	return rec
}
