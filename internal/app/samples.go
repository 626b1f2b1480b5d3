package app

import (
	"errors"
	"fmt"

	"github.com/ayusman/handspeak/internal/classifier"
	"github.com/ayusman/handspeak/internal/detector"
	"github.com/ayusman/handspeak/internal/store"
)

// LoadTemplates trains the template classifier from every stored sample.
// Per-label tolerances stored in the label table override the default.
func (a *App) LoadTemplates() error {
	if a.config.Store == nil || a.config.Templates == nil {
		return nil
	}

	byLabel, err := a.config.Store.Samples().All()
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	tolerances, err := a.tolerances()
	if err != nil {
		return err
	}

	templates, err := classifier.Train(byLabel, a.config.Tolerance)
	if err != nil {
		return fmt.Errorf("train templates: %w", err)
	}
	for _, t := range templates {
		if tol, ok := tolerances[t.Index]; ok {
			t.Tolerance = tol
		}
	}

	a.config.Templates.SetTemplates(templates)
	a.log.WithField("templates", len(templates)).Info("Loaded gesture templates from database")
	return nil
}

func (a *App) tolerances() (map[int]float64, error) {
	labels, err := a.config.Store.Labels().List()
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	out := make(map[int]float64, len(labels))
	for _, l := range labels {
		if l.Tolerance > 0 {
			out[l.Index] = l.Tolerance
		}
	}
	return out, nil
}

// AddSamples stores feature vectors for a label and retrains its template.
func (a *App) AddSamples(labelIndex int, features [][]float64) ([]store.Sample, error) {
	if a.config.Store == nil {
		return nil, ErrNoStore
	}
	if _, ok := a.Table().Lookup(labelIndex); !ok {
		return nil, fmt.Errorf("label %d: %w", labelIndex, store.ErrNotFound)
	}
	for i, v := range features {
		if _, err := detector.FromFeatures(v); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	samples, err := a.config.Store.Samples().Create(labelIndex, features)
	if err != nil {
		return nil, err
	}
	if err := a.retrain(labelIndex); err != nil {
		return samples, err
	}

	a.log.WithFields(map[string]any{"label": labelIndex, "samples": len(samples)}).Info("Samples recorded")
	return samples, nil
}

// CaptureSample stores the features of the most recent frame's hand as a
// sample for labelIndex.
func (a *App) CaptureSample(labelIndex int) (*store.Sample, error) {
	features := a.Latest().Recognition().Features
	if len(features) == 0 {
		return nil, detector.ErrNoHandDetected
	}
	samples, err := a.AddSamples(labelIndex, [][]float64{features})
	if err != nil {
		return nil, err
	}
	return &samples[0], nil
}

// DeleteSamples removes all samples of a label and its template.
func (a *App) DeleteSamples(labelIndex int) (int64, error) {
	if a.config.Store == nil {
		return 0, ErrNoStore
	}
	n, err := a.config.Store.Samples().DeleteByLabel(labelIndex)
	if err != nil {
		return 0, err
	}
	if a.config.Templates != nil {
		a.config.Templates.RemoveTemplate(labelIndex)
	}
	return n, nil
}

// ListSamples returns the stored samples of a label.
func (a *App) ListSamples(labelIndex int) ([]store.Sample, error) {
	if a.config.Store == nil {
		return nil, ErrNoStore
	}
	return a.config.Store.Samples().ListByLabel(labelIndex)
}

// SampleCounts returns the number of stored samples per label.
func (a *App) SampleCounts() (map[int]int, error) {
	if a.config.Store == nil {
		return map[int]int{}, nil
	}
	return a.config.Store.Samples().CountByLabel()
}

// SetTolerance stores a label's match tolerance and retrains it.
func (a *App) SetTolerance(labelIndex int, tolerance float64) error {
	if a.config.Store == nil {
		return ErrNoStore
	}
	sym, ok := a.Table().Lookup(labelIndex)
	if !ok {
		return fmt.Errorf("label %d: %w", labelIndex, store.ErrNotFound)
	}
	if tolerance <= 0 {
		return errors.New("tolerance must be positive")
	}
	if err := a.config.Store.Labels().Upsert(&store.Label{Index: labelIndex, Symbol: sym, Tolerance: tolerance}); err != nil {
		return err
	}
	return a.retrain(labelIndex)
}

func (a *App) retrain(labelIndex int) error {
	if a.config.Templates == nil {
		return nil
	}

	samples, err := a.config.Store.Samples().ListByLabel(labelIndex)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.config.Templates.RemoveTemplate(labelIndex)
		return nil
	}

	tolerance := a.config.Tolerance
	if l, err := a.config.Store.Labels().Get(labelIndex); err == nil && l.Tolerance > 0 {
		tolerance = l.Tolerance
	}

	features := make([][]float64, len(samples))
	for i, s := range samples {
		features[i] = s.Features
	}
	t, err := classifier.TrainTemplate(labelIndex, features, tolerance)
	if err != nil {
		return fmt.Errorf("train label %d: %w", labelIndex, err)
	}
	a.config.Templates.AddTemplate(t)
	return nil
}
