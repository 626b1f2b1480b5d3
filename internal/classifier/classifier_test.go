package classifier

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ayusman/handspeak/internal/detector"
)

func features(t *testing.T, hand detector.HandLandmarks) []float64 {
	t.Helper()
	v, err := detector.Features([]detector.HandLandmarks{hand})
	if err != nil {
		t.Fatalf("Features() error = %v", err)
	}
	return v
}

func templateFor(index int, hand detector.HandLandmarks, tolerance float64) *Template {
	return &Template{Index: index, Points: hand.Normalize().Points, Tolerance: tolerance}
}

func TestTemplateClassifier_Predict(t *testing.T) {
	c := NewTemplateClassifier(
		templateFor(0, detector.ThumbsUpLandmarks(), 100),
		templateFor(1, detector.OpenPalmLandmarks(), 100),
		templateFor(2, detector.PointingLandmarks(), 100),
	)

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want int
	}{
		{"thumbs up", detector.ThumbsUpLandmarks(), 0},
		{"open palm", detector.OpenPalmLandmarks(), 1},
		{"pointing", detector.PointingLandmarks(), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Predict(context.Background(), features(t, tt.hand))
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if p.Index != tt.want {
				t.Errorf("Index = %d, want %d", p.Index, tt.want)
			}
			if math.Abs(p.Confidence-1) > 1e-9 {
				t.Errorf("Confidence = %f, want 1 for identical pose", p.Confidence)
			}
		})
	}
}

func TestTemplateClassifier_ScaleInvariant(t *testing.T) {
	c := NewTemplateClassifier(templateFor(4, detector.OpenPalmLandmarks(), 0.5))

	hand := detector.OpenPalmLandmarks()
	for i := range hand.Points {
		hand.Points[i].X = hand.Points[i].X*1.5 + 0.1
		hand.Points[i].Y = hand.Points[i].Y*1.5 - 0.2
		hand.Points[i].Z *= 1.5
	}

	p, err := c.Predict(context.Background(), features(t, hand))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if p.Index != 4 {
		t.Errorf("Index = %d, want 4", p.Index)
	}
}

func TestTemplateClassifier_NoMatch(t *testing.T) {
	c := NewTemplateClassifier(templateFor(0, detector.ThumbsUpLandmarks(), 1e-6))

	_, err := c.Predict(context.Background(), features(t, detector.OpenPalmLandmarks()))
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", err)
	}

	empty := NewTemplateClassifier()
	if _, err := empty.Predict(context.Background(), features(t, detector.OpenPalmLandmarks())); !errors.Is(err, ErrNoMatch) {
		t.Errorf("expected ErrNoMatch without templates, got %v", err)
	}
}

func TestTemplateClassifier_BadInput(t *testing.T) {
	c := NewTemplateClassifier(templateFor(0, detector.ThumbsUpLandmarks(), 100))
	if _, err := c.Predict(context.Background(), []float64{1, 2, 3}); err == nil {
		t.Error("expected error for short feature vector")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Predict(ctx, features(t, detector.ThumbsUpLandmarks())); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTemplateClassifier_AddRemove(t *testing.T) {
	c := NewTemplateClassifier(nil)
	if c.Len() != 0 {
		t.Fatalf("expected nil template to be skipped, got %d", c.Len())
	}

	c.AddTemplate(templateFor(3, detector.ThumbsUpLandmarks(), 100))
	c.AddTemplate(templateFor(3, detector.OpenPalmLandmarks(), 100))
	if c.Len() != 1 {
		t.Fatalf("expected replacement by index, got %d templates", c.Len())
	}

	p, err := c.Predict(context.Background(), features(t, detector.OpenPalmLandmarks()))
	if err != nil || p.Confidence < 0.999 {
		t.Errorf("expected replaced template to match exactly, got %+v, %v", p, err)
	}

	c.RemoveTemplate(3)
	if c.Len() != 0 {
		t.Errorf("expected 0 templates after remove, got %d", c.Len())
	}
}

func TestTrainTemplate(t *testing.T) {
	base := detector.PointingLandmarks()
	moved := detector.PointingLandmarks()
	for i := range moved.Points {
		moved.Points[i].X += 0.2
		moved.Points[i].Y -= 0.1
	}

	tmpl, err := TrainTemplate(7, [][]float64{features(t, base), features(t, moved)}, 0.8)
	if err != nil {
		t.Fatalf("TrainTemplate() error = %v", err)
	}
	if tmpl.Index != 7 || tmpl.Tolerance != 0.8 || tmpl.Samples != 2 {
		t.Errorf("unexpected template header %+v", tmpl)
	}

	want := base.Normalize().Points
	if d := distance(tmpl.Points[:], want[:]); d > 1e-9 {
		t.Errorf("expected averaged template to equal normalized pose, distance %f", d)
	}
}

func TestTrainTemplate_Errors(t *testing.T) {
	if _, err := TrainTemplate(1, nil, 1); !errors.Is(err, ErrNoSamples) {
		t.Errorf("expected ErrNoSamples, got %v", err)
	}
	if _, err := TrainTemplate(1, [][]float64{{0.1}}, 1); err == nil {
		t.Error("expected error for malformed sample")
	}
}

func TestTrain(t *testing.T) {
	byLabel := map[int][][]float64{
		5: {features(t, detector.OpenPalmLandmarks())},
		2: {features(t, detector.ThumbsUpLandmarks())},
		9: nil,
	}

	templates, err := Train(byLabel, DefaultTolerance)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].Index != 2 || templates[1].Index != 5 {
		t.Errorf("expected templates ordered by index, got %d, %d", templates[0].Index, templates[1].Index)
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("passes through fast predictions", func(t *testing.T) {
		mock := NewMock(Prediction{Index: 3, Confidence: 0.9})
		c := WithTimeout(mock, time.Second)

		p, err := c.Predict(context.Background(), nil)
		if err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
		if p.Index != 3 {
			t.Errorf("Index = %d, want 3", p.Index)
		}
	})

	t.Run("slow prediction times out", func(t *testing.T) {
		mock := NewMock(Prediction{Index: 3})
		mock.SetDelay(time.Second)
		c := WithTimeout(mock, 10*time.Millisecond)

		start := time.Now()
		_, err := c.Predict(context.Background(), nil)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
		if time.Since(start) > 500*time.Millisecond {
			t.Error("timeout did not bound the call")
		}
	})

	t.Run("errors pass through", func(t *testing.T) {
		mock := NewMock(Prediction{})
		mock.Set(Prediction{}, ErrNoMatch)

		_, err := WithTimeout(mock, time.Second).Predict(context.Background(), nil)
		if !errors.Is(err, ErrNoMatch) {
			t.Errorf("expected ErrNoMatch, got %v", err)
		}
	})

	t.Run("non-positive timeout returns classifier", func(t *testing.T) {
		mock := NewMock(Prediction{})
		if WithTimeout(mock, 0) != Classifier(mock) {
			t.Error("expected unwrapped classifier")
		}
	})
}
