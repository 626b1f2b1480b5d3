package classifier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ayusman/handspeak/internal/detector"
)

// ErrNoSamples is returned when a label has nothing to train on.
var ErrNoSamples = errors.New("no samples provided")

// TrainTemplate normalizes each feature vector and averages them into a
// single template for the label index.
func TrainTemplate(index int, samples [][]float64, tolerance float64) (*Template, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("label %d: %w", index, ErrNoSamples)
	}

	t := &Template{Index: index, Tolerance: tolerance, Samples: len(samples)}
	for i, v := range samples {
		hand, err := detector.FromFeatures(v)
		if err != nil {
			return nil, fmt.Errorf("label %d sample %d: %w", index, i, err)
		}
		norm := hand.Normalize()
		for j, p := range norm.Points {
			t.Points[j].X += p.X
			t.Points[j].Y += p.Y
			t.Points[j].Z += p.Z
		}
	}

	n := float64(len(samples))
	for j := range t.Points {
		t.Points[j].X /= n
		t.Points[j].Y /= n
		t.Points[j].Z /= n
	}
	return t, nil
}

// Train builds one template per label, ordered by index. Labels without
// samples are skipped.
func Train(byLabel map[int][][]float64, tolerance float64) ([]*Template, error) {
	indices := make([]int, 0, len(byLabel))
	for idx, samples := range byLabel {
		if len(samples) > 0 {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	templates := make([]*Template, 0, len(indices))
	for _, idx := range indices {
		t, err := TrainTemplate(idx, byLabel[idx], tolerance)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}
