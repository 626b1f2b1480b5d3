package classifier

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ayusman/handspeak/internal/detector"
)

// DefaultTolerance is the summed landmark distance accepted for a match
// when a template does not set its own.
const DefaultTolerance = 1.5

// Template is the averaged, normalized hand pose of one label.
type Template struct {
	Index     int
	Points    [detector.NumLandmarks]detector.Point3D
	Tolerance float64
	Samples   int
}

// TemplateClassifier classifies a hand as the nearest template by summed
// euclidean landmark distance. Score is 1/(1+distance).
type TemplateClassifier struct {
	mu        sync.RWMutex
	templates []*Template
}

// NewTemplateClassifier creates a classifier with the given templates.
func NewTemplateClassifier(templates ...*Template) *TemplateClassifier {
	c := &TemplateClassifier{}
	c.SetTemplates(templates)
	return c
}

// SetTemplates replaces all templates.
func (c *TemplateClassifier) SetTemplates(templates []*Template) {
	kept := make([]*Template, 0, len(templates))
	for _, t := range templates {
		if t != nil {
			kept = append(kept, t)
		}
	}

	c.mu.Lock()
	c.templates = kept
	c.mu.Unlock()
}

// AddTemplate adds a template, replacing any template with the same index.
func (c *TemplateClassifier) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.templates {
		if existing.Index == t.Index {
			c.templates[i] = t
			return
		}
	}
	c.templates = append(c.templates, t)
}

// RemoveTemplate removes the template for a label index.
func (c *TemplateClassifier) RemoveTemplate(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.templates {
		if t.Index == index {
			c.templates = append(c.templates[:i], c.templates[i+1:]...)
			return
		}
	}
}

// Len returns the number of templates.
func (c *TemplateClassifier) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}

// Predict returns the best template within tolerance, or ErrNoMatch.
func (c *TemplateClassifier) Predict(ctx context.Context, features []float64) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	hand, err := detector.FromFeatures(features)
	if err != nil {
		return Prediction{}, err
	}
	input := hand.Normalize()

	c.mu.RLock()
	defer c.mu.RUnlock()

	type candidate struct {
		index    int
		distance float64
	}
	var matches []candidate
	for _, t := range c.templates {
		tol := t.Tolerance
		if tol <= 0 {
			tol = DefaultTolerance
		}
		d := distance(input.Points[:], t.Points[:])
		if d <= tol {
			matches = append(matches, candidate{t.Index, d})
		}
	}
	if len(matches) == 0 {
		return Prediction{}, ErrNoMatch
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	best := matches[0]
	return Prediction{Index: best.index, Confidence: 1 / (1 + best.distance)}, nil
}

// distance sums the euclidean distances between corresponding points.
func distance(a, b []detector.Point3D) float64 {
	n := min(len(a), len(b))

	var total float64
	for i := 0; i < n; i++ {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return total
}
