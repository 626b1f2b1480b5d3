package detector

import (
	"errors"
	"fmt"
)

// FeatureLen is the length of a feature vector: three coordinates per landmark.
const FeatureLen = NumLandmarks * 3

// ErrNoHandDetected is returned by Features when there is no hand to encode.
var ErrNoHandDetected = errors.New("no hand detected")

// ErrInvalidFeatures is returned for feature vectors of the wrong length.
var ErrInvalidFeatures = errors.New("invalid feature vector")

// Features flattens the first detected hand into a coordinate-major vector
// (x0, y0, z0, x1, y1, z1, ...). Only one hand is used.
func Features(hands []HandLandmarks) ([]float64, error) {
	if len(hands) == 0 {
		return nil, ErrNoHandDetected
	}

	v := make([]float64, 0, FeatureLen)
	for _, p := range hands[0].Points {
		v = append(v, p.X, p.Y, p.Z)
	}
	return v, nil
}

// FromFeatures rebuilds hand landmarks from a feature vector.
func FromFeatures(v []float64) (HandLandmarks, error) {
	var h HandLandmarks
	if len(v) != FeatureLen {
		return h, fmt.Errorf("%w: %d values, expected %d", ErrInvalidFeatures, len(v), FeatureLen)
	}

	for i := range h.Points {
		h.Points[i] = Point3D{X: v[3*i], Y: v[3*i+1], Z: v[3*i+2]}
	}
	return h, nil
}
