package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/detector"
	"github.com/ayusman/handspeak/internal/logging"
	"github.com/ayusman/handspeak/internal/store"
	"github.com/ayusman/handspeak/internal/symbol"
)

// fakeLabels keeps samples in memory.
type fakeLabels struct {
	samples    map[int][]store.Sample
	tolerances map[int]float64
	captured   []float64
	noStore    bool
	nextID     int
}

func newFakeLabels() *fakeLabels {
	return &fakeLabels{
		samples:    make(map[int][]store.Sample),
		tolerances: make(map[int]float64),
	}
}

func (f *fakeLabels) Table() *symbol.Table { return symbol.DefaultTable() }
func (f *fakeLabels) Gate() *symbol.Gate   { return symbol.NewGate("", "") }

func (f *fakeLabels) SampleCounts() (map[int]int, error) {
	out := make(map[int]int)
	for idx, s := range f.samples {
		out[idx] = len(s)
	}
	return out, nil
}

func (f *fakeLabels) ListSamples(labelIndex int) ([]store.Sample, error) {
	if f.noStore {
		return nil, app.ErrNoStore
	}
	return f.samples[labelIndex], nil
}

func (f *fakeLabels) AddSamples(labelIndex int, features [][]float64) ([]store.Sample, error) {
	if f.noStore {
		return nil, app.ErrNoStore
	}
	var out []store.Sample
	for _, v := range features {
		if _, err := detector.FromFeatures(v); err != nil {
			return nil, err
		}
		f.nextID++
		s := store.Sample{ID: fmt.Sprintf("s%d", f.nextID), LabelIndex: labelIndex, Features: v, CreatedAt: time.Now()}
		f.samples[labelIndex] = append(f.samples[labelIndex], s)
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeLabels) CaptureSample(labelIndex int) (*store.Sample, error) {
	if f.captured == nil {
		return nil, detector.ErrNoHandDetected
	}
	out, err := f.AddSamples(labelIndex, [][]float64{f.captured})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (f *fakeLabels) DeleteSamples(labelIndex int) (int64, error) {
	n := len(f.samples[labelIndex])
	delete(f.samples, labelIndex)
	return int64(n), nil
}

func (f *fakeLabels) SetTolerance(labelIndex int, tolerance float64) error {
	f.tolerances[labelIndex] = tolerance
	return nil
}

func palmFeatures(t *testing.T) []float64 {
	t.Helper()
	v, err := detector.Features([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	if err != nil {
		t.Fatalf("Features() error = %v", err)
	}
	return v
}

func serve(h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLabelHandler_List(t *testing.T) {
	labels := newFakeLabels()
	labels.AddSamples(0, [][]float64{palmFeatures(t), palmFeatures(t)})
	h := NewLabelHandler(labels, logging.Discard())

	rec := serve(h, http.MethodGet, "/api/labels", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var response listLabelsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Labels) != 28 {
		t.Fatalf("expected 28 labels, got %d", len(response.Labels))
	}

	tests := []struct {
		index      int
		symbol     string
		samples    int
		calculator bool
	}{
		{0, "HELLO", 2, false},
		{9, symbol.DefaultDelete, 0, true},
		{20, "+", 0, true},
		{27, ")", 0, true},
	}
	for _, tt := range tests {
		got := response.Labels[tt.index]
		if got.Symbol != tt.symbol || got.Samples != tt.samples || got.Calculator != tt.calculator || !got.Sentence {
			t.Errorf("label %d = %+v, want symbol=%q samples=%d calculator=%v", tt.index, got, tt.symbol, tt.samples, tt.calculator)
		}
	}
}

func TestLabelHandler_Samples(t *testing.T) {
	labels := newFakeLabels()
	h := NewLabelHandler(labels, logging.Discard())

	body, _ := json.Marshal(createSamplesRequest{Samples: [][]float64{palmFeatures(t)}})
	rec := serve(h, http.MethodPost, "/api/labels/3/samples", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created listSamplesResponse
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(created.Samples) != 1 || created.Samples[0].LabelIndex != 3 {
		t.Errorf("unexpected created samples %+v", created.Samples)
	}

	rec = serve(h, http.MethodGet, "/api/labels/3/samples", nil)
	var listed listSamplesResponse
	json.NewDecoder(rec.Body).Decode(&listed)
	if rec.Code != http.StatusOK || len(listed.Samples) != 1 {
		t.Errorf("GET status = %d, samples = %d", rec.Code, len(listed.Samples))
	}
	if len(listed.Samples[0].Features) != detector.FeatureLen {
		t.Errorf("features = %d values, want %d", len(listed.Samples[0].Features), detector.FeatureLen)
	}

	rec = serve(h, http.MethodDelete, "/api/labels/3/samples", nil)
	var deleted map[string]int64
	json.NewDecoder(rec.Body).Decode(&deleted)
	if rec.Code != http.StatusOK || deleted["deleted"] != 1 {
		t.Errorf("DELETE status = %d, body %v", rec.Code, deleted)
	}
}

func TestLabelHandler_Capture(t *testing.T) {
	labels := newFakeLabels()
	h := NewLabelHandler(labels, logging.Discard())

	t.Run("no hand in frame", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/api/labels/1/samples", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
		}
	})

	t.Run("captures latest hand", func(t *testing.T) {
		labels.captured = palmFeatures(t)
		rec := serve(h, http.MethodPost, "/api/labels/1/samples", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
		}
		if len(labels.samples[1]) != 1 {
			t.Errorf("expected one stored sample, got %d", len(labels.samples[1]))
		}
	})
}

func TestLabelHandler_Errors(t *testing.T) {
	labels := newFakeLabels()
	h := NewLabelHandler(labels, logging.Discard())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad index", http.MethodGet, "/api/labels/abc/samples", "", http.StatusBadRequest},
		{"unknown index", http.MethodGet, "/api/labels/99/samples", "", http.StatusNotFound},
		{"unknown sub-resource", http.MethodGet, "/api/labels/1/other", "", http.StatusNotFound},
		{"post to collection", http.MethodPost, "/api/labels", "", http.StatusMethodNotAllowed},
		{"patch samples", http.MethodPatch, "/api/labels/1/samples", "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "/api/labels/1/samples", "{", http.StatusBadRequest},
		{"empty sample list", http.MethodPost, "/api/labels/1/samples", `{"samples":[]}`, http.StatusBadRequest},
		{"short feature vector", http.MethodPost, "/api/labels/1/samples", `{"samples":[[1,2,3]]}`, http.StatusBadRequest},
		{"non-positive tolerance", http.MethodPut, "/api/labels/1", `{"tolerance":0}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}
			rec := serve(h, tt.method, tt.path, body)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d (%s)", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLabelHandler_NoStore(t *testing.T) {
	labels := newFakeLabels()
	labels.noStore = true
	h := NewLabelHandler(labels, logging.Discard())

	rec := serve(h, http.MethodGet, "/api/labels/1/samples", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestLabelHandler_SetTolerance(t *testing.T) {
	labels := newFakeLabels()
	h := NewLabelHandler(labels, logging.Discard())

	rec := serve(h, http.MethodPut, "/api/labels/5", []byte(`{"tolerance":0.8}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if labels.tolerances[5] != 0.8 {
		t.Errorf("tolerance = %v, want 0.8", labels.tolerances[5])
	}
}
