// Package api provides HTTP API handlers for the HandSpeak label table and
// its training samples.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/detector"
	"github.com/ayusman/handspeak/internal/store"
	"github.com/ayusman/handspeak/internal/symbol"
)

// maxBodyBytes bounds sample upload bodies.
const maxBodyBytes = 4 << 20

// Labels is the label and sample service behind the handler.
type Labels interface {
	Table() *symbol.Table
	Gate() *symbol.Gate
	SampleCounts() (map[int]int, error)
	ListSamples(labelIndex int) ([]store.Sample, error)
	AddSamples(labelIndex int, features [][]float64) ([]store.Sample, error)
	CaptureSample(labelIndex int) (*store.Sample, error)
	DeleteSamples(labelIndex int) (int64, error)
	SetTolerance(labelIndex int, tolerance float64) error
}

// LabelHandler handles HTTP requests for labels and their samples.
type LabelHandler struct {
	labels Labels
	log    logrus.FieldLogger
}

// NewLabelHandler creates a new LabelHandler.
func NewLabelHandler(labels Labels, logger logrus.FieldLogger) *LabelHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LabelHandler{labels: labels, log: logger.WithField("component", "api")}
}

// ServeHTTP routes requests.
// Expected paths: /api/labels, /api/labels/{index} and
// /api/labels/{index}/samples
func (h *LabelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/labels")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	parts := strings.Split(path, "/")
	index, err := strconv.Atoi(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid label index")
		return
	}
	if _, ok := h.labels.Table().Lookup(index); !ok {
		writeError(w, http.StatusNotFound, "Label not found")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.update(w, r, index)
	case len(parts) == 2 && parts[1] == "samples":
		switch r.Method {
		case http.MethodGet:
			h.listSamples(w, r, index)
		case http.MethodPost:
			h.createSamples(w, r, index)
		case http.MethodDelete:
			h.deleteSamples(w, r, index)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type labelResponse struct {
	Index      int    `json:"index"`
	Symbol     string `json:"symbol"`
	Samples    int    `json:"samples"`
	Sentence   bool   `json:"sentence"`
	Calculator bool   `json:"calculator"`
}

type listLabelsResponse struct {
	Labels []labelResponse `json:"labels"`
}

type updateLabelRequest struct {
	Tolerance float64 `json:"tolerance"`
}

type createSamplesRequest struct {
	Samples [][]float64 `json:"samples"`
}

type sampleResponse struct {
	ID         string    `json:"id"`
	LabelIndex int       `json:"label_index"`
	Features   []float64 `json:"features"`
	CreatedAt  string    `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSampleResponse(s store.Sample) sampleResponse {
	return sampleResponse{
		ID:         s.ID,
		LabelIndex: s.LabelIndex,
		Features:   s.Features,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/labels.
func (h *LabelHandler) list(w http.ResponseWriter, r *http.Request) {
	counts, err := h.labels.SampleCounts()
	if err != nil {
		h.log.WithError(err).Error("Failed to count samples")
		writeError(w, http.StatusInternalServerError, "Failed to count samples")
		return
	}

	gate := h.labels.Gate()
	entries := h.labels.Table().Entries()
	response := listLabelsResponse{Labels: make([]labelResponse, 0, len(entries))}
	for _, e := range entries {
		_, sentence := gate.Allow(e.Symbol, symbol.ModeSentence)
		_, calculator := gate.Allow(e.Symbol, symbol.ModeCalculator)
		response.Labels = append(response.Labels, labelResponse{
			Index:      e.Index,
			Symbol:     e.Symbol,
			Samples:    counts[e.Index],
			Sentence:   sentence,
			Calculator: calculator,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// update handles PUT /api/labels/{index}.
func (h *LabelHandler) update(w http.ResponseWriter, r *http.Request, index int) {
	var req updateLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Tolerance <= 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must be positive")
		return
	}

	if err := h.labels.SetTolerance(index, req.Tolerance); err != nil {
		h.writeServiceError(w, err, "Failed to update label")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": index, "tolerance": req.Tolerance})
}

// listSamples handles GET /api/labels/{index}/samples.
func (h *LabelHandler) listSamples(w http.ResponseWriter, r *http.Request, index int) {
	samples, err := h.labels.ListSamples(index)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, toSampleResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// createSamples handles POST /api/labels/{index}/samples. A body with
// feature vectors stores them; an empty body captures the hand in the most
// recent frame.
func (h *LabelHandler) createSamples(w http.ResponseWriter, r *http.Request, index int) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		sample, err := h.labels.CaptureSample(index)
		if err != nil {
			h.writeServiceError(w, err, "Failed to capture sample")
			return
		}
		writeJSON(w, http.StatusCreated, listSamplesResponse{Samples: []sampleResponse{toSampleResponse(*sample)}})
		return
	}

	var req createSamplesRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	samples, err := h.labels.AddSamples(index, req.Samples)
	if err != nil {
		h.writeServiceError(w, err, "Failed to save samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, toSampleResponse(s))
	}
	writeJSON(w, http.StatusCreated, response)
}

// deleteSamples handles DELETE /api/labels/{index}/samples.
func (h *LabelHandler) deleteSamples(w http.ResponseWriter, r *http.Request, index int) {
	n, err := h.labels.DeleteSamples(index)
	if err != nil {
		h.writeServiceError(w, err, "Failed to delete samples")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// writeServiceError maps service errors onto status codes.
func (h *LabelHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	var status int
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, detector.ErrNoHandDetected):
		status = http.StatusConflict
		message = "No hand in the current frame"
	case errors.Is(err, store.ErrEmptySample):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, detector.ErrInvalidFeatures):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, app.ErrNoStore):
		status = http.StatusServiceUnavailable
		message = "Sample storage is disabled"
	default:
		status = http.StatusInternalServerError
		h.log.WithError(err).Error(message)
	}
	writeError(w, status, message)
}
