package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

// Handlers contains the HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(controller *Controller) *Handlers {
	return &Handlers{controller: controller}
}

// computeRequest is the request body for the SWE endpoint. A null depth marks
// a missing observation.
type computeRequest struct {
	Station string          `json:"station,omitempty"`
	Samples []sampleRequest `json:"samples"`
}

type sampleRequest struct {
	Time  time.Time `json:"time"`
	Depth *float64  `json:"hs"`
}

type computeResponse struct {
	RunID   string           `json:"run_id,omitempty"`
	Station string           `json:"station,omitempty"`
	SWEUnit string           `json:"swe_unit"`
	Series  []sampleResponse `json:"series"`
}

type sampleResponse struct {
	Time time.Time `json:"time"`
	SWE  *float64  `json:"swe"`
}

// ComputeSWE converts a snow depth series to snow water equivalent
func (h *Handlers) ComputeSWE(w http.ResponseWriter, req *http.Request) {
	var body computeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON request body", http.StatusBadRequest)
		return
	}
	if len(body.Samples) == 0 {
		http.Error(w, "samples must not be empty", http.StatusBadRequest)
		return
	}

	readings := make([]deltasnow.Reading, len(body.Samples))
	for i, s := range body.Samples {
		depth := math.NaN()
		if s.Depth != nil {
			depth = *s.Depth
		}
		readings[i] = deltasnow.Reading{Time: s.Time, Depth: depth}
	}

	results, err := deltasnow.Compute(readings, h.controller.opts)
	if err != nil {
		if errors.Is(err, deltasnow.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			h.controller.logger.Errorf("SWE computation failed: %v", err)
			http.Error(w, "error computing snow water equivalent", http.StatusInternalServerError)
		}
		return
	}

	station := body.Station
	if station == "" {
		station = h.controller.station
	}

	resp := computeResponse{
		Station: station,
		SWEUnit: string(h.controller.opts.SWEOutputUnit),
		Series:  make([]sampleResponse, len(results)),
	}
	for i, r := range results {
		sr := sampleResponse{Time: r.Time}
		if !math.IsNaN(r.SWE) {
			swe := r.SWE
			sr.SWE = &swe
		}
		resp.Series[i] = sr
	}

	if h.controller.Store != nil {
		id, err := h.controller.Store.SaveRun(req.Context(), station,
			string(h.controller.opts.HSInputUnit), string(h.controller.opts.SWEOutputUnit),
			readings, results)
		if err != nil {
			h.controller.logger.Errorf("Failed to store run: %v", err)
			http.Error(w, "error storing run", http.StatusInternalServerError)
			return
		}
		resp.RunID = id
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.controller.logger.Errorf("Error encoding SWE response: %v", err)
	}
}

// GetHealth reports whether the service is able to serve requests
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// ListRuns returns the stored runs, newest first
func (h *Handlers) ListRuns(w http.ResponseWriter, req *http.Request) {
	runs, err := h.controller.Store.ListRuns(req.Context())
	if err != nil {
		h.controller.logger.Errorf("Failed to list runs: %v", err)
		http.Error(w, "error listing runs", http.StatusInternalServerError)
		return
	}

	type runResponse struct {
		ID        string    `json:"id"`
		Station   string    `json:"station"`
		CreatedAt time.Time `json:"created_at"`
		HSUnit    string    `json:"hs_unit"`
		SWEUnit   string    `json:"swe_unit"`
		Samples   int       `json:"samples"`
	}

	resp := make([]runResponse, len(runs))
	for i, r := range runs {
		resp[i] = runResponse{
			ID:        r.ID,
			Station:   r.Station,
			CreatedAt: r.CreatedAt,
			HSUnit:    r.HSUnit,
			SWEUnit:   r.SWEUnit,
			Samples:   r.Samples,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.controller.logger.Errorf("Error encoding runs response: %v", err)
	}
}

// GetRun returns one stored run with its full series
func (h *Handlers) GetRun(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]

	run, samples, err := h.controller.Store.LoadRun(req.Context(), id)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	type seriesEntry struct {
		Time time.Time `json:"time"`
		HS   *float64  `json:"hs"`
		SWE  *float64  `json:"swe"`
	}
	type runDetail struct {
		ID        string        `json:"id"`
		Station   string        `json:"station"`
		CreatedAt time.Time     `json:"created_at"`
		HSUnit    string        `json:"hs_unit"`
		SWEUnit   string        `json:"swe_unit"`
		Series    []seriesEntry `json:"series"`
	}

	detail := runDetail{
		ID:        run.ID,
		Station:   run.Station,
		CreatedAt: run.CreatedAt,
		HSUnit:    run.HSUnit,
		SWEUnit:   run.SWEUnit,
		Series:    make([]seriesEntry, len(samples)),
	}
	for i, s := range samples {
		e := seriesEntry{Time: s.Time}
		if !math.IsNaN(s.HS) {
			hs := s.HS
			e.HS = &hs
		}
		if !math.IsNaN(s.SWE) {
			swe := s.SWE
			e.SWE = &swe
		}
		detail.Series[i] = e
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(detail); err != nil {
		h.controller.logger.Errorf("Error encoding run response: %v", err)
	}
}
