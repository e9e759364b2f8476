package handlers

import (
	"log"
	"net/http"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/match"
)

// StatsHandler reports corpus and matcher statistics.
type StatsHandler struct {
	repo     database.EmbeddingRepository
	citizens database.CitizenStore
	engine   *match.Engine
	index    *database.CandidateIndex
}

// NewStatsHandler creates a new stats handler. index may be nil.
func NewStatsHandler(repo database.EmbeddingRepository, citizens database.CitizenStore, engine *match.Engine, index *database.CandidateIndex) *StatsHandler {
	return &StatsHandler{
		repo:     repo,
		citizens: citizens,
		engine:   engine,
		index:    index,
	}
}

// StatsResponse represents the stats payload.
type StatsResponse struct {
	Enrolled    int     `json:"enrolled"`
	Citizens    int     `json:"citizens"`
	Threshold   float32 `json:"threshold"`
	Dim         int     `json:"dim"`
	IndexActive bool    `json:"index_active"`
	IndexSize   int     `json:"index_size"`
}

// Get returns the current corpus statistics and matcher parameters.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	enrolled, err := h.repo.Count(r.Context())
	if err != nil {
		log.Printf("stats: embedding count failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	citizens, err := h.citizens.Count(r.Context())
	if err != nil {
		log.Printf("stats: citizen count failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	resp := StatsResponse{
		Enrolled:  enrolled,
		Citizens:  citizens,
		Threshold: h.engine.Threshold(),
		Dim:       h.engine.Dim(),
	}
	if h.index != nil {
		resp.IndexActive = true
		resp.IndexSize = h.index.Count()
	}
	respondJSON(w, http.StatusOK, resp)
}
