package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/identity"
)

// CitizensHandler handles citizen profile endpoints.
type CitizensHandler struct {
	config      *config.Config
	citizens    database.CitizenStore
	coordinator *identity.Coordinator
}

// NewCitizensHandler creates a new citizens handler.
func NewCitizensHandler(cfg *config.Config, citizens database.CitizenStore, coord *identity.Coordinator) *CitizensHandler {
	return &CitizensHandler{
		config:      cfg,
		citizens:    citizens,
		coordinator: coord,
	}
}

// List returns citizen profiles, filtered by the q query parameter when
// present. Name matching ignores case and diacritics.
func (h *CitizensHandler) List(w http.ResponseWriter, r *http.Request) {
	citizens, err := h.citizens.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("citizens: list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list citizens")
		return
	}
	if citizens == nil {
		citizens = []database.Citizen{}
	}
	respondJSON(w, http.StatusOK, citizens)
}

// Get returns a single citizen profile.
func (h *CitizensHandler) Get(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	citizen, err := h.citizens.Get(r.Context(), identityID)
	if err != nil {
		log.Printf("citizens: get %s failed: %v", sanitizeForLog(identityID), err)
		respondError(w, http.StatusInternalServerError, "failed to get citizen")
		return
	}
	if citizen == nil {
		respondError(w, http.StatusNotFound, "citizen not found")
		return
	}
	respondJSON(w, http.StatusOK, citizen)
}

// Update replaces the editable profile fields. The photo and the
// embedding are immutable; changing either means a new enrollment.
func (h *CitizensHandler) Update(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	existing, err := h.citizens.Get(r.Context(), identityID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get citizen")
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "citizen not found")
		return
	}

	var citizen database.Citizen
	if err := json.NewDecoder(r.Body).Decode(&citizen); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	citizen.IdentityID = identityID
	citizen.Photo = existing.Photo
	citizen.CreatedAt = existing.CreatedAt

	if err := h.citizens.Update(r.Context(), citizen); err != nil {
		log.Printf("citizens: update %s failed: %v", sanitizeForLog(identityID), err)
		respondError(w, http.StatusInternalServerError, "failed to update citizen")
		return
	}
	respondJSON(w, http.StatusOK, citizen)
}

// Delete removes a citizen entirely. The embedding goes first so that
// verification can never match an identity whose profile is already gone;
// a failure partway leaves only the harmless opposite state.
func (h *CitizensHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identityID := chi.URLParam(r, "id")

	citizen, err := h.citizens.Get(r.Context(), identityID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get citizen")
		return
	}
	if citizen == nil {
		respondError(w, http.StatusNotFound, "citizen not found")
		return
	}

	if err := h.coordinator.Remove(r.Context(), identityID); err != nil {
		log.Printf("citizens: embedding removal failed for %s: %v", sanitizeForLog(identityID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete citizen")
		return
	}
	if err := h.citizens.Delete(r.Context(), identityID); err != nil {
		log.Printf("citizens: profile removal failed for %s: %v", sanitizeForLog(identityID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete citizen")
		return
	}

	if citizen.Photo != "" {
		if err := os.Remove(filepath.Join(h.config.Uploads.Dir, citizen.Photo)); err != nil && !os.IsNotExist(err) {
			log.Printf("citizens: photo cleanup failed for %s: %v", sanitizeForLog(identityID), err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
