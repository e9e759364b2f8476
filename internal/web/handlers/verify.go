package handlers

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/extractor"
	"github.com/civreg/faceid/internal/identity"
	"github.com/civreg/faceid/internal/match"
)

// VerifyHandler handles identity verification queries.
type VerifyHandler struct {
	config    *config.Config
	extractor extractor.Extractor
	verifier  *identity.Verifier
	citizens  database.CitizenStore
}

// NewVerifyHandler creates a new verification handler.
func NewVerifyHandler(cfg *config.Config, ext extractor.Extractor, verifier *identity.Verifier, citizens database.CitizenStore) *VerifyHandler {
	return &VerifyHandler{
		config:    cfg,
		extractor: ext,
		verifier:  verifier,
		citizens:  citizens,
	}
}

// VerifyResponse represents a verification decision. PhotoData carries
// the enrollment photo base64-encoded when one is on disk.
type VerifyResponse struct {
	Matched    bool              `json:"matched"`
	IdentityID string            `json:"identity_id,omitempty"`
	Distance   float32           `json:"distance"`
	Citizen    *database.Citizen `json:"citizen,omitempty"`
	PhotoData  string            `json:"photo_data,omitempty"`
}

// Verify checks whether the submitted face belongs to an enrolled citizen.
// Read-only: the corpus is never modified, however many times the same
// face is queried.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	photo, err := readPhotoUpload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo upload is required")
		return
	}

	normalized, err := extractor.NormalizeImage(photo, maxPhotoEdge)
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo is not a valid image")
		return
	}

	vec, err := h.extractor.Extract(r.Context(), normalized)
	if err != nil {
		if errors.Is(err, extractor.ErrNoFace) {
			respondError(w, http.StatusUnprocessableEntity, "no usable face detected in photo")
			return
		}
		log.Printf("verify: embedding extraction failed: %v", err)
		respondError(w, http.StatusBadGateway, "face embedding service unavailable")
		return
	}

	decision, err := h.verifier.Verify(r.Context(), vec)
	if err != nil {
		var dimErr *match.DimensionError
		if errors.As(err, &dimErr) {
			log.Printf("verify: %v (extractor model misconfigured?)", err)
			respondError(w, http.StatusInternalServerError, "embedding dimension mismatch")
			return
		}
		log.Printf("verify: storage failure: %v", err)
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	resp := VerifyResponse{
		Matched:    decision.Matched,
		IdentityID: decision.IdentityID,
		Distance:   decision.Distance,
	}
	if decision.Matched {
		if citizen, err := h.citizens.Get(r.Context(), decision.IdentityID); err == nil {
			resp.Citizen = citizen
			resp.PhotoData = h.loadPhoto(citizen)
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// loadPhoto reads the matched citizen's enrollment photo from the uploads
// directory. A missing or unreadable file is not an error, the response
// just omits the photo.
func (h *VerifyHandler) loadPhoto(citizen *database.Citizen) string {
	if citizen == nil || citizen.Photo == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(h.config.Uploads.Dir, filepath.Base(citizen.Photo)))
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}
