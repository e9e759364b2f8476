package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/civreg/faceid/internal/config"
	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/extractor"
	"github.com/civreg/faceid/internal/identity"
	"github.com/civreg/faceid/internal/match"
)

// maxPhotoEdge is the longest side enrollment photos are resized to before
// storage and extraction.
const maxPhotoEdge = 1024

// EnrollHandler handles citizen enrollment with duplicate rejection.
type EnrollHandler struct {
	config      *config.Config
	extractor   extractor.Extractor
	coordinator *identity.Coordinator
	citizens    database.CitizenStore
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(cfg *config.Config, ext extractor.Extractor, coord *identity.Coordinator, citizens database.CitizenStore) *EnrollHandler {
	return &EnrollHandler{
		config:      cfg,
		extractor:   ext,
		coordinator: coord,
		citizens:    citizens,
	}
}

// EnrollResponse represents a successful enrollment.
type EnrollResponse struct {
	IdentityID string           `json:"identity_id"`
	Citizen    database.Citizen `json:"citizen"`
}

// DuplicateResponse is returned when the face is already enrolled.
type DuplicateResponse struct {
	Error      string            `json:"error"`
	IdentityID string            `json:"identity_id"`
	Distance   float32           `json:"distance"`
	Citizen    *database.Citizen `json:"citizen,omitempty"`
}

// citizenFromForm builds the profile from multipart form fields.
func citizenFromForm(r *http.Request) database.Citizen {
	return database.Citizen{
		FirstName:   r.FormValue("first_name"),
		LastName:    r.FormValue("last_name"),
		Gender:      r.FormValue("gender"),
		BirthDate:   r.FormValue("birth_date"),
		Address:     r.FormValue("address"),
		Contact:     r.FormValue("contact"),
		District:    r.FormValue("district"),
		Province:    r.FormValue("province"),
		FatherName:  r.FormValue("father_name"),
		MotherName:  r.FormValue("mother_name"),
		Observation: r.FormValue("observation"),
	}
}

// Enroll registers a new citizen. The face must not already be enrolled:
// a within-threshold match anywhere in the corpus rejects the request
// with the existing identity so the operator can review it.
func (h *EnrollHandler) Enroll(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("enroll: embedding extraction failed: %v", err)
		respondError(w, http.StatusBadGateway, "face embedding service unavailable")
		return
	}

	record, err := h.coordinator.Enroll(r.Context(), vec)
	if err != nil {
		var dup *identity.DuplicateError
		if errors.As(err, &dup) {
			resp := DuplicateResponse{
				Error:      "face already enrolled",
				IdentityID: dup.IdentityID,
				Distance:   dup.Distance,
			}
			if citizen, err := h.citizens.Get(r.Context(), dup.IdentityID); err == nil {
				resp.Citizen = citizen
			}
			respondJSON(w, http.StatusConflict, resp)
			return
		}
		var dimErr *match.DimensionError
		if errors.As(err, &dimErr) {
			log.Printf("enroll: %v (extractor model misconfigured?)", err)
			respondError(w, http.StatusInternalServerError, "embedding dimension mismatch")
			return
		}
		log.Printf("enroll: storage failure: %v", err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}

	citizen := citizenFromForm(r)
	citizen.IdentityID = record.IdentityID
	citizen.CreatedAt = time.Now().UTC()
	citizen.Photo = h.savePhoto(normalized)

	if err := h.citizens.Save(r.Context(), citizen); err != nil {
		// The embedding is already in the corpus. Roll it back so a failed
		// enrollment does not block the citizen from re-registering.
		log.Printf("enroll: profile save failed for %s: %v", record.IdentityID, err)
		if rmErr := h.coordinator.Remove(context.WithoutCancel(r.Context()), record.IdentityID); rmErr != nil {
			log.Printf("enroll: rollback failed for %s: %v", record.IdentityID, rmErr)
		}
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}

	respondJSON(w, http.StatusCreated, EnrollResponse{
		IdentityID: record.IdentityID,
		Citizen:    citizen,
	})
}

// savePhoto writes the normalized photo to the uploads directory and
// returns its filename. A write failure loses the photo but not the
// enrollment.
func (h *EnrollHandler) savePhoto(data []byte) string {
	dir := h.config.Uploads.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("enroll: cannot create uploads dir: %v", err)
		return ""
	}
	name := fmt.Sprintf("face_%d.jpg", time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		log.Printf("enroll: cannot save photo: %v", err)
		return ""
	}
	return name
}
