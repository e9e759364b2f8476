package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/civreg/faceid/internal/database"
)

// UsersHandler handles operator account management. Admin only.
type UsersHandler struct {
	users database.UserStore
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users database.UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func validRole(role string) bool {
	return role == "admin" || role == "agent"
}

// List returns all operator accounts.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		log.Printf("users: list failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []database.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

// Create adds a new operator account.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "name and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "agent"
	}
	if !validRole(req.Role) {
		respondError(w, http.StatusBadRequest, "role must be admin or agent")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, string(hash), req.Role)
	if err != nil {
		log.Printf("users: create %s failed: %v", sanitizeForLog(req.Name), err)
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Update changes an operator's name and role.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" || !validRole(req.Role) {
		respondError(w, http.StatusBadRequest, "name and a valid role are required")
		return
	}

	if err := h.users.Update(r.Context(), id, req.Name, req.Role); err != nil {
		log.Printf("users: update %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes an operator account.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		log.Printf("users: delete %d failed: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
