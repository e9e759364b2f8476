package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/civreg/faceid/internal/database"
	"github.com/civreg/faceid/internal/database/mock"
)

func TestUserCreate(t *testing.T) {
	users := mock.NewUserStore()
	handler := NewUsersHandler(users)

	body := strings.NewReader(`{"name": "agent2", "password": "secret123", "role": "agent"}`)
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", body))
	assertStatusCode(t, rec, 201)

	var created database.User
	parseJSONResponse(t, rec, &created)
	if created.Name != "agent2" || created.Role != "agent" {
		t.Errorf("unexpected user: %+v", created)
	}

	// Password must be stored hashed, never plaintext.
	stored, _ := users.GetByName(context.Background(), "agent2")
	if stored.PasswordHash == "secret123" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestUserCreateValidation(t *testing.T) {
	handler := NewUsersHandler(mock.NewUserStore())

	cases := map[string]string{
		"missing password": `{"name": "x"}`,
		"missing name":     `{"password": "x"}`,
		"bad role":         `{"name": "x", "password": "y", "role": "superuser"}`,
		"bad json":         `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body)))
			assertStatusCode(t, rec, 400)
		})
	}
}

func TestUserCreateDefaultsToAgent(t *testing.T) {
	handler := NewUsersHandler(mock.NewUserStore())

	body := strings.NewReader(`{"name": "agent3", "password": "secret123"}`)
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/users", body))
	assertStatusCode(t, rec, 201)

	var created database.User
	parseJSONResponse(t, rec, &created)
	if created.Role != "agent" {
		t.Errorf("expected default role agent, got %q", created.Role)
	}
}

func TestUserListHidesPasswordHash(t *testing.T) {
	users := mock.NewUserStore()
	if _, err := users.Create(context.Background(), "agent1", "some-hash", "agent"); err != nil {
		t.Fatal(err)
	}
	handler := NewUsersHandler(users)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))
	assertStatusCode(t, rec, 200)

	if strings.Contains(rec.Body.String(), "some-hash") {
		t.Error("password hash leaked in list response")
	}
}

func TestUserUpdateAndDelete(t *testing.T) {
	users := mock.NewUserStore()
	u, err := users.Create(context.Background(), "agent1", "hash", "agent")
	if err != nil {
		t.Fatal(err)
	}
	handler := NewUsersHandler(users)

	body := strings.NewReader(`{"name": "agent1", "role": "admin"}`)
	req := requestWithChiParams(httptest.NewRequest(http.MethodPut, "/api/v1/users/1", body),
		map[string]string{"id": "1"})
	rec := httptest.NewRecorder()
	handler.Update(rec, req)
	assertStatusCode(t, rec, 200)

	got, _ := users.GetByName(context.Background(), "agent1")
	if got.Role != "admin" {
		t.Errorf("role update not applied: %+v", got)
	}

	req = requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/v1/users/1", nil),
		map[string]string{"id": "1"})
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)
	assertStatusCode(t, rec, 200)

	if got, _ := users.GetByName(context.Background(), "agent1"); got != nil {
		t.Errorf("user %d not deleted", u.ID)
	}
}

func TestUserBadID(t *testing.T) {
	handler := NewUsersHandler(mock.NewUserStore())

	req := requestWithChiParams(httptest.NewRequest(http.MethodDelete, "/api/v1/users/abc", nil),
		map[string]string{"id": "abc"})
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)
	assertStatusCode(t, rec, 400)
}
