package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/citizens", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthAcceptsSignedCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("agent1", "agent")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	var gotSession *Session
	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSessionFromContext(r.Context())
	}))

	// Capture the cookie the manager would set.
	cookieRec := httptest.NewRecorder()
	sm.SetSessionCookie(cookieRec, session)
	cookies := cookieRec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/citizens", nil)
	req.AddCookie(cookies[0])

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSession == nil || gotSession.UserName != "agent1" {
		t.Errorf("expected session in context, got %+v", gotSession)
	}
}

func TestRequireAuthRejectsTamperedCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("agent1", "agent")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/citizens", nil)
	req.AddCookie(&http.Cookie{
		Name:  "faceid_session",
		Value: session.ID + ".bogus-signature",
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for tampered signature, got %d", rec.Code)
	}
}

func TestRequireAuthBearerToken(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("agent1", "agent")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/citizens", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with bearer token, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	agent := &Session{ID: "s1", UserName: "agent1", Role: "agent"}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req = req.WithContext(SetSessionInContext(req.Context(), agent))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for agent role, got %d", rec.Code)
	}

	admin := &Session{ID: "s2", UserName: "boss", Role: "admin"}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req = req.WithContext(SetSessionInContext(req.Context(), admin))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin role, got %d", rec.Code)
	}
}

func TestSessionExpiry(t *testing.T) {
	sm := NewSessionManager("test-secret", nil)
	defer sm.Stop()

	session, err := sm.CreateSession("agent1", "agent")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	// Force expiry.
	sm.mu.Lock()
	sm.sessions[session.ID].ExpiresAt = time.Now().Add(-time.Minute)
	sm.mu.Unlock()

	if got := sm.GetSession(session.ID); got != nil {
		t.Errorf("expected expired session to be rejected, got %+v", got)
	}
}
