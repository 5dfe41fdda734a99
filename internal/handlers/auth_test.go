package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/abrezinsky/courtboard/internal/auth"
	"github.com/abrezinsky/courtboard/internal/handlers"
)

func TestLogin_API(t *testing.T) {
	s := setupTestServer(t)

	rr := s.do(t, "POST", "/api/login", handlers.LoginRequest{CourtID: "2", Password: "court002"}, "")
	expectStatus(t, rr, http.StatusOK)

	var session auth.Session
	decode(t, rr, &session)
	if session.CourtID != "002" || session.CourtName != "Center Court" || session.Token == "" || session.Timestamp == 0 {
		t.Errorf("unexpected session %+v", session)
	}

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != session.Token {
		t.Fatal("expected the session cookie to carry the token")
	}

	// The cookie alone authorizes the court's control API
	req := httptest.NewRequest("POST", "/api/courts/002/swap", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusOK)
}

func TestLogin_API_Rejected(t *testing.T) {
	s := setupTestServer(t)

	rr := s.do(t, "POST", "/api/login", handlers.LoginRequest{CourtID: "001", Password: "court002"}, "")
	expectStatus(t, rr, http.StatusUnauthorized)
	if !strings.Contains(rr.Body.String(), handlers.ErrCodeUnauthorized) {
		t.Errorf("body = %s", rr.Body.String())
	}

	expectStatus(t, s.do(t, "POST", "/api/login", nil, ""), http.StatusBadRequest)
}

func TestAdminLogin_API(t *testing.T) {
	s := setupTestServer(t)

	expectStatus(t, s.do(t, "POST", "/api/admin/login", handlers.AdminLoginRequest{Password: "nope"}, ""), http.StatusUnauthorized)

	rr := s.do(t, "POST", "/api/admin/login", handlers.AdminLoginRequest{Password: "admin-pass"}, "")
	expectStatus(t, rr, http.StatusOK)
	var session auth.Session
	decode(t, rr, &session)

	expectStatus(t, s.do(t, "GET", "/api/admin/settings", nil, session.Token), http.StatusOK)
}

func TestLogout_API_RevokesToken(t *testing.T) {
	s := setupTestServer(t)

	rr := s.do(t, "POST", "/api/logout", nil, s.courtToken)
	expectStatus(t, rr, http.StatusOK)

	rr = s.do(t, "POST", "/api/courts/001/swap", nil, s.courtToken)
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestLoginForm(t *testing.T) {
	s := setupTemplateServer(t)

	form := url.Values{"courtId": {"1"}, "password": {"court001"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusFound)
	if loc := rr.Header().Get("Location"); loc != "/courts/001/control" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestLoginForm_WrongPassword(t *testing.T) {
	s := setupTemplateServer(t)

	form := url.Values{"courtId": {"001"}, "password": {"guess"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusUnauthorized)
	if !strings.Contains(rr.Body.String(), "Invalid court or password") {
		t.Errorf("expected the error on the form, got %s", rr.Body.String())
	}
}

func TestLoginPage_RedirectsSignedInCourt(t *testing.T) {
	s := setupTemplateServer(t)

	req := httptest.NewRequest("GET", "/login?court=1", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: s.courtToken})
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusFound)
	if loc := rr.Header().Get("Location"); loc != "/courts/001/control" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestControlPage_RequiresSession(t *testing.T) {
	s := setupTemplateServer(t)

	rr := s.do(t, "GET", "/courts/002/control", nil, s.courtToken)

	expectStatus(t, rr, http.StatusFound)
	if loc := rr.Header().Get("Location"); loc != "/login?court=002" {
		t.Errorf("redirect = %q", loc)
	}
}

func TestLogoutForm(t *testing.T) {
	s := setupTemplateServer(t)

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: s.courtToken})
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	expectStatus(t, rr, http.StatusFound)
	if _, err := s.auth.Validate(s.courtToken); err == nil {
		t.Error("expected the token to be revoked")
	}
}
