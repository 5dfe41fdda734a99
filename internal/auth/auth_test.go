package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/errors"
)

func newTestAuth() *Auth {
	registry := court.NewRegistry([]court.Entry{
		{ID: "001", Password: "court001"},
		{ID: "002", Name: "Center Court", Password: "court002"},
		{ID: "003"},
	})
	return New(registry, "admin-pass", "test-secret", 0)
}

func TestNew_Defaults(t *testing.T) {
	a := New(court.NewRegistry(nil), "", "", 0)

	assert.Equal(t, SessionExpiry, a.TTL())
	assert.Len(t, a.secret, 64, "expected a generated hex secret")
}

func TestGeneratePassword_Format(t *testing.T) {
	pw := GeneratePassword()

	parts := strings.Split(pw, "-")
	require.Len(t, parts, 3, "expected 3 words separated by dashes: %s", pw)
	for _, part := range parts {
		assert.Contains(t, passwordWords, part)
	}
}

func TestGeneratePassword_Randomness(t *testing.T) {
	passwords := make(map[string]bool)
	for i := 0; i < 10; i++ {
		passwords[GeneratePassword()] = true
	}
	assert.GreaterOrEqual(t, len(passwords), 3, "expected more password variety")
}

func TestLogin_ValidPassword(t *testing.T) {
	a := newTestAuth()
	now := time.Date(2026, 7, 4, 10, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	session, err := a.Login("2", "court002")
	require.NoError(t, err)

	assert.Equal(t, "002", session.CourtID)
	assert.Equal(t, "Center Court", session.CourtName)
	assert.Equal(t, now.UnixMilli(), session.Timestamp)
	assert.Equal(t, now.Add(24*time.Hour), session.ExpiresAt)

	claims, err := a.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "002", claims.CourtID)
	assert.Equal(t, RoleCourt, claims.Role)
	assert.NotEmpty(t, claims.ID, "expected a jti")
}

func TestLogin_Rejections(t *testing.T) {
	a := newTestAuth()

	tests := []struct {
		name     string
		courtID  string
		password string
	}{
		{"wrong password", "001", "court002"},
		{"unknown court", "009", "court009"},
		{"court without password", "003", ""},
		{"malformed court", "one", "court001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := a.Login(tt.courtID, tt.password)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.True(t, errors.IsKind(err, errors.ErrUnauthorized))
		})
	}
}

func TestLoginAdmin(t *testing.T) {
	a := newTestAuth()

	_, err := a.LoginAdmin("nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := a.LoginAdmin("admin-pass")
	require.NoError(t, err)
	claims, err := a.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.True(t, claims.Allows("007"))

	noAdmin := New(court.NewRegistry(nil), "", "s", 0)
	_, err = noAdmin.LoginAdmin("")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "admin login must be disabled without a password")
}

func TestValidate_Expired(t *testing.T) {
	a := newTestAuth()
	start := time.Now()
	a.now = func() time.Time { return start }
	session, err := a.Login("001", "court001")
	require.NoError(t, err)

	a.now = func() time.Time { return start.Add(25 * time.Hour) }
	_, err = a.Validate(session.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidate_ForeignSignature(t *testing.T) {
	a := newTestAuth()
	other := New(court.NewRegistry([]court.Entry{{ID: "001", Password: "court001"}}), "", "other-secret", 0)
	session, err := other.Login("001", "court001")
	require.NoError(t, err)

	_, err = a.Validate(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsNoneAlgorithm(t *testing.T) {
	a := newTestAuth()
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{CourtID: "001", Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_RevokesToken(t *testing.T) {
	a := newTestAuth()
	session, _ := a.Login("001", "court001")
	other, _ := a.Login("001", "court001")

	a.Logout(session.Token)

	_, err := a.Validate(session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.Validate(other.Token)
	assert.NoError(t, err, "other sessions stay valid")

	// Garbage is ignored
	a.Logout("not-a-token")
}

func TestClaims_Allows(t *testing.T) {
	c := &Claims{CourtID: "003", Role: RoleCourt}

	assert.True(t, c.Allows("3"))
	assert.True(t, c.Allows("003"))
	assert.False(t, c.Allows("004"))
	assert.False(t, c.Allows("x"))
}

func TestSessionFromRequest(t *testing.T) {
	a := newTestAuth()
	session, _ := a.Login("001", "court001")

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/courts/001/state", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		claims, err := a.SessionFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "001", claims.CourtID)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: session.Token})
		_, err := a.SessionFromRequest(req)
		assert.NoError(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		_, err := a.SessionFromRequest(req)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func courtParam(r *http.Request) string {
	return r.URL.Query().Get("court")
}

func okHandler(t *testing.T, wantCourt string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if assert.True(t, ok, "claims should be on the context") {
			assert.Equal(t, wantCourt, claims.CourtID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireCourtAPI(t *testing.T) {
	a := newTestAuth()
	session, _ := a.Login("001", "court001")
	handler := a.RequireCourtAPI(courtParam)(okHandler(t, "001"))

	tests := []struct {
		name     string
		court    string
		token    string
		wantCode int
	}{
		{"own court", "1", session.Token, http.StatusOK},
		{"other court", "002", session.Token, http.StatusUnauthorized},
		{"no token", "001", "", http.StatusUnauthorized},
		{"garbage token", "001", "abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api?court="+tt.court, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Contains(t, rr.Body.String(), `"code":"UNAUTHORIZED"`)
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequireCourt_RedirectsWithoutSession(t *testing.T) {
	a := newTestAuth()
	handler := a.RequireCourt(courtParam)(okHandler(t, "001"))

	req := httptest.NewRequest("GET", "/control?court=001", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/login?court=001", rr.Header().Get("Location"))

	session, _ := a.Login("001", "court001")
	req = httptest.NewRequest("GET", "/control?court=001", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: session.Token})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAdminAPI(t *testing.T) {
	a := newTestAuth()
	courtSession, _ := a.Login("001", "court001")
	adminSession, _ := a.LoginAdmin("admin-pass")
	handler := a.RequireAdminAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/api/settings", nil)
	req.Header.Set("Authorization", "Bearer "+courtSession.Token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "admin session required")

	req = httptest.NewRequest("POST", "/api/settings", nil)
	req.Header.Set("Authorization", "Bearer "+adminSession.Token)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestSessionCookies(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, &Session{Token: "tok", ExpiresAt: expires})

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr)
	cookies = rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
