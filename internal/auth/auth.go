package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/errors"
)

const (
	CookieName    = "courtboard_session"
	SessionExpiry = 24 * time.Hour

	// RoleCourt may control the court named in its token.
	RoleCourt = "court"
	// RoleAdmin may control every court and change settings.
	RoleAdmin = "admin"
)

var (
	ErrInvalidCredentials = errors.Unauthorized("invalid court or password")
	ErrInvalidToken       = errors.Unauthorized("invalid session")
	ErrExpiredToken       = errors.Unauthorized("session expired")
	ErrWrongCourt         = errors.Unauthorized("session is for another court")
	ErrAdminRequired      = errors.Unauthorized("admin session required")
)

// Volleyball words for password generation
var passwordWords = []string{
	"spike", "block", "dig", "serve", "setter",
	"libero", "rally", "net", "ace", "kill",
	"pancake", "sideout", "tip", "bump", "beach",
	"sand", "jump", "float", "court",
}

// Claims is the signed body of a session token
type Claims struct {
	jwt.RegisteredClaims
	CourtID   string `json:"courtId,omitempty"`
	CourtName string `json:"courtName,omitempty"`
	Role      string `json:"role"`
}

// Session is returned to a client after a successful login
type Session struct {
	Token     string    `json:"token"`
	CourtID   string    `json:"courtId,omitempty"`
	CourtName string    `json:"courtName,omitempty"`
	Timestamp int64     `json:"timestamp"`
	ExpiresAt time.Time `json:"-"`
}

// Credentials looks up a court's display name and password. court.Registry satisfies it.
type Credentials interface {
	Credential(courtID string) (name, password string, ok bool)
}

// Auth checks court passwords and issues signed session tokens
type Auth struct {
	creds         Credentials
	adminPassword string
	secret        []byte
	ttl           time.Duration
	now           func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

// New creates a new Auth. An empty secret is replaced by a random one, which
// invalidates sessions on restart. A zero ttl uses SessionExpiry.
func New(creds Credentials, adminPassword, secret string, ttl time.Duration) *Auth {
	if secret == "" {
		secret = generateSecret()
	}
	if ttl <= 0 {
		ttl = SessionExpiry
	}
	return &Auth{
		creds:         creds,
		adminPassword: adminPassword,
		secret:        []byte(secret),
		ttl:           ttl,
		now:           time.Now,
		revoked:       make(map[string]time.Time),
	}
}

// TTL returns how long issued sessions stay valid
func (a *Auth) TTL() time.Duration {
	return a.ttl
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		words[i] = passwordWords[randomInt(len(passwordWords))]
	}
	return strings.Join(words, "-")
}

// Login checks a court's password and issues a session for it
func (a *Auth) Login(courtID, password string) (*Session, error) {
	id, ok := court.NormalizeID(courtID)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	name, want, ok := a.creds.Credential(id)
	if !ok || want == "" || !equal(password, want) {
		return nil, ErrInvalidCredentials
	}
	return a.issue(Claims{CourtID: id, CourtName: name, Role: RoleCourt})
}

// LoginAdmin checks the admin password and issues an admin session
func (a *Auth) LoginAdmin(password string) (*Session, error) {
	if a.adminPassword == "" || !equal(password, a.adminPassword) {
		return nil, ErrInvalidCredentials
	}
	return a.issue(Claims{Role: RoleAdmin})
}

func (a *Auth) issue(claims Claims) (*Session, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.CourtID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{
		Token:     token,
		CourtID:   claims.CourtID,
		CourtName: claims.CourtName,
		Timestamp: now.UnixMilli(),
		ExpiresAt: expires,
	}, nil
}

// Validate parses a token and checks its signature, expiry and revocation
func (a *Auth) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	a.mu.Lock()
	_, revoked := a.revoked[claims.ID]
	a.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout revokes a token until it would have expired anyway
func (a *Auth) Logout(token string) {
	claims, err := a.Validate(token)
	if err != nil {
		return
	}
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for jti, exp := range a.revoked {
		if now.After(exp) {
			delete(a.revoked, jti)
		}
	}
	a.revoked[claims.ID] = claims.ExpiresAt.Time
}

// TokenFromRequest returns the bearer token, falling back to the session cookie
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// SessionFromRequest extracts and validates the session of a request
func (a *Auth) SessionFromRequest(r *http.Request) (*Claims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrInvalidToken
	}
	return a.Validate(token)
}

// Allows reports whether the claims may control courtID
func (c *Claims) Allows(courtID string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	id, ok := court.NormalizeID(courtID)
	return ok && id == c.CourtID
}

type claimsKey struct{}

// WithClaims stores validated claims on a context
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns claims stored by the auth middleware
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// CourtOf extracts the court id a request targets, e.g. a chi URL param
type CourtOf func(r *http.Request) string

// RequireCourt middleware for pages (redirects to login)
func (a *Auth) RequireCourt(courtOf CourtOf) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			courtID := courtOf(r)
			claims, err := a.SessionFromRequest(r)
			if err == nil && claims.Allows(courtID) {
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
				return
			}
			http.Redirect(w, r, "/login?court="+url.QueryEscape(courtID), http.StatusFound)
		})
	}
}

// RequireCourtAPI middleware for API endpoints (returns 401)
func (a *Auth) RequireCourtAPI(courtOf CourtOf) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.SessionFromRequest(r)
			if err == nil && !claims.Allows(courtOf(r)) {
				err = ErrWrongCourt
			}
			if err != nil {
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdminAPI middleware for settings endpoints (returns 401)
func (a *Auth) RequireAdminAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.SessionFromRequest(r)
		if err == nil && claims.Role != RoleAdmin {
			err = ErrAdminRequired
		}
		if err != nil {
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"code":"UNAUTHORIZED","error":%q}`, err.Error())
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.ExpiresAt,
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func generateSecret() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
