package handlers

import (
	"net/http"

	"github.com/abrezinsky/courtboard/internal/auth"
	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/services"
)

// LoginPageData holds data for the login template
type LoginPageData struct {
	Title   string
	Error   string
	CourtID string
	Courts  []services.CourtStatus
}

// handleLoginPage renders the login form
func (h *Handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	courtID, _ := court.NormalizeID(r.URL.Query().Get("court"))

	// Already signed in for this court
	if claims, err := h.Auth.SessionFromRequest(r); err == nil && courtID != "" && claims.Allows(courtID) {
		http.Redirect(w, r, services.ControlPath(courtID), http.StatusFound)
		return
	}

	h.renderLogin(w, r, courtID, "")
}

func (h *Handlers) renderLogin(w http.ResponseWriter, r *http.Request, courtID, msg string) {
	courts, err := h.Courts.ListCourts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	h.templates.Login.Execute(w, LoginPageData{
		Title:   "Sign in",
		Error:   msg,
		CourtID: courtID,
		Courts:  courts,
	})
}

// handleLoginForm processes login form submission
func (h *Handlers) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	courtID := r.FormValue("courtId")
	session, err := h.Auth.Login(courtID, r.FormValue("password"))
	if err != nil {
		id, _ := court.NormalizeID(courtID)
		w.WriteHeader(http.StatusUnauthorized)
		h.renderLogin(w, r, id, "Invalid court or password")
		return
	}

	auth.SetSessionCookie(w, session)
	http.Redirect(w, r, services.ControlPath(session.CourtID), http.StatusFound)
}

// handleLogin signs a scorekeeper in to one court
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	session, err := h.Auth.Login(req.CourtID, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	auth.SetSessionCookie(w, session)
	respondOK(w, session)
}

// handleAdminLogin signs an organizer in to every court
func (h *Handlers) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	session, err := h.Auth.LoginAdmin(req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	auth.SetSessionCookie(w, session)
	respondOK(w, session)
}

// handleLogout revokes the session and clears the cookie
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Auth.Logout(token)
	}
	auth.ClearSessionCookie(w)
	respondSuccess(w, "Signed out")
}

// handleLogoutForm is the control page's sign-out button
func (h *Handlers) handleLogoutForm(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Auth.Logout(token)
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}
