package handlers

import (
	"net/http"
	"strconv"

	"github.com/abrezinsky/courtboard/internal/auth"
	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
	"github.com/abrezinsky/courtboard/internal/services"
)

// DashboardPageData holds data for the court overview
type DashboardPageData struct {
	Title  string
	Courts []services.CourtStatus
}

// DisplayPageData holds data for the overlay. The first frame is rendered
// server-side; the page script keeps it current.
type DisplayPageData struct {
	Court   court.Identity
	View    presentation.View
	Options DisplayOptions
}

// ControlPageData holds data for the scorekeeper page
type ControlPageData struct {
	Title string
	Court court.Identity
	View  presentation.View
	State models.MatchState
	Links []services.CourtLink
	Admin bool
}

// handleDashboard lists every court with its current score
func (h *Handlers) handleDashboard(w http.ResponseWriter, r *http.Request) {
	courts, err := h.Courts.ListCourts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	h.templates.Dashboard.Execute(w, DashboardPageData{Title: "Courts", Courts: courts})
}

// handleDisplayPage renders a court's overlay
func (h *Handlers) handleDisplayPage(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := h.Control.Court(courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	view, err := h.Control.View(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}

	h.templates.Display.Execute(w, DisplayPageData{Court: id, View: view, Options: h.Display})
}

// handleControlPage renders the scorekeeper page
func (h *Handlers) handleControlPage(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	id, err := h.Control.Court(courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	state, err := h.Control.State(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	links, err := h.Courts.Links(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}

	data := ControlPageData{
		Title: id.DisplayName,
		Court: id,
		View:  presentation.MapForDisplay(state, id.Variant),
		State: state,
		Links: links,
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		data.Admin = claims.Role == auth.RoleAdmin
	}
	h.templates.Control.Execute(w, data)
}

// handleListCourts returns every court's status
func (h *Handlers) handleListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.Courts.ListCourts(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, courts)
}

// handleGetState returns the court's normalized match
func (h *Handlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	state, err := h.Control.State(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleGetView returns the court's match in physical order
func (h *Handlers) handleGetView(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	view, err := h.Control.View(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	respondOK(w, view)
}

// handleGetLinks returns the other courts' display and control links
func (h *Handlers) handleGetLinks(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	links, err := h.Courts.Links(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, links)
}

// handleGetQRImage returns a PNG QR code of the court's overlay URL
func (h *Handlers) handleGetQRImage(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	png, err := h.Courts.GenerateQRImage(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Write(png)
}

// handleExportHistory downloads the court's action history as a workbook
func (h *Handlers) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	data, filename, err := h.History.ExportXLSX(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}
