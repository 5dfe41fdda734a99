package handlers

import (
	"net/http"

	"github.com/abrezinsky/courtboard/internal/services"
)

// handleGetSettings returns the current settings
func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	baseURL, err := h.Settings.GetBaseURL(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, SettingsResponse{BaseURL: baseURL})
}

// handleUpdateSettings updates settings
func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.Settings.UpdateSettings(r.Context(), services.Settings{BaseURL: req.BaseURL}); err != nil {
		respondError(w, err)
		return
	}
	respondSuccess(w, "Settings updated")
}

// handleResetDatabase clears the selected tables
func (h *Handlers) handleResetDatabase(w http.ResponseWriter, r *http.Request) {
	var req DatabaseResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.Settings.ResetTables(r.Context(), req.Tables)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleClearCourt removes a court's stored match; the next read starts fresh
func (h *Handlers) handleClearCourt(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Courts.ClearCourt(r.Context(), courtID); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}
