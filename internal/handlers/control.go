package handlers

import (
	"net/http"

	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/services"
)

func parseSide(raw string) (models.Side, error) {
	side, ok := models.ParseSide(raw)
	if !ok {
		return "", services.ErrInvalidSide
	}
	return side, nil
}

// handleAddPoints adds delta points to the team on the pressed side
func (h *Handlers) handleAddPoints(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req DeltaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}

	state, err := h.Control.AddPoints(r.Context(), courtID, side, req.Delta)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleToggleTimeout uses the next timeout slot of the team on the pressed side
func (h *Handlers) handleToggleTimeout(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req SideRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, err)
		return
	}

	state, res, err := h.Control.ToggleTimeout(r.Context(), courtID, side)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, TimeoutResponse{State: state, Team: res.Team, TimeoutNumber: res.TimeoutNumber})
}

// handleResetSet clears points and timeouts of the current set
func (h *Handlers) handleResetSet(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req ConfirmRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	state, err := h.Control.ResetSet(r.Context(), courtID, req.Confirm)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleSwap switches ends
func (h *Handlers) handleSwap(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	state, err := h.Control.ToggleCourtSwap(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleFinalizeSet closes the current set
func (h *Handlers) handleFinalizeSet(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	state, res, err := h.Control.FinalizeSet(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, FinalizeSetResponse{
		State:     state,
		Winner:    res.Winner,
		MatchOver: res.MatchOver,
		Summary:   res.Summary,
	})
}

// handleAdjustSetScore corrects the set count of the team on the given side
func (h *Handlers) handleAdjustSetScore(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req DeltaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, err)
		return
	}
	if req.Delta == 0 {
		respondError(w, BadRequest("delta must not be zero"))
		return
	}

	state, err := h.Control.AdjustSetScore(r.Context(), courtID, side, req.Delta)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleVideoReview starts or ends a challenge of the given type
func (h *Handlers) handleVideoReview(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req VideoReviewRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	state, err := h.Control.ToggleVideoReview(r.Context(), courtID, req.Type)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleEndVideoReview ends any running challenge
func (h *Handlers) handleEndVideoReview(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	state, err := h.Control.EndVideoReview(r.Context(), courtID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleEdit renames the tournament or a team
func (h *Handlers) handleEdit(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req EditRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	edit := services.EditRequest{Field: req.Field, Value: req.Value}
	if req.Side != "" {
		if edit.Side, err = parseSide(req.Side); err != nil {
			respondError(w, err)
			return
		}
	}

	state, err := h.Control.Edit(r.Context(), courtID, edit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}

// handleResetAll starts a new match
func (h *Handlers) handleResetAll(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var req ResetAllRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	state, err := h.Control.ResetAll(r.Context(), courtID, req.Confirm, req.setup())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, state)
}
