package handlers

import (
	"io"
	"net/http"

	"github.com/abrezinsky/courtboard/internal/errors"
)

// maxPublishBody bounds a posted match document
const maxPublishBody = 1 << 20

// allowAnyOrigin lets overlays and control pages on other hosts reach the
// remote endpoint.
func allowAnyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleGetScoreboard returns the last document posted for a court
func (h *Handlers) handleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	published, err := h.Publish.Latest(r.Context(), courtID)
	if errors.IsKind(err, errors.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.Write(published.Data)
}

// handlePostScoreboard stores a court's match document, last write wins
func (h *Handlers) handlePostScoreboard(w http.ResponseWriter, r *http.Request) {
	courtID, err := courtParam(r)
	if err != nil {
		respondError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPublishBody))
	if err != nil {
		respondError(w, BadRequest("Invalid body: "+err.Error()))
		return
	}

	published, err := h.Publish.Publish(r.Context(), courtID, body)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, PublishResponse{Status: "success", CourtID: published.CourtID, Data: published.Data})
}
