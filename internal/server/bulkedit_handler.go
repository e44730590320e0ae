package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nominaops/staffbulk/internal/bulkedit"
	"github.com/nominaops/staffbulk/internal/store"
	"github.com/rs/zerolog/log"
)

// BulkEditHandler exposes one bulk-edit session over a JSON API. The
// session holds the operator's working copy; every response carries the
// refreshed state plus any notifications raised since the last response.
type BulkEditHandler struct {
	session   *bulkedit.Session
	collector *bulkedit.Collector
}

// NewBulkEditHandler creates the handler. The collector must be one of the
// notifiers wired into the session, otherwise notifications are never
// delivered to the browser.
func NewBulkEditHandler(session *bulkedit.Session, collector *bulkedit.Collector) *BulkEditHandler {
	return &BulkEditHandler{
		session:   session,
		collector: collector,
	}
}

// Register mounts the bulk-edit routes on the mux.
func (h *BulkEditHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/bulkedit", h.handleState)
	mux.HandleFunc("POST /api/v1/bulkedit/filter", h.handleFilter)
	mux.HandleFunc("POST /api/v1/bulkedit/edit", h.handleEdit)
	mux.HandleFunc("POST /api/v1/bulkedit/save", h.handleSave)
	mux.HandleFunc("POST /api/v1/bulkedit/reload", h.handleReload)
}

type stateResponse struct {
	bulkedit.State
	Notifications []bulkedit.Notification `json:"notifications"`
}

func (h *BulkEditHandler) handleState(w http.ResponseWriter, r *http.Request) {
	h.writeState(w)
}

type filterRequest struct {
	Company string `json:"company"`
	Search  string `json:"search"`
}

func (h *BulkEditHandler) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.session.SetFilter(req.Company, req.Search)
	h.writeState(w)
}

type editRequest struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (h *BulkEditHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.session.EditCell(req.ID, bulkedit.Field(req.Field), req.Value)
	switch {
	case errors.Is(err, store.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "employee not found")
		return
	case errors.Is(err, bulkedit.ErrUnknownField), errors.Is(err, bulkedit.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("Failed to apply edit")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeState(w)
}

func (h *BulkEditHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	h.session.SaveAll(r.Context())
	h.writeState(w)
}

func (h *BulkEditHandler) handleReload(w http.ResponseWriter, r *http.Request) {
	h.session.Load(r.Context())
	h.writeState(w)
}

func (h *BulkEditHandler) writeState(w http.ResponseWriter) {
	resp := stateResponse{
		State:         h.session.Snapshot(),
		Notifications: h.collector.Drain(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
