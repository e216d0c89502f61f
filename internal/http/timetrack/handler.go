package timetrack

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	"github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

type Handler struct {
	tracker  *timetrack.Service
	sessions *session.Service
}

func NewHandler(tracker *timetrack.Service, sessions *session.Service) *Handler {
	return &Handler{tracker: tracker, sessions: sessions}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/active", h.active)
	r.Post("/start", h.start)
	r.Post("/stop", h.stop)
}

type EntryResponse struct {
	ID              uuid.UUID  `json:"id"`
	JobID           uuid.UUID  `json:"job_id"`
	JobReference    string     `json:"job_reference"`
	Username        string     `json:"username"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	Notes           string     `json:"notes,omitempty"`
}

func ToEntryResponse(e *timetrack.Entry, now time.Time) EntryResponse {
	return EntryResponse{
		ID:              e.ID,
		JobID:           e.JobID,
		JobReference:    e.JobReference,
		Username:        e.Username,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationSeconds: int64(e.Duration(now).Seconds()),
		Notes:           e.Notes,
	}
}

func (h *Handler) active(w http.ResponseWriter, r *http.Request) {
	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	e, err := h.tracker.Active(r.Context(), u.Username)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToEntryResponse(e, time.Now())); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	j, err := sess.RequireActiveJob()
	if err != nil {
		httperr.Write(w, err)
		return
	}

	var notes string
	if req.Notes != nil {
		notes = *req.Notes
	}

	e, err := h.tracker.Start(r.Context(), sess.User, j, notes)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToEntryResponse(e, time.Now())); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	e, err := h.tracker.Stop(r.Context(), u, req.Notes)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	if e == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToEntryResponse(e, time.Now())); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
