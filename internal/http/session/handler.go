package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	httpjob "github.com/NanayasWorkshop/MakerManager/internal/http/job"
	httpmachine "github.com/NanayasWorkshop/MakerManager/internal/http/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/http/material"
	"github.com/NanayasWorkshop/MakerManager/internal/http/timetrack"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	timetracking "github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

type Handler struct {
	sessions *session.Service
	tracker  *timetracking.Service
	ledger   *ledger.Service
	machines *machine.Service
}

func NewHandler(sessions *session.Service, tracker *timetracking.Service, ledgerSvc *ledger.Service, machines *machine.Service) *Handler {
	return &Handler{
		sessions: sessions,
		tracker:  tracker,
		ledger:   ledgerSvc,
		machines: machines,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Put("/active-job", h.setActiveJob)
	r.Delete("/active-job", h.clearActiveJob)
	r.Get("/dashboard", h.dashboard)
}

type Response struct {
	Username    string            `json:"username"`
	DisplayName string            `json:"display_name"`
	ActiveJob   *httpjob.Response `json:"active_job,omitempty"`
	PersonalJob *httpjob.Response `json:"personal_job,omitempty"`
	ActiveSince *time.Time        `json:"active_since,omitempty"`
}

func ToResponse(s *session.Session) Response {
	resp := Response{
		Username:    s.User.Username,
		DisplayName: s.User.DisplayName(),
		ActiveSince: s.ActiveSince,
	}

	if s.ActiveJob != nil {
		resp.ActiveJob = new(httpjob.ToResponse(s.ActiveJob))
	}

	if s.PersonalJob != nil {
		resp.PersonalJob = new(httpjob.ToResponse(s.PersonalJob))
	}

	return resp
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	h.writeSession(w, sess)
}

type activeJobRequest struct {
	JobID string `json:"job_id"`
}

func (h *Handler) setActiveJob(w http.ResponseWriter, r *http.Request) {
	var req activeJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.JobID) == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}

	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	sess, err := h.sessions.ActivateJobByID(r.Context(), u, req.JobID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	h.writeSession(w, sess)
}

func (h *Handler) clearActiveJob(w http.ResponseWriter, r *http.Request) {
	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	sess, err := h.sessions.ClearActiveJob(r.Context(), u)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	h.writeSession(w, sess)
}

type dashboardResponse struct {
	Session           Response                 `json:"session"`
	ActiveTime        *timetrack.EntryResponse `json:"active_time,omitempty"`
	LowStock          []material.Response      `json:"low_stock"`
	AvailableMachines []httpmachine.Response   `json:"available_machines"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	sess, err := h.sessions.Bootstrap(r.Context(), u)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	entry, err := h.tracker.Active(r.Context(), u.Username)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	low, err := h.ledger.LowStock(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	available, err := h.machines.Available(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := dashboardResponse{
		Session:           ToResponse(sess),
		LowStock:          material.ToResponseList(low),
		AvailableMachines: httpmachine.ToResponseList(available),
	}

	if entry != nil {
		resp.ActiveTime = new(timetrack.ToEntryResponse(entry, time.Now()))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeSession(w http.ResponseWriter, sess *session.Session) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(sess)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
