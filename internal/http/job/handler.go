package job

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	"github.com/NanayasWorkshop/MakerManager/internal/http/material"
	"github.com/NanayasWorkshop/MakerManager/internal/http/timetrack"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/qr"
	timetracking "github.com/NanayasWorkshop/MakerManager/internal/timetrack"
)

type Handler struct {
	jobs     *job.Service
	activity *activity.Service
	ledger   *ledger.Service
	tracker  *timetracking.Service
	qr       *qr.Renderer
}

func NewHandler(
	jobs *job.Service,
	activitySvc *activity.Service,
	ledgerSvc *ledger.Service,
	tracker *timetracking.Service,
	renderer *qr.Renderer,
) *Handler {
	return &Handler{
		jobs:     jobs,
		activity: activitySvc,
		ledger:   ledgerSvc,
		tracker:  tracker,
		qr:       renderer,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Get("/{id}/materials", h.materials)
	r.Get("/{id}/activity", h.feed)
	r.Post("/{id}/notes", h.addNote)
	r.Get("/{id}/time", h.timeEntries)
	r.Get("/{id}/qr.png", h.qrCode)
}

type createRequest struct {
	ProjectName string       `json:"project_name"`
	JobType     string       `json:"job_type"`
	Priority    job.Priority `json:"priority"`
	OwnerName   string       `json:"owner_name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.ProjectName) == "" || strings.TrimSpace(req.JobType) == "" {
		http.Error(w, "project_name and job_type are required", http.StatusBadRequest)
		return
	}

	j, err := h.jobs.Create(r.Context(), job.CreateParams{
		ProjectName: req.ProjectName,
		JobType:     req.JobType,
		Priority:    req.Priority,
		OwnerName:   req.OwnerName,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ToResponse(j)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(j)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) materials(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	jms, err := h.ledger.JobMaterials(r.Context(), j.ID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]material.JobMaterialResponse, len(jms))
	for i, jm := range jms {
		resp[i] = material.ToJobMaterialResponse(jm)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.activity.List(r.Context(), j.ID, limit)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]activityResponse, len(entries))
	for i, e := range entries {
		resp[i] = toActivityResponse(e)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type noteRequest struct {
	Text string `json:"text"`
}

func (h *Handler) addNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	e, err := h.activity.AddNote(r.Context(), j.ID, u.DisplayName(), req.Text)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toActivityResponse(e)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type timeResponse struct {
	TotalSeconds int64                     `json:"total_seconds"`
	Entries      []timetrack.EntryResponse `json:"entries"`
}

func (h *Handler) timeEntries(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	entries, err := h.tracker.ForJob(r.Context(), j.ID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	now := time.Now()
	resp := timeResponse{Entries: make([]timetrack.EntryResponse, len(entries))}
	for i, e := range entries {
		resp.Entries[i] = timetrack.ToEntryResponse(e, now)
		resp.TotalSeconds += resp.Entries[i].DurationSeconds
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) qrCode(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	png, err := h.qr.PNG(j.JobID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")

	if _, err := w.Write(png); err != nil {
		slog.Error("failed to write qr code", "error", err)
	}
}
