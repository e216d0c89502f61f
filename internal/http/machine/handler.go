package machine

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/qr"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
)

const (
	defaultSetupMinutes     = 15
	defaultEstimatedMinutes = 60
	defaultCleanupMinutes   = 10
)

type Handler struct {
	machines *machine.Service
	sessions *session.Service
	qr       *qr.Renderer
}

func NewHandler(machines *machine.Service, sessions *session.Service, renderer *qr.Renderer) *Handler {
	return &Handler{machines: machines, sessions: sessions, qr: renderer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.register)
	r.Get("/{id}", h.get)
	r.Get("/{id}/usages", h.usages)
	r.Get("/{id}/qr.png", h.qrCode)
	r.Post("/{id}/start", h.start)
	r.Post("/{id}/stop", h.stop)
	r.Put("/{id}/operators/{username}", h.certify)
	r.Delete("/{id}/operators/{username}", h.revoke)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	status := machine.Status(r.URL.Query().Get("status"))

	ms, err := h.machines.List(r.Context(), status)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponseList(ms)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type registerRequest struct {
	Name         string              `json:"name"`
	TypeCode     string              `json:"type_code"`
	SerialNumber string              `json:"serial_number"`
	Location     string              `json:"location"`
	HourlyRate   decimal.NullDecimal `json:"hourly_rate"`
	SetupRate    decimal.NullDecimal `json:"setup_rate"`
	CleanupRate  decimal.NullDecimal `json:"cleanup_rate"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.TypeCode == "" {
		http.Error(w, "name and type_code are required", http.StatusBadRequest)
		return
	}

	m, err := h.machines.Register(r.Context(), machine.RegisterParams{
		Name:         req.Name,
		TypeCode:     req.TypeCode,
		SerialNumber: req.SerialNumber,
		Location:     req.Location,
		HourlyRate:   req.HourlyRate,
		SetupRate:    req.SetupRate,
		CleanupRate:  req.CleanupRate,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ToResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.machines.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) usages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	us, err := h.machines.Usages(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]UsageResponse, len(us))
	for i, u := range us {
		resp[i] = ToUsageResponse(u)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) qrCode(w http.ResponseWriter, r *http.Request) {
	m, err := h.machines.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	png, err := h.qr.PNG(m.MachineID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")

	if _, err := w.Write(png); err != nil {
		slog.Error("failed to write qr code", "error", err)
	}
}

type startRequest struct {
	SetupMinutes     *int   `json:"setup_minutes"`
	EstimatedMinutes *int   `json:"estimated_minutes"`
	Notes            string `json:"notes"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
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

	u, err := h.machines.StartUsage(r.Context(), sess, chi.URLParam(r, "id"), machine.StartParams{
		SetupMinutes:     orDefault(req.SetupMinutes, defaultSetupMinutes),
		EstimatedMinutes: orDefault(req.EstimatedMinutes, defaultEstimatedMinutes),
		Notes:            req.Notes,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(ToUsageResponse(u)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type stopRequest struct {
	CleanupMinutes *int   `json:"cleanup_minutes"`
	Notes          string `json:"notes"`
}

func (h *Handler) stop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
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

	u, err := h.machines.StopUsage(r.Context(), sess, chi.URLParam(r, "id"), machine.StopParams{
		CleanupMinutes: orDefault(req.CleanupMinutes, defaultCleanupMinutes),
		Notes:          req.Notes,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToUsageResponse(u)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) certify(w http.ResponseWriter, r *http.Request) {
	if err := h.machines.Certify(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "id")); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.machines.Revoke(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "id")); err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func orDefault(v *int, def int) int {
	if v == nil {
		return def
	}

	return *v
}
