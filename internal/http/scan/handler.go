package scan

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	"github.com/NanayasWorkshop/MakerManager/internal/identity"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

type Handler struct {
	svc *scan.Service
}

func NewHandler(svc *scan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.resolve)
	r.Post("/aliases", h.learn)
	r.Get("/history", h.history)
}

type matchResponse struct {
	Type scan.Type `json:"type"`
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Via  string    `json:"via"`
}

type historyResponse struct {
	Type         scan.Type `json:"type"`
	ScannedCode  string    `json:"scanned_code"`
	ResolvedID   string    `json:"resolved_id"`
	ResolvedName string    `json:"resolved_name"`
	ScannedAt    time.Time `json:"scanned_at"`
}

type resolveRequest struct {
	Code string    `json:"code"`
	Type scan.Type `json:"type"`
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Code) == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	if req.Type != "" && !req.Type.Valid() {
		http.Error(w, "type must be job, material or machine", http.StatusBadRequest)
		return
	}

	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	var m *scan.Match
	if req.Type == "" {
		m, err = h.svc.Resolve(r.Context(), u, req.Code)
	} else {
		m, err = h.svc.ResolveAs(r.Context(), u, req.Type, req.Code)
	}
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(matchResponse(*m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type learnRequest struct {
	Code string    `json:"code"`
	Type scan.Type `json:"type"`
	ID   string    `json:"id"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.ID) == "" {
		http.Error(w, "code and id are required", http.StatusBadRequest)
		return
	}

	if !req.Type.Valid() {
		http.Error(w, "type must be job, material or machine", http.StatusBadRequest)
		return
	}

	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	m, err := h.svc.Learn(r.Context(), u, req.Code, req.Type, req.ID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(matchResponse(*m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	u, err := identity.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.svc.History(r.Context(), u.Username, limit)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]historyResponse, len(entries))
	for i, e := range entries {
		resp[i] = historyResponse{
			Type:         e.Type,
			ScannedCode:  e.ScannedCode,
			ResolvedID:   e.ResolvedID,
			ResolvedName: e.ResolvedName,
			ScannedAt:    e.ScannedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
