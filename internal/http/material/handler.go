package material

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/http/httperr"
	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/qr"
	"github.com/NanayasWorkshop/MakerManager/internal/session"
	"github.com/NanayasWorkshop/MakerManager/internal/stocktake"
)

type Handler struct {
	ledger    *ledger.Service
	sessions  *session.Service
	stocktake *stocktake.Service
	qr        *qr.Renderer
}

func NewHandler(ledgerSvc *ledger.Service, sessions *session.Service, stocktakeSvc *stocktake.Service, renderer *qr.Renderer) *Handler {
	return &Handler{
		ledger:    ledgerSvc,
		sessions:  sessions,
		stocktake: stocktakeSvc,
		qr:        renderer,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.register)
	r.Get("/low-stock", h.lowStock)
	r.Post("/stocktake", h.importStocktake)
	r.Get("/{id}", h.get)
	r.Get("/{id}/transactions", h.transactions)
	r.Get("/{id}/qr.png", h.qrCode)
	r.Post("/{id}/withdraw", h.withdraw)
	r.Post("/{id}/return", h.returnStock)
	r.Post("/{id}/restock", h.restock)
	r.Post("/{id}/adjust", h.adjust)
}

type registerRequest struct {
	Name              string              `json:"name"`
	CategoryCode      string              `json:"category_code"`
	TypeCode          string              `json:"type_code"`
	Unit              string              `json:"unit"`
	InitialStock      decimal.Decimal     `json:"initial_stock"`
	MinimumStockLevel decimal.NullDecimal `json:"minimum_stock_level"`
	PricePerUnit      decimal.NullDecimal `json:"price_per_unit"`
	SupplierName      string              `json:"supplier_name"`
	SupplierSKU       string              `json:"supplier_sku"`
	SerialNumber      string              `json:"serial_number"`
	Location          string              `json:"location"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.CategoryCode == "" || req.TypeCode == "" {
		http.Error(w, "name, category_code and type_code are required", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	mv, err := h.ledger.Register(r.Context(), sess, ledger.RegisterParams{
		Name:              req.Name,
		CategoryCode:      req.CategoryCode,
		TypeCode:          req.TypeCode,
		Unit:              req.Unit,
		InitialStock:      req.InitialStock,
		MinimumStockLevel: req.MinimumStockLevel,
		PricePerUnit:      req.PricePerUnit,
		SupplierName:      req.SupplierName,
		SupplierSKU:       req.SupplierSKU,
		SerialNumber:      req.SerialNumber,
		Location:          req.Location,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toMovementResponse(mv)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponse(m)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	ms, err := h.ledger.LowStock(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ToResponseList(ms)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) transactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	txs, err := h.ledger.Transactions(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := make([]transactionResponse, len(txs))
	for i, t := range txs {
		resp[i] = toTransactionResponse(t)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) qrCode(w http.ResponseWriter, r *http.Request) {
	m, err := h.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httperr.Write(w, err)
		return
	}

	png, err := h.qr.PNG(m.MaterialID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")

	if _, err := w.Write(png); err != nil {
		slog.Error("failed to write qr code", "error", err)
	}
}

type movementRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes"`
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Withdraw)
}

func (h *Handler) returnStock(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Return)
}

type moveFunc func(ctx context.Context, sess *session.Session, materialID string, quantity decimal.Decimal, notes string) (*ledger.Movement, error)

func (h *Handler) move(w http.ResponseWriter, r *http.Request, fn moveFunc) {
	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	mv, err := fn(r.Context(), sess, chi.URLParam(r, "id"), req.Quantity, req.Notes)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toMovementResponse(mv)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type restockRequest struct {
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	Supplier          string           `json:"supplier"`
	PurchaseDate      string           `json:"purchase_date"`
	Notes             string           `json:"notes"`
	Location          string           `json:"location"`
	MinimumStockLevel *decimal.Decimal `json:"minimum_stock_level"`
	InvoiceURL        string           `json:"invoice_url"`
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Supplier == "" {
		http.Error(w, "supplier is required", http.StatusBadRequest)
		return
	}

	purchased := time.Now()
	if req.PurchaseDate != "" {
		t, err := time.Parse(time.DateOnly, req.PurchaseDate)
		if err != nil {
			http.Error(w, "invalid purchase_date: expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		purchased = t
	}

	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	mv, err := h.ledger.Restock(r.Context(), sess, chi.URLParam(r, "id"), ledger.RestockParams{
		Quantity:          req.Quantity,
		UnitPrice:         req.UnitPrice,
		Supplier:          req.Supplier,
		PurchaseDate:      purchased,
		Notes:             req.Notes,
		Location:          req.Location,
		MinimumStockLevel: req.MinimumStockLevel,
		InvoiceURL:        req.InvoiceURL,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toMovementResponse(mv)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type adjustRequest struct {
	NewStock decimal.Decimal `json:"new_stock"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	mv, err := h.ledger.Adjust(r.Context(), sess, chi.URLParam(r, "id"), req.NewStock)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toMovementResponse(mv)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

const maxUploadSize = 10 << 20

type stocktakeRowError struct {
	Row        int    `json:"row"`
	MaterialID string `json:"material_id,omitempty"`
	Message    string `json:"message"`
}

type stocktakeResponse struct {
	Applied   int                 `json:"applied"`
	Unchanged int                 `json:"unchanged"`
	Errors    []stocktakeRowError `json:"errors"`
}

func (h *Handler) importStocktake(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	sess, err := h.sessions.FromContext(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}

	report, err := h.stocktake.Import(r.Context(), sess, file)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := stocktakeResponse{
		Applied:   report.Applied,
		Unchanged: report.Unchanged,
		Errors:    make([]stocktakeRowError, len(report.Errors)),
	}
	for i, e := range report.Errors {
		resp.Errors[i] = stocktakeRowError{Row: e.Row, MaterialID: e.MaterialID, Message: e.Err.Error()}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
