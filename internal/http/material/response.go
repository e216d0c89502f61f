package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
)

type Response struct {
	ID                uuid.UUID           `json:"id"`
	MaterialID        string              `json:"material_id"`
	Name              string              `json:"name"`
	CategoryCode      string              `json:"category_code"`
	TypeCode          string              `json:"type_code"`
	Unit              string              `json:"unit"`
	CurrentStock      decimal.Decimal     `json:"current_stock"`
	MinimumStockLevel decimal.NullDecimal `json:"minimum_stock_level"`
	MinimumStockAlert bool                `json:"minimum_stock_alert"`
	PricePerUnit      decimal.NullDecimal `json:"price_per_unit"`
	SupplierName      string              `json:"supplier_name,omitempty"`
	SupplierSKU       string              `json:"supplier_sku,omitempty"`
	SerialNumber      string              `json:"serial_number,omitempty"`
	Location          string              `json:"location,omitempty"`
	PurchaseDate      *time.Time          `json:"purchase_date,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         *time.Time          `json:"updated_at,omitempty"`
}

type transactionResponse struct {
	ID           uuid.UUID              `json:"id"`
	Quantity     decimal.Decimal        `json:"quantity"`
	Type         ledger.TransactionType `json:"type"`
	Date         time.Time              `json:"date"`
	JobReference string                 `json:"job_reference"`
	OperatorName string                 `json:"operator_name"`
	Notes        string                 `json:"notes,omitempty"`
	InvoiceURL   string                 `json:"invoice_url,omitempty"`
}

type JobMaterialResponse struct {
	ID        uuid.UUID           `json:"id"`
	JobID     uuid.UUID           `json:"job_id"`
	Quantity  decimal.Decimal     `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Result    ledger.Result       `json:"result"`
	AddedBy   string              `json:"added_by"`
}

type movementResponse struct {
	Material    Response             `json:"material"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	JobMaterial *JobMaterialResponse `json:"job_material,omitempty"`
}

func ToResponse(m *ledger.Material) Response {
	return Response{
		ID:                m.ID,
		MaterialID:        m.MaterialID,
		Name:              m.Name,
		CategoryCode:      m.CategoryCode,
		TypeCode:          m.TypeCode,
		Unit:              m.Unit,
		CurrentStock:      m.CurrentStock,
		MinimumStockLevel: m.MinimumStockLevel,
		MinimumStockAlert: m.MinimumStockAlert,
		PricePerUnit:      m.PricePerUnit,
		SupplierName:      m.SupplierName,
		SupplierSKU:       m.SupplierSKU,
		SerialNumber:      m.SerialNumber,
		Location:          m.Location,
		PurchaseDate:      m.PurchaseDate,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func ToResponseList(ms []*ledger.Material) []Response {
	resp := make([]Response, len(ms))
	for i, m := range ms {
		resp[i] = ToResponse(m)
	}

	return resp
}

func toTransactionResponse(t *ledger.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:           t.ID,
		Quantity:     t.Quantity,
		Type:         t.Type,
		Date:         t.Date,
		JobReference: t.JobReference,
		OperatorName: t.OperatorName,
		Notes:        t.Notes,
	}

	if t.Invoice != nil {
		resp.InvoiceURL = t.Invoice.URL
	}

	return resp
}

func ToJobMaterialResponse(jm *ledger.JobMaterial) JobMaterialResponse {
	return JobMaterialResponse{
		ID:        jm.ID,
		JobID:     jm.JobID,
		Quantity:  jm.Quantity,
		UnitPrice: jm.UnitPrice,
		Result:    jm.Result,
		AddedBy:   jm.AddedBy,
	}
}

func toMovementResponse(mv *ledger.Movement) movementResponse {
	resp := movementResponse{Material: ToResponse(mv.Material)}

	if mv.Transaction != nil {
		resp.Transaction = new(toTransactionResponse(mv.Transaction))
	}

	if mv.JobMaterial != nil {
		resp.JobMaterial = new(ToJobMaterialResponse(mv.JobMaterial))
	}

	return resp
}
