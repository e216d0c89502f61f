package machine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/machine"
)

type Response struct {
	ID            uuid.UUID           `json:"id"`
	MachineID     string              `json:"machine_id"`
	Name          string              `json:"name"`
	TypeCode      string              `json:"type_code"`
	SerialNumber  string              `json:"serial_number,omitempty"`
	Location      string              `json:"location,omitempty"`
	Status        machine.Status      `json:"status"`
	CurrentJobID  *uuid.UUID          `json:"current_job_id,omitempty"`
	ReservedUntil *time.Time          `json:"reserved_until,omitempty"`
	HourlyRate    decimal.NullDecimal `json:"hourly_rate"`
	SetupRate     decimal.NullDecimal `json:"setup_rate"`
	CleanupRate   decimal.NullDecimal `json:"cleanup_rate"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     *time.Time          `json:"updated_at,omitempty"`
}

type UsageResponse struct {
	ID             uuid.UUID       `json:"id"`
	JobID          *uuid.UUID      `json:"job_id,omitempty"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
	SetupMinutes   int             `json:"setup_minutes"`
	CleanupMinutes int             `json:"cleanup_minutes"`
	SetupCost      decimal.Decimal `json:"setup_cost"`
	OperationCost  decimal.Decimal `json:"operation_cost"`
	CleanupCost    decimal.Decimal `json:"cleanup_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	JobReference   string          `json:"job_reference"`
	OperatorName   string          `json:"operator_name"`
	Notes          string          `json:"notes,omitempty"`
}

func ToResponse(m *machine.Machine) Response {
	return Response{
		ID:            m.ID,
		MachineID:     m.MachineID,
		Name:          m.Name,
		TypeCode:      m.TypeCode,
		SerialNumber:  m.SerialNumber,
		Location:      m.Location,
		Status:        m.Status,
		CurrentJobID:  m.CurrentJobID,
		ReservedUntil: m.ReservedUntil,
		HourlyRate:    m.HourlyRate,
		SetupRate:     m.SetupRate,
		CleanupRate:   m.CleanupRate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToResponseList(ms []*machine.Machine) []Response {
	resp := make([]Response, len(ms))
	for i, m := range ms {
		resp[i] = ToResponse(m)
	}

	return resp
}

func ToUsageResponse(u *machine.Usage) UsageResponse {
	return UsageResponse{
		ID:             u.ID,
		JobID:          u.JobID,
		StartTime:      u.StartTime,
		EndTime:        u.EndTime,
		SetupMinutes:   u.SetupMinutes,
		CleanupMinutes: u.CleanupMinutes,
		SetupCost:      u.SetupCost,
		OperationCost:  u.OperationCost,
		CleanupCost:    u.CleanupCost,
		TotalCost:      u.TotalCost,
		JobReference:   u.JobReference,
		OperatorName:   u.OperatorName,
		Notes:          u.Notes,
	}
}
