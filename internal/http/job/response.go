package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/NanayasWorkshop/MakerManager/internal/activity"
	"github.com/NanayasWorkshop/MakerManager/internal/job"
)

type Response struct {
	ID              uuid.UUID    `json:"id"`
	JobID           string       `json:"job_id"`
	ProjectName     string       `json:"project_name"`
	JobType         string       `json:"job_type"`
	Status          string       `json:"status"`
	PercentComplete int          `json:"percent_complete"`
	Priority        job.Priority `json:"priority"`
	IsPersonal      bool         `json:"is_personal"`
	OwnerName       string       `json:"owner_name,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       *time.Time   `json:"updated_at,omitempty"`
}

type activityResponse struct {
	ID          uuid.UUID      `json:"id"`
	Type        activity.Type  `json:"type"`
	Description string         `json:"description"`
	PerformedBy string         `json:"performed_by"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	RelatedType string         `json:"related_type,omitempty"`
	RelatedID   string         `json:"related_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func ToResponse(j *job.Job) Response {
	return Response{
		ID:              j.ID,
		JobID:           j.JobID,
		ProjectName:     j.ProjectName,
		JobType:         j.JobType,
		Status:          j.Status,
		PercentComplete: j.PercentComplete,
		Priority:        j.Priority,
		IsPersonal:      j.IsPersonal,
		OwnerName:       j.OwnerName,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

func toActivityResponse(e *activity.Entry) activityResponse {
	return activityResponse{
		ID:          e.ID,
		Type:        e.Type,
		Description: e.Description,
		PerformedBy: e.PerformedBy,
		Metadata:    e.Metadata,
		RelatedType: e.RelatedType,
		RelatedID:   e.RelatedID,
		CreatedAt:   e.CreatedAt,
	}
}
