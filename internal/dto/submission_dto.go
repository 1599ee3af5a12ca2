package dto

import (
	"encoding/json"
	"time"

	"github.com/rubrica/rubrica-api/internal/models"
	"github.com/rubrica/rubrica-api/pkg/grader"
)

// SubmissionCreateRequest persists an already-graded submission: the caller
// supplies the grade response obtained from the grading endpoint.
type SubmissionCreateRequest struct {
	AssignmentID  uint                  `json:"assignment_id" validate:"required,gt=0"`
	StudentName   string                `json:"student_name" validate:"required,min=1,max=255"`
	StudentCode   string                `json:"student_code" validate:"required"`
	GradeResponse *grader.GradeResponse `json:"grade_response" validate:"required"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentName  *string `query:"student_name"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint            `json:"id"`
	AssignmentID uint            `json:"assignment_id"`
	StudentName  string          `json:"student_name"`
	StudentCode  string          `json:"student_code,omitempty"`
	Language     string          `json:"language"`
	Grade        float64         `json:"grade"`
	TotalPoints  float64         `json:"total_points"`
	Feedback     json.RawMessage `json:"feedback"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Assignment   AssignmentLite  `json:"assignment"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentName:  model.StudentName,
		StudentCode:  model.StudentCode,
		Language:     model.Language,
		Grade:        model.Grade,
		TotalPoints:  model.TotalPoints,
		Feedback:     json.RawMessage(model.Feedback),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:          model.Assignment.ID,
			Title:       model.Assignment.Title,
			Language:    model.Assignment.Language,
			TotalPoints: model.Assignment.TotalPoints,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
