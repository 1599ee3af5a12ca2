package dto

import (
	"time"

	"github.com/rubrica/rubrica-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Title        string     `json:"title" validate:"required,min=1,max=255"`
	Class        string     `json:"class" validate:"omitempty,max=255"`
	DueDate      *time.Time `json:"due_date"`
	TotalPoints  float64    `json:"total_points" validate:"required,gt=0"`
	Instructions string     `json:"instructions" validate:"required"`
	Rubric       string     `json:"rubric" validate:"required"`
	Language     string     `json:"language" validate:"required,max=100"`
}

// AssignmentUpdateRequest carries partial updates to an assignment.
type AssignmentUpdateRequest struct {
	Title        *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Class        *string    `json:"class" validate:"omitempty,max=255"`
	DueDate      *time.Time `json:"due_date"`
	TotalPoints  *float64   `json:"total_points" validate:"omitempty,gt=0"`
	Instructions *string    `json:"instructions" validate:"omitempty,min=1"`
	Rubric       *string    `json:"rubric" validate:"omitempty,min=1"`
	Language     *string    `json:"language" validate:"omitempty,min=1,max=100"`
}

// AssignmentFilter describes query string filters for listing assignments.
type AssignmentFilter struct {
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Class        string     `json:"class"`
	DueDate      *time.Time `json:"due_date"`
	TotalPoints  float64    `json:"total_points"`
	Instructions string     `json:"instructions"`
	Rubric       string     `json:"rubric"`
	Language     string     `json:"language"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Language    string  `json:"language"`
	TotalPoints float64 `json:"total_points"`
}

// NewAssignmentResponse converts an Assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:           model.ID,
		Title:        model.Title,
		Class:        model.Class,
		DueDate:      model.DueDate,
		TotalPoints:  model.TotalPoints,
		Instructions: model.Instructions,
		Rubric:       model.Rubric,
		Language:     model.Language,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(models []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(models))
	for _, assignment := range models {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
