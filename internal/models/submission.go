package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is a graded piece of student work. Feedback carries the full
// reconciled grade response verbatim as produced by the grading pipeline;
// Grade mirrors its total.earned for querying and display.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null" json:"assignment_id"`
	StudentName  string         `gorm:"size:255;not null" json:"student_name"`
	StudentCode  string         `gorm:"type:text" json:"student_code"`
	Language     string         `gorm:"size:100" json:"language"`
	Grade        float64        `json:"grade"`
	TotalPoints  float64        `json:"total_points"`
	Feedback     datatypes.JSON `json:"feedback"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
}
