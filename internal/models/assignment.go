package models

import "time"

// Assignment defines a gradable programming assignment: the instructions and
// rubric text fed to the grading pipeline plus display metadata.
type Assignment struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Class        string     `gorm:"size:255" json:"class"`
	DueDate      *time.Time `json:"due_date"`
	TotalPoints  float64    `gorm:"not null" json:"total_points"`
	Instructions string     `gorm:"type:text;not null" json:"instructions"`
	Rubric       string     `gorm:"type:text;not null" json:"rubric"`
	Language     string     `gorm:"size:100;not null" json:"language"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Submissions  []Submission
}

// IsPastDue returns true when the assignment has a deadline and it has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
