package dto

// GradeSubmissionRequest grades student code against a stored assignment and
// persists the result in one call. StudentCode may be empty: the grader
// treats a missing submission as a semantic outcome, not a request error.
type GradeSubmissionRequest struct {
	StudentName string `json:"student_name" validate:"required,min=1,max=255"`
	StudentCode string `json:"student_code"`
	DataInput   string `json:"data_input"`
}
