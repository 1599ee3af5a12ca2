package grader

import "strings"

// Field ceilings, in runes. Oversized input is truncated rather than
// rejected so a large but otherwise valid submission still grades; the
// ceilings bound the token cost of a single request.
const (
	MaxLanguageLen = 100
	MaxTextLen     = 20_000
	MaxCodeLen     = 200_000
)

// Sanitize trims surrounding whitespace and truncates the result to max
// runes. It never fails; sanitizing an already-sanitized string returns it
// unchanged.
func Sanitize(value string, max int) string {
	trimmed := strings.TrimSpace(value)
	if max < 0 {
		return trimmed
	}

	runes := []rune(trimmed)
	if len(runes) <= max {
		return trimmed
	}
	return string(runes[:max])
}

func sanitizeRequest(req GradeRequest) GradeRequest {
	return GradeRequest{
		Language:     Sanitize(req.Language, MaxLanguageLen),
		Instructions: Sanitize(req.Instructions, MaxTextLen),
		Rubric:       Sanitize(req.Rubric, MaxTextLen),
		DataInput:    Sanitize(req.DataInput, MaxTextLen),
		StudentCode:  Sanitize(req.StudentCode, MaxCodeLen),
	}
}

func missingRequiredFields(req GradeRequest) []string {
	var missing []string
	if req.Language == "" {
		missing = append(missing, "language")
	}
	if req.Instructions == "" {
		missing = append(missing, "instructions")
	}
	if req.Rubric == "" {
		missing = append(missing, "rubric")
	}
	return missing
}
