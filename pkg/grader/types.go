package grader

import (
	"context"
	"encoding/json"
)

// GradeRequest carries the inputs for one grading call. It is built per
// request, sanitized, forwarded to the reasoning provider as structured JSON
// and discarded afterwards.
type GradeRequest struct {
	Language     string `json:"language"`
	Instructions string `json:"instructions"`
	Rubric       string `json:"rubric"`
	DataInput    string `json:"dataInput"`
	StudentCode  string `json:"studentCode"`
}

// PointValue is a JSON number that tolerates non-numeric upstream values.
// The reasoning provider occasionally emits things like "N/A" where a score
// belongs; those decode as invalid, count as zero when summed, and keep
// their original token when the response is re-marshalled.
type PointValue struct {
	value float64
	valid bool
	raw   json.RawMessage
}

// Points builds a valid PointValue, mainly for tests and fixtures.
func Points(v float64) PointValue {
	return PointValue{value: v, valid: true}
}

// Float64 returns the numeric value, or zero when the upstream value was not
// a number.
func (p PointValue) Float64() float64 {
	if !p.valid {
		return 0
	}
	return p.value
}

// Valid reports whether the upstream value was a usable number.
func (p PointValue) Valid() bool {
	return p.valid
}

// UnmarshalJSON never fails: any token that is not a number is recorded
// as invalid instead of aborting the decode of the whole response.
func (p *PointValue) UnmarshalJSON(data []byte) error {
	p.raw = append(p.raw[:0], data...)

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		p.value = 0
		p.valid = false
		return nil
	}

	p.value = value
	p.valid = true
	return nil
}

// MarshalJSON echoes the original token for invalid values so the caller
// sees what the provider actually produced.
func (p PointValue) MarshalJSON() ([]byte, error) {
	if p.valid {
		return json.Marshal(p.value)
	}
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return []byte("0"), nil
}

// RubricSectionResult is one scored rubric criterion.
type RubricSectionResult struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	MaxPoints PointValue `json:"maxPoints"`
	Score     PointValue `json:"score"`
	Comments  string     `json:"comments"`
}

// Total aggregates the per-section results. It is always recomputed from the
// sections by Reconcile; the provider-reported total is discarded.
type Total struct {
	Earned     float64 `json:"earned"`
	Max        float64 `json:"max"`
	Percentage float64 `json:"percentage"`
}

// UnmarshalJSON decodes a provider-supplied total leniently: individual
// fields that are not numbers become zero. The total is overwritten during
// reconciliation anyway, so there is no point rejecting the response over it.
func (t *Total) UnmarshalJSON(data []byte) error {
	var aux struct {
		Earned     PointValue `json:"earned"`
		Max        PointValue `json:"max"`
		Percentage PointValue `json:"percentage"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Earned = aux.Earned.Float64()
	t.Max = aux.Max.Float64()
	t.Percentage = aux.Percentage.Float64()
	return nil
}

// GradeResponse is the reconciled grading result returned to the caller.
// Section order mirrors the rubric presentation order and is preserved
// end-to-end.
type GradeResponse struct {
	Relevant    bool                  `json:"relevant"`
	MissingCode bool                  `json:"missingCode"`
	Message     string                `json:"message"`
	Sections    []RubricSectionResult `json:"sections"`
	Total       Total                 `json:"total"`
	Summary     string                `json:"summary"`
	Suggestions []string              `json:"suggestions,omitempty"`
	RubricEcho  string                `json:"rubricEcho,omitempty"`
}

// Completer is the single seam to the external reasoning provider. It sends
// one completion request and returns the raw JSON content of the reply.
// Implementations must not retry.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, payload GradeRequest) (json.RawMessage, error)
}
