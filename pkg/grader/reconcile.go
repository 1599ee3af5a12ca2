package grader

import (
	"encoding/json"
	"math"
)

// Validate checks that the raw provider reply is a JSON object carrying at
// least a sections key and a total key, then decodes it. The check stays
// shallow: per-section fields are coerced by Reconcile rather than rejected
// here, since partial-field replies from a probabilistic provider are
// expected.
func Validate(raw json.RawMessage) (GradeResponse, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return GradeResponse{}, &ShapeError{Reason: "reply is not a JSON object"}
	}

	if _, ok := probe["sections"]; !ok {
		return GradeResponse{}, &ShapeError{Reason: "missing sections"}
	}
	if _, ok := probe["total"]; !ok {
		return GradeResponse{}, &ShapeError{Reason: "missing total"}
	}

	var response GradeResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return GradeResponse{}, &ShapeError{Reason: "malformed grading payload"}
	}

	return response, nil
}

// Reconcile recomputes the total from the per-section values and overwrites
// whatever the provider reported. Language models are unreliable at
// multi-step arithmetic, so the sections are the only source of truth for
// the aggregate grade. Non-numeric scores and maxima count as zero.
//
// Percentage rounds to the nearest integer with ties away from zero
// (math.Round): 1/8 reconciles to 13, not 12.
func Reconcile(response *GradeResponse) {
	if response.Sections == nil {
		// Nothing to sum over; keep the provider total rather than
		// zeroing out a response Validate already let through.
		return
	}

	var earned, max float64
	for _, section := range response.Sections {
		earned += section.Score.Float64()
		max += section.MaxPoints.Float64()
	}

	percentage := 0.0
	if max > 0 {
		percentage = math.Round(100 * earned / max)
	}

	response.Total = Total{
		Earned:     earned,
		Max:        max,
		Percentage: percentage,
	}
}
