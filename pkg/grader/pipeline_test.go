package grader

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	raw    json.RawMessage
	err    error
	calls  int
	system string
	seen   GradeRequest
}

func (s *stubCompleter) Complete(_ context.Context, systemPrompt string, payload GradeRequest) (json.RawMessage, error) {
	s.calls++
	s.system = systemPrompt
	s.seen = payload
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func newTestGrader(completer Completer) *Grader {
	prompts := NewStaticPromptSource("# Grading System Prompt\nGrade the ${language} submission against the rubric.")
	return New(completer, prompts, zerolog.Nop())
}

func TestGradeRejectsEmptyRequiredFieldsBeforeUpstream(t *testing.T) {
	completer := &stubCompleter{}
	g := newTestGrader(completer)

	_, err := g.Grade(context.Background(), GradeRequest{
		Language:     "Python",
		Instructions: "",
		Rubric:       "x",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Message, "instructions")
	require.Zero(t, completer.calls, "completer must never be invoked for invalid input")
}

func TestGradeRejectsWhitespaceOnlyFields(t *testing.T) {
	completer := &stubCompleter{}
	g := newTestGrader(completer)

	_, err := g.Grade(context.Background(), GradeRequest{
		Language:     "   ",
		Instructions: "\t\n",
		Rubric:       " ",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Zero(t, completer.calls)
}

func TestGradeSubstitutesLanguageIntoSystemPrompt(t *testing.T) {
	completer := &stubCompleter{raw: json.RawMessage(`{"sections": [], "total": {}}`)}
	g := newTestGrader(completer)

	_, err := g.Grade(context.Background(), GradeRequest{
		Language:     "Haskell",
		Instructions: "implement foldr",
		Rubric:       "correctness: 10",
	})

	require.NoError(t, err)
	require.Contains(t, completer.system, "Haskell")
	require.NotContains(t, completer.system, "${language}")
}

func TestGradeSanitizesPayloadBeforeUpstream(t *testing.T) {
	completer := &stubCompleter{raw: json.RawMessage(`{"sections": [], "total": {}}`)}
	g := newTestGrader(completer)

	_, err := g.Grade(context.Background(), GradeRequest{
		Language:     "  Python  ",
		Instructions: " solve it ",
		Rubric:       " rubric ",
		StudentCode:  "  print('hi')  ",
	})

	require.NoError(t, err)
	require.Equal(t, "Python", completer.seen.Language)
	require.Equal(t, "print('hi')", completer.seen.StudentCode)
}

func TestGradeReconcilesUpstreamArithmetic(t *testing.T) {
	completer := &stubCompleter{raw: json.RawMessage(`{
		"relevant": true,
		"missingCode": false,
		"message": "graded",
		"sections": [
			{"id": "a", "title": "Correctness", "maxPoints": 50, "score": 45, "comments": "solid"},
			{"id": "b", "title": "Style", "maxPoints": 50, "score": 38, "comments": "ok"}
		],
		"total": {"earned": 999, "max": 999, "percentage": 99},
		"summary": "good work"
	}`)}
	g := newTestGrader(completer)

	resp, err := g.Grade(context.Background(), GradeRequest{
		Language:     "Python",
		Instructions: "solve",
		Rubric:       "rubric",
		StudentCode:  "print('hi')",
	})

	require.NoError(t, err)
	require.Equal(t, Total{Earned: 83, Max: 100, Percentage: 83}, resp.Total)
	require.True(t, resp.Relevant)
	require.Equal(t, "good work", resp.Summary)
}

func TestGradePreservesSectionOrder(t *testing.T) {
	completer := &stubCompleter{raw: json.RawMessage(`{
		"sections": [
			{"id": "z", "title": "Last criterion first", "maxPoints": 1, "score": 0},
			{"id": "m", "title": "Middle", "maxPoints": 2, "score": 2},
			{"id": "a", "title": "First criterion last", "maxPoints": 3, "score": 1}
		],
		"total": {}
	}`)}
	g := newTestGrader(completer)

	resp, err := g.Grade(context.Background(), GradeRequest{Language: "Go", Instructions: "i", Rubric: "r"})
	require.NoError(t, err)

	ids := make([]string, 0, len(resp.Sections))
	for _, section := range resp.Sections {
		ids = append(ids, section.ID)
	}
	require.Equal(t, []string{"z", "m", "a"}, ids)
}

func TestGradePropagatesRateLimit(t *testing.T) {
	completer := &stubCompleter{err: &UpstreamError{Status: http.StatusTooManyRequests, Message: "rate limited"}}
	g := newTestGrader(completer)

	_, err := g.Grade(context.Background(), GradeRequest{Language: "Go", Instructions: "i", Rubric: "r"})

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.True(t, upstreamErr.RateLimited())
}

func TestGradeSurfacesShapeError(t *testing.T) {
	completer := &stubCompleter{raw: json.RawMessage(`{"foo": 1}`)}
	g := newTestGrader(completer)

	_, err := g.Grade(context.Background(), GradeRequest{Language: "Go", Instructions: "i", Rubric: "r"})

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestGradeSurfacesPromptLoadFailure(t *testing.T) {
	completer := &stubCompleter{}
	g := New(completer, NewPromptSource("/nonexistent/prompt.md"), zerolog.Nop())

	_, err := g.Grade(context.Background(), GradeRequest{Language: "Go", Instructions: "i", Rubric: "r"})

	var configErr *ConfigurationError
	require.ErrorAs(t, err, &configErr)
	require.Zero(t, completer.calls)
}
