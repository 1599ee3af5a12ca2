package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rubrica/rubrica-api/internal/models"
	"github.com/rubrica/rubrica-api/internal/repository"
	"github.com/rubrica/rubrica-api/internal/service"
	"github.com/rubrica/rubrica-api/internal/utils"
	"github.com/rubrica/rubrica-api/pkg/grader"
)

const gradePromptTemplate = "# Grading System Prompt\n\nGrade the ${language} submission against the rubric."

type cannedCompleter struct {
	raw   json.RawMessage
	err   error
	calls int
}

func (c *cannedCompleter) Complete(_ context.Context, _ string, _ grader.GradeRequest) (json.RawMessage, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.raw, nil
}

func validGradeReply() json.RawMessage {
	return json.RawMessage(`{
		"relevant": true,
		"missingCode": false,
		"message": "graded",
		"sections": [
			{"id": "a", "title": "Correctness", "maxPoints": 60, "score": 45, "comments": "solid"},
			{"id": "b", "title": "Style", "maxPoints": 40, "score": 38, "comments": "clean"}
		],
		"total": {"earned": 999, "max": 999, "percentage": 99},
		"summary": "good work"
	}`)
}

func setupGradeApp(t *testing.T, completer grader.Completer) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Assignment{}, &models.Submission{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	pipeline := grader.New(completer, grader.NewStaticPromptSource(gradePromptTemplate), logger)
	gradingService := service.NewGradingService(
		pipeline,
		repository.NewAssignmentRepository(db),
		repository.NewSubmissionRepository(db),
		validate,
		logger,
	)

	app := fiber.New()
	gradeHandler := NewGradeHandler(gradingService, logger)
	gradeHandler.Register(app.Group("/api/v1/grade"))
	gradeHandler.RegisterAssignmentRoutes(app.Group("/api/v1/assignments"))

	return app, db
}

func postJSON(t *testing.T, app *fiber.App, path string, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()

	var envelope utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return envelope
}

func TestGradeEndpointReturnsReconciledTotals(t *testing.T) {
	completer := &cannedCompleter{raw: validGradeReply()}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/grade", `{
		"language": "Go",
		"instructions": "sort the slice",
		"rubric": "correctness: 60, style: 40",
		"studentCode": "package main"
	}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result grader.GradeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 83.0, result.Total.Earned)
	require.Equal(t, 100.0, result.Total.Max)
	require.Equal(t, 83.0, result.Total.Percentage)
	require.Len(t, result.Sections, 2)
	require.Equal(t, 1, completer.calls)
}

func TestGradeEndpointRejectsMissingFields(t *testing.T) {
	completer := &cannedCompleter{raw: validGradeReply()}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/grade", `{"language": "Go", "studentCode": "x"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
	require.Contains(t, envelope.Message, "instructions")
	require.Contains(t, envelope.Message, "rubric")
	require.Zero(t, completer.calls, "invalid input must never reach the provider")
}

func TestGradeEndpointMapsRateLimit(t *testing.T) {
	completer := &cannedCompleter{err: &grader.UpstreamError{Status: 429, Message: "rate limited"}}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/grade", `{"language": "Go", "instructions": "i", "rubric": "r"}`)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
	require.Contains(t, envelope.Message, "retry")
}

func TestGradeEndpointMapsInvalidShape(t *testing.T) {
	completer := &cannedCompleter{raw: json.RawMessage(`{"foo": 1}`)}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/grade", `{"language": "Go", "instructions": "i", "rubric": "r"}`)
	require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
	require.Contains(t, envelope.Message, "invalid shape")
}

func TestGradeEndpointMapsMissingCredential(t *testing.T) {
	completer := &cannedCompleter{err: &grader.ConfigurationError{Message: "missing API key"}}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/grade", `{"language": "Go", "instructions": "i", "rubric": "r"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
	require.Contains(t, envelope.Message, "not configured")
}

func TestGradeAssignmentEndpointPersistsSubmission(t *testing.T) {
	completer := &cannedCompleter{raw: validGradeReply()}
	app, db := setupGradeApp(t, completer)

	assignment := models.Assignment{Title: "Sorting Lab", TotalPoints: 100, Instructions: "sort", Rubric: "r", Language: "Go"}
	require.NoError(t, db.Create(&assignment).Error)

	resp := postJSON(t, app, fmt.Sprintf("/api/v1/assignments/%d/grade", assignment.ID), `{
		"student_name": "Jane",
		"student_code": "package main"
	}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	var stored models.Submission
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, 83.0, stored.Grade)
	require.Equal(t, "Jane", stored.StudentName)
}

func TestGradeAssignmentEndpointUnknownAssignment(t *testing.T) {
	completer := &cannedCompleter{raw: validGradeReply()}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/assignments/999/grade", `{"student_name": "Jane", "student_code": "x"}`)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Zero(t, completer.calls)
}

func TestGradeEndpointRejectsMalformedBody(t *testing.T) {
	completer := &cannedCompleter{raw: validGradeReply()}
	app, _ := setupGradeApp(t, completer)

	resp := postJSON(t, app, "/api/v1/grade", `{"language":`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, completer.calls)
}
