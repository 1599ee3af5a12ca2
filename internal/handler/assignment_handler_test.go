package handler

import (
	"bytes"
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

	"github.com/rubrica/rubrica-api/internal/dto"
	"github.com/rubrica/rubrica-api/internal/models"
	"github.com/rubrica/rubrica-api/internal/repository"
	"github.com/rubrica/rubrica-api/internal/service"
)

func setupAssignmentApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Assignment{}, &models.Submission{}))

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentService := service.NewAssignmentService(repository.NewAssignmentRepository(db), validate, nil, 0, logger)

	app := fiber.New()
	NewAssignmentHandler(assignmentService, logger).Register(app.Group("/api/v1/assignments"))

	return app, db
}

func TestAssignmentHandlerCreateAndGet(t *testing.T) {
	app, _ := setupAssignmentApp(t)

	resp := postJSON(t, app, "/api/v1/assignments", `{
		"title": "Sorting Lab",
		"class": "CS101",
		"total_points": 100,
		"instructions": "sort the slice",
		"rubric": "correctness: 60, style: 40",
		"language": "Go"
	}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)

	payload, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var created dto.AssignmentResponse
	require.NoError(t, json.Unmarshal(payload, &created))
	require.NotZero(t, created.ID)

	getResp, err := app.Test(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", created.ID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)
}

func TestAssignmentHandlerCreateValidation(t *testing.T) {
	app, _ := setupAssignmentApp(t)

	resp := postJSON(t, app, "/api/v1/assignments", `{"title": "No rubric", "total_points": 10, "language": "Go"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.False(t, envelope.Success)
}

func TestAssignmentHandlerGetUnknownID(t *testing.T) {
	app, _ := setupAssignmentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/404", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignmentHandlerGetMalformedID(t *testing.T) {
	app, _ := setupAssignmentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/abc", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssignmentHandlerUpdateAndDelete(t *testing.T) {
	app, db := setupAssignmentApp(t)

	assignment := models.Assignment{Title: "Old", TotalPoints: 10, Instructions: "i", Rubric: "r", Language: "Go"}
	require.NoError(t, db.Create(&assignment).Error)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/v1/assignments/%d", assignment.ID), bytes.NewReader([]byte(`{"title": "New"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.Assignment
	require.NoError(t, db.First(&stored, assignment.ID).Error)
	require.Equal(t, "New", stored.Title)

	deleteResp, err := app.Test(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/assignments/%d", assignment.ID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, deleteResp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.Assignment{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAssignmentHandlerListPagination(t *testing.T) {
	app, db := setupAssignmentApp(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Assignment{Title: fmt.Sprintf("Lab %d", i), TotalPoints: 10, Instructions: "i", Rubric: "r", Language: "Go"}).Error)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/assignments?page=1&page_size=2", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	require.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(3), data["total"])
	require.Len(t, data["assignments"], 2)
}
