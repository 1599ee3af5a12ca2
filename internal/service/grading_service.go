package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/rubrica/rubrica-api/internal/dto"
	"github.com/rubrica/rubrica-api/internal/repository"
	"github.com/rubrica/rubrica-api/pkg/grader"
)

// GradingPipeline is the seam to the grading pipeline so handlers and tests
// can substitute a canned implementation for the non-deterministic upstream.
type GradingPipeline interface {
	Grade(ctx context.Context, req grader.GradeRequest) (grader.GradeResponse, error)
}

// GradingService runs grading requests, either ad hoc or against a stored
// assignment.
type GradingService interface {
	Grade(ctx context.Context, req grader.GradeRequest) (grader.GradeResponse, error)
	GradeSubmission(ctx context.Context, assignmentID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error)
}

type gradingService struct {
	pipeline    GradingPipeline
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewGradingService constructs a GradingService instance.
func NewGradingService(pipeline GradingPipeline, assignmentRepo repository.AssignmentRepository, submissionRepo repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) GradingService {
	return &gradingService{
		pipeline:    pipeline,
		assignments: assignmentRepo,
		submissions: submissionRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

// Grade forwards an ad hoc request straight to the pipeline. Nothing is
// persisted; the caller owns the result.
func (s *gradingService) Grade(ctx context.Context, req grader.GradeRequest) (grader.GradeResponse, error) {
	return s.pipeline.Grade(ctx, req)
}

// GradeSubmission sources instructions, rubric and language from the stored
// assignment, grades the supplied code, then persists the result. The two
// store calls are sequential and non-atomic: a persistence failure after a
// successful grade surfaces as an error without rollback.
func (s *gradingService) GradeSubmission(ctx context.Context, assignmentID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	result, err := s.pipeline.Grade(ctx, grader.GradeRequest{
		Language:     assignment.Language,
		Instructions: assignment.Instructions,
		Rubric:       assignment.Rubric,
		DataInput:    payload.DataInput,
		StudentCode:  payload.StudentCode,
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := buildSubmission(assignment, payload.StudentName, payload.StudentCode, result, s.sanitizer)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission.Assignment = assignment

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Uint("submission_id", submission.ID).
		Float64("earned", result.Total.Earned).
		Float64("max", result.Total.Max).
		Msg("submission graded and stored")

	return dto.NewSubmissionResponse(submission), nil
}
