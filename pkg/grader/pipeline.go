package grader

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Grader runs the grading pipeline: sanitize, compose, complete, validate,
// reconcile. It holds no per-request state, so a single instance is safe for
// concurrent use.
type Grader struct {
	completer Completer
	prompts   *PromptSource
	logger    zerolog.Logger
}

// New wires a pipeline around the given completer and prompt source.
func New(completer Completer, prompts *PromptSource, logger zerolog.Logger) *Grader {
	return &Grader{
		completer: completer,
		prompts:   prompts,
		logger:    logger.With().Str("component", "grader").Logger(),
	}
}

// Grade runs one request through the pipeline and returns the reconciled
// response. Failures map to the package error types: ValidationError for
// bad caller input, ConfigurationError for operator problems, UpstreamError
// for provider transport failures and ShapeError for structurally invalid
// provider replies.
func (g *Grader) Grade(ctx context.Context, req GradeRequest) (GradeResponse, error) {
	req = sanitizeRequest(req)

	if missing := missingRequiredFields(req); len(missing) > 0 {
		return GradeResponse{}, &ValidationError{
			Message: "missing required fields: " + strings.Join(missing, ", ") + " are required",
		}
	}

	systemPrompt, err := g.prompts.SystemPrompt(req.Language)
	if err != nil {
		g.logger.Error().Err(err).Msg("prompt template unavailable")
		return GradeResponse{}, err
	}

	raw, err := g.completer.Complete(ctx, systemPrompt, req)
	if err != nil {
		g.logger.Warn().Err(err).Str("language", req.Language).Msg("completion failed")
		return GradeResponse{}, err
	}

	response, err := Validate(raw)
	if err != nil {
		g.logger.Warn().Err(err).Msg("provider reply failed shape validation")
		return GradeResponse{}, err
	}

	Reconcile(&response)

	g.logger.Info().
		Str("language", req.Language).
		Int("sections", len(response.Sections)).
		Float64("earned", response.Total.Earned).
		Float64("max", response.Total.Max).
		Msg("submission graded")

	return response, nil
}
