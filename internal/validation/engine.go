// Package validation judges generated questions along four automated
// dimensions and folds the verdicts into per-question and batch scores.
// The technical validator is the trusted gatekeeper: it is critical by
// default, and its failure aborts the whole batch validation instead of
// failing open.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/llm"
	"github.com/ahrav/go-quizgen/pkg/activity"
)

// Config tunes one validation engine.
type Config struct {
	// Specs lists the validators to run, in order. Empty selects the
	// standard four.
	Specs []domain.ValidatorSpec

	// Threshold is the weighted-mean approval bar. Zero selects the
	// default.
	Threshold float64

	// QuestionDelay is an optional fixed pause between questions, for
	// external rate limits beyond the client's own limiter.
	QuestionDelay time.Duration

	// Model is recorded on validation results.
	Model string
}

// Engine runs the configured validators over a batch.
type Engine struct {
	client    llm.Client
	specs     []domain.ValidatorSpec
	weights   map[domain.ValidatorKind]float64
	threshold float64
	delay     time.Duration
	model     string
	logger    *slog.Logger
}

// NewEngine builds an engine over client.
func NewEngine(client llm.Client, cfg Config, logger *slog.Logger) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("validation engine: llm client is required")
	}
	specs := cfg.Specs
	if len(specs) == 0 {
		specs = domain.DefaultValidatorSpecs()
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = domain.DefaultApprovalThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:    client,
		specs:     specs,
		weights:   domain.WeightsOf(specs),
		threshold: threshold,
		delay:     cfg.QuestionDelay,
		model:     cfg.Model,
		logger:    logger.With("component", "validation"),
	}, nil
}

// Threshold returns the approval bar in effect.
func (e *Engine) Threshold() float64 { return e.threshold }

// Weights returns the kind-to-weight table in effect.
func (e *Engine) Weights() map[domain.ValidatorKind]float64 { return e.weights }

// ValidateBatch runs every configured validator over every question,
// mutating the batch in place: results and evaluator slots per question,
// question statuses against the threshold, the batch validation score,
// and the batch status. Only a critical validator failure (or
// cancellation) returns an error; everything else resolves fail-open.
func (e *Engine) ValidateBatch(ctx context.Context, batch *domain.Batch) error {
	if batch == nil || len(batch.Questions) == 0 {
		return fmt.Errorf("validation engine: empty batch")
	}

	batch.Status = domain.StatusValidating
	for i := range batch.Questions {
		if i > 0 && e.delay > 0 {
			select {
			case <-time.After(e.delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := e.validateQuestion(ctx, &batch.Questions[i]); err != nil {
			batch.Status = domain.StatusFailed
			return fmt.Errorf("validate batch %s: %w", batch.ID, err)
		}
	}

	completed := 0
	for i := range batch.Questions {
		q := &batch.Questions[i]
		if q.WeightedScore(e.weights) >= e.threshold {
			q.Status = domain.StatusCompleted
			completed++
		} else {
			q.Status = domain.StatusNeedsCorrection
		}
	}
	batch.RecomputeValidationScore(e.weights)
	if completed > 0 {
		batch.Status = domain.StatusCompleted
	} else {
		batch.Status = domain.StatusFailed
	}
	batch.Touch(time.Now())

	e.logger.Info("batch validated",
		"batch_id", batch.ID,
		"score", batch.ValidationScore,
		"approved", completed,
		"needs_correction", len(batch.Questions)-completed)
	return nil
}

// validateQuestion runs every validator against one question, appending a
// result and mirroring the 0/1 verdict into the matching evaluator slot.
func (e *Engine) validateQuestion(ctx context.Context, q *domain.Question) error {
	for _, spec := range e.specs {
		activity.RecordHeartbeat(ctx, fmt.Sprintf("Validating %s on question %s", spec.Kind, q.ID))
		score, comment, err := e.runValidator(ctx, spec, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if spec.Critical {
				return fmt.Errorf("critical validator %s on %s: %w", spec.Kind, q.ID, err)
			}
			// Non-critical validators fail open with a passing score so
			// one flaky dimension never blocks a batch.
			score = 1
			comment = fmt.Sprintf("validador %s no disponible: %v", spec.Kind, err)
			e.logger.Warn("validator failed open",
				"validator", spec.Kind, "question_id", q.ID, "error", err)
		}

		q.Results = append(q.Results, domain.ValidationResult{
			Kind:      spec.Kind,
			Score:     score,
			Comment:   comment,
			Timestamp: time.Now().UTC(),
			Model:     e.model,
		})
		q.EvaluatorScores.Set(spec.Kind, score)
	}
	return nil
}

// runValidator issues one verdict call. Unparsable output is an error for
// critical validators and a commented default pass for the rest.
func (e *Engine) runValidator(ctx context.Context, spec domain.ValidatorSpec, q *domain.Question) (int, string, error) {
	resp, err := e.client.Validate(ctx, validatorSystemPrompt(spec.Kind), buildValidationUserContent(q))
	if err != nil {
		return 0, "", err
	}

	score, comment, ok := parseVerdict(resp.Content)
	if !ok {
		if spec.Critical {
			return 0, "", fmt.Errorf("%w: no verdict in validator output", domain.ErrMalformedResponse)
		}
		return 1, fmt.Sprintf("respuesta no interpretable: %s", truncate(resp.Content, verdictPreviewLimit)), nil
	}
	return score, comment, nil
}

// verdictPreviewLimit bounds raw output captured into fail-open comments.
const verdictPreviewLimit = 200

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
