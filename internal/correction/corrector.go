// Package correction revises questions that failed validation. The whole
// batch travels in a single model call together with the procedure text
// and the validators' feedback, and the reply is applied positionally,
// only where content actually changed. The stage fails open: a correction
// failure must never block delivery of an already-validated batch.
package correction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/llm"
)

// Corrector drives the batch-correction pass.
type Corrector struct {
	client llm.Client
	logger *slog.Logger
}

// NewCorrector builds a corrector over client.
func NewCorrector(client llm.Client, logger *slog.Logger) (*Corrector, error) {
	if client == nil {
		return nil, fmt.Errorf("corrector: llm client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Corrector{client: client, logger: logger.With("component", "correction")}, nil
}

// Result summarizes one correction pass over a batch.
type Result struct {
	Outcome domain.CorrectionOutcome `json:"outcome"`
	Flagged int                      `json:"flagged"`
	Revised int                      `json:"revised"`
}

// NeedsCorrection is the per-question predicate: the weighted mean of the
// question's validation results sits below the approval threshold. The
// orchestrated workflow flags on evaluator slots instead (see
// CorrectBatch); this form exists for callers correcting a single
// question outside a batch pass.
func NeedsCorrection(q *domain.Question, weights map[domain.ValidatorKind]float64, threshold float64) bool {
	return q.WeightedScore(weights) < threshold
}

// flaggedCount counts questions carrying a zero evaluator slot, the
// predicate the batch pass corrects on.
func flaggedCount(batch *domain.Batch) int {
	n := 0
	for i := range batch.Questions {
		if batch.Questions[i].EvaluatorScores.AnyZero() {
			n++
		}
	}
	return n
}

// CorrectBatch revises every flagged question in one model call, mutating
// the batch in place. With nothing flagged the batch completes immediately
// without a call. Call failures, undecodable replies, and shape violations
// all resolve fail-open: the batch is forced to completed with its
// questions untouched, under an outcome that keeps the skip visible.
// Only cancellation propagates as an error.
func (c *Corrector) CorrectBatch(ctx context.Context, batch *domain.Batch, procedureText string) (*Result, error) {
	if batch == nil || len(batch.Questions) == 0 {
		return nil, fmt.Errorf("corrector: empty batch")
	}

	flagged := flaggedCount(batch)
	if flagged == 0 {
		batch.CorrectionOutcome = domain.CorrectionNotNeeded
		batch.Status = domain.StatusCompleted
		batch.Touch(time.Now())
		c.logger.Info("correction not needed", "batch_id", batch.ID)
		return &Result{Outcome: domain.CorrectionNotNeeded}, nil
	}

	batch.Status = domain.StatusCorrecting
	resp, err := c.client.Correct(ctx, correctorSystemPrompt, buildCorrectionUserContent(batch, procedureText))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return c.failOpen(batch, flagged, fmt.Errorf("correction call: %w", err)), nil
	}

	drafts, err := parseCorrected(resp.Content)
	if err != nil {
		return c.failOpen(batch, flagged, err), nil
	}

	revised := applyCorrections(batch, drafts, time.Now().UTC())
	outcome := domain.CorrectionApplied
	if revised == 0 {
		// The model echoed everything back unchanged; the batch ends in
		// the same state a no-correction pass produces.
		outcome = domain.CorrectionNotNeeded
	}
	batch.CorrectionOutcome = outcome
	batch.Status = domain.StatusCompleted
	batch.Touch(time.Now())

	c.logger.Info("batch corrected",
		"batch_id", batch.ID,
		"flagged", flagged,
		"revised", revised,
		"outcome", outcome)
	return &Result{Outcome: outcome, Flagged: flagged, Revised: revised}, nil
}

// failOpen passes the batch through unmodified under a named outcome.
func (c *Corrector) failOpen(batch *domain.Batch, flagged int, err error) *Result {
	c.logger.Warn("correction skipped, batch passes through unmodified",
		"batch_id", batch.ID, "flagged", flagged, "error", err)
	batch.CorrectionOutcome = domain.CorrectionSkippedFailOpen
	batch.Status = domain.StatusCompleted
	batch.Touch(time.Now())
	return &Result{Outcome: domain.CorrectionSkippedFailOpen, Flagged: flagged}
}

// applyCorrections overlays drafts onto the batch positionally. A draft
// identical to its question is a no-op, and a reply shorter than the batch
// leaves the trailing questions unmodified. A changed question gains a
// revision entry holding the pre-correction content and the comments that
// triggered the pass, then its revision counter moves.
func applyCorrections(batch *domain.Batch, drafts []domain.QuestionDraft, now time.Time) int {
	revised := 0
	for i := range drafts {
		q := &batch.Questions[i]
		if drafts[i].Text == q.Text && optionsEqual(drafts[i].Options, q.Options) {
			continue
		}
		q.RevisionHistory = append(q.RevisionHistory, domain.RevisionEntry{
			Revision:        q.Revision,
			PreviousText:    q.Text,
			PreviousOptions: q.Options,
			Comments:        q.FailingComments(),
			Timestamp:       now,
		})
		q.Text = drafts[i].Text
		q.Options = drafts[i].Options
		q.Revision++
		q.Status = domain.StatusCompleted
		revised++
	}
	return revised
}

func optionsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
