package domain

import (
	"fmt"
	"time"
)

// batchTimeLayout stamps batch ids at second resolution, UTC.
const batchTimeLayout = "20060102150405"

// CorrectionOutcome records how the correction stage concluded for a batch.
// The fail-open case is a named outcome so a swallowed correction failure
// stays observable instead of disappearing into a log line.
type CorrectionOutcome string

const (
	// CorrectionNotNeeded means every question already met the approval bar.
	CorrectionNotNeeded CorrectionOutcome = "not_needed"
	// CorrectionApplied means at least one question was revised.
	CorrectionApplied CorrectionOutcome = "applied"
	// CorrectionSkippedFailOpen means the correction call or its output
	// failed and the batch passed through unmodified.
	CorrectionSkippedFailOpen CorrectionOutcome = "skipped_failopen"
)

// Batch is a set of exactly 5 questions generated together for one
// procedure revision. The workflow exclusively owns a batch's mutable state
// while it is being processed.
type Batch struct {
	ID                string            `json:"batch_id"`
	Procedure         ProcedureIdentity `json:"procedimiento"`
	Questions         []Question        `json:"preguntas"`
	Status            ProcedureStatus   `json:"status"`
	ValidationScore   float64           `json:"validation_score"`
	CorrectionOutcome CorrectionOutcome `json:"correction_outcome,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// NewBatchID derives the batch identifier for a procedure revision at a
// generation instant: batch_{code}_{version}_{timestamp}.
func NewBatchID(p ProcedureIdentity, at time.Time) string {
	return fmt.Sprintf("batch_%s_%d_%s", p.Code, p.Version, at.UTC().Format(batchTimeLayout))
}

// QuestionID derives the deterministic id of the idx-th (1-based) question
// in a batch.
func QuestionID(batchID string, idx int) string {
	return fmt.Sprintf("%s_q%d", batchID, idx)
}

// NewBatch packages exactly 5 drafts into a batch in generating state,
// assigning the batch id and per-question ids. Drafts are normalized and
// shape-checked; any violation rejects the whole batch.
func NewBatch(p ProcedureIdentity, at time.Time, drafts []QuestionDraft) (*Batch, error) {
	if len(drafts) != QuestionsPerBatch {
		return nil, fmt.Errorf("%w: expected %d questions, got %d",
			ErrBatchShape, QuestionsPerBatch, len(drafts))
	}

	id := NewBatchID(p, at)
	b := &Batch{
		ID:        id,
		Procedure: p,
		Status:    StatusGenerating,
		CreatedAt: at.UTC(),
		UpdatedAt: at.UTC(),
	}
	for i := range drafts {
		d := drafts[i]
		d.Normalize()
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		b.Questions = append(b.Questions, Question{
			ID:        QuestionID(id, i+1),
			Procedure: p,
			Text:      d.Text,
			Options:   d.Options,
			Status:    StatusGenerating,
			Revision:  1,
		})
	}
	return b, nil
}

// Validate checks batch-level invariants: exactly 5 structurally valid
// questions.
func (b *Batch) Validate() error {
	if len(b.Questions) != QuestionsPerBatch {
		return fmt.Errorf("%w: batch %s has %d questions",
			ErrBatchShape, b.ID, len(b.Questions))
	}
	for i := range b.Questions {
		if err := b.Questions[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeValidationScore sets ValidationScore to the mean of the
// questions' weighted means.
func (b *Batch) RecomputeValidationScore(weights map[ValidatorKind]float64) {
	if len(b.Questions) == 0 {
		b.ValidationScore = 0
		return
	}
	var sum float64
	for i := range b.Questions {
		sum += b.Questions[i].WeightedScore(weights)
	}
	b.ValidationScore = sum / float64(len(b.Questions))
}

// DeliverableQuestions returns the questions the sync layer writes out.
func (b *Batch) DeliverableQuestions() []Question {
	var out []Question
	for i := range b.Questions {
		if b.Questions[i].Status.Deliverable() {
			out = append(out, b.Questions[i])
		}
	}
	return out
}

// Touch moves the updated timestamp forward.
func (b *Batch) Touch(at time.Time) { b.UpdatedAt = at.UTC() }
