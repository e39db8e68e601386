package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = ProcedureIdentity{Code: "PEP-PRO-1141", Version: 2}

func fiveDrafts() []QuestionDraft {
	drafts := make([]QuestionDraft, QuestionsPerBatch)
	for i := range drafts {
		drafts[i] = draft(fmt.Sprintf("Question %d?", i+1))
	}
	return drafts
}

func TestNewBatch(t *testing.T) {
	at := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

	b, err := NewBatch(testIdentity, at, fiveDrafts())
	require.NoError(t, err)

	assert.Equal(t, "batch_PEP-PRO-1141_2_20250310083000", b.ID)
	assert.Equal(t, StatusGenerating, b.Status)
	require.Len(t, b.Questions, QuestionsPerBatch)

	for i, q := range b.Questions {
		assert.Equal(t, fmt.Sprintf("%s_q%d", b.ID, i+1), q.ID)
		assert.Equal(t, testIdentity, q.Procedure)
		assert.Equal(t, StatusGenerating, q.Status)
		assert.Equal(t, 1, q.Revision)
		assert.Len(t, q.Options, OptionsPerQuestion)
	}
	require.NoError(t, b.Validate())
}

func TestNewBatchRejectsWrongCount(t *testing.T) {
	at := time.Now()

	_, err := NewBatch(testIdentity, at, fiveDrafts()[:4])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchShape)

	_, err = NewBatch(testIdentity, at, append(fiveDrafts(), draft("extra?")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchShape)
}

func TestNewBatchRejectsBadDraft(t *testing.T) {
	drafts := fiveDrafts()
	drafts[2].Options[1] = "  "

	_, err := NewBatch(testIdentity, time.Now(), drafts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchShape)
	assert.Contains(t, err.Error(), "question 3")
}

func TestRecomputeValidationScore(t *testing.T) {
	weights := WeightsOf(DefaultValidatorSpecs())
	b, err := NewBatch(testIdentity, time.Now(), fiveDrafts())
	require.NoError(t, err)

	for i := range b.Questions {
		score := 1
		if i == 0 {
			score = 0
		}
		for _, kind := range ValidatorKinds() {
			b.Questions[i].Results = append(b.Questions[i].Results,
				ValidationResult{Kind: kind, Score: score})
		}
	}

	b.RecomputeValidationScore(weights)
	// Four perfect questions and one total failure.
	assert.InDelta(t, 0.8, b.ValidationScore, 1e-9)
}

func TestDeliverableQuestions(t *testing.T) {
	b, err := NewBatch(testIdentity, time.Now(), fiveDrafts())
	require.NoError(t, err)

	b.Questions[0].Status = StatusCompleted
	b.Questions[1].Status = StatusNeedsCorrection
	b.Questions[2].Status = StatusFailed
	b.Questions[3].Status = StatusCompleted
	b.Questions[4].Status = StatusGenerating

	deliverable := b.DeliverableQuestions()
	require.Len(t, deliverable, 3)
	assert.Equal(t, b.Questions[0].ID, deliverable[0].ID)
	assert.Equal(t, b.Questions[1].ID, deliverable[1].ID)
	assert.Equal(t, b.Questions[3].ID, deliverable[2].ID)
}

func TestBatchIDIsUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	local := time.Date(2025, 3, 10, 2, 30, 0, 0, loc)

	id := NewBatchID(testIdentity, local)
	assert.Equal(t, "batch_PEP-PRO-1141_2_20250310083000", id)
}
