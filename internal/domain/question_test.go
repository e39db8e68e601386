package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft(text string) QuestionDraft {
	return QuestionDraft{
		Text:    text,
		Options: []string{"correct", "wrong a", "wrong b", "wrong c"},
	}
}

func TestQuestionDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*QuestionDraft)
		wantErr bool
	}{
		{name: "valid draft", mutate: func(*QuestionDraft) {}},
		{
			name:    "blank text",
			mutate:  func(d *QuestionDraft) { d.Text = "   " },
			wantErr: true,
		},
		{
			name:    "three options",
			mutate:  func(d *QuestionDraft) { d.Options = d.Options[:3] },
			wantErr: true,
		},
		{
			name:    "five options",
			mutate:  func(d *QuestionDraft) { d.Options = append(d.Options, "extra") },
			wantErr: true,
		},
		{
			name:    "blank option",
			mutate:  func(d *QuestionDraft) { d.Options[2] = " " },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := draft("What is the first step?")
			tt.mutate(&d)
			d.Normalize()
			err := d.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBatchShape)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestWeightedScore(t *testing.T) {
	weights := WeightsOf(DefaultValidatorSpecs())

	q := Question{
		Results: []ValidationResult{
			{Kind: ValidatorStructure, Score: 1},
			{Kind: ValidatorTechnical, Score: 1},
			{Kind: ValidatorDifficulty, Score: 1},
			{Kind: ValidatorClarity, Score: 1},
		},
	}
	assert.InDelta(t, 1.0, q.WeightedScore(weights), 1e-9)

	// Technical carries 0.4: losing it alone drops the mean to 0.6.
	q.Results[1].Score = 0
	assert.InDelta(t, 0.6, q.WeightedScore(weights), 1e-9)

	// All zero.
	for i := range q.Results {
		q.Results[i].Score = 0
	}
	assert.InDelta(t, 0.0, q.WeightedScore(weights), 1e-9)
}

func TestWeightedScoreNoResults(t *testing.T) {
	q := Question{}
	assert.Zero(t, q.WeightedScore(WeightsOf(DefaultValidatorSpecs())))
}

func TestWeightedScoreIgnoresUnweightedKinds(t *testing.T) {
	weights := map[ValidatorKind]float64{ValidatorStructure: 1.0}
	q := Question{
		Results: []ValidationResult{
			{Kind: ValidatorStructure, Score: 1},
			{Kind: ValidatorKind("exotic"), Score: 0},
		},
	}
	assert.InDelta(t, 1.0, q.WeightedScore(weights), 1e-9)
}

func TestEvaluatorScores(t *testing.T) {
	var scores EvaluatorScores
	assert.True(t, scores.AnyZero())

	for _, kind := range ValidatorKinds() {
		scores.Set(kind, 1)
	}
	assert.False(t, scores.AnyZero())
	assert.Equal(t, EvaluatorScores{Structure: 1, Technical: 1, Difficulty: 1, Clarity: 1}, scores)

	scores.Set(ValidatorDifficulty, 0)
	assert.True(t, scores.AnyZero())

	// Unknown kinds are ignored.
	scores.Set(ValidatorKind("exotic"), 1)
	assert.True(t, scores.AnyZero())
}

func TestFailingComments(t *testing.T) {
	q := Question{
		Results: []ValidationResult{
			{Kind: ValidatorStructure, Score: 1, Comment: "fine"},
			{Kind: ValidatorTechnical, Score: 0, Comment: "step 3 is wrong"},
			{Kind: ValidatorClarity, Score: 0, Comment: "  "},
			{Kind: ValidatorDifficulty, Score: 0, Comment: "too easy"},
		},
	}
	assert.Equal(t, []string{"step 3 is wrong", "too easy"}, q.FailingComments())
}

func TestValidationResultTimestampSurvivesCopy(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	r := ValidationResult{Kind: ValidatorClarity, Score: 1, Comment: "ok", Timestamp: at}
	cp := r
	assert.Equal(t, at, cp.Timestamp)
}
