package correction

import (
	"encoding/json"
	"fmt"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/llm"
)

// parseCorrected decodes a corrector reply through the extract -> decode ->
// repair -> decode ladder and shape-checks it whole before anything is
// applied: at most one draft per batch question, each with the standard
// question shape. A reply failing any check is rejected in full; partial
// application would leave the batch half-corrected.
func parseCorrected(content string) ([]domain.QuestionDraft, error) {
	extracted := llm.ExtractJSON(content)

	var drafts []domain.QuestionDraft
	if err := json.Unmarshal([]byte(extracted), &drafts); err != nil {
		repaired := llm.RepairJSON(extracted)
		if err := json.Unmarshal([]byte(repaired), &drafts); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
		}
	}

	if len(drafts) > domain.QuestionsPerBatch {
		return nil, fmt.Errorf("%w: corrected array has %d items",
			domain.ErrBatchShape, len(drafts))
	}
	for i := range drafts {
		drafts[i].Normalize()
		if err := drafts[i].Validate(); err != nil {
			return nil, fmt.Errorf("corrected question %d: %w", i+1, err)
		}
	}
	return drafts, nil
}
