package generation

import (
	"encoding/json"
	"fmt"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/llm"
)

// ParseBatch decodes a model response into question drafts. The ladder is
// extract (code fences, surrounding prose) -> decode -> one repair pass ->
// decode again. Anything still undecodable is ErrMalformedResponse; shape
// violations surface later from domain.NewBatch.
func ParseBatch(content string) ([]domain.QuestionDraft, error) {
	extracted := llm.ExtractJSON(content)

	var drafts []domain.QuestionDraft
	if err := json.Unmarshal([]byte(extracted), &drafts); err == nil {
		return drafts, nil
	}

	repaired := llm.RepairJSON(extracted)
	if err := json.Unmarshal([]byte(repaired), &drafts); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return drafts, nil
}
