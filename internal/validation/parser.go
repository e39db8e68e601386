package validation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ahrav/go-quizgen/internal/llm"
)

var (
	// scorePattern recovers a binary score from free-form output when
	// JSON decoding fails, e.g. `score: 1` or `"score" = 0`.
	scorePattern = regexp.MustCompile(`(?i)"?score"?\s*[:=]\s*([01])\b`)

	// commentPattern recovers the comment string alongside a regex-matched
	// score.
	commentPattern = regexp.MustCompile(`(?i)"comment"\s*:\s*"([^"]*)"`)
)

// verdict is the expected validator reply. Score is a pointer so a
// missing field is distinguishable from a legitimate 0.
type verdict struct {
	Score   *int   `json:"score"`
	Comment string `json:"comment"`
}

func (v *verdict) valid() bool {
	return v.Score != nil && (*v.Score == 0 || *v.Score == 1)
}

// parseVerdict decodes a validator response through the fallback ladder:
// extract -> decode -> repair -> decode -> targeted regex. The boolean is
// false when no binary score could be recovered.
func parseVerdict(content string) (int, string, bool) {
	extracted := llm.ExtractJSON(content)

	var v verdict
	if err := json.Unmarshal([]byte(extracted), &v); err == nil && v.valid() {
		return *v.Score, v.Comment, true
	}

	repaired := llm.RepairJSON(extracted)
	v = verdict{}
	if err := json.Unmarshal([]byte(repaired), &v); err == nil && v.valid() {
		return *v.Score, v.Comment, true
	}

	if m := scorePattern.FindStringSubmatch(content); m != nil {
		score := 0
		if m[1] == "1" {
			score = 1
		}
		comment := ""
		if cm := commentPattern.FindStringSubmatch(content); cm != nil {
			comment = cm[1]
		} else {
			comment = strings.TrimSpace(content)
		}
		return score, comment, true
	}

	return 0, "", false
}
