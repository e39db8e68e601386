package domain

import (
	"fmt"
	"strings"
	"time"
)

// OptionsPerQuestion is the fixed number of answer options every question
// carries. The option at index 0 is always the correct one; generation,
// validation, and correction all preserve that position.
const OptionsPerQuestion = 4

// QuestionsPerBatch is the fixed batch size the generator must produce.
// Responses with any other count are rejected whole; there are no partial
// batches.
const QuestionsPerBatch = 5

// RevisionEntry records one applied correction: the pre-correction content
// and the validator comments that triggered it.
type RevisionEntry struct {
	Revision        int       `json:"version"`
	PreviousText    string    `json:"pregunta_anterior"`
	PreviousOptions []string  `json:"opciones_anteriores"`
	Comments        []string  `json:"comentarios,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Question is one multiple-choice question under construction. The embedded
// EvaluatorScores surface as flat punt_* fields in the serialized form, the
// layout the manual-review tooling expects.
type Question struct {
	ID              string             `json:"id"`
	Procedure       ProcedureIdentity  `json:"procedimiento"`
	Text            string             `json:"pregunta"`
	Options         []string           `json:"opciones"`
	Status          ProcedureStatus    `json:"status"`
	Results         []ValidationResult `json:"resultados_validacion,omitempty"`
	RevisionHistory []RevisionEntry    `json:"historial_revision,omitempty"`
	EvaluatorScores
	Revision int `json:"version_preg"`
}

// QuestionDraft is the parsed shape of one generated or corrected question
// before ids and lifecycle state are assigned. Defaults are resolved here,
// at decode time, not per access.
type QuestionDraft struct {
	Text    string   `json:"pregunta"`
	Options []string `json:"opciones"`
}

// Normalize trims text and options in place.
func (d *QuestionDraft) Normalize() {
	d.Text = strings.TrimSpace(d.Text)
	for i := range d.Options {
		d.Options[i] = strings.TrimSpace(d.Options[i])
	}
}

// Validate enforces the draft shape: non-blank text and exactly 4 non-blank
// options.
func (d *QuestionDraft) Validate() error {
	if d.Text == "" {
		return fmt.Errorf("%w: blank question text", ErrBatchShape)
	}
	if len(d.Options) != OptionsPerQuestion {
		return fmt.Errorf("%w: expected %d options, got %d",
			ErrBatchShape, OptionsPerQuestion, len(d.Options))
	}
	for i, opt := range d.Options {
		if opt == "" {
			return fmt.Errorf("%w: blank option at index %d", ErrBatchShape, i)
		}
	}
	return nil
}

// Validate enforces the structural invariants every question carries
// through the pipeline.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question %s has blank text", ErrBatchShape, q.ID)
	}
	if len(q.Options) != OptionsPerQuestion {
		return fmt.Errorf("%w: question %s has %d options",
			ErrBatchShape, q.ID, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w: question %s option %d is blank",
				ErrBatchShape, q.ID, i)
		}
	}
	return nil
}

// WeightedScore returns the weighted mean of the question's validation
// results: sum(weight x score) / sum(weight). Results whose kind has no
// configured weight contribute nothing. Returns 0 when no weighted results
// exist.
func (q *Question) WeightedScore(weights map[ValidatorKind]float64) float64 {
	var sum, total float64
	for _, r := range q.Results {
		w := weights[r.Kind]
		sum += w * float64(r.Score)
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// FailingComments collects the comments of every zero-score result, the
// feedback the corrector feeds back to the model.
func (q *Question) FailingComments() []string {
	var comments []string
	for _, r := range q.Results {
		if r.Score == 0 && strings.TrimSpace(r.Comment) != "" {
			comments = append(comments, r.Comment)
		}
	}
	return comments
}
