package generation

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/ahrav/go-quizgen/internal/document"
	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/pkg/activity"
)

// PrepareDocumentInput carries the queue item whose document is read.
type PrepareDocumentInput struct {
	Item domain.QueueItem `json:"item"`
}

// PrepareDocumentOutput is the extracted document content. An empty
// DocumentText is legal; generation decides what to do with it.
type PrepareDocumentOutput struct {
	DocumentText string `json:"document_text"`
	Title        string `json:"title,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// GenerateQuestionsInput pairs a queue item with its prepared text.
type GenerateQuestionsInput struct {
	Item         domain.QueueItem `json:"item"`
	DocumentText string           `json:"document_text"`
}

// GenerateQuestionsOutput carries the freshly assembled batch.
type GenerateQuestionsOutput struct {
	Batch *domain.Batch `json:"batch"`
	Model string        `json:"model"`
}

// Activities host the prepare and generate steps of the pipeline.
type Activities struct {
	activity.BaseActivities
	generator *Generator
}

// NewActivities creates generation activities around generator.
func NewActivities(base activity.BaseActivities, generator *Generator) *Activities {
	return &Activities{BaseActivities: base, generator: generator}
}

// PrepareDocument turns a queue item into procedure text. Items the scan
// already flagged fail here, in the first numbered step, so the failure
// lands on the document rather than the model.
func (a *Activities) PrepareDocument(ctx context.Context, input PrepareDocumentInput) (*PrepareDocumentOutput, error) {
	item := input.Item
	if item.Err != "" {
		return nil, nonRetryable("PrepareDocument", errors.New(item.Err), "queue item flagged by scan")
	}
	if item.Identity.IsSentinel() {
		return nil, nonRetryable("PrepareDocument", domain.ErrNoProcedureCode, "queue item has no procedure code")
	}

	doc, err := document.Read(item.Path)
	if err != nil {
		return nil, retryable("PrepareDocument", err, "document read failed")
	}

	activity.SafeLog(ctx, "PrepareDocument completed",
		"procedure", item.Identity.String(),
		"chars", len(doc.Text))
	return &PrepareDocumentOutput{
		DocumentText: doc.Text,
		Title:        doc.Metadata.Title,
		Scope:        doc.Metadata.Subject,
	}, nil
}

// GenerateQuestions runs the generator for one queue item. The LLM client
// owns transport retries, so shape and parse failures are non-retryable
// and everything else is surfaced retryable for the workflow's policy
// (which runs LLM activities with a single attempt).
func (a *Activities) GenerateQuestions(ctx context.Context, input GenerateQuestionsInput) (*GenerateQuestionsOutput, error) {
	item := input.Item
	if item.Identity.IsSentinel() {
		return nil, nonRetryable("GenerateQuestions", domain.ErrNoProcedureCode, "queue item has no procedure code")
	}

	a.RecordHeartbeat(ctx, "Generating questions for "+item.Identity.String())
	batch, err := a.generator.Generate(ctx, item.Identity, input.DocumentText, filepath.Base(item.Path))
	if err != nil {
		if errors.Is(err, domain.ErrMalformedResponse) || errors.Is(err, domain.ErrBatchShape) {
			return nil, nonRetryable("GenerateQuestions", err, "model output unusable")
		}
		return nil, retryable("GenerateQuestions", err, "generation failed")
	}

	a.emitBatchGenerated(ctx, batch)
	activity.SafeLog(ctx, "GenerateQuestions completed",
		"batch_id", batch.ID,
		"procedure", item.Identity.String())
	return &GenerateQuestionsOutput{Batch: batch, Model: a.generator.Model()}, nil
}
