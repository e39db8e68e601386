package generation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/llm"
)

// Generator produces question batches from procedure text. Transport-level
// resilience lives inside the LLM client; by the time Generate returns an
// error the retry budget is already spent and the batch is lost.
type Generator struct {
	client llm.Client
	model  string
	logger *slog.Logger
}

// NewGenerator builds a generator over client. The model name is recorded
// on tracking records and events, not used for routing.
func NewGenerator(client llm.Client, model string, logger *slog.Logger) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("generator: llm client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		client: client,
		model:  model,
		logger: logger.With("component", "generation"),
	}, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Generate asks the model for exactly 5 questions about the document and
// assembles them into a new batch in generating state. Malformed or
// mis-shaped output is terminal for the batch: no partial batches, no
// synthetic filler.
func (g *Generator) Generate(
	ctx context.Context,
	identity domain.ProcedureIdentity,
	documentText, sourceName string,
) (*domain.Batch, error) {
	userContent := buildGenerationUserContent(identity, documentText, sourceName)

	resp, err := g.client.Generate(ctx, generatorSystemPrompt, userContent)
	if err != nil {
		return nil, fmt.Errorf("generate questions for %s: %w", identity, err)
	}

	drafts, err := ParseBatch(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse generation response for %s: %w", identity, err)
	}

	batch, err := domain.NewBatch(identity, time.Now(), drafts)
	if err != nil {
		return nil, fmt.Errorf("assemble batch for %s: %w", identity, err)
	}

	g.logger.Info("questions generated",
		"batch_id", batch.ID,
		"procedure", identity.String(),
		"questions", len(batch.Questions),
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens)
	return batch, nil
}
