package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// validate is the shared validator instance for workflow request
// validation.
var validate = validator.New(validator.WithRequiredStructEnabled())

// GenerationRequest starts one question-generation run.
type GenerationRequest struct {
	// ID correlates the run across logs, events, and results.
	ID string `json:"id" validate:"required"`

	// RequestedBy names the caller for audit logs.
	RequestedBy string `json:"requested_by,omitempty"`

	// SourceDir optionally overrides the configured document directory.
	SourceDir string `json:"source_dir,omitempty"`

	// ItemDelay optionally pauses the workflow between queued items,
	// spacing out provider traffic on long runs.
	ItemDelay time.Duration `json:"item_delay,omitempty"`
}

// NewGenerationRequest builds a request with a fresh id.
func NewGenerationRequest(requestedBy string) GenerationRequest {
	return GenerationRequest{ID: uuid.New().String(), RequestedBy: requestedBy}
}

// Validate checks the request before the workflow accepts it.
func (r *GenerationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid generation request: %w", err)
	}
	return nil
}

// StepCount is the number of numbered steps each queued item advances
// through.
const StepCount = 5

// Pipeline step indices, 1-based to match the step counter surfaced in
// progress snapshots.
const (
	StepPrepare = iota + 1
	StepGenerate
	StepValidate
	StepCorrect
	StepSync
)

// StepName returns the human-readable name of a step index.
func StepName(step int) string {
	switch step {
	case StepPrepare:
		return "prepare"
	case StepGenerate:
		return "generate"
	case StepValidate:
		return "validate"
	case StepCorrect:
		return "correct"
	case StepSync:
		return "sync"
	default:
		return fmt.Sprintf("step-%d", step)
	}
}

// ProcessingTask is the per-item record the workflow keeps while driving
// one queued procedure through the pipeline. Step elapsed times are
// measured from task start, keyed by step name.
type ProcessingTask struct {
	Identity      ProcedureIdentity `json:"procedimiento"`
	Source        string            `json:"source"`
	BatchID       string            `json:"batch_id,omitempty"`
	State         RunState          `json:"state"`
	Step          int               `json:"step"`
	StepName      string            `json:"step_name,omitempty"`
	Err           string            `json:"error,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	StepElapsedMS map[string]int64  `json:"step_elapsed_ms,omitempty"`
}

// ProgressSnapshot is the externally visible progress view served by the
// workflow's progress query. It is always internally consistent, even while
// an item is mid-failure.
type ProgressSnapshot struct {
	State       RunState         `json:"state"`
	Total       int              `json:"total"`
	Completed   int              `json:"completed"`
	Failed      int              `json:"failed"`
	Cancelled   int              `json:"cancelled"`
	CurrentStep string           `json:"current_step"`
	Tasks       []ProcessingTask `json:"tasks,omitempty"`
}

// Done reports how many tasks have reached a terminal state.
func (p *ProgressSnapshot) Done() int { return p.Completed + p.Failed + p.Cancelled }

// GenerationResult is the workflow's final report.
type GenerationResult struct {
	RequestID  string           `json:"request_id"`
	State      RunState         `json:"state"`
	FoundFiles int              `json:"found_files"`
	Queued     int              `json:"queued"`
	Completed  int              `json:"completed"`
	Failed     int              `json:"failed"`
	Cancelled  int              `json:"cancelled"`
	Tasks      []ProcessingTask `json:"tasks,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}
