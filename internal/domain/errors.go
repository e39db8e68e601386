package domain

import "errors"

// Sentinel errors shared across pipeline stages. Stages wrap these with
// context; callers branch with errors.Is.
var (
	// ErrWorkflowConflict rejects starting a generation run while another
	// is still active.
	ErrWorkflowConflict = errors.New("question generation already running")

	// ErrNoActiveRun is returned by progress queries when no run exists.
	ErrNoActiveRun = errors.New("no active generation run")

	// ErrBatchShape marks model output that does not satisfy the required
	// 5-question, 4-option shape. Terminal for the generating batch.
	ErrBatchShape = errors.New("batch shape invalid")

	// ErrMalformedResponse marks model output that cannot be parsed at all,
	// even after repair.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrNoProcedureCode means a filename yielded no valid procedure code.
	ErrNoProcedureCode = errors.New("no valid procedure code in filename")
)
