package domain

// ProcedureStatus is the lifecycle state shared by questions and batches.
// Questions only ever use the subset pending, generating, completed,
// needs_correction, and failed; batches walk the full machine.
type ProcedureStatus string

const (
	StatusPending         ProcedureStatus = "pending"
	StatusGenerating      ProcedureStatus = "generating"
	StatusValidating      ProcedureStatus = "validating"
	StatusNeedsCorrection ProcedureStatus = "needs_correction"
	StatusCorrecting      ProcedureStatus = "correcting"
	StatusCompleted       ProcedureStatus = "completed"
	StatusFailed          ProcedureStatus = "failed"
	StatusCancelled       ProcedureStatus = "cancelled"
	StatusSynced          ProcedureStatus = "synced"
)

// Deliverable reports whether a question in this state is written to the
// catalog: approved questions and those still awaiting a manual correction
// pass both ship.
func (s ProcedureStatus) Deliverable() bool {
	return s == StatusCompleted || s == StatusNeedsCorrection
}

// RunState is the workflow engine's global state. Per-item tasks reuse the
// same values, advanced independently of the run.
type RunState string

const (
	RunIdle       RunState = "idle"
	RunScanning   RunState = "scanning"
	RunQueued     RunState = "queued"
	RunGenerating RunState = "generating"
	RunValidating RunState = "validating"
	RunCorrecting RunState = "correcting"
	RunSyncing    RunState = "syncing"
	RunCompleted  RunState = "completed"
	RunFailed     RunState = "failed"
	RunCancelled  RunState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}
