package workflow

import (
	"fmt"
	"time"

	"github.com/ahrav/go-quizgen/internal/domain"
	"github.com/ahrav/go-quizgen/internal/scan"
)

// progressTracker is the workflow's in-memory run state. It is only ever
// touched from workflow code, so every mutation is deterministic and
// replays identically; the progress query serves copies of it.
type progressTracker struct {
	state     domain.RunState
	found     int
	queue     []domain.QueueItem
	tasks     []domain.ProcessingTask
	current   string
	startedAt time.Time
}

func newProgressTracker(now time.Time) *progressTracker {
	return &progressTracker{
		state:     domain.RunScanning,
		current:   "scanning documents",
		startedAt: now,
	}
}

// enqueue records the scan outcome and materializes one task per queued
// item, in scan order.
func (p *progressTracker) enqueue(scanned scan.ScanResult) {
	p.found = scanned.FoundFiles
	p.queue = scanned.Queue
	p.state = domain.RunQueued
	p.current = fmt.Sprintf("%d queued", len(scanned.Queue))
	p.tasks = make([]domain.ProcessingTask, len(scanned.Queue))
	for i, item := range scanned.Queue {
		p.tasks[i] = domain.ProcessingTask{
			Identity: item.Identity,
			Source:   item.Path,
			State:    domain.RunQueued,
		}
	}
}

func (p *progressTracker) startItem(i int, now time.Time) {
	task := &p.tasks[i]
	task.StartedAt = now
	task.StepElapsedMS = make(map[string]int64, domain.StepCount)
}

// enterStep advances both the task and the run to the given step's state.
func (p *progressTracker) enterStep(i, step int, state domain.RunState) {
	task := &p.tasks[i]
	task.Step = step
	task.StepName = domain.StepName(step)
	task.State = state
	p.state = state
	p.current = fmt.Sprintf("%s (%d/%d): %s", task.Identity.String(), i+1, len(p.tasks), task.StepName)
}

// finishStep stamps the elapsed time of the task's current step, measured
// from task start.
func (p *progressTracker) finishStep(i int, now time.Time) {
	task := &p.tasks[i]
	task.StepElapsedMS[task.StepName] = now.Sub(task.StartedAt).Milliseconds()
}

func (p *progressTracker) setBatch(i int, batchID string) {
	p.tasks[i].BatchID = batchID
}

func (p *progressTracker) completeItem(i int) {
	p.tasks[i].State = domain.RunCompleted
}

func (p *progressTracker) failItem(i int, err error, now time.Time) {
	task := &p.tasks[i]
	task.State = domain.RunFailed
	task.Err = err.Error()
	if task.StepName != "" && task.StepElapsedMS != nil {
		task.StepElapsedMS[task.StepName] = now.Sub(task.StartedAt).Milliseconds()
	}
}

// cancelFrom marks task i and everything after it cancelled, then ends the
// run. Tasks already completed or failed keep their state.
func (p *progressTracker) cancelFrom(i int) {
	for j := i; j < len(p.tasks); j++ {
		if !p.tasks[j].State.Terminal() {
			p.tasks[j].State = domain.RunCancelled
		}
	}
	p.cancel()
}

func (p *progressTracker) cancel() {
	p.state = domain.RunCancelled
	p.current = ""
}

func (p *progressTracker) fail() {
	p.state = domain.RunFailed
	p.current = ""
}

// finish closes a run that was not cancelled. Per-item failures do not
// fail the run; they are visible in the task list and the counters.
func (p *progressTracker) finish() {
	if p.state != domain.RunCancelled {
		p.state = domain.RunCompleted
	}
	p.current = ""
}

func (p *progressTracker) counts() (completed, failed, cancelled int) {
	for i := range p.tasks {
		switch p.tasks[i].State {
		case domain.RunCompleted:
			completed++
		case domain.RunFailed:
			failed++
		case domain.RunCancelled:
			cancelled++
		}
	}
	return completed, failed, cancelled
}

// snapshot is the progress query handler. It returns a copied task list so
// the serialized reply stays consistent with the counters.
func (p *progressTracker) snapshot() (domain.ProgressSnapshot, error) {
	completed, failed, cancelled := p.counts()
	tasks := make([]domain.ProcessingTask, len(p.tasks))
	copy(tasks, p.tasks)
	return domain.ProgressSnapshot{
		State:       p.state,
		Total:       len(p.tasks),
		Completed:   completed,
		Failed:      failed,
		Cancelled:   cancelled,
		CurrentStep: p.current,
		Tasks:       tasks,
	}, nil
}

func (p *progressTracker) result(req domain.GenerationRequest, now time.Time) *domain.GenerationResult {
	completed, failed, cancelled := p.counts()
	return &domain.GenerationResult{
		RequestID:  req.ID,
		State:      p.state,
		FoundFiles: p.found,
		Queued:     len(p.tasks),
		Completed:  completed,
		Failed:     failed,
		Cancelled:  cancelled,
		Tasks:      p.tasks,
		StartedAt:  p.startedAt,
		FinishedAt: now,
	}
}
