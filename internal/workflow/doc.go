// Package workflow implements the Temporal workflow that drives question
// generation end to end.
//
// A single GenerationWorkflow run scans the source directory once, then
// walks every queued procedure revision through five activity-backed steps:
//
//	prepare → generate → validate → correct → sync
//
// followed by a tracking-store update that makes the revision invisible to
// future scans. Items fail independently: a revision that breaks at any
// step is recorded as failed and the run moves on to the next one.
//
// All orchestration state lives in workflow memory and is served through
// the progress query, so callers can watch a run without touching the
// worker. Workflow code uses workflow-safe APIs only; anything
// non-deterministic (file I/O, LLM calls, clock reads beyond workflow.Now)
// belongs to the activities.
package workflow
