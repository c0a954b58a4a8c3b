// Package pipeline implements the measurement transformation stages and the
// recurring scheduler that drives them over one shared snapshot.
package pipeline

// Status is the explicit outcome of one stage invocation. Downstream
// precondition checks use the run-state tracker plus this status; table
// emptiness is never the only signal.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)
