package domain

// RunStatus is the final status reconciliation assigns to a case node.
type RunStatus string

const (
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	RunStatusSkipped RunStatus = "skipped"
)

// AssertionStatus is the status a runner reports for one executed test.
type AssertionStatus string

const (
	AssertionPassed  AssertionStatus = "passed"
	AssertionFailed  AssertionStatus = "failed"
	AssertionSkipped AssertionStatus = "skipped"
	AssertionPending AssertionStatus = "pending"
	AssertionTodo    AssertionStatus = "todo"
)

// RunStatus collapses a reported status into the three-valued outcome.
// Anything that is neither passed nor failed counts as skipped.
func (s AssertionStatus) RunStatus() RunStatus {
	switch s {
	case AssertionPassed:
		return RunStatusPassed
	case AssertionFailed:
		return RunStatusFailed
	default:
		return RunStatusSkipped
	}
}
