package domain

// ResultLocation is the source position a runner reports for a result.
// Lines are one-based.
type ResultLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// AssertionResult is one externally reported outcome record for a single
// executed test case, as emitted by jest-style --json reporters.
// Consumed read-only by reconciliation.
type AssertionResult struct {
	// AncestorTitles lists the enclosing suite titles, outermost first.
	AncestorTitles []string `json:"ancestorTitles"`
	// Title is the test's own title.
	Title string `json:"title"`
	// FullName is the ancestor titles and title joined, when reported.
	FullName string `json:"fullName,omitempty"`
	// Status is the reported status (passed, failed, skipped, pending, todo).
	Status AssertionStatus `json:"status"`
	// FailureMessages holds the reporter's failure text, if any.
	FailureMessages []string `json:"failureMessages,omitempty"`
	// Location is the declaration position, when the runner reports one.
	Location *ResultLocation `json:"location,omitempty"`
}

// Outcome is the final reconciled status for one case node.
type Outcome struct {
	Status RunStatus `json:"status"`
	// FailureText carries the failure messages when Status is failed.
	FailureText string `json:"failureText,omitempty"`
}
