package api

import "strings"

// Verdict is the grading backend's answer for one submission.
type Verdict struct {
	StudentID string `json:"student_id"`
	Task      string `json:"task"`
	Status    string `json:"status"`
	Feedback  string `json:"feedback"`
}

// Issue is the body of an issue-creation request sent to the tracker.
type Issue struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// IsPass reports whether the backend judged the submission as passing.
// Backends answer with free-form status words such as "Pass" or "PASS".
func (v *Verdict) IsPass() bool {
	return strings.EqualFold(strings.TrimSpace(v.Status), "pass")
}
