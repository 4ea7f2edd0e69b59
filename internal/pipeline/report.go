package pipeline

import "fmt"

// Stage names the step a submission was in when it stopped.
type Stage string

const (
	StageStaging Stage = "staging"
	StageCompile Stage = "compile"
	StageTests   Stage = "tests"
	StageCollect Stage = "collect"
	StageWrite   Stage = "write"
	StageDone    Stage = "done"
)

// Outcome is what happened to one submission. A compile failure still has
// a RecordPath: the compiler output is graded like test output.
type Outcome struct {
	StudentID  string
	RecordPath string
	Stage      Stage
	Err        error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func (o Outcome) String() string {
	if o.Err == nil {
		return fmt.Sprintf("%s: ok (%s)", o.StudentID, o.RecordPath)
	}
	return fmt.Sprintf("%s: failed at %s: %v", o.StudentID, o.Stage, o.Err)
}

type Report struct {
	RunID    string
	Task     string
	Outcomes []Outcome
}

func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Records lists the paths of every grading record written during the run.
func (r *Report) Records() []string {
	var paths []string
	for _, o := range r.Outcomes {
		if o.RecordPath != "" {
			paths = append(paths, o.RecordPath)
		}
	}
	return paths
}
