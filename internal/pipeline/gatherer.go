package pipeline

import "github.com/programme-lv/grader/api"

//go:generate mockgen -source=gatherer.go -destination=mocks/mock_gatherer.go -package=mocks

// Gatherer observes the progress of one batch. Calls arrive sequentially,
// in pipeline order, from the goroutine that runs the batch.
type Gatherer interface {
	StartBatch(runID string, task string, submissions int)

	StartSubmission(studentID string)
	FinishStaging(studentID string, moved, tests, libs []string)

	StartBuild(studentID string)
	CompileError(studentID string, data *api.RunData)
	FinishTests(studentID string, data *api.RunData)

	SkipSubmission(studentID string, stage Stage, err error)
	FinishSubmission(studentID string, recordPath string)

	FinishBatch(processed int, failed int)
}

// NopGatherer ignores every event.
type NopGatherer struct{}

func (NopGatherer) StartBatch(string, string, int)                     {}
func (NopGatherer) StartSubmission(string)                             {}
func (NopGatherer) FinishStaging(string, []string, []string, []string) {}
func (NopGatherer) StartBuild(string)                                  {}
func (NopGatherer) CompileError(string, *api.RunData)                  {}
func (NopGatherer) FinishTests(string, *api.RunData)                   {}
func (NopGatherer) SkipSubmission(string, Stage, error)                {}
func (NopGatherer) FinishSubmission(string, string)                    {}
func (NopGatherer) FinishBatch(int, int)                               {}
