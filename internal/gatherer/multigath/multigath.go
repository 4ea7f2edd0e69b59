// Package multigath fans pipeline progress out to several gatherers.
package multigath

import (
	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/pipeline"
)

type multiGatherer []pipeline.Gatherer

// New skips nil gatherers. Each event reaches the gatherers in argument order.
func New(gs ...pipeline.Gatherer) pipeline.Gatherer {
	var m multiGatherer
	for _, g := range gs {
		if g != nil {
			m = append(m, g)
		}
	}
	return m
}

func (m multiGatherer) StartBatch(runID string, task string, submissions int) {
	for _, g := range m {
		g.StartBatch(runID, task, submissions)
	}
}

func (m multiGatherer) StartSubmission(studentID string) {
	for _, g := range m {
		g.StartSubmission(studentID)
	}
}

func (m multiGatherer) FinishStaging(studentID string, moved, tests, libs []string) {
	for _, g := range m {
		g.FinishStaging(studentID, moved, tests, libs)
	}
}

func (m multiGatherer) StartBuild(studentID string) {
	for _, g := range m {
		g.StartBuild(studentID)
	}
}

func (m multiGatherer) CompileError(studentID string, data *api.RunData) {
	for _, g := range m {
		g.CompileError(studentID, data)
	}
}

func (m multiGatherer) FinishTests(studentID string, data *api.RunData) {
	for _, g := range m {
		g.FinishTests(studentID, data)
	}
}

func (m multiGatherer) SkipSubmission(studentID string, stage pipeline.Stage, err error) {
	for _, g := range m {
		g.SkipSubmission(studentID, stage, err)
	}
}

func (m multiGatherer) FinishSubmission(studentID string, recordPath string) {
	for _, g := range m {
		g.FinishSubmission(studentID, recordPath)
	}
}

func (m multiGatherer) FinishBatch(processed int, failed int) {
	for _, g := range m {
		g.FinishBatch(processed, failed)
	}
}
