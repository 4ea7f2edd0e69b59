// Package eventgath turns pipeline progress into api events and hands them
// to a sink. The NATS and SQS gatherers are thin sinks around it.
package eventgath

import (
	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/pipeline"
)

// Sink delivers one event. Delivery failures are the sink's to report.
type Sink func(msg any)

type eventGatherer struct {
	send  Sink
	runID string
}

func New(send Sink) pipeline.Gatherer {
	return &eventGatherer{send: send}
}

func (g *eventGatherer) StartBatch(runID string, task string, submissions int) {
	g.runID = runID
	g.send(api.NewStartBatch(runID, task, submissions))
}

func (g *eventGatherer) StartSubmission(studentID string) {
	g.send(api.NewStartSubmission(g.runID, studentID))
}

func (g *eventGatherer) FinishStaging(studentID string, moved, tests, libs []string) {
	g.send(api.NewFinishStaging(g.runID, studentID, moved, tests, libs))
}

func (g *eventGatherer) StartBuild(studentID string) {
	g.send(api.NewStartBuild(g.runID, studentID))
}

func (g *eventGatherer) CompileError(studentID string, data *api.RunData) {
	g.send(api.NewCompileError(g.runID, studentID, trimRunData(data)))
}

func (g *eventGatherer) FinishTests(studentID string, data *api.RunData) {
	g.send(api.NewFinishTests(g.runID, studentID, trimRunData(data)))
}

func (g *eventGatherer) SkipSubmission(studentID string, stage pipeline.Stage, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	g.send(api.NewSkipSubmission(g.runID, studentID, string(stage), msg))
}

func (g *eventGatherer) FinishSubmission(studentID string, recordPath string) {
	g.send(api.NewFinishSubmission(g.runID, studentID, recordPath))
}

func (g *eventGatherer) FinishBatch(processed int, failed int) {
	g.send(api.NewFinishBatch(g.runID, processed, failed))
}

func trimRunData(data *api.RunData) *api.RunData {
	if data == nil {
		return nil
	}
	return &api.RunData{
		Stdout:     trimStrToRect(data.Stdout, api.MaxRunDataHeight, api.MaxRunDataWidth),
		Stderr:     trimStrToRect(data.Stderr, api.MaxRunDataHeight, api.MaxRunDataWidth),
		ExitCode:   data.ExitCode,
		WallMillis: data.WallMillis,
	}
}
