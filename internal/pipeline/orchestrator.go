// Package pipeline takes every submission of a manifest through staging,
// the build-and-run harness and result collection, writing one grading
// record per submission.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/collect"
	"github.com/programme-lv/grader/internal/filestore"
	"github.com/programme-lv/grader/internal/harness"
	"github.com/programme-lv/grader/internal/manifest"
	"github.com/programme-lv/grader/internal/staging"
)

// RecordExt is appended to the student id to name a grading record.
const RecordExt = ".json"

// Batch is one invocation of the pipeline.
type Batch struct {
	// RunID tags logs and events; a random one is used when empty.
	RunID        string
	Task         string
	ManifestPath string
	OutputDir    string
	// ReadmePath overrides the README.md found next to each submission.
	ReadmePath string
}

type Orchestrator struct {
	stager    *staging.Stager
	harness   *harness.Harness
	collector *collect.Collector
	gatherer  Gatherer
	log       *slog.Logger
}

func NewOrchestrator(
	stager *staging.Stager,
	h *harness.Harness,
	collector *collect.Collector,
	gatherer Gatherer,
	log *slog.Logger,
) *Orchestrator {
	if gatherer == nil {
		gatherer = NopGatherer{}
	}
	return &Orchestrator{
		stager:    stager,
		harness:   h,
		collector: collector,
		gatherer:  gatherer,
		log:       log,
	}
}

// Run processes the batch one submission at a time. Per-submission failures
// end up in the report; the returned error is reserved for failures that
// stop the whole batch.
func (o *Orchestrator) Run(ctx context.Context, b Batch) (*Report, error) {
	if b.RunID == "" {
		b.RunID = uuid.NewString()
	}
	log := o.log.With("run_id", b.RunID, "task", b.Task)

	entries, err := manifest.Load(b.ManifestPath)
	if err != nil {
		return nil, err
	}
	store := filestore.New(b.OutputDir)
	if err := store.Init(); err != nil {
		return nil, err
	}

	report := &Report{RunID: b.RunID, Task: b.Task}
	log.Info("starting batch", "submissions", len(entries), "output", b.OutputDir)
	o.gatherer.StartBatch(b.RunID, b.Task, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			o.gatherer.FinishBatch(len(report.Outcomes), len(report.Failed()))
			return report, fmt.Errorf("batch interrupted before %s: %w", e.StudentID, err)
		}
		outcome := o.runOne(ctx, log.With("student", e.StudentID), store, b, e)
		if outcome.Failed() {
			log.Error("submission failed", "student", e.StudentID, "stage", outcome.Stage, "err", outcome.Err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	failed := len(report.Failed())
	o.gatherer.FinishBatch(len(report.Outcomes), failed)
	log.Info("finished batch", "processed", len(report.Outcomes), "failed", failed)
	return report, nil
}

func (o *Orchestrator) runOne(
	ctx context.Context,
	log *slog.Logger,
	store *filestore.FileStore,
	b Batch,
	e manifest.Entry,
) Outcome {
	id := e.StudentID
	skip := func(stage Stage, err error) Outcome {
		o.gatherer.SkipSubmission(id, stage, err)
		return Outcome{StudentID: id, Stage: stage, Err: err}
	}

	o.gatherer.StartSubmission(id)

	staged, err := o.stager.Stage(e.Dir)
	if err != nil {
		return skip(StageStaging, err)
	}
	o.gatherer.FinishStaging(id, staged.MovedStudentTests, staged.CanonicalTests, staged.Libraries)

	o.gatherer.StartBuild(id)
	var testOutput string
	var compileErr *harness.CompileError
	err = o.harness.Compile(ctx, staged)
	switch {
	case errors.As(err, &compileErr):
		log.Warn("compilation failed", "exit", compileErr.ExitCode)
		o.gatherer.CompileError(id, &api.RunData{Stderr: compileErr.Output, ExitCode: compileErr.ExitCode})
		testOutput = compileErr.Output
	case err != nil:
		return skip(StageCompile, err)
	default:
		res, err := o.harness.RunTests(ctx, staged)
		if err != nil {
			return skip(StageTests, err)
		}
		o.gatherer.FinishTests(id, res.RunData())
		testOutput = res.Output
	}

	readme, found, err := collect.ReadReadme(b.ReadmePath, e.Dir)
	if err != nil {
		return skip(StageCollect, err)
	}
	if !found {
		log.Warn("no readme found, sending empty text", "dir", e.Dir)
	}

	rec, err := o.collector.Collect(collect.Input{
		StudentID:  id,
		Task:       b.Task,
		Dir:        e.Dir,
		ReadMe:     readme,
		TestOutput: testOutput,
	})
	if err != nil {
		return skip(StageCollect, err)
	}

	path, err := store.WriteJSON(id+RecordExt, rec)
	if err != nil {
		return skip(StageWrite, err)
	}
	o.gatherer.FinishSubmission(id, path)

	if compileErr != nil {
		return Outcome{StudentID: id, RecordPath: path, Stage: StageCompile, Err: compileErr}
	}
	return Outcome{StudentID: id, RecordPath: path, Stage: StageDone}
}
