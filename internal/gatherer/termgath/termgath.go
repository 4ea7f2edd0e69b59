package termgath

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/pipeline"
)

const tailLines = 15

// TerminalGatherer prints batch progress for the operator.
type TerminalGatherer struct {
	StartedAt time.Time

	w     io.Writer
	total int
	index int

	head *color.Color
	ok   *color.Color
	bad  *color.Color
	dim  *color.Color
}

func New(w io.Writer) *TerminalGatherer {
	return &TerminalGatherer{
		StartedAt: time.Now(),
		w:         w,
		head:      color.New(color.FgCyan, color.Bold),
		ok:        color.New(color.FgGreen),
		bad:       color.New(color.FgRed, color.Bold),
		dim:       color.New(color.Faint),
	}
}

func (t *TerminalGatherer) StartBatch(runID string, task string, submissions int) {
	t.StartedAt = time.Now()
	t.total = submissions
	t.head.Fprintf(t.w, "== Grading %s: %d submissions ==\n", task, submissions)
	t.dim.Fprintf(t.w, "run %s\n", runID)
}

func (t *TerminalGatherer) StartSubmission(studentID string) {
	t.index++
	t.head.Fprintf(t.w, "-- [%d/%d] %s --\n", t.index, t.total, studentID)
}

func (t *TerminalGatherer) FinishStaging(studentID string, moved, tests, libs []string) {
	fmt.Fprintf(t.w, "staged %d tests, %d libraries\n", len(tests), len(libs))
	if len(moved) > 0 {
		fmt.Fprintf(t.w, "moved student tests aside: %s\n", strings.Join(moved, ", "))
	}
}

func (t *TerminalGatherer) StartBuild(studentID string) {
	fmt.Fprintln(t.w, "compiling and running tests...")
}

func (t *TerminalGatherer) CompileError(studentID string, data *api.RunData) {
	t.bad.Fprintf(t.w, "compilation failed (exit=%d)\n", data.ExitCode)
	if out := strings.TrimSpace(data.Stderr); out != "" {
		fmt.Fprintln(t.w, out)
	}
}

func (t *TerminalGatherer) FinishTests(studentID string, data *api.RunData) {
	c := t.ok
	if data.ExitCode != 0 {
		c = t.bad
	}
	c.Fprintf(t.w, "tests finished exit=%d wall=%dms\n", data.ExitCode, data.WallMillis)
	if out := tail(strings.TrimSpace(data.Display()), tailLines); out != "" {
		t.dim.Fprintln(t.w, out)
	}
}

// tail keeps the last n lines, where the runner prints its summary.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return "[...]\n" + strings.Join(lines[len(lines)-n:], "\n")
}

func (t *TerminalGatherer) SkipSubmission(studentID string, stage pipeline.Stage, err error) {
	t.bad.Fprintf(t.w, "skipped %s at %s: %v\n", studentID, stage, err)
}

func (t *TerminalGatherer) FinishSubmission(studentID string, recordPath string) {
	t.ok.Fprintf(t.w, "wrote %s\n", recordPath)
}

func (t *TerminalGatherer) FinishBatch(processed int, failed int) {
	dur := time.Since(t.StartedAt).Round(time.Millisecond)
	c := t.ok
	if failed > 0 {
		c = t.bad
	}
	c.Fprintf(t.w, "== %d processed, %d failed in %s ==\n", processed, failed, dur)
}
