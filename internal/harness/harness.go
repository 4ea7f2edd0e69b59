// Package harness compiles a staged submission and runs its test classes.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/shlex"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/convention"
	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/procrun"
	"github.com/programme-lv/grader/internal/staging"
)

// TestRunResult is the captured outcome of one test runner invocation.
// A failing test is a non-zero ExitCode, not an error.
type TestRunResult struct {
	Output   string
	Stdout   string
	Stderr   string
	ExitCode int
	Classes  []string
	Wall     time.Duration
}

// RunData is the result as reported to gatherers.
func (r *TestRunResult) RunData() *api.RunData {
	return &api.RunData{
		Stdout:     r.Stdout,
		Stderr:     r.Stderr,
		ExitCode:   r.ExitCode,
		WallMillis: r.Wall.Milliseconds(),
	}
}

func (r *TestRunResult) Display() string {
	return r.RunData().Display()
}

// CompileError means the compiler rejected the submission. It is a grading
// outcome; Output is what the student should see.
type CompileError struct {
	Dir      string
	ExitCode int
	Output   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compilation in %s failed with exit code %d", e.Dir, e.ExitCode)
}

type Harness struct {
	runner     procrun.Runner
	conv       convention.Convention
	compiler   []string
	testRunner []string
	runnerMain string
	pathSep    string
	log        *slog.Logger
}

func New(tc environment.Toolchain, runner procrun.Runner, log *slog.Logger) (*Harness, error) {
	compiler, err := shlex.Split(tc.Compiler)
	if err != nil || len(compiler) == 0 {
		return nil, fmt.Errorf("invalid compiler command %q: %v", tc.Compiler, err)
	}
	testRunner, err := shlex.Split(tc.Runner)
	if err != nil || len(testRunner) == 0 {
		return nil, fmt.Errorf("invalid runner command %q: %v", tc.Runner, err)
	}
	sep := tc.ClassPathSep
	if sep == "" {
		sep = string(os.PathListSeparator)
	}
	return &Harness{
		runner:     runner,
		conv:       convention.New(tc.SourceExt),
		compiler:   compiler,
		testRunner: testRunner,
		runnerMain: tc.RunnerMain,
		pathSep:    sep,
		log:        log,
	}, nil
}

// Run compiles the staged sources and then runs every discovered test class.
func (h *Harness) Run(ctx context.Context, staged *staging.StagedSource) (*TestRunResult, error) {
	if err := h.Compile(ctx, staged); err != nil {
		return nil, err
	}
	return h.RunTests(ctx, staged)
}

// Compile builds submission and test sources together. A rejected build is a *CompileError.
func (h *Harness) Compile(ctx context.Context, staged *staging.StagedSource) error {
	sources, err := h.listDir(staged.Dir, h.conv.IsSource)
	if err != nil {
		return fmt.Errorf("failed to list sources in %s: %w", staged.Dir, err)
	}

	args := append([]string{}, h.compiler...)
	args = append(args, "-cp", h.classPath(staged))
	args = append(args, sources...)

	h.log.Info("compiling", "dir", staged.Dir, "sources", len(sources))
	res, err := h.runner.Run(ctx, staged.Dir, args...)
	if err != nil {
		return fmt.Errorf("failed to run compiler: %w", err)
	}
	if res.ExitCode != 0 {
		return &CompileError{
			Dir:      staged.Dir,
			ExitCode: res.ExitCode,
			Output:   combine(res.Stdout, res.Stderr),
		}
	}
	return nil
}

// RunTests runs the test classes of an already compiled directory.
func (h *Harness) RunTests(ctx context.Context, staged *staging.StagedSource) (*TestRunResult, error) {
	classes, err := h.TestClasses(staged.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to discover test classes in %s: %w", staged.Dir, err)
	}
	if len(classes) == 0 {
		h.log.Warn("no test classes found", "dir", staged.Dir)
	}

	args := append([]string{}, h.testRunner...)
	args = append(args, "-cp", h.classPath(staged), h.runnerMain)
	args = append(args, classes...)

	h.log.Info("running tests", "dir", staged.Dir, "classes", classes)
	res, err := h.runner.Run(ctx, staged.Dir, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run tests: %w", err)
	}

	return &TestRunResult{
		Output:   combine(res.Stdout, res.Stderr),
		Stdout:   string(res.Stdout),
		Stderr:   string(res.Stderr),
		ExitCode: res.ExitCode,
		Classes:  classes,
		Wall:     res.Wall,
	}, nil
}

// TestClasses lists the class names of test-named sources and compiled classes in dir.
func (h *Harness) TestClasses(dir string) ([]string, error) {
	files, err := h.listDir(dir, h.conv.IsTestFile)
	if err != nil {
		return nil, err
	}
	set := mapset.NewThreadUnsafeSet[string]()
	for _, f := range files {
		set.Add(h.conv.ClassName(f))
	}
	classes := set.ToSlice()
	sort.Strings(classes)
	return classes, nil
}

func (h *Harness) classPath(staged *staging.StagedSource) string {
	parts := append([]string{"."}, staged.Libraries...)
	return strings.Join(parts, h.pathSep)
}

func (h *Harness) listDir(dir string, keep func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && keep(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func combine(stdout, stderr []byte) string {
	return string(stdout) + "\n" + string(stderr)
}
