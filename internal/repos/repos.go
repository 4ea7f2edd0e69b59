// Package repos fetches student repositories and the reference solution
// repositories with git.
package repos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/manifest"
	"github.com/programme-lv/grader/internal/procrun"
)

// SourceDir is where the sources live inside every student repository.
const SourceDir = "src"

const parallelClones = 4

// Failure is a repository that could not be fetched.
type Failure struct {
	Name string
	Err  error
}

type Fetcher struct {
	cfg    environment.Repos
	runner procrun.Runner
	log    *slog.Logger
}

func New(cfg environment.Repos, runner procrun.Runner, log *slog.Logger) *Fetcher {
	return &Fetcher{cfg: cfg, runner: runner, log: log}
}

// CloneStudents clones <student>-<task> for every student into
// <outputDir>/<task> and writes the manifest there. Students whose clone
// failed are left out of the manifest.
func (f *Fetcher) CloneStudents(ctx context.Context, students []string, task string, outputDir string) (string, []Failure, error) {
	taskDir := filepath.Join(outputDir, task)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create task directory: %w", err)
	}

	errs := make([]error, len(students))
	var g errgroup.Group
	g.SetLimit(parallelClones)
	for i, student := range students {
		g.Go(func() error {
			repo := student + "-" + task
			errs[i] = f.fetch(ctx, f.cfg.CloneBase+repo+".git", filepath.Join(taskDir, repo))
			return nil
		})
	}
	_ = g.Wait()

	var entries []manifest.Entry
	var failures []Failure
	for i, student := range students {
		if errs[i] != nil {
			f.log.Error("failed to clone student repository", "student", student, "err", errs[i])
			failures = append(failures, Failure{Name: student, Err: errs[i]})
			continue
		}
		dir, err := filepath.Abs(filepath.Join(taskDir, student+"-"+task, SourceDir))
		if err != nil {
			return "", failures, err
		}
		entries = append(entries, manifest.Entry{StudentID: student, Dir: dir})
	}

	path := filepath.Join(taskDir, manifest.FileName)
	if err := manifest.Save(path, entries); err != nil {
		return "", failures, fmt.Errorf("failed to write manifest: %w", err)
	}
	f.log.Info("wrote manifest", "path", path, "students", len(entries), "failed", len(failures))
	return path, failures, nil
}

// FetchSolutions clones every solution repository into outputDir and checks
// out the solutions branch.
func (f *Fetcher) FetchSolutions(ctx context.Context, outputDir string) []Failure {
	var failures []Failure
	for _, task := range f.cfg.SolutionTasks {
		dest := filepath.Join(outputDir, task)
		err := f.fetch(ctx, f.cfg.SolutionsBase+task+".git", dest)
		if err == nil {
			branch := f.cfg.SolutionsBranch
			err = f.git(ctx, "", "-C", dest, "checkout", "-B", branch, "origin/"+branch)
		}
		if err != nil {
			f.log.Error("failed to fetch solutions", "task", task, "err", err)
			failures = append(failures, Failure{Name: task, Err: err})
		}
	}
	return failures
}

// fetch clones url into dest, or pulls when dest already holds a clone.
func (f *Fetcher) fetch(ctx context.Context, url string, dest string) error {
	if _, err := os.Stat(filepath.Join(dest, ".git")); err == nil {
		f.log.Info("updating repository", "dest", dest)
		return f.git(ctx, "", "-C", dest, "pull", "--ff-only")
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	f.log.Info("cloning repository", "url", url, "dest", dest)
	return f.git(ctx, "", "clone", url, dest)
}

func (f *Fetcher) git(ctx context.Context, dir string, args ...string) error {
	res, err := f.runner.Run(ctx, dir, append([]string{"git"}, args...)...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git %s exited with %d: %s", args[0], res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return nil
}
