package procrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is what a finished process left behind. A non-zero ExitCode is not an error.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Wall     time.Duration
}

// Runner runs a process in dir to completion and captures both output streams in full.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (*Result, error)
}

type ExecRunner struct {
	log      *slog.Logger
	services *registry
}

func NewExecRunner(log *slog.Logger) *ExecRunner {
	return &ExecRunner{log: log, services: newRegistry()}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (*Result, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command given")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout of %s: %w", args[0], err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr of %s: %w", args[0], err)
	}

	r.log.Debug("starting process", "args", args, "dir", dir)
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	res := &Result{}
	// both pipes must be drained before Wait, otherwise a chatty process blocks
	var g errgroup.Group
	g.Go(func() error {
		var err error
		res.Stdout, err = io.ReadAll(stdout)
		return err
	})
	g.Go(func() error {
		var err error
		res.Stderr, err = io.ReadAll(stderr)
		return err
	})
	readErr := g.Wait()

	err = cmd.Wait()
	res.Wall = time.Since(started)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", args[0], ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to wait for %s: %w", args[0], err)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read output of %s: %w", args[0], readErr)
	}

	r.log.Debug("process finished", "args", args, "exit", res.ExitCode, "wall", res.Wall)
	return res, nil
}
