// Package procruntest provides a scripted procrun.Runner for tests.
package procruntest

import (
	"context"
	"sync"

	"github.com/programme-lv/grader/internal/procrun"
)

type Call struct {
	Dir  string
	Args []string
}

// Runner answers every Run with Respond. Calls are recorded in order.
type Runner struct {
	Respond func(dir string, args []string) (*procrun.Result, error)

	mu    sync.Mutex
	calls []Call
}

func (r *Runner) Run(_ context.Context, dir string, args ...string) (*procrun.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Dir: dir, Args: append([]string(nil), args...)})
	r.mu.Unlock()

	if r.Respond == nil {
		return &procrun.Result{}, nil
	}
	return r.Respond(dir, args)
}

func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Program is the first argument, "" for an empty argv.
func (c Call) Program() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}
