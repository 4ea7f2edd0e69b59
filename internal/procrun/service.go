package procrun

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

var ErrAlreadyRunning = errors.New("service is already running")

// Service is a long-lived child process such as the grading backend.
type Service interface {
	Name() string
	Kill() error
}

// Spawner starts long-lived processes. At most one service per name is alive at a time.
type Spawner interface {
	Spawn(name string, dir string, args ...string) (Service, error)
}

type registry struct {
	byName *xsync.MapOf[string, *execService]
}

func newRegistry() *registry {
	return &registry{byName: xsync.NewMapOf[string, *execService]()}
}

type execService struct {
	name     string
	cmd      *exec.Cmd
	registry *registry

	once    sync.Once
	killErr error
}

func (s *execService) Name() string { return s.name }

// Kill stops the process and reaps it. Calling Kill more than once is safe.
func (s *execService) Kill() error {
	s.once.Do(func() {
		defer s.registry.byName.Delete(s.name)
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.killErr = fmt.Errorf("failed to kill %s: %w", s.name, err)
			return
		}
		// the exit status of a killed process is expected to be an error
		_ = s.cmd.Wait()
	})
	return s.killErr
}

// Spawn starts args in dir without waiting for it. The child's output goes to
// this process's stderr so backend tracebacks stay visible to the operator.
func (r *ExecRunner) Spawn(name string, dir string, args ...string) (Service, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command given for %s", name)
	}

	svc := &execService{name: name, registry: r.services}
	if _, loaded := r.services.byName.LoadOrStore(name, svc); loaded {
		return nil, fmt.Errorf("%s: %w", name, ErrAlreadyRunning)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		r.services.byName.Delete(name)
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	svc.cmd = cmd

	r.log.Info("spawned service", "name", name, "pid", cmd.Process.Pid, "dir", dir)
	return svc, nil
}

// Running lists the names of services spawned and not yet killed.
func (r *ExecRunner) Running() []string {
	var names []string
	r.services.byName.Range(func(name string, _ *execService) bool {
		names = append(names, name)
		return true
	})
	return names
}
