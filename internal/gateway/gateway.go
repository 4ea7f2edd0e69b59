// Package gateway submits grading records to the grading backend and
// decodes its verdicts. It owns the backend process for the duration of
// one submission phase.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/filestore"
	"github.com/programme-lv/grader/internal/procrun"
)

const maxErrorBody = 2048

// ServiceUnavailableError means the backend never answered its health check.
// Nothing was submitted.
type ServiceUnavailableError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("grading backend at %s not ready after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// SubmissionError is a failure to grade one record. Other records are unaffected.
type SubmissionError struct {
	RecordPath string
	StatusCode int
	Body       string
	Err        error
}

func (e *SubmissionError) Error() string {
	name := filepath.Base(e.RecordPath)
	if e.StatusCode != 0 {
		return fmt.Sprintf("submitting %s: backend answered %d: %s", name, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("submitting %s: %v", name, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Submission is the result of posting one record.
type Submission struct {
	RecordPath string
	StudentID  string
	Verdict    *api.Verdict
	Err        error
}

// VerdictHandler is called for every verdict while the backend is still up.
type VerdictHandler func(ctx context.Context, v *api.Verdict)

type Gateway struct {
	cfg     environment.Backend
	spawner procrun.Spawner
	client  *http.Client
	log     *slog.Logger
}

func New(cfg environment.Backend, spawner procrun.Spawner, client *http.Client, log *slog.Logger) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Gateway{cfg: cfg, spawner: spawner, client: client, log: log}
}

// Run grades every *.json record in recordsDir with the named backend model,
// in file name order. A backend spawned here is killed before Run returns.
func (g *Gateway) Run(ctx context.Context, model string, recordsDir string, onVerdict VerdictHandler) ([]Submission, error) {
	m, ok := g.cfg.Models[model]
	if !ok {
		return nil, fmt.Errorf("unknown grading model %q", model)
	}
	endpoint, err := url.JoinPath(g.cfg.BaseURL, m.GradePath)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}

	records := filestore.New(recordsDir)
	keys, err := records.List(".json")
	if err != nil {
		return nil, err
	}

	svc, err := g.ensureRunning(ctx, model, m)
	if svc != nil {
		defer func() {
			if err := svc.Kill(); err != nil {
				g.log.Error("failed to stop grading backend", "err", err)
				return
			}
			g.log.Info("stopped grading backend", "name", svc.Name())
		}()
	}
	if err != nil {
		return nil, err
	}

	log := g.log.With("model", model, "endpoint", endpoint)
	subs := make([]Submission, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return subs, err
		}
		sub := g.submit(ctx, endpoint, records.Path(key))
		if sub.Err != nil {
			log.Error("submission failed", "record", key, "err", sub.Err)
		} else {
			log.Info("received verdict", "student", sub.StudentID, "status", sub.Verdict.Status)
			if onVerdict != nil {
				onVerdict(ctx, sub.Verdict)
			}
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (g *Gateway) submit(ctx context.Context, endpoint string, path string) Submission {
	sub := Submission{RecordPath: path}
	fail := func(status int, body string, err error) Submission {
		sub.Err = &SubmissionError{RecordPath: path, StatusCode: status, Body: body, Err: err}
		return sub
	}

	var rec api.GradingRecord
	body, err := readRecord(path, &rec)
	if err != nil {
		return fail(0, "", err)
	}
	sub.StudentID = rec.UserID

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(0, "", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(resp.StatusCode, strings.TrimSpace(string(msg)), nil)
	}

	var v api.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return fail(0, "", fmt.Errorf("failed to decode verdict: %w", err))
	}
	if v.StudentID == "" {
		v.StudentID = rec.UserID
	}
	if v.Task == "" {
		v.Task = rec.Task
	}
	sub.Verdict = &v
	return sub
}

func readRecord(path string, rec *api.GradingRecord) ([]byte, error) {
	fs := filestore.New(filepath.Dir(path))
	if err := fs.ReadJSON(filepath.Base(path), rec); err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// ensureRunning spawns the backend unless one already answers the health
// check. The returned service is nil when nothing was spawned.
func (g *Gateway) ensureRunning(ctx context.Context, model string, m environment.BackendModel) (procrun.Service, error) {
	healthURL, err := url.JoinPath(g.cfg.BaseURL, g.cfg.HealthPath)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if g.healthy(ctx, healthURL) == nil {
		g.log.Info("grading backend already running", "url", g.cfg.BaseURL)
		return nil, nil
	}

	args, err := g.command(m)
	if err != nil {
		return nil, err
	}
	svc, err := g.spawner.Spawn("backend-"+model, g.cfg.Root, args...)
	if err != nil {
		return nil, &ServiceUnavailableError{URL: healthURL, Err: err}
	}

	if err := g.waitReady(ctx, healthURL); err != nil {
		return svc, err
	}
	g.log.Info("grading backend is ready", "url", g.cfg.BaseURL)
	return svc, nil
}

func (g *Gateway) waitReady(ctx context.Context, healthURL string) error {
	attempts := max(g.cfg.ReadyAttempts, 1)
	interval := time.Duration(g.cfg.ReadyIntervalMs) * time.Millisecond

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)),
		ctx,
	)
	tried := 0
	err := backoff.Retry(func() error {
		tried++
		err := g.healthy(ctx, healthURL)
		if err != nil {
			g.log.Debug("waiting for grading backend", "attempt", tried, "err", err)
		}
		return err
	}, b)
	if err != nil {
		return &ServiceUnavailableError{URL: healthURL, Attempts: tried, Err: err}
	}
	return nil
}

func (g *Gateway) healthy(ctx context.Context, healthURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health check answered %d", resp.StatusCode)
	}
	return nil
}

// command is "<python> -m uvicorn <module> --host <host> --port <port>".
func (g *Gateway) command(m environment.BackendModel) ([]string, error) {
	u, err := url.Parse(g.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return nil, fmt.Errorf("backend url %s must name host and port: %w", g.cfg.BaseURL, err)
	}
	python := g.cfg.Python
	if !filepath.IsAbs(python) && strings.ContainsRune(python, filepath.Separator) {
		python = filepath.Join(g.cfg.Root, python)
	}
	return []string{python, "-m", "uvicorn", m.Module, "--host", host, "--port", port}, nil
}
