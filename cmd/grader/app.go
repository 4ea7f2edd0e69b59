package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/programme-lv/grader/internal/convention"
	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/gatherer/multigath"
	"github.com/programme-lv/grader/internal/gatherer/natsgath"
	"github.com/programme-lv/grader/internal/gatherer/sqsgath"
	"github.com/programme-lv/grader/internal/gatherer/termgath"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/pipeline"
	"github.com/programme-lv/grader/internal/procrun"
	"github.com/programme-lv/grader/internal/xdg"
)

const httpTimeout = 5 * time.Minute

// app carries what every command action needs once flags are parsed.
type app struct {
	cfg    *environment.Config
	log    *slog.Logger
	runner *procrun.ExecRunner
	conv   convention.Convention
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// loadApp builds the configuration from the global flags. An explicitly
// named config file must exist; the XDG default may be absent.
func loadApp(cmd *cli.Command, in io.Reader, out, errOut io.Writer) (*app, error) {
	dirs := xdg.New(nil)

	cfgPath, required := cmd.String("config"), true
	if cfgPath == "" {
		cfgPath, required = dirs.ConfigFile(), false
	}
	envFiles := []string{dirs.EnvFile()}
	if f := cmd.String("env-file"); f != "" {
		envFiles = append(envFiles, f)
	}

	lookup, err := environment.DotEnvLookup(envFiles...)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	cfg, err := environment.Load(cfgPath, required, lookup)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	log := logging.Setup(cfg.Env, errOut)
	return &app{
		cfg:    cfg,
		log:    log,
		runner: procrun.NewExecRunner(log),
		conv:   convention.New(cfg.Toolchain.SourceExt),
		in:     in,
		out:    out,
		errOut: errOut,
	}, nil
}

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// gatherer always reports to the terminal and adds the configured event
// publishers. Publishers that cannot be set up are logged and skipped.
func (a *app) gatherer(ctx context.Context) (pipeline.Gatherer, func()) {
	gs := []pipeline.Gatherer{termgath.New(a.errOut)}
	closers := []func(){}

	ev := a.cfg.Events
	if ev.NatsURL != "" {
		g, closeFn, err := natsgath.Connect(ev.NatsURL, ev.NatsSubject, a.log)
		if err != nil {
			a.log.Warn("nats events disabled", "url", ev.NatsURL, "err", err)
		} else {
			gs = append(gs, g)
			closers = append(closers, closeFn)
		}
	}
	if ev.SqsQueueURL != "" {
		g, err := sqsgath.NewFromEnv(ctx, ev.AwsRegion, ev.SqsQueueURL, a.log)
		if err != nil {
			a.log.Warn("sqs events disabled", "queue", ev.SqsQueueURL, "err", err)
		} else {
			gs = append(gs, g)
		}
	}

	return multigath.New(gs...), func() {
		for _, c := range closers {
			c()
		}
	}
}

func (a *app) failf(format string, args ...any) {
	fmt.Fprintf(a.errOut, format+"\n", args...)
}
