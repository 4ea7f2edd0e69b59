package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
	pretty_table "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/procrun"
	"github.com/programme-lv/grader/internal/xdg"
)

type health int

const (
	healthOK health = iota
	healthWarn
	healthError
)

type feedbackRow struct {
	unit    string
	health  health
	message string
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := newCommand(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(out, errOut io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "health",
		Usage:     "check that the grading toolchain, backend and tracker are usable",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "TOML config file (default $XDG_CONFIG_HOME/grader/config.toml)"},
			&cli.StringFlag{Name: "env-file", Usage: "additional .env file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
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
				return cli.Exit(err.Error(), 2)
			}
			cfg, err := environment.Load(cfgPath, required, lookup)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			log := logging.Setup(cfg.Env, errOut)

			feedback := check(ctx, cfg, procrun.NewExecRunner(log), log)
			outputFeedback(out, feedback)
			for _, row := range feedback {
				if row.health == healthError {
					return cli.Exit("", 1)
				}
			}
			return nil
		},
	}
}

func check(ctx context.Context, cfg *environment.Config, runner procrun.Runner, log *slog.Logger) []feedbackRow {
	feedback := make([]feedbackRow, 0)
	feedback = append(feedback, ensureCommandOk(ctx, runner, log, "Compiler", cfg.Toolchain.Compiler, "-version"))
	feedback = append(feedback, ensureCommandOk(ctx, runner, log, "Test runner", cfg.Toolchain.Runner, "-version"))
	feedback = append(feedback, ensureCommandOk(ctx, runner, log, "Git", "git", "--version"))
	feedback = append(feedback, ensureLibrariesOk(cfg)...)
	feedback = append(feedback, ensureBackendOk(cfg))
	feedback = append(feedback, ensureTrackerOk(cfg))
	return feedback
}

func ensureCommandOk(ctx context.Context, runner procrun.Runner, log *slog.Logger, unit string, command string, versionFlag string) feedbackRow {
	args, err := shlex.Split(command)
	if err != nil || len(args) == 0 {
		return feedbackRow{unit: unit, health: healthError, message: fmt.Sprintf("invalid command %q", command)}
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return feedbackRow{unit: unit, health: healthError, message: err.Error()}
	}

	log.Debug("running version check", "args", args)
	res, err := runner.Run(ctx, "", append(args, versionFlag)...)
	if err != nil {
		return feedbackRow{unit: unit, health: healthError, message: err.Error()}
	}
	out := strings.TrimSpace(string(res.Stdout) + string(res.Stderr))
	if res.ExitCode != 0 {
		return feedbackRow{unit: unit, health: healthWarn, message: fmt.Sprintf("exit code %d: %s", res.ExitCode, out)}
	}
	return feedbackRow{unit: unit, health: healthOK, message: firstLine(out)}
}

func ensureLibrariesOk(cfg *environment.Config) []feedbackRow {
	if err := cfg.RequireLibsDir(); err != nil {
		return []feedbackRow{{unit: "Libraries", health: healthError, message: err.Error()}}
	}
	if len(cfg.Toolchain.Libraries) == 0 {
		return []feedbackRow{{unit: "Libraries", health: healthWarn, message: "no libraries named, every archive in " + cfg.LibsDir + " is used"}}
	}
	res := make([]feedbackRow, 0, len(cfg.Toolchain.Libraries))
	for _, lib := range cfg.Toolchain.Libraries {
		path := filepath.Join(cfg.LibsDir, lib)
		if _, err := os.Stat(path); err != nil {
			res = append(res, feedbackRow{unit: lib, health: healthError, message: err.Error()})
			continue
		}
		res = append(res, feedbackRow{unit: lib, health: healthOK, message: path})
	}
	return res
}

func ensureBackendOk(cfg *environment.Config) feedbackRow {
	if err := cfg.RequireBackendRoot(); err != nil {
		return feedbackRow{unit: "Grading backend", health: healthWarn, message: err.Error()}
	}
	python := cfg.Backend.Python
	if !filepath.IsAbs(python) {
		python = filepath.Join(cfg.Backend.Root, python)
	}
	if _, err := os.Stat(python); err != nil {
		return feedbackRow{unit: "Grading backend", health: healthError, message: err.Error()}
	}
	return feedbackRow{unit: "Grading backend", health: healthOK, message: python}
}

func ensureTrackerOk(cfg *environment.Config) feedbackRow {
	if err := cfg.RequireTrackerToken(); err != nil {
		return feedbackRow{unit: "Issue tracker", health: healthWarn, message: err.Error()}
	}
	return feedbackRow{unit: "Issue tracker", health: healthOK, message: cfg.Tracker.BaseURL + " (" + cfg.Tracker.Org + ")"}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func outputFeedback(w io.Writer, feedback []feedbackRow) {
	t := pretty_table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(pretty_table.Row{"Unit", "Health", "Message"})
	for _, row := range feedback {
		healthCode := ""
		switch row.health {
		case healthOK:
			healthCode = "OKAY"
		case healthWarn:
			healthCode = "WARN"
		case healthError:
			healthCode = "ERROR"
		}

		t.AppendRow(
			pretty_table.Row{
				row.unit,
				healthCode,
				row.message,
			})
	}
	t.SetStyle(pretty_table.StyleColoredDark)
	textColor := text.Transformer(func(s interface{}) string {
		switch s.(string) {
		case "OKAY":
			return text.FgHiGreen.Sprint(s)
		case "WARN":
			return text.FgHiYellow.Sprint(s)
		case "ERROR":
			return text.FgHiRed.Sprint(s)
		}
		return ""
	})

	t.SetColumnConfigs([]pretty_table.ColumnConfig{
		{
			Name:        "Health",
			Transformer: textColor,
			Align:       text.AlignCenter,
		},
	})
	t.Render()
}
