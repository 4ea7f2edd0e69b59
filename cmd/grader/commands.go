package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/archive"
	"github.com/programme-lv/grader/internal/collect"
	"github.com/programme-lv/grader/internal/filestore"
	"github.com/programme-lv/grader/internal/gateway"
	"github.com/programme-lv/grader/internal/harness"
	"github.com/programme-lv/grader/internal/manifest"
	"github.com/programme-lv/grader/internal/pipeline"
	"github.com/programme-lv/grader/internal/publish"
	"github.com/programme-lv/grader/internal/report"
	"github.com/programme-lv/grader/internal/repos"
	"github.com/programme-lv/grader/internal/staging"
	"github.com/programme-lv/grader/internal/tracker"
)

// CompiledDir is where clone writes the grading records of a task.
const CompiledDir = "compiled"

type actionFunc func(ctx context.Context, cmd *cli.Command, a *app) error

func newCommand(in io.Reader, out, errOut io.Writer) *cli.Command {
	with := func(fn actionFunc) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			a, err := loadApp(cmd, in, out, errOut)
			if err != nil {
				return err
			}
			return fn(ctx, cmd, a)
		}
	}

	return &cli.Command{
		Name:      "grader",
		Usage:     "grade student programming submissions",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "TOML config file (default $XDG_CONFIG_HOME/grader/config.toml)"},
			&cli.StringFlag{Name: "env-file", Usage: "additional .env file"},
		},
		Commands: []*cli.Command{
			{
				Name:  "clone",
				Usage: "clone student repositories for a task, then compile and test them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "students", Aliases: []string{"s"}, Required: true, Usage: "file with one student id per line"},
					&cli.StringFlag{Name: "task", Aliases: []string{"t"}, Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true},
					&cli.StringFlag{Name: "unittest", Aliases: []string{"u"}, Usage: "directory with the canonical test files"},
					&cli.StringFlag{Name: "readme", Usage: "task description; defaults to README.md of each repository"},
					&cli.BoolFlag{Name: "no-compile", Usage: "only clone and write the manifest"},
				},
				Action: with(cloneAction),
			},
			{
				Name:  "tests",
				Usage: "clone every reference solution repository",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true},
				},
				Action: with(testsAction),
			},
			{
				Name:  "compile",
				Usage: "compile and test the submissions of an existing manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "manifest", Required: true, Usage: "path to " + manifest.FileName},
					&cli.StringFlag{Name: "task", Aliases: []string{"t"}, Required: true},
					&cli.StringFlag{Name: "unittest", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true},
					&cli.StringFlag{Name: "readme"},
				},
				Action: with(compileAction),
			},
			{
				Name:  "results",
				Usage: "print the test results of a grading record or a directory of them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "json", Aliases: []string{"j"}, Required: true},
				},
				Action: with(func(_ context.Context, cmd *cli.Command, a *app) error {
					return exitOnErr(report.PrintRecords(a.out, cmd.String("json")))
				}),
			},
			{
				Name:  "generate",
				Usage: "submit grading records to the grading backend and publish the feedback",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "json", Aliases: []string{"j"}, Required: true, Usage: "directory of grading records"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "directory for feedback artifacts"},
					&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Value: "openai"},
				},
				Action: with(generateAction),
			},
			{
				Name:  "feedback",
				Usage: "print a feedback artifact or a directory of them",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "json", Aliases: []string{"j"}, Required: true},
				},
				Action: with(func(_ context.Context, cmd *cli.Command, a *app) error {
					return exitOnErr(report.PrintVerdicts(a.out, cmd.String("json")))
				}),
			},
			{
				Name:  "issues",
				Usage: "show the grading status of every student from the issue tracker",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "students", Aliases: []string{"s"}, Required: true},
					&cli.StringFlag{Name: "task", Aliases: []string{"t"}, Required: true},
					&cli.BoolFlag{Name: "csv", Usage: "write CSV instead of a table"},
				},
				Action: with(issuesAction),
			},
			{
				Name:      "archive",
				Usage:     "bundle a directory of records or feedback into " + archive.Ext,
				ArgsUsage: "DIR [FILE]",
				Action:    with(archiveAction),
			},
			{
				Name:      "unarchive",
				Usage:     "restore a bundle created by archive",
				ArgsUsage: "FILE DIR",
				Action:    with(unarchiveAction),
			},
		},
	}
}

func exitOnErr(err error) error {
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func cloneAction(ctx context.Context, cmd *cli.Command, a *app) error {
	task := cmd.String("task")
	compile := !cmd.Bool("no-compile")
	if compile {
		if cmd.String("unittest") == "" {
			return cli.Exit("--unittest is required unless --no-compile is given", 2)
		}
		if err := a.cfg.RequireLibsDir(); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}

	students, err := manifest.ReadStudents(cmd.String("students"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fetcher := repos.New(a.cfg.Repos, a.runner, a.log)
	manifestPath, failures, err := fetcher.CloneStudents(ctx, students, task, cmd.String("output"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	for _, f := range failures {
		a.failf("%s: clone failed: %v", f.Name, f.Err)
	}
	fmt.Fprintf(a.out, "Cloned %d of %d repositories, manifest at %s\n", len(students)-len(failures), len(students), manifestPath)
	if !compile {
		return nil
	}

	return a.runPipeline(ctx, cmd.String("unittest"), pipeline.Batch{
		Task:         task,
		ManifestPath: manifestPath,
		OutputDir:    filepath.Join(filepath.Dir(manifestPath), CompiledDir),
		ReadmePath:   cmd.String("readme"),
	})
}

func testsAction(ctx context.Context, cmd *cli.Command, a *app) error {
	out := cmd.String("output")
	failures := repos.New(a.cfg.Repos, a.runner, a.log).FetchSolutions(ctx, out)
	for _, f := range failures {
		a.failf("%s: %v", f.Name, f.Err)
	}
	fmt.Fprintf(a.out, "Fetched %d of %d solution repositories into %s\n",
		len(a.cfg.Repos.SolutionTasks)-len(failures), len(a.cfg.Repos.SolutionTasks), out)
	return nil
}

func compileAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if err := a.cfg.RequireLibsDir(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return a.runPipeline(ctx, cmd.String("unittest"), pipeline.Batch{
		Task:         cmd.String("task"),
		ManifestPath: cmd.String("manifest"),
		OutputDir:    cmd.String("output"),
		ReadmePath:   cmd.String("readme"),
	})
}

func (a *app) runPipeline(ctx context.Context, testsDir string, b pipeline.Batch) error {
	h, err := harness.New(a.cfg.Toolchain, a.runner, a.log)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	g, closeEvents := a.gatherer(ctx)
	defer closeEvents()

	o := pipeline.NewOrchestrator(
		staging.NewStager(a.conv, testsDir, a.cfg.LibsDir, a.cfg.Toolchain.Libraries, a.log),
		h,
		collect.NewCollector(a.conv, a.log),
		g,
		a.log,
	)
	rep, err := o.Run(ctx, b)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	failed := rep.Failed()
	for _, f := range failed {
		a.failf("%s", f)
	}
	summary := color.New(color.FgGreen)
	if len(failed) > 0 {
		summary = color.New(color.FgYellow)
	}
	summary.Fprintf(a.out, "%d records written to %s, %d submissions failed\n", len(rep.Records()), b.OutputDir, len(failed))
	return nil
}

func generateAction(ctx context.Context, cmd *cli.Command, a *app) error {
	model := cmd.String("model")
	if _, ok := a.cfg.Backend.Models[model]; !ok {
		return cli.Exit(fmt.Sprintf("unknown model %q", model), 2)
	}
	if err := a.cfg.RequireBackendRoot(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if err := a.cfg.RequireTrackerToken(); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	store := filestore.New(cmd.String("output"))
	if err := store.Init(); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	client := a.httpClient()
	pub := publish.New(
		store,
		tracker.New(a.cfg.Tracker, client, a.log),
		publish.NewTerminalConfirmer(a.in, a.out),
		a.out,
		a.log,
	)

	var published, unpublished int
	gw := gateway.New(a.cfg.Backend, a.runner, client, a.log)
	subs, err := gw.Run(ctx, model, cmd.String("json"), func(ctx context.Context, v *api.Verdict) {
		o := pub.Publish(ctx, v)
		switch {
		case o.Err != nil:
			a.failf("%s: %v", o.StudentID, o.Err)
			unpublished++
		case o.Published:
			published++
		default:
			unpublished++
		}
	})
	if err != nil {
		var unavailable *gateway.ServiceUnavailableError
		if errors.As(err, &unavailable) {
			return cli.Exit(fmt.Sprintf("grading backend did not come up: %v", err), 1)
		}
		return cli.Exit(err.Error(), 1)
	}

	failed := 0
	for _, s := range subs {
		if s.Err != nil {
			failed++
			a.failf("%s: %v", s.RecordPath, s.Err)
		}
	}
	fmt.Fprintf(a.out, "%d graded, %d failed, %d issues created, %d feedback files kept locally in %s\n",
		len(subs)-failed, failed, published, unpublished, store.Dir())
	return nil
}

func issuesAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if err := a.cfg.RequireTrackerToken(); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	students, err := manifest.ReadStudents(cmd.String("students"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	statuses := tracker.New(a.cfg.Tracker, a.httpClient(), a.log).Statuses(ctx, students, cmd.String("task"))
	if cmd.Bool("csv") {
		report.WriteStatusesCSV(a.out, statuses)
	} else {
		report.PrintStatuses(a.out, statuses)
	}
	for _, s := range statuses {
		if s.Err != nil {
			a.failf("%s: %v", s.Student, s.Err)
		}
	}
	return nil
}

func archiveAction(_ context.Context, cmd *cli.Command, a *app) error {
	dir := cmd.Args().Get(0)
	if dir == "" {
		return cli.Exit("usage: grader archive DIR [FILE]", 2)
	}
	dst := cmd.Args().Get(1)
	if dst == "" {
		dst = filepath.Clean(dir) + archive.Ext
	}
	n, err := archive.Pack(dir, dst)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintf(a.out, "Archived %d files into %s\n", n, dst)
	return nil
}

func unarchiveAction(_ context.Context, cmd *cli.Command, a *app) error {
	src, dir := cmd.Args().Get(0), cmd.Args().Get(1)
	if src == "" || dir == "" {
		return cli.Exit("usage: grader unarchive FILE DIR", 2)
	}
	n, err := archive.Unpack(src, dir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintf(a.out, "Restored %d files into %s\n", n, dir)
	return nil
}
