package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/grader/internal/environment"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/procrun"
	"github.com/programme-lv/grader/internal/procrun/procruntest"
)

func byUnit(rows []feedbackRow) map[string]feedbackRow {
	m := make(map[string]feedbackRow)
	for _, r := range rows {
		m[r.unit] = r
	}
	return m
}

func TestCheck(t *testing.T) {
	libs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(libs, "junit-4.12.jar"), nil, 0o644))

	cfg := environment.Default()
	cfg.LibsDir = libs
	cfg.Toolchain.Compiler = "sh"
	cfg.Toolchain.Runner = "no-such-runner-binary"

	r := &procruntest.Runner{Respond: func(string, []string) (*procrun.Result, error) {
		return &procrun.Result{Stdout: []byte("sh 1.0\nmore")}, nil
	}}
	rows := byUnit(check(context.Background(), cfg, r, logging.Discard()))

	assert.Equal(t, healthOK, rows["Compiler"].health)
	assert.Equal(t, "sh 1.0", rows["Compiler"].message)
	assert.Equal(t, healthError, rows["Test runner"].health)
	assert.Equal(t, healthOK, rows["junit-4.12.jar"].health)
	assert.Equal(t, healthError, rows["hamcrest-core-1.3.jar"].health)
	assert.Equal(t, healthWarn, rows["Grading backend"].health)
	assert.Equal(t, healthWarn, rows["Issue tracker"].health)
}

func TestOutputFeedback(t *testing.T) {
	var buf bytes.Buffer
	outputFeedback(&buf, []feedbackRow{{unit: "Compiler", health: healthOK, message: "javac 21"}})
	assert.Contains(t, buf.String(), "Compiler")
	assert.Contains(t, buf.String(), "javac 21")
}

func TestCommandExitCodes(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	exited := -1
	prevExiter, prevErrWriter := cli.OsExiter, cli.ErrWriter
	var errOut bytes.Buffer
	cli.OsExiter = func(c int) { exited = c }
	cli.ErrWriter = &errOut
	t.Cleanup(func() { cli.OsExiter, cli.ErrWriter = prevExiter, prevErrWriter })

	missing := filepath.Join(t.TempDir(), "missing.toml")
	var out bytes.Buffer
	_ = newCommand(&out, &errOut).Run(context.Background(), []string{"health", "--config", missing})
	assert.Equal(t, 2, exited)
	assert.Contains(t, errOut.String(), "missing.toml")

	// no libraries directory is configured, so the table carries an error row
	cfg := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("libs_dir = \"\"\n"), 0o644))
	t.Setenv("GRADER_LIBS_DIR", "")
	exited = -1
	_ = newCommand(&out, &errOut).Run(context.Background(), []string{"health", "--config", cfg})
	assert.Equal(t, 1, exited)
	assert.Contains(t, out.String(), "Libraries")
}
