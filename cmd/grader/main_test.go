package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/filestore"
)

func run(t *testing.T, args ...string) (stdout string, stderr string, code int) {
	t.Helper()
	color.NoColor = true
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	exited := -1
	prevExiter, prevErrWriter := cli.OsExiter, cli.ErrWriter
	var out, errOut bytes.Buffer
	cli.OsExiter = func(c int) { exited = c }
	cli.ErrWriter = &errOut
	t.Cleanup(func() { cli.OsExiter, cli.ErrWriter = prevExiter, prevErrWriter })

	cmd := newCommand(strings.NewReader(""), &out, &errOut)
	err := cmd.Run(context.Background(), append([]string{"grader"}, args...))
	if exited >= 0 {
		return out.String(), errOut.String(), exited
	}
	if err != nil {
		return out.String(), errOut.String() + err.Error(), 1
	}
	return out.String(), errOut.String(), 0
}

func TestResultsCommand(t *testing.T) {
	store := filestore.New(t.TempDir())
	require.NoError(t, store.Init())
	_, err := store.WriteJSON("alice.json", api.GradingRecord{UserID: "alice", Task: "task-5", TestResults: "OK (3 tests)"})
	require.NoError(t, err)

	out, _, code := run(t, "results", "-j", store.Dir())
	assert.Zero(t, code)
	assert.Contains(t, out, "OK (3 tests)")
}

func TestArchiveRoundTrip(t *testing.T) {
	store := filestore.New(t.TempDir())
	require.NoError(t, store.Init())
	_, err := store.WriteJSON("bob_feedback.json", api.Verdict{StudentID: "bob", Status: "PASS"})
	require.NoError(t, err)

	bundle := filepath.Join(t.TempDir(), "feedback.tar.zst")
	out, _, code := run(t, "archive", store.Dir(), bundle)
	require.Zero(t, code)
	assert.Contains(t, out, "Archived 1 files")

	restored := filepath.Join(t.TempDir(), "restored")
	_, _, code = run(t, "unarchive", bundle, restored)
	require.Zero(t, code)

	out, _, code = run(t, "feedback", "-j", filepath.Join(restored, "bob_feedback.json"))
	assert.Zero(t, code)
	assert.Contains(t, out, "PASS")
}

func TestGenerateRejectsUnknownModel(t *testing.T) {
	_, stderr, code := run(t, "generate", "-j", t.TempDir(), "-o", t.TempDir(), "-m", "llama")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown model "llama"`)
}

func TestCompileRequiresLibsDir(t *testing.T) {
	t.Setenv("GRADER_LIBS_DIR", "")
	_, stderr, code := run(t, "compile", "--manifest", "m.json", "-t", "task-5", "-u", t.TempDir(), "-o", t.TempDir())
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "GRADER_LIBS_DIR")
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, stderr, code := run(t, "--config", filepath.Join(t.TempDir(), "missing.toml"), "results", "-j", t.TempDir())
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "missing.toml")
}
