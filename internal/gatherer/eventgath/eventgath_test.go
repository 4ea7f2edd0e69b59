package eventgath

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/pipeline"
)

func TestTrimStrToRect(t *testing.T) {
	assert.Equal(t, "", trimStrToRect("", 2, 3))
	assert.Equal(t, "ab\ncd", trimStrToRect("ab\ncd", 2, 3))
	assert.Equal(t, "abc[...]\nd", trimStrToRect("abcdef\nd", 2, 3))
	assert.Equal(t, "a\nb\n[...]", trimStrToRect("a\nb\nc\nd", 2, 3))
}

func TestTrimStrToRectKeepsRunesWhole(t *testing.T) {
	// "é" is two bytes; a cut at byte 2 would split it
	got := trimStrToRect("aé expected", 1, 2)
	assert.Equal(t, "a[...]", got)
	assert.True(t, utf8.ValidString(got))

	got = trimStrToRect("äöü: förväntat ';'", 1, 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "äö[...]", got)
}

func TestEventsCarryRunID(t *testing.T) {
	var sent []any
	g := New(func(msg any) { sent = append(sent, msg) })

	g.StartBatch("run-1", "task-5", 2)
	g.StartSubmission("alice")
	g.FinishTests("alice", &api.RunData{Stdout: strings.Repeat("x", 200), ExitCode: 1})
	g.SkipSubmission("bob", pipeline.StageStaging, errors.New("permission denied"))
	g.FinishBatch(2, 1)

	require.Len(t, sent, 5)
	assert.Equal(t, api.StartBatchMsg, sent[0].(api.StartBatch).MsgType)
	assert.Equal(t, "run-1", sent[1].(api.StartSubmission).RunID)

	tests := sent[2].(api.FinishTests)
	assert.Equal(t, strings.Repeat("x", api.MaxRunDataWidth)+"[...]", tests.RunData.Stdout)
	assert.Equal(t, 1, tests.RunData.ExitCode)

	skip := sent[3].(api.SkipSubmission)
	assert.Equal(t, "staging", skip.Stage)
	assert.Equal(t, "permission denied", skip.Error)

	assert.Equal(t, api.FinishBatch{
		Header:    api.Header{RunID: "run-1", MsgType: api.FinishBatchMsg},
		Processed: 2,
		Failed:    1,
	}, sent[4])
}
