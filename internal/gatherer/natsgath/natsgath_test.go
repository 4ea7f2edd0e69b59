package natsgath_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/gatherer/natsgath"
	"github.com/programme-lv/grader/internal/logging"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return f.err
}

func TestPublishesJSONEvents(t *testing.T) {
	nc := &fakeConn{}
	g := natsgath.New(nc, "grader.events", logging.Discard())

	g.StartBatch("run-1", "task-5", 3)
	g.FinishSubmission("alice", "/out/alice.json")

	require.Len(t, nc.payloads, 2)
	assert.Equal(t, []string{"grader.events", "grader.events"}, nc.subjects)

	var msg api.FinishSubmission
	require.NoError(t, json.Unmarshal(nc.payloads[1], &msg))
	assert.Equal(t, "run-1", msg.RunID)
	assert.Equal(t, api.FinishSubmissionMsg, msg.MsgType)
	assert.Equal(t, "/out/alice.json", msg.RecordPath)
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	nc := &fakeConn{err: errors.New("nats: connection closed")}
	g := natsgath.New(nc, "grader.events", logging.Discard())

	assert.NotPanics(t, func() {
		g.StartBatch("run-1", "task-5", 1)
		g.FinishBatch(1, 0)
	})
	assert.Len(t, nc.payloads, 2)
}
