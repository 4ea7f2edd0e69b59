package publish_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/filestore"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/publish"
)

// cannedConfirmer answers from a fixed script and then returns io.EOF.
type cannedConfirmer struct {
	answers []bool
	note    string
	asked   []string
}

func (c *cannedConfirmer) Confirm(question string) (bool, error) {
	c.asked = append(c.asked, question)
	if len(c.answers) == 0 {
		return false, io.EOF
	}
	a := c.answers[0]
	c.answers = c.answers[1:]
	return a, nil
}

func (c *cannedConfirmer) ReadNote(string) (string, error) {
	return c.note, nil
}

type issueRecorder struct {
	student, task string
	issue         api.Issue
	calls         int
	err           error
}

func (r *issueRecorder) CreateIssue(_ context.Context, student, task string, issue api.Issue) error {
	r.calls++
	r.student, r.task, r.issue = student, task, issue
	return r.err
}

var verdict = &api.Verdict{StudentID: "alice", Task: "task-5", Status: "PASS", Feedback: "Consider smaller methods."}

func newPublisher(t *testing.T, tr publish.IssueCreator, c publish.Confirmer) (*publish.Publisher, *filestore.FileStore) {
	store := filestore.New(t.TempDir())
	require.NoError(t, store.Init())
	return publish.New(store, tr, c, io.Discard, logging.Discard()), store
}

func TestDeclineKeepsArtifactOnly(t *testing.T) {
	tr := &issueRecorder{}
	p, store := newPublisher(t, tr, &cannedConfirmer{answers: []bool{false}})

	o := p.Publish(context.Background(), verdict)
	require.NoError(t, o.Err)
	assert.False(t, o.Published)
	assert.Equal(t, store.Path("alice_feedback.json"), o.ArtifactPath)
	assert.Zero(t, tr.calls)

	var saved api.Verdict
	require.NoError(t, store.ReadJSON("alice_feedback.json", &saved))
	assert.Equal(t, *verdict, saved)
}

func TestPublishWithNote(t *testing.T) {
	tr := &issueRecorder{}
	c := &cannedConfirmer{answers: []bool{true, true}, note: "Good job on the tests."}
	p, _ := newPublisher(t, tr, c)

	o := p.Publish(context.Background(), verdict)
	require.NoError(t, o.Err)
	assert.True(t, o.Published)
	assert.Equal(t, "alice", tr.student)
	assert.Equal(t, "task-5", tr.task)
	assert.Equal(t, "PASS", tr.issue.Title)
	assert.Less(t, strings.Index(tr.issue.Body, "Good job on the tests."), strings.Index(tr.issue.Body, "Consider smaller methods."))
	assert.Len(t, c.asked, 2)
}

func TestUnattendedRunDoesNotPublish(t *testing.T) {
	tr := &issueRecorder{}
	p, store := newPublisher(t, tr, &cannedConfirmer{})

	o := p.Publish(context.Background(), verdict)
	require.NoError(t, o.Err)
	assert.False(t, o.Published)
	assert.FileExists(t, store.Path("alice_feedback.json"))
	assert.Zero(t, tr.calls)

	p, store = newPublisher(t, tr, nil)
	o = p.Publish(context.Background(), verdict)
	require.NoError(t, o.Err)
	assert.FileExists(t, store.Path("alice_feedback.json"))
}

func TestTrackerFailureKeepsArtifact(t *testing.T) {
	tr := &issueRecorder{err: errors.New("401 Bad credentials")}
	p, store := newPublisher(t, tr, &cannedConfirmer{answers: []bool{true, false}})

	o := p.Publish(context.Background(), verdict)

	var pubErr *publish.PublicationError
	require.True(t, errors.As(o.Err, &pubErr))
	assert.Equal(t, "alice", pubErr.StudentID)
	assert.False(t, o.Published)
	assert.FileExists(t, store.Path("alice_feedback.json"))
	assert.Contains(t, tr.issue.Body, publish.ComposeBody("", verdict.Feedback))
}

func TestComposeBody(t *testing.T) {
	plain := publish.ComposeBody("  ", "Use a HashMap.")
	assert.True(t, strings.HasPrefix(plain, "**AI Suggestions**"))
	assert.Contains(t, plain, "Use a HashMap.")
	assert.Contains(t, plain, "not mandatory requirements")

	noted := publish.ComposeBody("See me after class.\n", "Use a HashMap.")
	assert.True(t, strings.HasPrefix(noted, "**Teacher's note**:\n\nSee me after class.\n\n---"))
	assert.True(t, strings.HasSuffix(noted, "Use a HashMap."))
}

func TestTerminalConfirmer(t *testing.T) {
	var out bytes.Buffer
	c := publish.NewTerminalConfirmer(strings.NewReader("maybe\nY\nn\nfirst line\nsecond line\nDONE\nno\n"), &out)

	yes, err := c.Confirm("Create an issue?")
	require.NoError(t, err)
	assert.True(t, yes)
	assert.Contains(t, out.String(), "Invalid input")

	yes, err = c.Confirm("Add a note?")
	require.NoError(t, err)
	assert.False(t, yes)

	note, err := c.ReadNote("Enter your note:")
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", note)

	yes, err = c.Confirm("Again?")
	require.NoError(t, err)
	assert.False(t, yes)

	_, err = c.Confirm("And again?")
	assert.ErrorIs(t, err, io.EOF)
}
