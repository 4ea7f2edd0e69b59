// Package publish stores verdicts as local artifacts and, once the operator
// agrees, posts them to the issue tracker.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/filestore"
	"github.com/programme-lv/grader/internal/report"
)

// FeedbackSuffix is appended to the student id to name a verdict artifact.
const FeedbackSuffix = "_feedback.json"

// IssueCreator is satisfied by *tracker.Client.
type IssueCreator interface {
	CreateIssue(ctx context.Context, student, task string, issue api.Issue) error
}

// PublicationError is a failed tracker post. The local artifact is kept.
type PublicationError struct {
	StudentID string
	Task      string
	Err       error
}

func (e *PublicationError) Error() string {
	return fmt.Sprintf("publishing feedback for %s (%s): %v", e.StudentID, e.Task, e.Err)
}

func (e *PublicationError) Unwrap() error { return e.Err }

type Outcome struct {
	StudentID    string
	ArtifactPath string
	Published    bool
	Err          error
}

type Publisher struct {
	store   *filestore.FileStore
	tracker IssueCreator
	confirm Confirmer
	out     io.Writer
	log     *slog.Logger
}

// New builds a publisher. With a nil confirmer nothing is ever posted.
func New(store *filestore.FileStore, tracker IssueCreator, confirm Confirmer, out io.Writer, log *slog.Logger) *Publisher {
	return &Publisher{store: store, tracker: tracker, confirm: confirm, out: out, log: log}
}

// Publish writes the artifact first and only then asks the operator.
func (p *Publisher) Publish(ctx context.Context, v *api.Verdict) Outcome {
	o := Outcome{StudentID: v.StudentID}
	log := p.log.With("student", v.StudentID, "task", v.Task)

	path, err := p.store.WriteJSON(v.StudentID+FeedbackSuffix, v)
	if err != nil {
		o.Err = fmt.Errorf("failed to save feedback: %w", err)
		return o
	}
	o.ArtifactPath = path
	log.Info("saved feedback", "path", path)

	report.PrintVerdict(p.out, v)

	issue, ok := p.askIssue(v, log)
	if !ok {
		fmt.Fprintf(p.out, "Feedback saved locally for %s: %s\n", v.StudentID, path)
		return o
	}

	if err := p.tracker.CreateIssue(ctx, v.StudentID, v.Task, issue); err != nil {
		o.Err = &PublicationError{StudentID: v.StudentID, Task: v.Task, Err: err}
		log.Error("failed to create issue", "err", err)
		return o
	}
	o.Published = true
	fmt.Fprintf(p.out, "Issue %q created for %s\n", issue.Title, v.StudentID)
	return o
}

// askIssue runs the confirmation dialog. Any read failure, including the end
// of input, counts as declining.
func (p *Publisher) askIssue(v *api.Verdict, log *slog.Logger) (api.Issue, bool) {
	if p.confirm == nil || p.tracker == nil {
		return api.Issue{}, false
	}

	yes, err := p.confirm.Confirm(fmt.Sprintf("Create an issue for %s?", v.StudentID))
	if err != nil {
		logDecline(log, err)
		return api.Issue{}, false
	}
	if !yes {
		return api.Issue{}, false
	}

	var note string
	addNote, err := p.confirm.Confirm("Add your own note before the generated feedback?")
	if err != nil {
		logDecline(log, err)
		return api.Issue{}, false
	}
	if addNote {
		note, err = p.confirm.ReadNote("Enter your note, finish with DONE on its own line:")
		if err != nil {
			logDecline(log, err)
			return api.Issue{}, false
		}
	}

	return api.Issue{Title: v.Status, Body: ComposeBody(note, v.Feedback)}, true
}

func logDecline(log *slog.Logger, err error) {
	if errors.Is(err, io.EOF) {
		log.Warn("no operator input, not creating an issue")
		return
	}
	log.Error("failed to read operator input", "err", err)
}

const (
	suggestionsHeader = "**AI Suggestions** (optional improvements, not requirements):"
	suggestionsNote   = "Note: These suggestions are meant to help you learn and improve - " +
		"they are not mandatory requirements that must be completed."
)

// ComposeBody puts the operator's note, when there is one, ahead of the generated feedback.
func ComposeBody(note string, feedback string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return suggestionsHeader + "\n\n" + feedback + "\n\n" + suggestionsNote
	}
	return "**Teacher's note**:\n\n" + note + "\n\n---\n\n" + suggestionsHeader + "\n\n" + feedback
}
