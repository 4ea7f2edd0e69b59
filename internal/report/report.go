// Package report prints grading records, verdicts and tracker statuses.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/filestore"
)

var (
	fileColor   = color.New(color.FgBlue, color.Bold)
	headColor   = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgYellow, color.Bold)
	resultColor = color.New(color.FgGreen, color.Bold)
	passColor   = color.New(color.FgGreen)
	failColor   = color.New(color.FgRed)
)

func statusColor(v *api.Verdict) *color.Color {
	if v.IsPass() {
		return passColor
	}
	return failColor
}

const separatorWidth = 60

func PrintTestResults(w io.Writer, path string, rec *api.GradingRecord) {
	fileColor.Fprintf(w, "File: %s\n", path)
	resultColor.Fprintln(w, "Test Results:")
	fmt.Fprintln(w, strings.TrimSpace(rec.TestResults))
}

func PrintFeedback(w io.Writer, path string, v *api.Verdict) {
	fileColor.Fprintf(w, "File: %s\n", path)
	labelColor.Fprint(w, "Student ID: ")
	fmt.Fprintln(w, v.StudentID)
	resultColor.Fprint(w, "Status: ")
	statusColor(v).Fprintln(w, v.Status)
	headColor.Fprintln(w, "Feedback:")
	fmt.Fprintln(w, strings.TrimSpace(v.Feedback))
}

// PrintVerdict shows a freshly received verdict before the operator decides on it.
func PrintVerdict(w io.Writer, v *api.Verdict) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	headColor.Fprintf(w, "FEEDBACK READY FOR: %s\n", strings.ToUpper(v.StudentID))
	fmt.Fprintln(w, rule)
	labelColor.Fprint(w, "Task: ")
	fmt.Fprintln(w, v.Task)
	resultColor.Fprint(w, "Status: ")
	statusColor(v).Fprintln(w, v.Status)
	fmt.Fprintln(w)
	headColor.Fprintln(w, "Generated Feedback:")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, line := range strings.Split(strings.TrimRight(v.Feedback, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
}

// PrintRecords prints the test results of one record file or of every record in a directory.
func PrintRecords(w io.Writer, path string) error {
	return forEachJSON(path, func(store *filestore.FileStore, key string) error {
		var rec api.GradingRecord
		if err := store.ReadJSON(key, &rec); err != nil {
			return err
		}
		PrintTestResults(w, store.Path(key), &rec)
		return nil
	}, w)
}

// PrintVerdicts prints one verdict artifact or every artifact in a directory.
func PrintVerdicts(w io.Writer, path string) error {
	return forEachJSON(path, func(store *filestore.FileStore, key string) error {
		var v api.Verdict
		if err := store.ReadJSON(key, &v); err != nil {
			return err
		}
		PrintFeedback(w, store.Path(key), &v)
		return nil
	}, w)
}

func forEachJSON(path string, fn func(store *filestore.FileStore, key string) error, w io.Writer) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !st.IsDir() {
		return fn(filestore.New(filepath.Dir(path)), filepath.Base(path))
	}

	store := filestore.New(path)
	keys, err := store.List(".json")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := fn(store, key); err != nil {
			return err
		}
		fmt.Fprintln(w, strings.Repeat("-", separatorWidth))
	}
	return nil
}
