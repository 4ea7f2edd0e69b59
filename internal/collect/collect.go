// Package collect assembles grading records from a submission directory.
package collect

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/convention"
)

// ReadmeName is looked up next to a submission's source directory.
const ReadmeName = "README.md"

type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

var ErrNotText = errors.New("content is not valid UTF-8 text")

// Input is everything about a submission that does not come from its directory.
type Input struct {
	StudentID  string
	Task       string
	Dir        string
	ReadMe     string
	TestOutput string
}

type Collector struct {
	conv convention.Convention
	log  *slog.Logger
}

func NewCollector(conv convention.Convention, log *slog.Logger) *Collector {
	return &Collector{conv: conv, log: log}
}

func (c *Collector) Collect(in Input) (*api.GradingRecord, error) {
	sources, err := c.Sources(in.Dir)
	if err != nil {
		return nil, err
	}
	return &api.GradingRecord{
		UserID:      in.StudentID,
		Task:        in.Task,
		ReadMe:      in.ReadMe,
		SourceFiles: sources,
		TestResults: in.TestOutput,
	}, nil
}

// Sources returns the submission's own source files directly under dir, in
// directory order. Test-named files are never included.
func (c *Collector) Sources(dir string) ([]api.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ReadError{Path: dir, Err: err}
	}

	files := make([]api.SourceFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !c.conv.IsSubmissionSource(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		content, err := readText(path)
		if err != nil {
			return nil, &ReadError{Path: path, Err: err}
		}
		files = append(files, api.SourceFile{Filename: e.Name(), Content: content})
	}

	c.log.Debug("collected sources", "dir", dir, "files", len(files))
	return files, nil
}

// ReadReadme reads path, or README.md in the parent of srcDir when path is empty.
// A missing readme yields empty text and found=false.
func ReadReadme(path string, srcDir string) (text string, found bool, err error) {
	if path == "" {
		path = filepath.Join(filepath.Dir(filepath.Clean(srcDir)), ReadmeName)
	}
	text, err = readText(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &ReadError{Path: path, Err: err}
	}
	return text, true, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}
