// Package staging reconciles a submission's source directory with the
// canonical test suite and the libraries needed to compile it.
package staging

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/programme-lv/grader/internal/convention"
)

// StudentTestsDir holds the test files a student wrote themselves.
const StudentTestsDir = "student_tests"

// StagedSource is a submission directory that has been through Stage.
// Only the harness consumes it.
type StagedSource struct {
	Dir               string
	CanonicalTests    []string
	Libraries         []string
	MovedStudentTests []string
}

type StagingError struct {
	Dir string
	Op  string
	Err error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %s: %v", e.Dir, e.Op, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

type Stager struct {
	conv      convention.Convention
	testsDir  string
	libsDir   string
	libraries []string
	log       *slog.Logger
}

// NewStager copies canonical tests from testsDir and the named libraries from
// libsDir. With no library names every archive in libsDir is staged.
func NewStager(conv convention.Convention, testsDir, libsDir string, libraries []string, log *slog.Logger) *Stager {
	return &Stager{
		conv:      conv,
		testsDir:  testsDir,
		libsDir:   libsDir,
		libraries: libraries,
		log:       log,
	}
}

func (s *Stager) Stage(dir string) (*StagedSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &StagingError{Dir: dir, Op: "read submission", Err: err}
	}

	tests, err := s.canonicalTests()
	if err != nil {
		return nil, &StagingError{Dir: dir, Op: "read canonical tests", Err: err}
	}
	libs, err := s.libraryNames()
	if err != nil {
		return nil, &StagingError{Dir: dir, Op: "read libraries", Err: err}
	}
	for _, lib := range libs {
		for _, t := range tests {
			if lib == t {
				return nil, &StagingError{Dir: dir, Op: "stage " + lib, Err: fmt.Errorf("name collides with a canonical test")}
			}
		}
	}

	staged := &StagedSource{Dir: dir, CanonicalTests: tests, Libraries: libs}

	canonical := make(map[string]bool, len(tests))
	for _, name := range tests {
		canonical[s.conv.ClassName(name)] = true
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !s.conv.IsTestFile(name) {
			continue
		}
		// classes compiled from canonical tests by an earlier run are rebuilt
		if filepath.Ext(name) == convention.ClassExt && canonical[outerClass(s.conv.ClassName(name))] {
			continue
		}
		// a copy left by an earlier staging of this directory is not student work
		same, err := sameContent(filepath.Join(dir, name), filepath.Join(s.testsDir, name))
		if err != nil {
			return nil, &StagingError{Dir: dir, Op: "compare " + name, Err: err}
		}
		if same {
			continue
		}
		if err := s.moveAside(dir, name); err != nil {
			return nil, &StagingError{Dir: dir, Op: "move " + name, Err: err}
		}
		staged.MovedStudentTests = append(staged.MovedStudentTests, name)
	}

	for _, name := range tests {
		if err := copyFile(filepath.Join(s.testsDir, name), filepath.Join(dir, name)); err != nil {
			return nil, &StagingError{Dir: dir, Op: "copy test " + name, Err: err}
		}
	}
	for _, name := range libs {
		if err := copyFile(filepath.Join(s.libsDir, name), filepath.Join(dir, name)); err != nil {
			return nil, &StagingError{Dir: dir, Op: "copy library " + name, Err: err}
		}
	}

	s.log.Debug("staged submission",
		"dir", dir,
		"tests", len(staged.CanonicalTests),
		"libraries", len(staged.Libraries),
		"moved", staged.MovedStudentTests)
	return staged, nil
}

func (s *Stager) moveAside(dir, name string) error {
	holding := filepath.Join(dir, StudentTestsDir)
	if err := os.MkdirAll(holding, 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(dir, name), filepath.Join(holding, name))
}

func (s *Stager) canonicalTests() ([]string, error) {
	entries, err := os.ReadDir(s.testsDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && s.conv.IsTestFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (s *Stager) libraryNames() ([]string, error) {
	if len(s.libraries) > 0 {
		for _, name := range s.libraries {
			if _, err := os.Stat(filepath.Join(s.libsDir, name)); err != nil {
				return nil, err
			}
		}
		names := append([]string(nil), s.libraries...)
		sort.Strings(names)
		return names, nil
	}

	entries, err := os.ReadDir(s.libsDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && s.conv.IsLibrary(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// outerClass maps "FooTest$1" to "FooTest".
func outerClass(class string) string {
	outer, _, _ := strings.Cut(class, "$")
	return outer
}

func sameContent(a, b string) (bool, error) {
	bBytes, err := os.ReadFile(b)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	aBytes, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	return bytes.Equal(aBytes, bBytes), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
