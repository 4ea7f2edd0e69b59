package staging_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/internal/convention"
	"github.com/programme-lv/grader/internal/logging"
	"github.com/programme-lv/grader/internal/staging"
	"github.com/programme-lv/grader/internal/staging/stagingtest"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type fixture struct {
	src, tests, libs string
}

func newFixture(t *testing.T) fixture {
	f := fixture{src: t.TempDir(), tests: t.TempDir(), libs: t.TempDir()}
	stagingtest.WriteFiles(t, f.src, map[string]string{
		"Foo.java":     "class Foo {}",
		"BarTest.java": "class BarTest {}",
		"README.md":    "# foo",
	})
	stagingtest.WriteFiles(t, f.tests, map[string]string{
		"FooTest.java": "class FooTest {}",
		"notes.txt":    "not a test",
	})
	stagingtest.WriteFiles(t, f.libs, map[string]string{
		"junit-4.12.jar":        "junit",
		"hamcrest-core-1.3.jar": "hamcrest",
	})
	return f
}

func newStager(f fixture, libs ...string) *staging.Stager {
	return staging.NewStager(convention.New(".java"), f.tests, f.libs, libs, logging.Discard())
}

func TestStageMovesStudentTestsAside(t *testing.T) {
	f := newFixture(t)

	staged, err := newStager(f, "junit-4.12.jar", "hamcrest-core-1.3.jar").Stage(f.src)
	require.NoError(t, err)

	assert.Equal(t, f.src, staged.Dir)
	assert.Equal(t, []string{"FooTest.java"}, staged.CanonicalTests)
	assert.Equal(t, []string{"hamcrest-core-1.3.jar", "junit-4.12.jar"}, staged.Libraries)
	assert.Equal(t, []string{"BarTest.java"}, staged.MovedStudentTests)

	assert.NoFileExists(t, filepath.Join(f.src, "BarTest.java"))
	assert.Equal(t, "class BarTest {}", readFile(t, filepath.Join(f.src, staging.StudentTestsDir, "BarTest.java")))
	assert.Equal(t, "class FooTest {}", readFile(t, filepath.Join(f.src, "FooTest.java")))
	assert.FileExists(t, filepath.Join(f.src, "junit-4.12.jar"))
	assert.FileExists(t, filepath.Join(f.src, "Foo.java"))
	assert.NoFileExists(t, filepath.Join(f.src, "notes.txt"))
}

func TestStageCanonicalTestTakesPrecedence(t *testing.T) {
	f := newFixture(t)
	stagingtest.WriteFiles(t, f.src, map[string]string{"FooTest.java": "class FooTest { /* student */ }"})

	staged, err := newStager(f).Stage(f.src)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"BarTest.java", "FooTest.java"}, staged.MovedStudentTests)
	assert.Equal(t, "class FooTest {}", readFile(t, filepath.Join(f.src, "FooTest.java")))
	assert.Equal(t, "class FooTest { /* student */ }",
		readFile(t, filepath.Join(f.src, staging.StudentTestsDir, "FooTest.java")))
}

func TestStageTwiceKeepsStudentWork(t *testing.T) {
	f := newFixture(t)
	s := newStager(f)

	_, err := s.Stage(f.src)
	require.NoError(t, err)
	staged, err := s.Stage(f.src)
	require.NoError(t, err)

	assert.Empty(t, staged.MovedStudentTests)
	assert.Equal(t, "class BarTest {}", readFile(t, filepath.Join(f.src, staging.StudentTestsDir, "BarTest.java")))
	assert.NoFileExists(t, filepath.Join(f.src, staging.StudentTestsDir, "FooTest.java"))
}

func TestRestageAfterCompileLeavesCanonicalClasses(t *testing.T) {
	f := newFixture(t)
	s := newStager(f)

	_, err := s.Stage(f.src)
	require.NoError(t, err)
	stagingtest.WriteFiles(t, f.src, map[string]string{
		"FooTest.class":   "compiled",
		"FooTest$1.class": "compiled inner",
		"Foo.class":       "compiled",
	})

	staged, err := s.Stage(f.src)
	require.NoError(t, err)

	assert.Empty(t, staged.MovedStudentTests)
	assert.FileExists(t, filepath.Join(f.src, "FooTest.class"))
	assert.FileExists(t, filepath.Join(f.src, "FooTest$1.class"))
	assert.NoFileExists(t, filepath.Join(f.src, staging.StudentTestsDir, "FooTest.class"))
	assert.NoFileExists(t, filepath.Join(f.src, staging.StudentTestsDir, "FooTest$1.class"))
}

func TestStudentTestClassesAreMovedAside(t *testing.T) {
	f := newFixture(t)
	stagingtest.WriteFiles(t, f.src, map[string]string{"BarTest.class": "compiled"})

	staged, err := newStager(f).Stage(f.src)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"BarTest.class", "BarTest.java"}, staged.MovedStudentTests)
	assert.FileExists(t, filepath.Join(f.src, staging.StudentTestsDir, "BarTest.class"))
}

func TestStageAllArchivesWhenNoneNamed(t *testing.T) {
	f := newFixture(t)
	stagingtest.WriteFiles(t, f.libs, map[string]string{"extra.txt": "x"})

	staged, err := newStager(f).Stage(f.src)
	require.NoError(t, err)
	assert.Equal(t, []string{"hamcrest-core-1.3.jar", "junit-4.12.jar"}, staged.Libraries)
}

func TestStageErrors(t *testing.T) {
	t.Run("missing submission", func(t *testing.T) {
		f := newFixture(t)
		_, err := newStager(f).Stage(filepath.Join(f.src, "nope"))

		var stErr *staging.StagingError
		require.True(t, errors.As(err, &stErr))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("missing library", func(t *testing.T) {
		f := newFixture(t)
		_, err := newStager(f, "mockito.jar").Stage(f.src)

		var stErr *staging.StagingError
		require.True(t, errors.As(err, &stErr))
		assert.FileExists(t, filepath.Join(f.src, "BarTest.java"))
	})

	t.Run("library named like a test", func(t *testing.T) {
		f := newFixture(t)
		stagingtest.WriteFiles(t, f.libs, map[string]string{"FooTest.java": "clash"})
		_, err := newStager(f, "FooTest.java").Stage(f.src)

		var stErr *staging.StagingError
		assert.True(t, errors.As(err, &stErr))
	})
}
