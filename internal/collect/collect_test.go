package collect_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/programme-lv/grader/internal/collect"
	"github.com/programme-lv/grader/internal/convention"
	"github.com/programme-lv/grader/internal/logging"
)

func newCollector() *collect.Collector {
	return collect.NewCollector(convention.New(".java"), logging.Discard())
}

func TestCollectExcludesTestsAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"Foo.java":      "class Foo {}",
		"Bar.java":      "class Bar {}",
		"FooTest.java":  "class FooTest {}",
		"FooTest.class": "\xca\xfe\xba\xbe",
		"Foo.class":     "\xca\xfe\xba\xbe",
		"junit.jar":     "PK",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "student_tests"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "student_tests", "BarTest.java"), []byte("x"), 0o644))

	rec, err := newCollector().Collect(collect.Input{
		StudentID:  "alice",
		Task:       "task-5",
		Dir:        dir,
		ReadMe:     "# task 5",
		TestOutput: "OK (1 test)\n",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, "task-5", rec.Task)
	assert.Equal(t, "# task 5", rec.ReadMe)
	assert.Equal(t, "OK (1 test)\n", rec.TestResults)
	assert.ElementsMatch(t, []string{"Foo.java", "Bar.java"}, rec.Filenames())
	for _, sf := range rec.SourceFiles {
		if sf.Filename == "Foo.java" {
			assert.Equal(t, "class Foo {}", sf.Content)
		}
	}
}

func TestCollectRejectsBinarySource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Foo.java"), []byte{0xff, 0xfe, 0x00}, 0o644))

	_, err := newCollector().Sources(dir)

	var readErr *collect.ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, filepath.Join(dir, "Foo.java"), readErr.Path)
	assert.ErrorIs(t, err, collect.ErrNotText)
}

func TestCollectMissingDir(t *testing.T) {
	_, err := newCollector().Sources(filepath.Join(t.TempDir(), "missing"))

	var readErr *collect.ReadError
	assert.True(t, errors.As(err, &readErr))
}

func TestReadReadme(t *testing.T) {
	repo := t.TempDir()
	src := filepath.Join(repo, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	text, found, err := collect.ReadReadme("", src)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)

	require.NoError(t, os.WriteFile(filepath.Join(repo, "README.md"), []byte("# answers"), 0o644))
	text, found, err = collect.ReadReadme("", src+"/")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "# answers", text)

	other := filepath.Join(t.TempDir(), "custom.md")
	require.NoError(t, os.WriteFile(other, []byte("custom"), 0o644))
	text, found, err = collect.ReadReadme(other, src)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "custom", text)
}
