// Package manifest reads and writes the submission manifest and student lists.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileName is the manifest written next to the cloned repositories of a task.
const FileName = "src_paths.json"

// Entry is one submission: who wrote it and where its sources are.
type Entry struct {
	StudentID string
	Dir       string
}

// Load reads a student -> source directory mapping. Entries come back
// sorted by student so that runs over the same manifest are repeatable.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(m))
	for id, dir := range m {
		if id == "" || dir == "" {
			return nil, fmt.Errorf("manifest %s has an empty student or directory", path)
		}
		entries = append(entries, Entry{StudentID: id, Dir: dir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].StudentID < entries[j].StudentID })
	return entries, nil
}

func Save(path string, entries []Entry) error {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.StudentID] = e.Dir
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadStudents reads one student id per line. Blank lines and lines
// starting with # are skipped.
func ReadStudents(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open students file: %w", err)
	}
	defer f.Close()

	var students []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		students = append(students, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students file: %w", err)
	}
	return students, nil
}
