// Package convention decides from a file name alone what role a file plays
// in a submission: source, test, compiled class or library archive.
package convention

import (
	"path/filepath"
	"strings"
)

const (
	ClassExt   = ".class"
	LibraryExt = ".jar"
)

var testSuffixes = []string{"Tests", "Test"}

type Convention struct {
	SourceExt string
}

func New(sourceExt string) Convention {
	if !strings.HasPrefix(sourceExt, ".") {
		sourceExt = "." + sourceExt
	}
	return Convention{SourceExt: sourceExt}
}

// IsTestName reports whether the name, extension stripped, ends in Test or Tests.
func (c Convention) IsTestName(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, suffix := range testSuffixes {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

func (c Convention) IsSource(name string) bool {
	return filepath.Ext(name) == c.SourceExt
}

// IsTestFile matches test sources and their compiled classes.
func (c Convention) IsTestFile(name string) bool {
	ext := filepath.Ext(name)
	if ext != c.SourceExt && ext != ClassExt {
		return false
	}
	return c.IsTestName(name)
}

// IsSubmissionSource matches the files that are graded as the student's own code.
func (c Convention) IsSubmissionSource(name string) bool {
	return c.IsSource(name) && !c.IsTestName(name)
}

func (c Convention) IsLibrary(name string) bool {
	return filepath.Ext(name) == LibraryExt
}

// ClassName strips the extension: "FooTest.java" -> "FooTest".
func (c Convention) ClassName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
