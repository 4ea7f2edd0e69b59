package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/programme-lv/grader/api"
)

func TestVerdictIsPass(t *testing.T) {
	for status, want := range map[string]bool{
		"PASS":          true,
		" Pass\n":       true,
		"FAIL":          false,
		"KOMPLETTERING": false,
		"":              false,
	} {
		v := api.Verdict{Status: status}
		assert.Equal(t, want, v.IsPass(), "status %q", status)
	}
}

func TestRunDataDisplay(t *testing.T) {
	assert.Equal(t, "OK (1 test)", (&api.RunData{Stdout: "OK (1 test)", Stderr: "warn"}).Display())
	assert.Equal(t, "boom", (&api.RunData{Stdout: "\n", Stderr: "boom"}).Display())
}
