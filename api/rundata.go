package api

import "strings"

// RunData describes one finished toolchain process (compiler or test runner).
type RunData struct {
	Stdout   string `json:"out"`
	Stderr   string `json:"err"`
	ExitCode int    `json:"exit"`

	WallMillis int64 `json:"wall_ms"`
}

// Display is the stream shown to the operator: stdout when the process
// wrote any, otherwise stderr.
func (d *RunData) Display() string {
	if strings.TrimSpace(d.Stdout) != "" {
		return d.Stdout
	}
	return d.Stderr
}
