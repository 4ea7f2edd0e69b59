package publish

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Confirmer asks the operator. Implementations return io.EOF when input ends.
type Confirmer interface {
	Confirm(question string) (bool, error)
	ReadNote(prompt string) (string, error)
}

// NoteTerminator ends a note typed at the terminal.
const NoteTerminator = "DONE"

type TerminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer

	prompt *color.Color
	bad    *color.Color
}

func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: color.New(color.FgBlue, color.Bold),
		bad:    color.New(color.FgRed, color.Bold),
	}
}

// Confirm keeps asking until the answer is y or n.
func (c *TerminalConfirmer) Confirm(question string) (bool, error) {
	for {
		c.prompt.Fprintf(c.out, "%s [y/n]: ", question)
		line, err := c.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		c.bad.Fprintln(c.out, "Invalid input! Please enter 'y' or 'n'.")
	}
}

// ReadNote reads lines until one equal to NoteTerminator or the end of input.
func (c *TerminalConfirmer) ReadNote(prompt string) (string, error) {
	c.prompt.Fprintln(c.out, prompt)
	var lines []string
	for {
		line, err := c.in.ReadString('\n')
		if strings.TrimSpace(line) == NoteTerminator {
			break
		}
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read note: %w", err)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func (c *TerminalConfirmer) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
