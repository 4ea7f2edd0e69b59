package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/programme-lv/grader/internal/tracker"
)

func statusTable(w io.Writer, statuses []tracker.StudentStatus) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Student", "Status"})
	for _, s := range statuses {
		t.AppendRow(table.Row{s.Student, s.Status})
	}
	return t
}

// PrintStatuses renders the tracker status of every student as a table.
func PrintStatuses(w io.Writer, statuses []tracker.StudentStatus) {
	t := statusTable(w, statuses)
	t.SetStyle(table.StyleColoredDark)
	t.SetColumnConfigs([]table.ColumnConfig{
		{
			Name:        "Status",
			Transformer: colorStatus,
			Align:       text.AlignCenter,
		},
	})
	t.AppendFooter(table.Row{"Total", len(statuses)})
	t.Render()
}

// WriteStatusesCSV writes student,status rows with a header line.
func WriteStatusesCSV(w io.Writer, statuses []tracker.StudentStatus) {
	statusTable(w, statuses).RenderCSV()
}

var colorStatus = text.Transformer(func(val interface{}) string {
	s, _ := val.(string)
	switch {
	case s == tracker.StatusPass:
		return text.FgHiGreen.Sprint(s)
	case s == tracker.StatusFail:
		return text.FgHiRed.Sprint(s)
	case tracker.IsPending(s):
		return text.FgHiYellow.Sprint(s)
	}
	return text.FgHiBlack.Sprint(s)
})
