package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"pwreset/internal/password"
	"pwreset/internal/password/feedback"
)

func stateSymbol(s feedback.State) string {
	switch s {
	case feedback.Met:
		return color.GreenString("✓")
	case feedback.Failed:
		return color.RedString("✗")
	default:
		return color.HiBlackString("○")
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	t.SetStyle(style)
	return t
}

func resultState(met bool) feedback.State {
	if met {
		return feedback.Met
	}
	return feedback.Failed
}

// renderResult prints the checklist for a final evaluation: unmet criteria are
// shown as failed.
func renderResult(w io.Writer, res password.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"", "Criterion"})
	for _, c := range res.Criteria() {
		t.AppendRow(table.Row{stateSymbol(resultState(c.Met)), c.Label})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d met, %d required", res.Satisfied(), len(res.Criteria()), res.Required())})
	t.Render()

	verdict := color.New(color.Bold, color.FgGreen).Sprint("PASS")
	if !res.Passed() {
		verdict = color.New(color.Bold, color.FgRed).Sprint("FAIL")
	}
	fmt.Fprintln(w, verdict)
}

// renderIndicators prints one line per indicator, as a form would show them.
func renderIndicators(w io.Writer, inds []feedback.Indicator) {
	for _, ind := range inds {
		fmt.Fprintf(w, "  %s %s\n", stateSymbol(ind.State), ind.Label)
	}
}

func renderPolicy(w io.Writer, desc password.Description) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint(desc.Headline))
	for _, item := range desc.Items {
		fmt.Fprintf(w, "  %s %s\n", stateSymbol(feedback.Pending), item)
	}
}
