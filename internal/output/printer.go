// Package output renders chain runs in the terminal.
//
// [Printer] writes step progress, plans and run summaries with lipgloss
// styles. Use [NewPrinterWithWriter] in tests to capture the output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"mcpchain/internal/catalog"
	"mcpchain/internal/chain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Printer writes human-readable chain output.
type Printer struct {
	out            io.Writer
	truncateLength int
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a Printer writing to w.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{out: w, truncateLength: 80}
}

// SetTruncateLength limits rendered outputs and errors. Zero disables truncation.
func (p *Printer) SetTruncateLength(n int) {
	p.truncateLength = n
}

// RunHeader announces a run and lists its steps.
func (p *Printer) RunHeader(steps []chain.Step) {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.DisplayName
	}
	content := titleStyle.Render(fmt.Sprintf("Chain: %d steps", len(steps))) + "\n" +
		strings.Join(names, " → ")
	fmt.Fprintln(p.out, boxStyle.Render(content))
}

// StepStarted prints the header line of a running step.
func (p *Printer) StepStarted(step chain.Step, index, total int) {
	fmt.Fprintf(p.out, "%s %s %s\n",
		mutedStyle.Render(fmt.Sprintf("[%d/%d]", index+1, total)),
		step.DisplayName,
		mutedStyle.Render("("+step.EntryID+")"),
	)
}

// StepFinished prints the result line of a terminal step.
func (p *Printer) StepFinished(step chain.Step, index, total int) {
	prefix := fmt.Sprintf("[%d/%d]", index+1, total)
	duration := formatDuration(step.Duration)

	if step.Status == chain.StatusFailed {
		fmt.Fprintf(p.out, "  %s %s %s %s\n",
			failureStyle.Render("✗"), prefix, duration,
			failureStyle.Render(p.truncate(step.Error)),
		)
		return
	}
	fmt.Fprintf(p.out, "  %s %s %s %s\n",
		successStyle.Render("✓"), prefix, duration,
		mutedStyle.Render(p.truncate(compactJSON(step.Output))),
	)
}

// Summary prints the boxed final summary of a run.
func (p *Printer) Summary(run chain.Run) {
	if run.Outcome == nil {
		return
	}
	o := *run.Outcome

	var b strings.Builder
	switch o.Kind {
	case chain.OutcomeSuccess:
		b.WriteString(successStyle.Render("✓ CHAIN COMPLETE"))
	default:
		b.WriteString(failureStyle.Render("✗ CHAIN DEGRADED"))
	}
	b.WriteString("\n")
	b.WriteString(o.Summary())
	b.WriteString("\n")

	for _, s := range run.Steps {
		b.WriteString(fmt.Sprintf("\n%s %-24s %s", statusMark(s.Status), s.DisplayName, formatDuration(s.Duration)))
	}
	b.WriteString(fmt.Sprintf("\n\nTotal: %s", formatDuration(o.TotalDuration)))

	fmt.Fprintln(p.out, boxStyle.Render(b.String()))
}

// PlannedStep is one row of a dry-run plan.
type PlannedStep struct {
	Step       chain.Step
	Action     string
	Registered bool
}

// Plan prints the steps a chain would execute.
func (p *Printer) Plan(steps []PlannedStep) {
	fmt.Fprintln(p.out, titleStyle.Render(fmt.Sprintf("Plan: %d steps", len(steps))))
	for i, ps := range steps {
		action := ps.Action
		if !ps.Registered {
			action = mutedStyle.Render("fallback (simulated)")
		}
		fmt.Fprintf(p.out, "  %d. %-24s %-20s %s\n", i+1, ps.Step.DisplayName, ps.Step.EntryID, action)
	}
}

// Entries prints catalog entries as a table.
func (p *Printer) Entries(entries []catalog.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, mutedStyle.Render("catalog is empty"))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(p.out, "%-20s %-24s %s\n", e.ID, e.Label(), mutedStyle.Render(e.Category))
	}
}

// Entry prints the details of one catalog entry.
func (p *Printer) Entry(e catalog.Entry) {
	fmt.Fprintln(p.out, titleStyle.Render(e.Label()))
	fmt.Fprintf(p.out, "  id:       %s\n", e.ID)
	fmt.Fprintf(p.out, "  category: %s\n", e.Category)
	if e.Description != "" {
		fmt.Fprintf(p.out, "  %s\n", e.Description)
	}
}

// Chains prints the chains of a manifest with their entries.
func (p *Printer) Chains(chains map[string][]string, order []string) {
	for _, name := range order {
		fmt.Fprintf(p.out, "%s %s\n", titleStyle.Render(name), strings.Join(chains[name], " → "))
	}
}

// JSON writes v as indented JSON.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Text writes a plain line.
func (p *Printer) Text(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if p.truncateLength <= 3 || len(runes) <= p.truncateLength {
		return s
	}
	return string(runes[:p.truncateLength-3]) + "..."
}

func statusMark(s chain.Status) string {
	switch s {
	case chain.StatusCompleted:
		return successStyle.Render("✓")
	case chain.StatusFailed:
		return failureStyle.Render("✗")
	}
	return mutedStyle.Render("○")
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

func compactJSON(v any) string {
	if v == nil {
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
