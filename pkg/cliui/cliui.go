// Package cliui provides reusable terminal UI helpers (spinners, step
// indicators, markdown and table rendering) for dumsor CLI commands.
package cliui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	StepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	DimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	KeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))

	headerStyle  = lipgloss.NewStyle().Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step prints an animated spinner while fn runs, then replaces it with
// a ✓ or ✗ checkmark and elapsed time.
func Step(w io.Writer, msg string, fn func() error) error {
	done := make(chan struct{})
	var mu sync.Mutex

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			mu.Lock()
			fmt.Fprintf(w, "\r  %s %s",
				spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]),
				msg,
			)
			mu.Unlock()

			select {
			case <-done:
				return
			case <-ticker.C:
				frame++
			}
		}
	}()

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)

	mu.Lock()
	fmt.Fprintf(w, "\r  %s %s %s\n",
		Mark(err),
		msg,
		StepStyle.Render(fmt.Sprintf("(%s)", FormatDuration(elapsed))),
	)
	mu.Unlock()

	return err
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// RenderMarkdown renders markdown content for terminal display using glamour.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}

// RenderNarrative renders narrative markdown for terminal display,
// substituting a dim placeholder when the reply carried no text so the
// answer never renders as a blank line.
func RenderNarrative(text string) string {
	if strings.TrimSpace(text) == "" {
		return "  " + DimStyle.Render("(no text)") + "\n"
	}

	rendered, err := RenderMarkdown(text)
	if err != nil {
		return text + "\n"
	}
	return rendered
}

// RenderSQL renders a SQL statement as a fenced code block via glamour.
func RenderSQL(statement string) (string, error) {
	return RenderMarkdown("```sql\n" + statement + "\n```")
}

// RenderTable renders columns and rows as an aligned plain-text table for
// query results.
func RenderTable(columns []string, rows [][]any) string {
	if len(columns) == 0 {
		return ""
	}

	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, columns)
	for _, row := range rows {
		line := make([]string, len(columns))
		for i := range columns {
			if i < len(row) {
				line[i] = fmt.Sprintf("%v", row[i])
			}
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(columns))
	for _, line := range cells {
		for i, cell := range line {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for rowIdx, line := range cells {
		b.WriteString("  ")
		for i, cell := range line {
			padded := fmt.Sprintf("%-*s", widths[i], cell)
			if rowIdx == 0 {
				padded = headerStyle.Render(padded)
			}
			b.WriteString(padded)
			if i < len(line)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")

		if rowIdx == 0 {
			b.WriteString("  ")
			for i := range line {
				b.WriteString(strings.Repeat("─", widths[i]))
				if i < len(line)-1 {
					b.WriteString("  ")
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
