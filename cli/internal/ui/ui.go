// Package ui renders CLI output: status lines, key/value listings, result
// tables and markdown.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Output targets, swapped by tests
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

const markdownWidth = 100

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB800")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D9FF"))
	nullStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D")).Italic(true)

	keyColor = color.New(color.FgCyan, color.Bold)
)

func status(w io.Writer, style lipgloss.Style, mark, format string, args []interface{}) {
	fmt.Fprintln(w, style.Render(mark+" "+fmt.Sprintf(format, args...)))
}

func PrintSuccess(format string, args ...interface{}) {
	status(Stdout, successStyle, "✓", format, args)
}

// PrintError writes to Stderr
func PrintError(format string, args ...interface{}) {
	status(Stderr, errorStyle, "✗", format, args)
}

func PrintWarning(format string, args ...interface{}) {
	status(Stdout, warningStyle, "⚠", format, args)
}

func PrintInfo(format string, args ...interface{}) {
	status(Stdout, infoStyle, "ℹ", format, args)
}

// PrintKeyValue prints an aligned key and value
func PrintKeyValue(key string, value interface{}) {
	keyColor.Fprintf(Stdout, "  %-18s", key+":")
	fmt.Fprintln(Stdout, value)
}

// Null is the cell text for SQL NULL
func Null() string {
	return nullStyle.Render("NULL")
}

// PrintTable renders a result set with a header row
func PrintTable(headers []string, rows [][]string) error {
	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, headers)
	data = append(data, rows...)
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithWriter(Stdout).
		WithData(data).
		Render()
}

// PrintMarkdown renders markdown for the terminal
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(markdownWidth),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := r.Render(content)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(Stdout, out)
	return err
}

// PrintSpinner starts a spinner that is removed when stopped
func PrintSpinner(message string) (*pterm.SpinnerPrinter, error) {
	return pterm.DefaultSpinner.
		WithRemoveWhenDone(true).
		WithWriter(Stderr).
		Start(message)
}
