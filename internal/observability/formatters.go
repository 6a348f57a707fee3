// Package observability provides formatted output utilities for verbose CLI
// mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/mbreukel/BacpacCompatFixer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintReport outputs a human-readable summary of an archive operation.
func (p *Printer) PrintReport(archivePath string, report *types.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Archive:  %s\n", archivePath))
	sb.WriteString(fmt.Sprintf("Changed:  %t\n", report.Changed))
	if report.ModelHash != "" {
		sb.WriteString(fmt.Sprintf("Hash:     %s\n", report.ModelHash))
	}
	if report.BackupPath != "" {
		sb.WriteString(fmt.Sprintf("Backup:   %s\n", report.BackupPath))
	}

	if len(report.Removed) > 0 {
		sb.WriteString("\nRemoved elements:\n")
		count := min(len(report.Removed), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", report.Removed[i]))
		}
		if len(report.Removed) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Removed)-maxItemsToShow))
		}
	}

	p.printBox(report.Message, strings.TrimRight(sb.String(), "\n"))
}
