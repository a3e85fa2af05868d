package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// statusf prints informational output to stdout unless --quiet is set.
// Command results (tables, JSON) are printed unconditionally; statusf is
// for progress-style messages only.
func statusf(format string, args ...any) {
	if flagQuiet {
		return
	}

	fmt.Printf(format, args...)
}

// progressEnabled reports whether per-item progress output makes sense:
// only when stdout is a terminal and --quiet is off. Piped output gets the
// final summary line only.
func progressEnabled() bool {
	if flagQuiet {
		return false
	}

	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// formatSize renders a byte count in human-readable form (B, KiB, MiB, ...).
func formatSize(size int64) string {
	const unit = 1024

	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// formatTime renders a timestamp for table output. Zero times render as "-".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Local().Format("2006-01-02 15:04")
}

// printTable writes rows in aligned columns. Column widths are computed from
// the widest cell, headers included.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))

	for i, cell := range cells {
		if i == len(cells)-1 {
			// Last column is not padded.
			parts[i] = cell
			continue
		}

		parts[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}

	fmt.Fprintln(w, strings.Join(parts, "  "))
}
