package main

import (
	"fmt"
	"io"
	"strings"

	"photomigrate/internal/format"
	"photomigrate/internal/migrate"
)

func writePlain(w io.Writer, layout string, args ...any) error {
	_, err := fmt.Fprintf(w, layout, args...)
	return err
}

func writeSummary(w io.Writer, outputName string, summary migrate.Summary) error {
	formatter, err := format.ForName(outputName)
	if err != nil {
		return err
	}
	if formatter != nil {
		return formatter.Write(w, summary)
	}
	return writePlain(w, "%s\n", strings.Join(summaryLines(summary), "\n"))
}

func summaryLines(summary migrate.Summary) []string {
	lines := []string{
		fmt.Sprintf("fetched: %d", summary.Fetched),
		fmt.Sprintf("succeeded: %d", summary.Succeeded),
		fmt.Sprintf("skipped: %d", summary.Skipped),
		fmt.Sprintf("failed: %d", summary.Failed),
	}
	if summary.DryRun {
		lines = append(lines, fmt.Sprintf("planned: %d", summary.Planned))
	}
	if remaining := summary.Fetched - summary.Processed(); remaining > 0 {
		lines = append(lines, fmt.Sprintf("not processed: %d", remaining))
	}

	if failures := summary.Failures(); len(failures) > 0 {
		lines = append(lines, "failures:")
		for _, res := range failures {
			lines = append(lines, fmt.Sprintf("  - %s [%s]: %s", res.RecordID, res.Stage, res.Reason))
		}
	}
	if len(summary.Orphaned) > 0 {
		lines = append(lines, "orphaned blobs:")
		for _, key := range summary.Orphaned {
			lines = append(lines, fmt.Sprintf("  - %s", key))
		}
	}
	return lines
}
