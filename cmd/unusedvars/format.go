package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jward/unusedvars"
)

// relPath shows path relative to base when it lies below it.
func relPath(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// formatReportsText formats reports as "file:line:col: message" lines,
// or "file: message" for findings without a location.
func formatReportsText(w io.Writer, base string, reports []unusedvars.FileReport) {
	for _, r := range reports {
		path := relPath(base, r.Path)
		for _, f := range r.Findings {
			if f.Pos == nil {
				fmt.Fprintf(w, "%s: %s\n", path, f.Message())
				continue
			}
			fmt.Fprintf(w, "%s:%d:%d: %s\n", path, f.Pos.Line, f.Pos.Col, f.Message())
		}
	}
}

// formatFindingsTable formats reports as aligned columns.
func formatFindingsTable(w io.Writer, base string, reports []unusedvars.FileReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tLINE\tCOL\tNAME\tKIND")
	for _, r := range reports {
		path := relPath(base, r.Path)
		for _, f := range r.Findings {
			line, col := "-", "-"
			if f.Pos != nil {
				line, col = fmt.Sprint(f.Pos.Line), fmt.Sprint(f.Pos.Col)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", path, line, col, f.Name, f.Kind)
		}
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on
// the command.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []unusedvars.FileReport:
		if result.Command == "findings" {
			formatFindingsTable(w, result.Base, v)
			if result.Policy != "" {
				fmt.Fprintf(w, "\nAnalyzed with %s\n", result.Policy)
			}
			return nil
		}
		formatReportsText(w, result.Base, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
