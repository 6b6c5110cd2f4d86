package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/Pistonite/magoo/internal/branding"
	"github.com/Pistonite/magoo/internal/engine"
	"github.com/Pistonite/magoo/internal/state"
)

// reportEntry is the structured form of one submodule's result, consumable
// by scripts via --format yaml|json.
type reportEntry struct {
	Name    string   `json:"name" yaml:"name"`
	Path    string   `json:"path" yaml:"path"`
	Status  string   `json:"status" yaml:"status"`
	Commit  string   `json:"commit,omitempty" yaml:"commit,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func toEntries(report engine.Report) []reportEntry {
	entries := make([]reportEntry, 0, len(report.Results))
	for _, res := range report.Results {
		entry := reportEntry{
			Name:   res.Name,
			Path:   res.Path,
			Status: res.Status.String(),
			Commit: res.Head,
		}
		for _, a := range res.Actions {
			entry.Actions = append(entry.Actions, a.String())
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		entries = append(entries, entry)
	}
	return entries
}

// renderReport writes the report in the format selected by --format.
func renderReport(w io.Writer, report engine.Report) error {
	switch rootFormat {
	case "yaml":
		return yaml.NewEncoder(w).Encode(toEntries(report))
	case "json":
		out, err := json.MarshalIndent(toEntries(report), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	case "text", "":
		renderText(w, report)
		return nil
	}
	return fmt.Errorf("unknown format %q (expected text, yaml, or json)", rootFormat)
}

func renderText(w io.Writer, report engine.Report) {
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No submodules found")
		return
	}
	for _, res := range report.Results {
		name := res.Name
		if name == "" {
			name = "<unnamed>"
		}

		marker := "✓"
		switch {
		case res.Err != nil:
			marker = "✗"
		case res.Status == state.StatusDirty || res.Status == state.StatusBehind:
			marker = "!"
		case res.Status == state.StatusOrphaned || res.Status == state.StatusInconsistent:
			marker = "!"
		case res.Status == state.StatusUninitialized || res.Status == state.StatusNotCloned:
			marker = "-"
		}

		fmt.Fprintf(w, "%s %-20s %-14s", marker, name, res.Status)
		if res.Head != "" {
			fmt.Fprintf(w, " at %s", shortSHA(res.Head))
			if res.Describe != "" {
				fmt.Fprintf(w, " (%s)", res.Describe)
			}
		}
		if res.Path != "" {
			fmt.Fprintf(w, " %q", res.Path)
		}
		fmt.Fprintln(w)

		switch {
		case res.Status == state.StatusBehind && res.Index != "":
			fmt.Fprintf(w, "    index records %s; run `%s install` to revert, or `git add %s` to accept\n", shortSHA(res.Index), branding.CLIName(), res.Path)
		case res.Status == state.StatusUninitialized || res.Status == state.StatusNotCloned:
			fmt.Fprintf(w, "    run `%s install` to initialize\n", branding.CLIName())
		case res.Status == state.StatusOrphaned || res.Status == state.StatusInconsistent:
			fmt.Fprintf(w, "    run `%s status --fix` to clean up\n", branding.CLIName())
		}
		if len(res.Actions) > 0 {
			fmt.Fprintf(w, "    applied: %s\n", strings.Join(actionNames(res.Actions), ", "))
		}
		if res.Err != nil {
			fmt.Fprintf(w, "    error: %v\n", res.Err)
		}
	}
}

func actionNames(kinds []engine.ActionKind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// finishReport renders the report and converts per-submodule failures into
// a process-level error so the exit code reflects them.
func finishReport(w io.Writer, report engine.Report) error {
	if err := renderReport(w, report); err != nil {
		return err
	}
	failed := 0
	for _, res := range report.Results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d submodule(s) reported errors", failed)
	}
	return nil
}
