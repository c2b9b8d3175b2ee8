package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/extract"
	"github.com/fwojciec/rulekit/fs"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	engine, err := extract.NewEngine(deps.Profile, deps.Audit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rulekit.ErrorMessage(err))
		return err
	}

	result, err := engine.Extract(string(data), c.Lang)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rulekit.ErrorMessage(err))
		return err
	}

	if c.Out != "" {
		if err := fs.NewWriter(c.Out).WriteExtract(result); err != nil {
			return err
		}
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Components) == 0 {
		if !result.Fallback && result.Density > 0 {
			fmt.Fprintf(deps.Stdout, "No components found (quantity-line density %.2f below threshold).\n", result.Density)
		} else {
			fmt.Fprintln(deps.Stdout, "No components found.")
		}
		return nil
	}

	if result.Fallback {
		fmt.Fprintln(deps.Stdout, "No section header found; results from gated whole-document scan.")
	}
	for _, comp := range result.Components {
		fmt.Fprintf(deps.Stdout, "%-8s %s", comp.Count, comp.CanonicalName)
		if len(comp.Breakdown) > 0 {
			fmt.Fprint(deps.Stdout, " (")
			for i, p := range comp.Breakdown {
				if i > 0 {
					fmt.Fprint(deps.Stdout, ", ")
				}
				fmt.Fprintf(deps.Stdout, "%d %s", p.Value, p.Label)
			}
			fmt.Fprint(deps.Stdout, ")")
		}
		if comp.Note != "" {
			fmt.Fprintf(deps.Stdout, "  # %s", comp.Note)
		}
		if comp.ConfidenceReason != "" {
			fmt.Fprintf(deps.Stdout, "  [%s]", comp.ConfidenceReason)
		}
		fmt.Fprintln(deps.Stdout)
	}
	if len(result.DeadLetter) > 0 {
		fmt.Fprintf(deps.Stdout, "\n%d line(s) excluded:\n", len(result.DeadLetter))
		for _, d := range result.DeadLetter {
			fmt.Fprintf(deps.Stdout, "  [%s] %s\n", d.ReasonCode, d.Line)
		}
	}

	return nil
}
