package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/dhash"
	"github.com/fwojciec/rulekit/fs"
	"github.com/fwojciec/rulekit/goquery"
	"github.com/fwojciec/rulekit/harvest"
	rkhttp "github.com/fwojciec/rulekit/http"
)

// Run executes the harvest command.
func (c *HarvestCmd) Run(deps *Dependencies) error {
	sources := make([]rulekit.FetchedDocument, 0, len(c.Files))
	for i, file := range c.Files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		sourceURL := "file://" + filepath.ToSlash(file)
		if i < len(c.URL) {
			sourceURL = c.URL[i]
		}
		sources = append(sources, rulekit.FetchedDocument{
			SourceURL: sourceURL,
			Provider:  c.Provider,
			HTML:      string(data),
		})
	}

	engine := &harvest.Engine{
		Profile:     deps.Profile,
		Describer:   goquery.NewDescriber(),
		Audit:       deps.Audit,
		Concurrency: c.Concurrency,
	}
	if c.FetchImages {
		engine.Source = rkhttp.NewSource()
		engine.Hasher = dhash.NewHasher()
		engine.Limiter = harvest.NewHostLimiter(deps.Profile.HostRPS)
	}

	result, err := engine.Harvest(deps.Ctx, sources)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rulekit.ErrorMessage(err))
		return err
	}

	if c.Out != "" {
		if err := fs.NewWriter(c.Out).WriteHarvest(result); err != nil {
			return err
		}
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for _, img := range result.Images {
		fmt.Fprintf(deps.Stdout, "%.3f  %-6s  %s\n", img.FinalScore, img.ConfidenceBand, img.CanonicalURL)
	}
	fmt.Fprintf(deps.Stdout, "\n%d image(s) in %d cluster(s)", len(result.Images), len(result.Clusters))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(deps.Stdout, ", %d source(s) skipped", len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Fprintf(deps.Stderr, "skipped %s: %s\n", s.SourceURL, s.Reason)
		}
	}
	fmt.Fprintln(deps.Stdout)

	return nil
}
