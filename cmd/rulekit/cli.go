package main

import (
	"context"
	"io"

	"github.com/fwojciec/rulekit"
)

// Dependencies holds shared services and configuration for command
// execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Profile *rulekit.GameProfile
	Audit   rulekit.AuditSink
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Extract ExtractCmd `cmd:"" help:"Extract a component list from rulebook text"`
	Harvest HarvestCmd `cmd:"" help:"Harvest candidate component images from fetched HTML"`
	Profile ProfileCmd `cmd:"" help:"Validate a game profile document"`

	ProfilePath string `name:"profile" short:"p" help:"Game profile YAML path (defaults to the built-in profile)"`
	Verbose     bool   `short:"v" help:"Log one reason-coded record per accept/drop decision"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	File string `arg:"" help:"Rulebook text file"`
	Lang string `help:"Language hint (en, fr, de, es)"`
	JSON bool   `help:"Emit JSON instead of a table"`
	Out  string `short:"o" help:"Also write JSON reports to this directory"`
}

// HarvestCmd is the "harvest" subcommand.
type HarvestCmd struct {
	Files       []string `arg:"" help:"Fetched HTML files"`
	URL         []string `help:"Source URL per file, in argument order (repeatable)"`
	Provider    string   `default:"publisher" help:"Provider label for trust weighting"`
	FetchImages bool     `help:"Load image bytes over HTTP to enable perceptual dedupe"`
	Concurrency int      `short:"c" default:"4" help:"Concurrent source limit"`
	JSON        bool     `help:"Emit JSON instead of a table"`
	Out         string   `short:"o" help:"Also write JSON reports to this directory"`
}

// ProfileCmd is the "profile" subcommand.
type ProfileCmd struct {
	File string `arg:"" help:"Profile YAML file to validate"`
}
