package main

import (
	"fmt"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/yaml"
)

// Run executes the profile command.
func (c *ProfileCmd) Run(deps *Dependencies) error {
	profile, err := yaml.Load(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "invalid: %s\n", rulekit.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "ok: version %s, %d language(s), %d label(s)\n",
		profile.Version, len(profile.SectionHeaders), len(profile.Labels))
	return nil
}
