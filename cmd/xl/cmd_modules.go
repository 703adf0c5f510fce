package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/modules"
)

func newModulesCmd(root *rootFlags) *cobra.Command {
	var job, boss string
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List bundled analyses, or the resolved order for a job and boss",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := modules.Available()
			out := cmd.OutOrStdout()

			if job == "" && boss == "" {
				listing := map[string][]string{
					"jobs":   reg.Keys(module.GroupJob),
					"bosses": reg.Keys(module.GroupBoss),
				}
				if root.json {
					return printJSON(out, listing)
				}
				fmt.Fprintf(out, "jobs:   %s\n", strings.Join(listing["jobs"], ", "))
				fmt.Fprintf(out, "bosses: %s\n", strings.Join(listing["bosses"], ", "))
				return nil
			}

			candidates, err := reg.Load(cmd.Context(), job, boss)
			if err != nil {
				return fmt.Errorf("modules: %w", err)
			}
			ordered, err := module.Resolve(candidates)
			if err != nil {
				return fmt.Errorf("modules: %w", err)
			}
			type entry struct {
				ID   string   `json:"id"`
				Deps []string `json:"deps,omitempty"`
			}
			entries := make([]entry, len(ordered))
			for i, d := range ordered {
				entries[i] = entry{ID: d.ID, Deps: d.Deps}
			}
			if root.json {
				return printJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no modules")
				return nil
			}
			for i, e := range entries {
				fmt.Fprintf(out, "%2d. %s", i+1, e.ID)
				if len(e.Deps) > 0 {
					fmt.Fprintf(out, " (needs %s)", strings.Join(e.Deps, ", "))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&job, "job", "", "job abbreviation, e.g. WAR")
	cmd.Flags().StringVar(&boss, "boss", "", "encounter key, e.g. ifrit")
	return cmd
}
