package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/xivlens/pkg/fixture"
)

func newImportCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a YAML or JSON report fixture into the local cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.Load(args[0])
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer a.Close()

			sum, err := f.Import(cmd.Context(), a.store, a.logger)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			out := cmd.OutOrStdout()
			if root.json {
				return printJSON(out, sum)
			}
			fmt.Fprintf(out, "imported %s: %d fights, %d event windows, %d events\n",
				sum.Code, sum.Fights, sum.Windows, sum.Events)
			return nil
		},
	}
}
