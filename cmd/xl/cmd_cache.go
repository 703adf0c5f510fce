package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show cached reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			defer a.Close()

			ctx := cmd.Context()
			reports, err := a.store.ListReports(ctx)
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			events := a.store.CountEvents(ctx)
			out := cmd.OutOrStdout()
			if root.json {
				return printJSON(out, map[string]any{"reports": reports, "events": events})
			}
			if len(reports) == 0 {
				fmt.Fprintln(out, "cache is empty")
				return nil
			}
			for _, r := range reports {
				fmt.Fprintf(out, "%-20s %-30s fights=%-3d windows=%-3d fetched=%s\n",
					r.Code, r.Title, r.Fights, r.Windows, r.FetchedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(out, "%d cached events\n", events)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <code>...",
		Short: "Remove reports and their events from the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("cache rm: %w", err)
			}
			defer a.Close()
			for _, code := range args {
				if err := a.store.DeleteReport(cmd.Context(), code); err != nil {
					return fmt.Errorf("cache rm %s: %w", code, err)
				}
				if !root.json {
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", code)
				}
			}
			if root.json {
				return printJSON(cmd.OutOrStdout(), map[string]any{"removed": args})
			}
			return nil
		},
	})
	return cmd
}
