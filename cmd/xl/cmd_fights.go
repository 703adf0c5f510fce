package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daviddao/xivlens/pkg/model"
	"github.com/daviddao/xivlens/pkg/modules/common"
)

func newFightsCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fights <code>",
		Short: "List a report's fights and friendly combatants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("fights: %w", err)
			}
			defer a.Close()

			r, err := a.cache.Report(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fights: %w", err)
			}
			out := cmd.OutOrStdout()
			if root.json {
				return printJSON(out, r)
			}
			writeFights(out, r)
			return nil
		},
	}
}

func writeFights(out io.Writer, r *model.Report) {
	title := r.Title
	if title == "" {
		title = r.Code
	}
	fmt.Fprintf(out, "%s", title)
	if r.Loading {
		fmt.Fprint(out, " (still loading)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "fights:")
	for _, f := range r.Fights {
		outcome := "wipe"
		if f.Kill {
			outcome = "kill"
		}
		fmt.Fprintf(out, "  %-4d %-24s boss=%-10s %s  %s\n",
			f.ID, f.Name, f.Boss, common.FormatMS(f.Duration()), outcome)
	}

	fmt.Fprintln(out, "friendlies:")
	for _, c := range r.Friendlies {
		ids := make([]string, len(c.Fights))
		for i, ref := range c.Fights {
			ids[i] = strconv.Itoa(ref.ID)
		}
		fmt.Fprintf(out, "  %-4d %-24s %-4s fights=%s\n", c.ID, c.Name, c.Type, strings.Join(ids, ","))
	}
}
