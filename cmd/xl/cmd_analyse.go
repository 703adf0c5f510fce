package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/xivlens/pkg/analysis"
	"github.com/daviddao/xivlens/pkg/model"
)

func newAnalyseCmd(root *rootFlags) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:     "analyse <code> <fight> <combatant> | analyse <url>",
		Aliases: []string{"analyze"},
		Short:   "Analyse one combatant in one fight",
		Args:    cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parseSelection(args)
			if err != nil {
				return fmt.Errorf("analyse: %w", err)
			}
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("analyse: %w", err)
			}
			defer a.Close()
			return a.runAnalyse(cmd, sel, wait, root.json)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 0, "how long to wait for a report that is still loading")
	return cmd
}

// analyseOutput is the --json shape of an analysis.
type analyseOutput struct {
	RunID     string           `json:"run_id"`
	Selection model.Selection  `json:"selection"`
	Fight     *model.Fight     `json:"fight"`
	Combatant *model.Combatant `json:"combatant"`
	Modules   []string         `json:"modules"`
	Results   []model.Result   `json:"results"`
}

func (a *app) runAnalyse(cmd *cobra.Command, sel model.Selection, wait time.Duration, jsonOut bool) error {
	ctx := cmd.Context()
	run, err := analysis.NewRun(sel, analysis.Config{
		Reports:  a.cache,
		Events:   a.cache,
		Registry: a.registry,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}

	err = run.Execute(ctx)
	if errors.Is(err, analysis.ErrReportPending) && wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		_, err = analysis.AwaitReport(waitCtx, a.cache, sel.Code, 0)
		cancel()
		if err == nil {
			err = run.Execute(ctx)
		}
	}
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}

	results, err := run.Results()
	if err != nil {
		return fmt.Errorf("analyse: %w", err)
	}
	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, analyseOutput{
			RunID:     run.ID.String(),
			Selection: sel,
			Fight:     run.Fight(),
			Combatant: run.Combatant(),
			Modules:   run.Modules(),
			Results:   results,
		})
	}

	f, c := run.Fight(), run.Combatant()
	fmt.Fprintf(out, "%s (%s) in fight %d: %s\n", c.Name, c.Type, f.ID, f.Name)
	if len(run.Modules()) == 0 {
		fmt.Fprintln(out, "no analysis modules apply to this job and encounter")
		return nil
	}
	fmt.Fprintf(out, "modules: %s\n", strings.Join(run.Modules(), ", "))
	for _, r := range results {
		fmt.Fprintf(out, "\n== %s [%s]\n", r.Name, r.Module)
		writeContent(out, r.Content)
	}
	return nil
}

// writeContent renders a result body. Content that knows how to print itself
// does so; anything else is shown as JSON.
func writeContent(w io.Writer, content any) {
	if s, ok := content.(fmt.Stringer); ok {
		fmt.Fprintln(w, s.String())
		return
	}
	data, err := json.Marshal(content)
	if err != nil {
		fmt.Fprintf(w, "%v\n", content)
		return
	}
	fmt.Fprintln(w, string(data))
}
