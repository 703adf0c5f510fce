package main

import (
	"github.com/spf13/cobra"
)

const longHelp = `xl analyses one combatant in one fight of an FFLogs report.

Reports and events are fetched from the FFLogs v1 API and cached in a local
SQLite database, so repeated analyses (and offline use, after "xl import")
do not touch the network.

Environment:
  XL_DB            SQLite cache path (default: .xivlens/xivlens.db)
  FFLOGS_API_KEY   FFLogs v1 public key; without it only the cache is used
  FFLOGS_BASE_URL  API root (default: https://www.fflogs.com/v1)
  FFLOGS_RPS       API requests per second (default: 5)
  XL_LOG_LEVEL     debug, info, warn or error (default: info)
  XL_OFFLINE       true to never call the API`

// rootFlags are shared by every subcommand.
type rootFlags struct {
	json bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "xl",
		Short:         "Combat log analysis for FFLogs reports",
		Long:          longHelp,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "JSON output")

	root.AddCommand(
		newAnalyseCmd(flags),
		newFightsCmd(flags),
		newModulesCmd(flags),
		newImportCmd(flags),
		newCacheCmd(flags),
	)
	return root
}
