// Command xl analyses one combatant's performance in one fight of an FFLogs
// report.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xl: %v\n", err)
		os.Exit(1)
	}
}
