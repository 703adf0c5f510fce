// Package common holds the analysis modules every job bundle shares.
package common

import (
	"fmt"

	"github.com/daviddao/xivlens/pkg/module"
)

// Module IDs.
const (
	CastsID    = "casts"
	DowntimeID = "downtime"
	ABCID      = "abc"
)

// Descriptors returns the shared modules in declaration order. Job bundles
// append their own descriptors after these.
func Descriptors() []module.Descriptor {
	return []module.Descriptor{
		{ID: CastsID, New: NewCasts},
		{ID: DowntimeID, New: NewDowntime},
		{ID: ABCID, Deps: []string{CastsID, DowntimeID}, New: NewABC},
	}
}

// FormatMS renders a fight-relative millisecond offset as m:ss.d.
func FormatMS(ms int64) string {
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	return fmt.Sprintf("%s%d:%02d.%d", sign, ms/60000, ms/1000%60, ms%1000/100)
}
