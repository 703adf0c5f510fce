// Package modules is the table of bundled job and boss analyses.
package modules

import (
	"context"

	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/modules/ifrit"
	"github.com/daviddao/xivlens/pkg/modules/war"
	"github.com/daviddao/xivlens/pkg/modules/whm"
)

var (
	jobs = map[string]func() *module.Bundle{
		war.Job: war.Bundle,
		whm.Job: whm.Bundle,
	}
	bosses = map[string]func() *module.Bundle{
		ifrit.Boss:      ifrit.Bundle,
		ifrit.Encounter: ifrit.Bundle,
	}
)

// Available returns a registry holding every bundled job and boss. Bundles
// are built when a run first loads them.
func Available() *module.Registry {
	r := module.NewRegistry()
	for key, build := range jobs {
		mustRegister(r.RegisterJob(key, lazy(build)))
	}
	for key, build := range bosses {
		mustRegister(r.RegisterBoss(key, lazy(build)))
	}
	return r
}

func lazy(build func() *module.Bundle) module.Loader {
	return func(ctx context.Context) (*module.Bundle, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return build(), nil
	}
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}
