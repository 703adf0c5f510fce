package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/daviddao/xivlens/pkg/model"
)

// parseSelection accepts either three tokens (code, fight, combatant) or a
// single URL of the form
//
//	.../analyse/<code>/<fight>/<combatant>
//	https://www.fflogs.com/reports/<code>#fight=<fight>&source=<combatant>
//
// Tokens are passed through untouched; validation happens in the run.
func parseSelection(args []string) (model.Selection, error) {
	switch len(args) {
	case 3:
		return model.Selection{Code: args[0], Fight: args[1], Combatant: args[2]}, nil
	case 1:
		return parseSelectionURL(args[0])
	default:
		return model.Selection{}, fmt.Errorf("want <code> <fight> <combatant> or a report URL, got %d arguments", len(args))
	}
}

func parseSelectionURL(raw string) (model.Selection, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return model.Selection{}, fmt.Errorf("parse url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		switch p {
		case "analyse":
			if len(parts) == i+4 {
				return model.Selection{Code: parts[i+1], Fight: parts[i+2], Combatant: parts[i+3]}, nil
			}
		case "reports":
			if len(parts) == i+2 {
				frag, err := url.ParseQuery(u.Fragment)
				if err != nil {
					return model.Selection{}, fmt.Errorf("parse url fragment: %w", err)
				}
				return model.Selection{Code: parts[i+1], Fight: frag.Get("fight"), Combatant: frag.Get("source")}, nil
			}
		}
	}
	return model.Selection{}, fmt.Errorf("unrecognised report url %q", raw)
}
