package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/daviddao/xivlens/pkg/config"
	"github.com/daviddao/xivlens/pkg/fflogs"
	"github.com/daviddao/xivlens/pkg/module"
	"github.com/daviddao/xivlens/pkg/modules"
	"github.com/daviddao/xivlens/pkg/store"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg      config.Config
	store    store.StoreInterface
	cache    *store.Cache
	registry *module.Registry
	logger   *zap.Logger
}

// newApp loads the configuration, opens the database and wires the report
// sources. Creates the .xivlens/ directory if using the default DB path.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	if cfg.DBPath == config.DefaultDB {
		dir := filepath.Dir(config.DefaultDB)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", cfg.DBPath, err)
	}

	a := &app{cfg: cfg, store: s, registry: modules.Available(), logger: logger}
	if cfg.Remote() {
		client, err := fflogs.New(fflogs.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			RPS:     cfg.RPS,
			Logger:  logger,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		a.cache = store.NewCache(s, client, client, logger)
	} else {
		a.cache = store.NewCache(s, nil, nil, logger)
	}
	logger.Debug("app ready", zap.String("db", cfg.DBPath), zap.Bool("remote", cfg.Remote()))
	return a, nil
}

// Close releases the database connection and flushes the logger.
func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
