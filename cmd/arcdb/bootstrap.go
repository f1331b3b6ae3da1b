package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chocapikk/arcdb/catalog"
	"github.com/chocapikk/arcdb/exec"
	"github.com/chocapikk/arcdb/internal/config"
	"github.com/chocapikk/arcdb/internal/dblog"
	"github.com/chocapikk/arcdb/storage/buffer"
	"github.com/chocapikk/arcdb/storage/disk"
	"github.com/chocapikk/arcdb/storage/wal"
)

// engineHandle bundles the engine with the catalog and paths every
// subcommand needs for its own lifecycle (REPL and serve save the
// catalog on exit).
type engineHandle struct {
	Engine      *exec.Engine
	Catalog     *catalog.Catalog
	CatalogPath string
	ListenAddr  string
}

// bootstrap loads config, wires storage, and replays the WAL against
// it, matching NewEngine's contract that Recover runs before any
// statement is served against a pre-existing data directory.
func bootstrap(cmd *cobra.Command) (*engineHandle, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level == "" {
		lc := cfg.DBLogConfig()
		if jsonOut, _ := cmd.Flags().GetBool("log-json"); jsonOut {
			lc.JSONOutput = true
		}
		dblog.Init(lc)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	d := disk.New(cfg.DataDir)
	bpm := buffer.New(cfg.BufferPoolFrames, d)
	w := wal.New()

	engine := exec.NewEngine(cat, d, bpm, w)
	if err := engine.Recover(cfg.WALPath); err != nil {
		return nil, err
	}

	return &engineHandle{Engine: engine, Catalog: cat, CatalogPath: cfg.CatalogPath, ListenAddr: cfg.ListenAddr}, nil
}
