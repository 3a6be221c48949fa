package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/a11ydeck/internal/bridge"
	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/config"
	"github.com/vanderheijden86/a11ydeck/pkg/coordinator"
	"github.com/vanderheijden86/a11ydeck/pkg/router"
	"github.com/vanderheijden86/a11ydeck/pkg/scanner"
	"github.com/vanderheijden86/a11ydeck/pkg/tabs"
)

// NewBridgeCmd creates the bridge command.
func NewBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve the local HTTP bridge API (experimental)",
		Long: `Bridge runs the audit pipeline behind a local HTTP API so external
tooling can push tab events, trigger scans, and read results.

The bridge is experimental and off by default; enable it in config.yaml:

  experimental:
    bridge_server: true`,
		Args: cobra.NoArgs,
		RunE: runBridgeCmd,
	}

	cmd.Flags().StringP("addr", "a", "127.0.0.1:8766", "Listen address")
	cmd.Flags().Bool("no-save", false, "Skip writing results to the history database")

	return cmd
}

func runBridgeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Experimental.BridgeServer == nil || !*cfg.Experimental.BridgeServer {
		return fmt.Errorf("bridge server is disabled; set experimental.bridge_server: true in %s",
			config.ConfigPath())
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	var db *storage.Store
	if !noSave {
		dbPath := cfg.DatabaseFile()
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		db, err = storage.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	bus := channel.NewBus()
	src := tabs.NewMemorySource()
	pool := newHostPool(src, bus, scanner.NewStaticEngine(), newLoader(cfg))
	rt := router.New(bus, pool)
	st := newStore(bus)
	coord := coordinator.New(st, bus, pool)

	if db != nil {
		unsub := persistScans(st, db)
		defer unsub()
	}

	pool.Start()
	defer pool.Stop()
	rt.Start()
	defer rt.Stop()
	coord.Start()
	defer coord.Close()

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}

	srv := bridge.New(st, coord, src, db)
	fmt.Fprintf(cmd.OutOrStdout(), "bridge listening on %s\n", addr)
	return srv.ListenAndServe(addr)
}
