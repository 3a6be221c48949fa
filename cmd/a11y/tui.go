package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/a11ydeck/internal/session"
	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/channel"
	"github.com/vanderheijden86/a11ydeck/pkg/config"
	"github.com/vanderheijden86/a11ydeck/pkg/coordinator"
	"github.com/vanderheijden86/a11ydeck/pkg/router"
	"github.com/vanderheijden86/a11ydeck/pkg/scanner"
	"github.com/vanderheijden86/a11ydeck/pkg/store"
	"github.com/vanderheijden86/a11ydeck/pkg/ui"
)

// NewTuiCmd creates the tui command.
func NewTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui [url-or-site]",
		Short: "Open the interactive audit panel",
		Long: `Open the triage panel bound to the browser session file.

The session file (one YAML document listing open tabs and the active one)
stands in for the browser: edit it, or pass a URL to seed it with a single
tab. The panel follows the active tab, scans on demand, and persists triage
state per page.

Examples:
  # Follow the existing session file
  a11y tui

  # Audit one page
  a11y tui https://example.com

  # Audit a site registered in config.yaml
  a11y tui staging`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTuiCmd,
	}

	cmd.Flags().StringP("session", "s", "",
		"Session file path (default: <state-dir>/session.yaml)")
	cmd.Flags().String("db", "",
		"Scan history database path (default: per config)")

	return cmd
}

func runTuiCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	sessionPath, err := cmd.Flags().GetString("session")
	if err != nil {
		return err
	}
	if sessionPath == "" {
		dir := config.StateDir()
		if dir == "" {
			return fmt.Errorf("cannot determine state directory; pass --session")
		}
		sessionPath = filepath.Join(dir, "session.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(sessionPath), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	if len(args) == 1 {
		url := resolveTarget(cfg, args[0])
		snap := session.Snapshot{Active: 1, Tabs: []session.Tab{{ID: 1, URL: url}}}
		if err := session.WriteSnapshot(sessionPath, snap); err != nil {
			return err
		}
	}

	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.DatabaseFile()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := session.NewFileSource(sessionPath)
	if err != nil {
		return err
	}

	bus := channel.NewBus()
	pool := newHostPool(src, bus, scanner.NewStaticEngine(), newLoader(cfg))
	rt := router.New(bus, pool)
	st := newStore(bus)

	m := ui.NewModel(st,
		ui.WithHistory(db),
		ui.WithGlamourStyle(cfg.UI.Theme),
	)
	defer m.Close()

	start, stop := m.AnimationHooks()
	coord := coordinator.New(st, bus, pool, coordinator.WithAnimation(start, stop))
	m.SetCoordinator(coord)

	unsub := persistScans(st, db)
	defer unsub()

	pool.Start()
	defer pool.Stop()
	if err := src.Start(); err != nil {
		return err
	}
	defer src.Stop()
	rt.Start()
	defer rt.Stop()
	coord.Start()
	defer coord.Close()

	if cfg.UI.DefaultView == "checklist" {
		st.Dispatch(store.SetViewMode{Mode: store.ViewChecklist})
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}
