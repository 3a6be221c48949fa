package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/config"
	"github.com/vanderheijden86/a11ydeck/pkg/content"
	"github.com/vanderheijden86/a11ydeck/pkg/export"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
	"github.com/vanderheijden86/a11ydeck/pkg/scanner"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url-or-site>...",
		Short: "Audit pages headless and print a summary",
		Long: `Scan fetches each page, runs the accessibility rules, and prints a
per-page summary. Results are saved to the scan history database unless
--no-save is given.

Examples:
  # Audit one page
  a11y scan https://example.com

  # Audit several pages concurrently
  a11y scan https://example.com/a https://example.com/b

  # Audit a registered site and fail CI on serious findings
  a11y scan staging --fail-on serious

  # Write JSON and markdown reports next to the summary
  a11y scan https://example.com --json --markdown -o reports/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Write a JSON report per page")
	cmd.Flags().BoolP("markdown", "m", false, "Write a markdown report per page")
	cmd.Flags().StringP("output-dir", "o", ".", "Directory for report files")
	cmd.Flags().Bool("no-save", false, "Skip writing results to the history database")
	cmd.Flags().IntP("concurrency", "c", 4, "Number of pages scanned in parallel")
	cmd.Flags().Duration("timeout", 0, "Per-page fetch timeout (default: per config)")
	cmd.Flags().String("fail-on", "",
		"Exit non-zero when issues at or above this severity are found (critical, serious, moderate, minor)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	if timeout > 0 {
		cfg.Scan.TimeoutSeconds = int(timeout / time.Second)
	}

	failOn, err := failOnImpact(cmd)
	if err != nil {
		return err
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

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	load := newLoader(cfg)
	results := make([]model.ScanResult, len(args))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, arg := range args {
		url := resolveTarget(cfg, arg)
		g.Go(func() error {
			result, err := scanPage(ctx, load, url)
			if err != nil {
				return fmt.Errorf("%s: %w", url, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, result := range results {
		printSummary(cmd, result)
		if db != nil {
			if err := db.SaveScanResult(result); err != nil {
				return fmt.Errorf("saving %s: %w", result.URL, err)
			}
		}
		if err := writeReports(cmd, result); err != nil {
			return err
		}
	}

	if failOn != nil {
		if n := countAtOrAbove(results, *failOn); n > 0 {
			return fmt.Errorf("%d issues at or above %s severity", n, *failOn)
		}
	}
	return nil
}

func scanPage(ctx context.Context, load content.Loader, url string) (model.ScanResult, error) {
	page, err := load(ctx, url)
	if err != nil {
		return model.ScanResult{}, err
	}
	return scanner.New(scanner.NewStaticEngine()).Scan(ctx, page)
}

func printSummary(cmd *cobra.Command, result model.ScanResult) {
	s := result.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d issues (%d critical, %d serious, %d moderate, %d minor)",
		result.URL, s.Total,
		s.BySeverity[model.ImpactCritical], s.BySeverity[model.ImpactSerious],
		s.BySeverity[model.ImpactModerate], s.BySeverity[model.ImpactMinor])
	if n := len(result.IncompleteChecks); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d need manual review", n)
	}
	fmt.Fprintln(cmd.OutOrStdout())
}

func writeReports(cmd *cobra.Command, result model.ScanResult) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if !asJSON && !asMarkdown {
		return nil
	}

	dir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}

	var formats []string
	if asJSON {
		formats = append(formats, "json")
	}
	if asMarkdown {
		formats = append(formats, "markdown")
	}

	w := export.NewWizard(result, nil)
	w.Configure(export.WizardConfig{OutputDir: dir, Formats: formats})
	out, err := w.Export()
	if err != nil {
		return err
	}
	for _, path := range out.Paths {
		fmt.Fprintf(cmd.OutOrStdout(), "  wrote %s\n", path)
	}
	return nil
}

func failOnImpact(cmd *cobra.Command) (*model.Impact, error) {
	raw, err := cmd.Flags().GetString("fail-on")
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	impact := model.Impact(strings.ToLower(raw))
	if !impact.Valid() {
		return nil, fmt.Errorf("unknown severity %q (use critical, serious, moderate, or minor)", raw)
	}
	return &impact, nil
}

func countAtOrAbove(results []model.ScanResult, threshold model.Impact) int {
	n := 0
	for _, result := range results {
		for _, issue := range result.Issues {
			if issue.Impact.Rank() <= threshold.Rank() {
				n++
			}
		}
	}
	return n
}
