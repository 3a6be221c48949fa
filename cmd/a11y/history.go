package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/config"
	"github.com/vanderheijden86/a11ydeck/pkg/history"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url-or-site]",
		Short: "Show how a page's audit results moved over time",
		Long: `History compares a page's stored scans: the trend of its issue count,
and what changed between the two most recent scans. Without an argument it
lists the scanned pages instead.

Examples:
  # List scanned pages
  a11y history

  # Trend and latest diff for one page
  a11y history https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := storage.Open(cfg.DatabaseFile())
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		return listScannedPages(cmd, db)
	}

	url := resolveTarget(cfg, args[0])
	scans, err := db.ScanHistory(url)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		return fmt.Errorf("no stored scans for %s", url)
	}

	trend := history.ComputeTrend(scans)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", url)
	fmt.Fprintf(cmd.OutOrStdout(), "  %d scans over %s\n", trend.Scans, history.Span(scans))
	fmt.Fprintf(cmd.OutOrStdout(), "  issues: %d first, %d latest (mean %.1f)\n",
		trend.First, trend.Latest, trend.Mean)
	if trend.Scans > 1 {
		direction := "worsening"
		if trend.Improving {
			direction = "improving"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  slope: %+.2f issues/day (%s)\n", trend.Slope, direction)
		critical := history.SeverityCounts(scans, model.ImpactCritical)
		fmt.Fprintf(cmd.OutOrStdout(), "  critical per scan (oldest first): %v\n", critical)
	}

	// History arrives newest first.
	if len(scans) >= 2 {
		diff := history.Compare(scans[1], scans[0])
		fmt.Fprintf(cmd.OutOrStdout(), "  since previous scan: %d new, %d resolved, %d unchanged\n",
			diff.Summary.NewCount, diff.Summary.ResolvedCount, diff.Summary.ExistingCount)
		for _, issue := range diff.New {
			fmt.Fprintf(cmd.OutOrStdout(), "    + %s %s %s\n", issue.Impact, issue.RuleID, issue.Node.Selector)
		}
		for _, issue := range diff.Resolved {
			fmt.Fprintf(cmd.OutOrStdout(), "    - %s %s %s\n", issue.Impact, issue.RuleID, issue.Node.Selector)
		}
	}
	return nil
}

func listScannedPages(cmd *cobra.Command, db *storage.Store) error {
	urls, err := db.URLs()
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "scan history is empty")
		return nil
	}
	for _, url := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), url)
	}
	return nil
}
