package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/a11ydeck/internal/storage"
	"github.com/vanderheijden86/a11ydeck/pkg/config"
	"github.com/vanderheijden86/a11ydeck/pkg/export"
	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [url-or-site]",
		Short: "Export the latest scan of a page",
		Long: `Export writes the most recent stored scan of a page as a shareable
report. Without flags it runs the interactive wizard; with --format it
exports directly.

With no argument the most recently scanned page is exported.

Examples:
  # Interactive wizard for the last scanned page
  a11y export

  # Straight to files, no prompts
  a11y export https://example.com --format json,markdown -o reports/`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExportCmd,
	}

	cmd.Flags().StringSliceP("format", "f", nil,
		"Formats to write (json, markdown, svg, png); skips the wizard")
	cmd.Flags().StringP("output-dir", "o", ".", "Directory for report files")
	cmd.Flags().Bool("checklist", true, "Include manual checklist progress when available")
	cmd.Flags().Bool("copy", false, "Also copy the JSON document to the clipboard")
	cmd.Flags().String("title", "", "Title for severity charts")

	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := storage.Open(cfg.DatabaseFile())
	if err != nil {
		return err
	}
	defer db.Close()

	url, err := exportURL(cfg, db, args)
	if err != nil {
		return err
	}

	scan, err := db.LatestScan(url)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no stored scan for %s; run 'a11y scan %s' first", url, url)
		}
		return err
	}

	var checklist *model.ManualChecklist
	includeChecklist, err := cmd.Flags().GetBool("checklist")
	if err != nil {
		return err
	}
	if includeChecklist {
		if cl, err := db.LatestChecklist(url); err == nil {
			checklist = &cl
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}

	w := export.NewWizard(scan, checklist)

	formats, err := cmd.Flags().GetStringSlice("format")
	if err != nil {
		return err
	}

	var result *export.WizardResult
	if len(formats) == 0 {
		result, err = w.Run()
	} else {
		dir, ferr := cmd.Flags().GetString("output-dir")
		if ferr != nil {
			return ferr
		}
		copyJSON, ferr := cmd.Flags().GetBool("copy")
		if ferr != nil {
			return ferr
		}
		title, ferr := cmd.Flags().GetString("title")
		if ferr != nil {
			return ferr
		}
		w.Configure(export.WizardConfig{
			OutputDir:        dir,
			Formats:          formats,
			IncludeChecklist: checklist != nil,
			CopyJSON:         copyJSON,
			ChartTitle:       title,
		})
		result, err = w.Export()
	}
	if err != nil {
		return err
	}

	for _, path := range result.Paths {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	if result.CopiedToClipboard {
		fmt.Fprintln(cmd.OutOrStdout(), "copied JSON document to clipboard")
	}
	return nil
}

// exportURL resolves which page to export: the argument when given,
// otherwise the most recently scanned URL.
func exportURL(cfg config.Config, db *storage.Store, args []string) (string, error) {
	if len(args) == 1 {
		return resolveTarget(cfg, args[0]), nil
	}
	urls, err := db.URLs()
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("scan history is empty; run 'a11y scan <url>' first")
	}
	return urls[0], nil
}
