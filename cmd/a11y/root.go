package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/a11ydeck/pkg/debug"
	"github.com/vanderheijden86/a11ydeck/pkg/version"
)

// NewRootCmd creates the root command for a11y.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11y",
		Short: "Accessibility audit toolkit for web pages",
		Long: `a11y audits web pages against WCAG and keeps a triage history per page.

The tui command opens the interactive panel: scan the active page, filter
and triage findings, and work through the manual verification checklist.
The scan command runs the same rules headless, for CI and scripting.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				debug.SetEnabled(true)
			}
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging to stderr")

	cmd.AddCommand(NewTuiCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewBridgeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "a11y %s\n", version.Version)
		},
	}
}
