// Package main provides the entry point for the a11y CLI.
//
// a11y audits web pages for accessibility problems. The panel command runs
// the interactive triage TUI; scan runs headless audits suitable for CI.
//
// Usage:
//
//	a11y tui [url]
//	a11y scan <url>...
//
// See --help for all available options.
package main

// main is the entry point for a11y.
func main() {
	Execute()
}
