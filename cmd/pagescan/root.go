package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagescan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagescan",
		Short: "Check web pages for a piece of text",
		Long: `pagescan fetches a list of web pages and reports which of them contain a
target string (by default "data-partnerurl").

Each URL is probed with HEAD first. Pages answering 200 are fetched, pages
answering 301 are fetched from their Location, and every other status is
recorded as an error without fetching. Results are written to three files:
with_text.txt, without_text.txt and error_url.txt.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewAPICmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
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
