package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/database"
	"github.com/nao1215/pagescan/internal/report"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of scans listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored scans or show one of them",
		Long: `History lists the scans stored in the history database, newest first.

Every completed scan is stored unless it was run with --no-save.

Examples:
  # List the 20 most recent scans
  pagescan history

  # List every scan
  pagescan history --limit 0

  # Show the full report of scan 3
  pagescan history --show 3

  # Show scan 3 as Markdown
  pagescan history --show 3 --markdown`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("show", 0, "Show the report of the scan with this ID")
	cmd.Flags().Int("limit", defaultHistoryLimit, "Maximum number of scans to list (0 for all)")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output in Markdown format")
	addDBDirFlag(cmd)

	return cmd
}

// addDBDirFlag registers --db-dir on the commands that read the history database.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
}

// openDB opens the history database selected by --db-dir.
func openDB(cmd *cobra.Command) (*database.ScanDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	showID, err := flags.GetInt64("show")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	db, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if showID > 0 {
		return showScan(ctx, db, out, showID, jsonOutput, markdownOutput)
	}
	return listScans(ctx, db, out, limit, jsonOutput)
}

// showScan writes the stored report of one scan.
func showScan(ctx context.Context, db *database.ScanDB, out io.Writer, id int64, jsonOutput, markdownOutput bool) error {
	scanReport, err := db.GetScan(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get scan with ID %d: %w", id, err)
	}
	if scanReport == nil {
		return fmt.Errorf("scan with ID %d not found", id)
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out, config.DefaultMatchLabel)
	default:
		w = report.NewSimpleWriter(out, report.WithWarningWriter(out))
	}
	_, err = w.Write(scanReport)
	return err
}

// listScans writes the scan list as a table or JSON.
func listScans(ctx context.Context, db *database.ScanDB, out io.Writer, limit int, jsonOutput bool) error {
	scans, err := db.ListScans(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}

	if jsonOutput {
		if scans == nil {
			scans = []database.ScanSummary{}
		}
		_, err := report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(scans)
		return err
	}

	if len(scans) == 0 {
		fmt.Fprintln(out, "No scans found in the database.")
		fmt.Fprintln(out, "\nUse 'pagescan scan <file>' to run a scan.")
		return nil
	}

	fmt.Fprintf(out, "Stored scans (%d):\n\n", len(scans))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-8s  %-8s  %s\n", "ID", "Date", "Matched", "Without", "Errored", "Source")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))
	for _, s := range scans {
		source := s.Source
		if s.IntegrityError != "" {
			source += " (integrity fault)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-8d  %-8d  %s\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.Matched,
			s.Unmatched,
			s.Errored,
			source,
		)
	}

	fmt.Fprintln(out, "\nUse 'pagescan history --show <id>' to see a full report.")
	return nil
}
