package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/pagescan/internal/bucket"
	"github.com/nao1215/pagescan/internal/classify"
	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/database"
	applog "github.com/nao1215/pagescan/internal/log"
	"github.com/nao1215/pagescan/internal/model"
	"github.com/nao1215/pagescan/internal/pipeline"
	"github.com/nao1215/pagescan/internal/probe"
	"github.com/nao1215/pagescan/internal/report"
	"github.com/nao1215/pagescan/internal/source"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewScanCmd creates the scan command (file variant).
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <file_with_urls> [search_string]",
		Short: "Scan the URLs listed in a file",
		Long: `Scan reads one URL per line from a file (blank lines are ignored) and checks
every page for the search string, "data-partnerurl" unless given.

Results:
  with_text.txt     URLs whose page contains the search string
  without_text.txt  URLs whose page does not contain it
  error_url.txt     "<status or error>: <url>" for URLs that could not be checked

Examples:
  # Look for the default search string
  pagescan scan urls.txt

  # Look for another string, ignoring case
  pagescan scan -i urls.txt "apply now"

  # Write a Markdown report next to the console summary
  pagescan scan -m -o report.md urls.txt

  # Allow more requests in flight and retry 5xx responses twice
  pagescan scan -n 50 --retries 2 urls.txt`,
		Args: cobra.MaximumNArgs(2),
		RunE: runScanCmd,
	}

	addScanFlags(cmd)
	return cmd
}

// NewAPICmd creates the api command (remote directory variant).
func NewAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api [search_string]",
		Short: "Scan the web pages of a remote JSON directory",
		Long: `API downloads a JSON directory listing, collects the "web_pages" array of
every entry and scans the resulting URLs like the scan command.

The listing defaults to the US university list of universities.hipolabs.com.

Examples:
  # Scan the default directory
  pagescan api

  # Use another listing and search string
  pagescan api --url "http://universities.hipolabs.com/search?country=Canada" "apply"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAPICmd,
	}

	addScanFlags(cmd)
	cmd.Flags().String("url", config.DefaultDirectoryURL, "JSON directory listing to scan")
	return cmd
}

// addScanFlags registers the flags shared by scan and api.
func addScanFlags(cmd *cobra.Command) {
	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pagescan in current or home directory)")

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HEAD and GET request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of URLs processed at once")
	cmd.Flags().Int("retries", config.DefaultRetries,
		"Extra attempts for network errors and 5xx responses")
	cmd.Flags().String("proxy", "",
		"Proxy URL (http://, https://, socks5:// or socks5h://)")
	cmd.Flags().BoolP("ignore-case", "i", false,
		"Match the search string ignoring case")

	// Output flags
	cmd.Flags().StringP("output-dir", "d", ".",
		"Directory for with_text.txt, without_text.txt and error_url.txt")
	cmd.Flags().String("label", config.DefaultMatchLabel,
		"Heading of the matched URL listing")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to the specified file (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not store the scan in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	// Logging
	cmd.Flags().String("log-format", config.LogFormatText,
		"Log format: text or json")
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w\nUsage: %s", errMissingFile, cmd.UseLine())
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.SourcePath = args[0]
	if len(args) > 1 && args[1] != "" {
		cfg.Target = args[1]
	}

	return executeScan(cmd, cfg, func(*http.Client, *slog.Logger) source.Source {
		return source.NewFileSource(cfg.SourcePath)
	})
}

// runAPICmd executes the api command.
func runAPICmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("url") {
		if cfg.DirectoryURL, err = cmd.Flags().GetString("url"); err != nil {
			return err
		}
	}
	if len(args) > 0 && args[0] != "" {
		cfg.Target = args[0]
	}

	return executeScan(cmd, cfg, func(client *http.Client, logger *slog.Logger) source.Source {
		return source.NewDirectorySource(cfg.DirectoryURL,
			source.WithHTTPClient(client),
			source.WithLogger(logger),
		)
	})
}

// errMissingFile is returned when scan is called without a URL file.
var errMissingFile = errors.New("missing file with URLs")

// sourceFunc builds the URL source once the HTTP client and logger exist.
type sourceFunc func(client *http.Client, logger *slog.Logger) source.Source

// executeScan validates cfg, sets up logging and signal handling and runs
// the scan.
func executeScan(cmd *cobra.Command, cfg *config.Config, newSource sourceFunc) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := applog.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.LogFormat)
	slog.SetDefault(logger)
	if cfg.ConfigFilePath != "" {
		logger.Debug("loaded configuration file", "path", cfg.ConfigFilePath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := probe.NewTransport(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	s := &scan{
		cfg:    cfg,
		logger: logger,
		client: probe.NewHTTPClient(transport, cfg.Timeout),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}
	s.source = newSource(&http.Client{Transport: transport, Timeout: cfg.Timeout}, logger)

	return s.run(ctx)
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags that were set explicitly, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	path, err := config.Load(cfg, cfg.ConfigFilePath)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ConfigFilePath = path

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retries") {
		if cfg.Retries, err = flags.GetInt("retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ignore-case") {
		if cfg.IgnoreCase, err = flags.GetBool("ignore-case"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("label") {
		if cfg.MatchLabel, err = flags.GetString("label"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// scan holds everything one scan run needs.
type scan struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
	source source.Source
	stdout io.Writer
	stderr io.Writer
}

// run loads the URLs, scans them and writes the bucket files, the history
// record and the report. Per-URL failures never make it return an error.
func (s *scan) run(ctx context.Context) error {
	cfg := s.cfg
	classifier := classify.New(cfg.Target, classify.WithIgnoreCase(cfg.IgnoreCase))
	progress := report.NewProgressPrinter(s.progressOutput(), s.stderr)
	progress.Start(classifier.Target(), s.source.Name())

	urls, err := s.source.Load(ctx)
	if err != nil {
		return err
	}

	files, err := bucket.Create(cfg.OutputDir, bucket.Names{
		Matched:   cfg.MatchedFile,
		Unmatched: cfg.UnmatchedFile,
		Errored:   cfg.ErroredFile,
	})
	if err != nil {
		return err
	}
	defer files.Close()

	scanner := pipeline.NewScanner(s.newProber(), classifier,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithLogger(s.logger),
		pipeline.WithSink(files),
		pipeline.WithProgress(func(p pipeline.Progress) {
			progress.Record(p.Done, p.Total, p.Outcome)
		}),
	)

	result, err := scanner.Run(ctx, urls)
	if err != nil {
		return err
	}
	progress.Finish()

	if cfg.StableOrder {
		if err := files.Rewrite(result.Summary); err != nil {
			return err
		}
	}
	if err := files.Close(); err != nil {
		return fmt.Errorf("failed to close bucket files: %w", err)
	}

	scanReport := result.Report(s.source.Name(), classifier.Target())
	if cfg.SaveToDB {
		s.save(ctx, scanReport)
	}

	return s.outputReport(scanReport)
}

// progressOutput returns where progress lines go. JSON and Markdown
// reports own stdout, so their progress goes to stderr.
func (s *scan) progressOutput() io.Writer {
	if s.cfg.JSONReport || s.cfg.MarkdownReport {
		return s.stderr
	}
	return s.stdout
}

// newProber builds the prober from the configuration.
func (s *scan) newProber() *probe.Prober {
	cfg := s.cfg
	opts := []probe.Option{
		probe.WithHTTPClient(s.client),
		probe.WithTimeout(cfg.Timeout),
		probe.WithUserAgent(cfg.UserAgent),
		probe.WithHeaders(cfg.Headers),
		probe.WithMaxBodySize(cfg.MaxBodySize),
		probe.WithCharsetDecoding(cfg.DecodeCharset),
		probe.WithRetries(cfg.Retries, cfg.RetryInterval),
		probe.WithLogger(s.logger),
	}
	if cfg.Sites != nil {
		sites := cfg.Sites
		opts = append(opts, probe.WithSiteFunc(func(host string) probe.Site {
			site := sites.SiteFor(host)
			return probe.Site{
				Cookie:    site.Cookie,
				Headers:   site.Headers,
				UserAgent: site.UserAgent,
			}
		}))
	}
	return probe.New(opts...)
}

// save stores the report in the history database. Failures are logged
// and never fail the scan.
func (s *scan) save(ctx context.Context, scanReport *model.ScanReport) {
	// The scan may have been interrupted; the record is still worth keeping.
	ctx = context.WithoutCancel(ctx)

	db, err := database.Open(s.cfg.DBDir, database.DefaultOptions())
	if err != nil {
		s.logger.Warn("failed to open history database", "dir", s.cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveScan(ctx, scanReport)
	if err != nil {
		s.logger.Warn("failed to save scan", "error", err)
		return
	}
	scanReport.ID = id
	s.logger.Info("scan saved", "id", id, "db", db.Path())
}

// outputReport writes the report to stdout and, when configured, to the
// report file.
func (s *scan) outputReport(scanReport *model.ScanReport) error {
	writers := []report.Writer{s.newWriter(s.stdout, useColor(s.stdout))}

	if s.cfg.ReportFile != "" {
		dir := filepath.Dir(s.cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list every scanned URL, so the file is owner-only.
		f, err := os.OpenFile(s.cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writers = append(writers, s.newWriter(f, false))
	}

	_, err := report.NewMultiWriter(writers...).Write(scanReport)
	return err
}

// newWriter returns the report writer for the configured format.
func (s *scan) newWriter(w io.Writer, color bool) report.Writer {
	switch {
	case s.cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint())
	case s.cfg.MarkdownReport:
		return report.NewMarkdownWriter(w, s.cfg.MatchLabel)
	default:
		return report.NewSimpleWriter(w,
			report.WithWarningWriter(s.stderr),
			report.WithMatchLabel(s.cfg.MatchLabel),
			report.WithColor(color),
		)
	}
}

// useColor reports whether w is a terminal that accepts ANSI colours.
func useColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
