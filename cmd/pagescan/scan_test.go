package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/pagescan/internal/classify"
	"github.com/nao1215/pagescan/internal/config"
	"github.com/nao1215/pagescan/internal/model"
	"github.com/nao1215/pagescan/internal/pipeline"
	"github.com/nao1215/pagescan/internal/probe"
	"github.com/nao1215/pagescan/internal/report"
	"github.com/nao1215/pagescan/internal/source"
)

// newSiteServer serves one page per bucket: /match contains the default
// target, /plain does not, /missing is 404 and /moved redirects to /match.
func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/match", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Apply</title></head><body><div data-partnerurl="x"></div></body></html>`))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/match", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/directory", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]source.DirectoryEntry{
			{Name: "First", WebPages: []string{base + "/match"}},
			{Name: "Second", WebPages: []string{base + "/plain", base + "/missing"}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeURLFile writes urls, one per line, with a blank line in between.
func writeURLFile(t *testing.T, path string, urls ...string) {
	t.Helper()
	content := strings.Join(urls, "\n\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write URL file: %v", err)
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test file in t.TempDir
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func equalLines(t *testing.T, name string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d lines %q, want %q", name, len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s line %d: got %q, want %q", name, i, got[i], want[i])
		}
	}
}

func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has shared flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"config", "timeout", "concurrency", "retries", "proxy", "ignore-case",
			"output-dir", "label", "json", "markdown", "output", "no-save", "db-dir", "log-format",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("concurrency defaults to twenty", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("concurrency")
		if flag == nil {
			t.Fatal("expected concurrency flag")
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default 20, got %q", flag.DefValue)
		}
	})

	t.Run("api command has url flag", func(t *testing.T) {
		t.Parallel()
		flag := NewAPICmd().Flags().Lookup("url")
		if flag == nil {
			t.Fatal("expected url flag")
		}
		if flag.DefValue != config.DefaultDirectoryURL {
			t.Errorf("expected default %q, got %q", config.DefaultDirectoryURL, flag.DefValue)
		}
	})
}

func TestRunScanCmd(t *testing.T) {
	srv := newSiteServer(t)

	t.Run("missing file prints the usage line", func(t *testing.T) {
		_, _, err := execute(t, "scan")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "Usage: ") {
			t.Errorf("expected usage in error, got %v", err)
		}
	})

	t.Run("unreadable file fails before scanning", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := execute(t, "scan", "--no-save", "-d", dir, filepath.Join(dir, "absent.txt"))
		if !errors.Is(err, source.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(dir, config.DefaultMatchedFile)); !os.IsNotExist(statErr) {
			t.Error("expected no bucket files to be created")
		}
	})

	t.Run("conflicting report formats are rejected", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "urls.txt")
		writeURLFile(t, file, srv.URL+"/match")

		_, _, err := execute(t, "scan", "--no-save", "-j", "-m", "-d", dir, file)
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Fatalf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("every URL lands in exactly one bucket file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "urls.txt")
		writeURLFile(t, file,
			srv.URL+"/match",
			srv.URL+"/plain",
			srv.URL+"/missing",
			srv.URL+"/moved",
		)

		stdout, stderr, err := execute(t, "scan", "--no-save", "-d", dir, file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, want := range []string{
			"Scanning for: data-partnerurl in " + file,
			"All URLs have been processed.",
			"URLs with data-partnerurl: 2",
			"URLs without data-partnerurl: 1",
			"URLs with Error: 1",
			"Total URLs scanned: 4",
			"URLs with EAB Form:",
			"✅ " + srv.URL + "/moved",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected stdout to contain %q, got:\n%s", want, stdout)
			}
		}
		if !strings.Contains(stderr, srv.URL+"/missing") {
			t.Errorf("expected errored URL on stderr, got %q", stderr)
		}
		if strings.Contains(stderr, "Please report this as a bug") {
			t.Errorf("unexpected integrity warning: %q", stderr)
		}

		equalLines(t, "matched", readLines(t, filepath.Join(dir, config.DefaultMatchedFile)),
			[]string{srv.URL + "/match", srv.URL + "/moved"})
		equalLines(t, "unmatched", readLines(t, filepath.Join(dir, config.DefaultUnmatchedFile)),
			[]string{srv.URL + "/plain"})
		equalLines(t, "errored", readLines(t, filepath.Join(dir, config.DefaultErroredFile)),
			[]string{"404: " + srv.URL + "/missing"})
	})

	t.Run("target argument and config file are honored", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "urls.txt")
		writeURLFile(t, file, srv.URL+"/match", srv.URL+"/plain")

		cfgPath := filepath.Join(dir, "pagescan.yaml")
		cfgData := "matchLabel: Partner Form\nfiles:\n  matched: hits.txt\n"
		if err := os.WriteFile(cfgPath, []byte(cfgData), 0600); err != nil {
			t.Fatal(err)
		}

		stdout, _, err := execute(t, "scan", "--no-save", "-c", cfgPath, "-d", dir, file, "NOTHING")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "URLs with NOTHING: 0") {
			t.Errorf("expected custom target in summary, got:\n%s", stdout)
		}
		if !strings.Contains(stdout, "URLs with Partner Form:") {
			t.Errorf("expected label from config file, got:\n%s", stdout)
		}
		if _, err := os.Stat(filepath.Join(dir, "hits.txt")); err != nil {
			t.Errorf("expected bucket file named by config: %v", err)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "urls.txt")
		writeURLFile(t, file, srv.URL+"/match")

		_, _, err := execute(t, "scan", "--no-save", "-c", filepath.Join(dir, "absent.yaml"), "-d", dir, file)
		if err == nil || !strings.Contains(err.Error(), "configuration file not found") {
			t.Fatalf("expected configuration file error, got %v", err)
		}
	})

	t.Run("json report is written to the output file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "urls.txt")
		writeURLFile(t, file, srv.URL+"/match", srv.URL+"/missing")
		reportPath := filepath.Join(dir, "reports", "scan.json")

		stdout, stderr, err := execute(t, "scan", "--no-save", "-j", "-o", reportPath, "-d", dir, file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var onStdout model.ScanReport
		if err := json.Unmarshal([]byte(stdout), &onStdout); err != nil {
			t.Fatalf("stdout is not a single JSON document: %v\n%s", err, stdout)
		}
		if onStdout.Submitted != 2 {
			t.Errorf("expected 2 submitted URLs on stdout, got %d", onStdout.Submitted)
		}
		for _, want := range []string{"Scanning for: data-partnerurl", "All URLs have been processed."} {
			if !strings.Contains(stderr, want) {
				t.Errorf("expected progress %q on stderr, got:\n%s", want, stderr)
			}
		}

		data, err := os.ReadFile(reportPath) //nolint:gosec // test file in t.TempDir
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var got model.ScanReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON report: %v", err)
		}
		if got.Submitted != 2 || len(got.Matched) != 1 || len(got.Errored) != 1 {
			t.Errorf("unexpected report: %+v", got)
		}
		if got.Errored[0].Detail != "404" {
			t.Errorf("expected errored detail 404, got %q", got.Errored[0].Detail)
		}
	})

	t.Run("markdown report", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "urls.txt")
		writeURLFile(t, file, srv.URL+"/match")

		stdout, _, err := execute(t, "scan", "--no-save", "-m", "-d", dir, file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "# Page Scan Report") || strings.Contains(stdout, "Scanning for:") {
			t.Errorf("expected stdout to hold only the Markdown report, got:\n%s", stdout)
		}
	})

	t.Run("api command scans the directory listing", func(t *testing.T) {
		dir := t.TempDir()

		stdout, _, err := execute(t, "api", "--no-save", "--url", srv.URL+"/directory", "-d", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"URLs with data-partnerurl: 1",
			"URLs without data-partnerurl: 1",
			"URLs with Error: 1",
			"Total URLs scanned: 3",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected stdout to contain %q, got:\n%s", want, stdout)
			}
		}
	})
}

func TestHistoryAndCompare(t *testing.T) {
	srv := newSiteServer(t)
	dir := t.TempDir()
	dbDir := filepath.Join(dir, "db")
	file := filepath.Join(dir, "urls.txt")

	t.Run("empty database", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No scans found") {
			t.Errorf("expected empty listing, got %q", stdout)
		}
	})

	writeURLFile(t, file, srv.URL+"/match", srv.URL+"/missing")
	if _, _, err := execute(t, "scan", "--db-dir", dbDir, "-d", dir, file); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	t.Run("compare needs two scans", func(t *testing.T) {
		_, _, err := execute(t, "compare", "--db-dir", dbDir, file)
		if err == nil || !strings.Contains(err.Error(), "at least 2 scans") {
			t.Fatalf("expected not enough scans error, got %v", err)
		}
	})

	writeURLFile(t, file, srv.URL+"/match", srv.URL+"/missing", srv.URL+"/plain")
	if _, _, err := execute(t, "scan", "--db-dir", dbDir, "-d", dir, file); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}

	t.Run("history lists both scans", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Stored scans (2)") {
			t.Errorf("expected two scans, got:\n%s", stdout)
		}
	})

	t.Run("history shows a stored report", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "--db-dir", dbDir, "--show", "1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Total URLs scanned: 2") {
			t.Errorf("expected first report, got:\n%s", stdout)
		}
	})

	t.Run("history rejects unknown IDs", func(t *testing.T) {
		_, _, err := execute(t, "history", "--db-dir", dbDir, "--show", "99")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Fatalf("expected not found error, got %v", err)
		}
	})

	t.Run("compare reports the added URL", func(t *testing.T) {
		stdout, _, err := execute(t, "compare", "--db-dir", dbDir, file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Added (1):") || !strings.Contains(stdout, srv.URL+"/plain") {
			t.Errorf("expected added URL, got:\n%s", stdout)
		}
	})

	t.Run("compare as JSON", func(t *testing.T) {
		stdout, _, err := execute(t, "compare", "--db-dir", dbDir, "--json", file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got ComparisonResult
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.PreviousScan.ID != 1 || got.CurrentScan.ID != 2 {
			t.Errorf("unexpected scan IDs: %d, %d", got.PreviousScan.ID, got.CurrentScan.ID)
		}
		if len(got.Changes.Added) != 1 || got.Changes.Added[0] != srv.URL+"/plain" {
			t.Errorf("unexpected added URLs: %v", got.Changes.Added)
		}
	})

	t.Run("compare as Markdown", func(t *testing.T) {
		stdout, _, err := execute(t, "compare", "--db-dir", dbDir, "--markdown", "--with-scan-id", "1", file)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "# Scan Comparison: "+file) {
			t.Errorf("expected Markdown comparison, got:\n%s", stdout)
		}
	})

	t.Run("compare lists sources", func(t *testing.T) {
		stdout, _, err := execute(t, "compare", "--db-dir", dbDir, "--list-sources")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, file) {
			t.Errorf("expected source %s, got:\n%s", file, stdout)
		}
	})

	t.Run("compare requires a source", func(t *testing.T) {
		_, _, err := execute(t, "compare", "--db-dir", dbDir)
		if !errors.Is(err, errNoSource) {
			t.Fatalf("expected errNoSource, got %v", err)
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags override defaults only when set", func(t *testing.T) {
		t.Parallel()

		cfgPath := filepath.Join(t.TempDir(), "pagescan.yaml")
		if err := os.WriteFile(cfgPath, []byte("concurrency: 7\nretries: 2\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", cfgPath, "--retries", "1", "--no-save", "--db-dir", "/tmp/x"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Concurrency != 7 {
			t.Errorf("expected concurrency from config file, got %d", cfg.Concurrency)
		}
		if cfg.Retries != 1 {
			t.Errorf("expected retries from flag, got %d", cfg.Retries)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
		if cfg.DBDir != "/tmp/x" {
			t.Errorf("expected db dir from flag, got %q", cfg.DBDir)
		}
		if cfg.Sites == nil {
			t.Error("expected site settings to be loaded")
		}
	})
}

func TestComponentDefaultsFollowConfig(t *testing.T) {
	t.Parallel()

	if got := classify.New("").Target(); got != config.DefaultTarget {
		t.Errorf("classifier default target = %q, want %q", got, config.DefaultTarget)
	}
	if probe.DefaultMaxBodySize != config.DefaultMaxBodySize {
		t.Errorf("probe body limit = %d, want %d", probe.DefaultMaxBodySize, config.DefaultMaxBodySize)
	}
	if probe.DefaultTimeout != config.DefaultTimeout {
		t.Errorf("probe timeout = %v, want %v", probe.DefaultTimeout, config.DefaultTimeout)
	}
	if pipeline.DefaultConcurrency != config.DefaultConcurrency {
		t.Errorf("scanner concurrency = %d, want %d", pipeline.DefaultConcurrency, config.DefaultConcurrency)
	}
	if report.DefaultMatchLabel != config.DefaultMatchLabel {
		t.Errorf("report label = %q, want %q", report.DefaultMatchLabel, config.DefaultMatchLabel)
	}
}
