package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/nao1215/pagescan/internal/model"
)

// newTestReport creates the report of the three URL example scan.
func newTestReport() *model.ScanReport {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &model.ScanReport{
		Source:     "urls.txt",
		Target:     "TOKEN",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Submitted:  3,
		Matched:    []model.Entry{{Ordinal: 0, URL: "http://a.test/x"}},
		Unmatched:  []model.Entry{{Ordinal: 1, URL: "http://b.test/y"}},
		Errored:    []model.Entry{{Ordinal: 2, URL: "http://c.test/z", Detail: "500"}},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the summary and matched listing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(newTestReport())
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		want := "\nReport generated:\n" +
			"URLs with TOKEN: 1\n" +
			"URLs without TOKEN: 1\n" +
			"URLs with Error: 1\n" +
			"---------------------------------\n" +
			"Total URLs scanned: 3\n" +
			"\nURLs with EAB Form:\n" +
			"✅ http://a.test/x\n"
		if buf.String() != want {
			t.Errorf("output =\n%q\nwant\n%q", buf.String(), want)
		}
		if n != len(want) {
			t.Errorf("n = %d, want %d", n, len(want))
		}
	})

	t.Run("integrity fault goes to the warning writer", func(t *testing.T) {
		t.Parallel()

		report := newTestReport()
		report.Submitted = 4
		report.IntegrityError = "integrity fault: 3 outcomes recorded for 4 submitted URLs"

		var out, warn bytes.Buffer
		if _, err := NewSimpleWriter(&out, WithWarningWriter(&warn)).Write(report); err != nil {
			t.Fatal(err)
		}

		if strings.Contains(out.String(), IntegrityWarning) {
			t.Error("warning written to the output")
		}
		if !strings.HasPrefix(warn.String(), IntegrityWarning+"\n") {
			t.Errorf("warning = %q", warn.String())
		}
		if !strings.Contains(warn.String(), report.IntegrityError) {
			t.Errorf("warning does not carry the fault detail: %q", warn.String())
		}
		if !strings.Contains(out.String(), "Total URLs scanned: 4\n") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("consistent report has no warning", func(t *testing.T) {
		t.Parallel()

		var out, warn bytes.Buffer
		if _, err := NewSimpleWriter(&out, WithWarningWriter(&warn)).Write(newTestReport()); err != nil {
			t.Fatal(err)
		}
		if warn.Len() != 0 {
			t.Errorf("warning = %q, want empty", warn.String())
		}
	})

	t.Run("label is configurable", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithMatchLabel("Partner Link")).Write(newTestReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\nURLs with Partner Link:\n") {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("color wraps counts in ANSI codes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithColor(true)).Write(newTestReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), ansiRed+"URLs with Error: 1"+ansiReset) {
			t.Errorf("output = %q", buf.String())
		}
	})
}

func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	p := NewProgressPrinter(&out, &errOut)

	p.Start("TOKEN", "urls.txt")
	p.Record(1, 3, model.Outcome{Task: model.URLTask{URL: "http://a.test/x"}, Kind: model.Matched})
	p.Record(2, 3, model.Outcome{Task: model.URLTask{URL: "http://c.test/z"}, Kind: model.Errored, Detail: "500"})
	p.Record(3, 3, model.Outcome{Task: model.URLTask{URL: "http://b.test/y"}, Kind: model.Unmatched})
	p.Finish()

	wantOut := "Scanning for: TOKEN in urls.txt\n" +
		"Finished: 1 of 3: ✅ : http://a.test/x\n" +
		"Finished: 3 of 3: ❌ : http://b.test/y\n" +
		"All URLs have been processed.\n"
	if out.String() != wantOut {
		t.Errorf("stdout =\n%q\nwant\n%q", out.String(), wantOut)
	}
	if errOut.String() != "Error: 2 of 3: http://c.test/z\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables chart and listings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "").Write(newTestReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"# Page Scan Report",
			"## Summary",
			"mermaid",
			"## URLs with EAB Form",
			"http://a.test/x",
			"## Errored URLs",
			"http://c.test/z",
			"500",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("integrity fault adds a caution", func(t *testing.T) {
		t.Parallel()

		report := newTestReport()
		report.Submitted = 5

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "").Write(report); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Errorf("output has no caution alert:\n%s", buf.String())
		}
	})

	t.Run("empty scan has no chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, "").Write(&model.ScanReport{Target: "TOKEN"}); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("empty scan rendered a chart")
		}
		if !strings.Contains(buf.String(), "None.") {
			t.Error("empty matched listing not marked")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("report decodes back", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(newTestReport()); err != nil {
			t.Fatal(err)
		}

		var got model.ScanReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if got.Target != "TOKEN" || got.Total() != 3 || got.Errored[0].Detail != "500" {
			t.Errorf("decoded report = %+v", got)
		}
		if !strings.Contains(buf.String(), "\n  \"source\"") {
			t.Errorf("output is not indented: %q", buf.String())
		}
	})

	t.Run("URLs are not HTML escaped", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteValue([]string{"http://a.test/?a=1&b=<2>"}); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "[\"http://a.test/?a=1&b=<2>\"]\n" {
			t.Errorf("output = %q", buf.String())
		}
	})

	t.Run("compact output is one line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteValue(map[string]int{"a": 1}); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "{\"a\":1}\n" {
			t.Errorf("output = %q", buf.String())
		}
	})
}

// failWriter fails every write.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		n, err := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b)).Write(newTestReport())
		if err != nil {
			t.Fatal(err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("a writer received nothing")
		}
		if n != a.Len()+b.Len() {
			t.Errorf("n = %d, want %d", n, a.Len()+b.Len())
		}
	})

	t.Run("keeps writing after an error", func(t *testing.T) {
		t.Parallel()

		var b bytes.Buffer
		_, err := NewMultiWriter(NewJSONWriter(failWriter{}), NewJSONWriter(&b)).Write(newTestReport())
		if err == nil {
			t.Fatal("expected error")
		}
		if b.Len() == 0 {
			t.Error("second writer was skipped after an error")
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string is kept", input: "404", maxLen: 10, want: "404"},
		{name: "long string gets an ellipsis", input: "connection refused", maxLen: 10, want: "connect..."},
		{name: "multi-byte characters are not split", input: "接続がリセットされました", maxLen: 6, want: "接続が..."},
		{name: "tiny limit cuts without ellipsis", input: "ééééé", maxLen: 2, want: "éé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncateString(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateString(%q, %d) returned invalid UTF-8", tt.input, tt.maxLen)
			}
		})
	}
}
