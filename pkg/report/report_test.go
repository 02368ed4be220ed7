package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/workflow"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func evaluatedState(t *testing.T, tolerance float64) session.State {
	t.Helper()
	w := workflow.New(session.NewHolder(), workflow.Options{})
	_, err := w.SubmitDatasheet(session.Datasheet{
		Tag:          "TT 204/B",
		Manufacturer: "Acme",
		Model:        "T100",
		PowerSupply:  "24 VDC",
		CalibratorID: "CAL-7",
		Technician:   "R. Diaz",
		InstrumentConfig: calibration.InstrumentConfig{
			LowerRangeValue: 0,
			UpperRangeValue: 100,
			Tolerance:       tolerance,
			ToleranceMode:   calibration.TolerancePercent,
			Unit:            "degC",
		},
	})
	if err != nil {
		t.Fatalf("SubmitDatasheet failed: %v", err)
	}
	st, err := w.SubmitReadings([]float64{0, 24, 51, 76, 100})
	if err != nil {
		t.Fatalf("SubmitReadings failed: %v", err)
	}
	return st
}

func TestBuildNotReady(t *testing.T) {
	st := session.NewHolder().Read()
	if _, err := Build(st, testTime); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	st = evaluatedState(t, 1)
	st.Errors = st.Errors[:3]
	if _, err := Build(st, testTime); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady for truncated results, got %v", err)
	}
}

func TestBuildApproved(t *testing.T) {
	doc, err := Build(evaluatedState(t, 1), testTime)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !doc.Approved || doc.Verdict != Approved {
		t.Fatalf("expected approved verdict, got %s", doc.Verdict)
	}
	if doc.Filename != "calibration_report_TT_204_B.pdf" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if doc.ID == "" || doc.SessionID == "" {
		t.Fatalf("expected ids to be set")
	}
	if len(doc.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(doc.Rows))
	}
	labels := []string{"0%", "25%", "50%", "75%", "100%"}
	for i, r := range doc.Rows {
		if r.Label != labels[i] {
			t.Fatalf("row %d label %q, want %q", i, r.Label, labels[i])
		}
		if !r.Passed {
			t.Fatalf("row %d should pass", i)
		}
	}

	var tolerance, rng string
	for _, f := range doc.TestData {
		switch f.Label {
		case "Accepted tolerance":
			tolerance = f.Value
		case "Range":
			rng = f.Value
		}
	}
	if tolerance != "+/- 1.000 degC (1% of span)" {
		t.Fatalf("unexpected tolerance text %q", tolerance)
	}
	if rng != "0 to 100 degC" {
		t.Fatalf("unexpected range text %q", rng)
	}
	if doc.Equation != "output (mA) = 0.16000 * PV + 4.00000" {
		t.Fatalf("unexpected equation %q", doc.Equation)
	}
}

func TestBuildRejected(t *testing.T) {
	doc, err := Build(evaluatedState(t, 0.5), testTime)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if doc.Approved || doc.Verdict != Rejected {
		t.Fatalf("expected rejected verdict")
	}
	wantPassed := []bool{true, false, false, false, true}
	for i, r := range doc.Rows {
		if r.Passed != wantPassed[i] {
			t.Fatalf("row %d passed=%v, want %v", i, r.Passed, wantPassed[i])
		}
	}
}

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		0:               "0",
		24:              "24",
		0.1 + 0.2:       "0.3",
		-1.23456789:     "-1.23457",
		1000000:         "1000000",
		123456789:       "123457000",
		-0.000001234567: "-0.00000123457",
	}
	for in, want := range cases {
		if got := FormatValue(in); got != want {
			t.Fatalf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("PT-101", "x"); got != "calibration_report_PT-101.pdf" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Filename("", "0123456789abcdef"); got != "calibration_report_01234567.pdf" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Filename("../..", ""); strings.Contains(got, "/") {
		t.Fatalf("filename must not contain separators: %q", got)
	}
}

func TestRenderText(t *testing.T) {
	doc, err := Build(evaluatedState(t, 0.5), testTime)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderText(doc, &buf, false); err != nil {
		t.Fatalf("RenderText failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Result: REJECTED", "TT 204/B", "75%", "output (mA) = 0.16000 * PV + 4.00000", "2026-03-14 09:30:00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("uncolored output contains escape codes")
	}
}

func TestRenderPDF(t *testing.T) {
	doc, err := Build(evaluatedState(t, 1), testTime)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	var buf bytes.Buffer
	if err := Render(doc, FormatPDF, &buf); err != nil {
		t.Fatalf("RenderPDF failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestRenderPDFUnitInColumnTitles(t *testing.T) {
	doc, err := Build(evaluatedState(t, 1), testTime)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	doc.Unit = "°C"

	var buf bytes.Buffer
	if err := renderPDF(doc, &buf, false); err != nil {
		t.Fatalf("renderPDF failed: %v", err)
	}
	// Core fonts are cp1252: the degree sign must be the single byte 0xB0,
	// never the two UTF-8 bytes.
	if !bytes.Contains(buf.Bytes(), []byte("Ideal \\(\xb0C\\)")) {
		t.Fatalf("column title with a translated unit not found")
	}
	if bytes.Contains(buf.Bytes(), []byte("\xc2\xb0")) {
		t.Fatalf("untranslated UTF-8 text found in the PDF")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPDF, "PDF": FormatPDF, "txt": FormatText, "json": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestChartBounds(t *testing.T) {
	lo, hi := chartBounds([]Series{{Values: []float64{5, 5}}})
	if lo != 4 || hi != 6 {
		t.Fatalf("flat series should be padded, got %v..%v", lo, hi)
	}
	lo, hi = chartBounds(nil)
	if lo != 0 || hi != 1 {
		t.Fatalf("empty series should give 0..1, got %v..%v", lo, hi)
	}
	lo, hi = chartBounds([]Series{{Values: []float64{0, 100}}, {Values: []float64{-10}}})
	if lo >= -10 || hi <= 100 {
		t.Fatalf("bounds should cover all values with padding, got %v..%v", lo, hi)
	}
}

func TestDirSinkExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink failed: %v", err)
	}
	doc, err := Build(evaluatedState(t, 1), testTime)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	loc, err := Export(context.Background(), doc, sink)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if loc != filepath.Join(dir, doc.Filename) {
		t.Fatalf("unexpected location %q", loc)
	}
	b, err := os.ReadFile(loc)
	if err != nil || !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("exported file is not a PDF: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the report in %s, found %d entries", dir, len(entries))
	}
}

func TestDirSinkRejectsPaths(t *testing.T) {
	sink := &DirSink{Dir: t.TempDir()}
	if _, err := sink.Put(context.Background(), "../escape.pdf", "", strings.NewReader("x"), 1); err == nil {
		t.Fatalf("expected error for name with path separators")
	}
	if _, err := NewDirSink(" "); err == nil {
		t.Fatalf("expected error for empty directory")
	}
}

type failingSink struct{}

func (failingSink) Put(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", errors.New("boom")
}

func TestExportErrors(t *testing.T) {
	doc, _ := Build(evaluatedState(t, 1), testTime)
	if _, err := Export(context.Background(), doc, nil); err == nil {
		t.Fatalf("expected error without sink")
	}
	if _, err := Export(context.Background(), doc, failingSink{}); err == nil {
		t.Fatalf("expected sink error to propagate")
	}
}

func TestMinioSink(t *testing.T) {
	if _, err := NewMinioSink(MinioOptions{Bucket: "reports"}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
	s, err := NewMinioSink(MinioOptions{Endpoint: "localhost:9000", Bucket: "reports", Prefix: "/cal/"})
	if err != nil {
		t.Fatalf("NewMinioSink failed: %v", err)
	}
	if got := s.Key("a.pdf"); got != "cal/a.pdf" {
		t.Fatalf("unexpected key %q", got)
	}
}
