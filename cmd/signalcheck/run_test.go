package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/report"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/workflow"
)

func TestRunOffline(t *testing.T) {
	ds := session.Datasheet{Tag: "PT-101"}
	ds.LowerRangeValue = 0
	ds.UpperRangeValue = 100
	ds.Tolerance = 1

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc, st, err := runOffline(ds, []string{"0", "25", "50,5", "75", "100"}, calibration.TolerancePercent, now)
	if err != nil {
		t.Fatalf("runOffline() error = %v", err)
	}
	if !st.Approved || doc.Verdict != report.Approved {
		t.Fatalf("expected approval, got %+v", st)
	}
	if doc.Filename != "calibration_report_PT-101.pdf" {
		t.Fatalf("Filename = %q", doc.Filename)
	}

	doc, st, err = runOffline(ds, []string{"0", "25", "52", "75", "100"}, calibration.TolerancePercent, now)
	if err != nil {
		t.Fatalf("runOffline() error = %v", err)
	}
	if st.Approved || doc.Verdict != report.Rejected || doc.Rows[2].Passed {
		t.Fatalf("expected the 50%% point to fail, got %+v", doc.Rows)
	}

	ds.UpperRangeValue = 0
	_, _, err = runOffline(ds, []string{"0", "0", "0", "0", "0"}, calibration.TolerancePercent, now)
	if !errors.Is(err, workflow.ErrInvalidRange) {
		t.Fatalf("runOffline() error = %v, want ErrInvalidRange", err)
	}
}

func TestRunCommandWritesPDF(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "report.pdf")
	configPath = filepath.Join(dir, "missing.json")

	cmd := NewCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{
		"run", "--tag", "FT-9", "--lrv", "0", "--urv", "200", "--tolerance", "0.5",
		"--tolerance-mode", "percent", "-o", out,
		"0.2", "50", "100.4", "150", "199.9",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(stdout.String(), report.Approved) {
		t.Fatalf("output does not contain the verdict:\n%s", stdout.String())
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("report is not a PDF")
	}
}

func TestMeasureRequiresFiveReadings(t *testing.T) {
	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--daemon-socket", filepath.Join(t.TempDir(), "none.sock"), "measure", "1", "2"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an argument count error")
	}
}
