package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/report"
	"github.com/signalcheck/signalcheck/pkg/session"
)

const annotationOffline = "signalcheck/offline"

// offline marks a command that never talks to the daemon.
func offline() map[string]string {
	return map[string]string{annotationOffline: "true"}
}

type datasheetFlags struct {
	ds   session.Datasheet
	mode string
}

func (d *datasheetFlags) register(f *pflag.FlagSet) {
	f.StringVar(&d.ds.Tag, "tag", "", "instrument tag, e.g. PT-101")
	f.StringVar(&d.ds.Manufacturer, "manufacturer", "", "instrument manufacturer")
	f.StringVar(&d.ds.Model, "model", "", "instrument model")
	f.StringVar(&d.ds.PowerSupply, "power-supply", "", "loop power supply, e.g. 24 VDC")
	f.StringVar(&d.ds.CalibratorID, "calibrator", "", "reference calibrator id")
	f.StringVar(&d.ds.Technician, "technician", "", "technician name")
	f.Float64Var(&d.ds.LowerRangeValue, "lrv", 0, "lower range value (maps to 4 mA)")
	f.Float64Var(&d.ds.UpperRangeValue, "urv", 0, "upper range value (maps to 20 mA)")
	f.Float64Var(&d.ds.Tolerance, "tolerance", 0, "allowed deviation per point")
	f.StringVar(&d.mode, "tolerance-mode", "", "percent (of span) or absolute; empty uses the configured default")
	f.StringVar(&d.ds.Unit, "unit", "", "process unit label, e.g. bar")
}

func (d *datasheetFlags) datasheet() session.Datasheet {
	ds := d.ds
	ds.ToleranceMode = calibration.ToleranceMode(d.mode)
	return ds
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func verdictText(approved bool) string {
	if approved {
		return color.New(color.Bold, color.FgGreen).Sprint(report.Approved)
	}
	return color.New(color.Bold, color.FgRed).Sprint(report.Rejected)
}

func printPoints(w io.Writer, st *session.State) {
	fmt.Fprintln(w, bold("Ideal setpoints (%s):", unitOrDash(st.Datasheet.Unit)))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, p := range st.Points {
		fmt.Fprintf(tw, "  %d%%\t%s\t\n", calibration.PointPercent(i), report.FormatValue(p))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "  Allowed error: %s\n", bold("±%s", report.FormatValue(st.Threshold)))
	fmt.Fprintf(w, "  Equation: %s\n", st.Equation.Text)
}

func printResults(w io.Writer, st *session.State) {
	fmt.Fprintln(w, bold("Five-point results:"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Point\tIdeal\tMeasured\tError\tPass\t\n")
	for i := range st.Points {
		if i >= len(st.Measured) || i >= len(st.Errors) {
			break
		}
		passed := calibration.PointPasses(st.Errors[i], st.Threshold)
		fmt.Fprintf(tw, "  %d%%\t%s\t%s\t%s\t%s\t\n",
			calibration.PointPercent(i),
			report.FormatValue(st.Points[i]),
			report.FormatValue(st.Measured[i]),
			report.FormatValue(st.Errors[i]),
			bool2Text(passed))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "  Allowed error: ±%s\n", report.FormatValue(st.Threshold))
	fmt.Fprintf(w, "  Result: %s\n", verdictText(st.Approved))
	fmt.Fprintf(w, "  Equation: %s\n", st.Equation.Text)
}

func unitOrDash(u string) string {
	if u == "" {
		return "-"
	}
	return u
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
