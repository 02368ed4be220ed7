package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/signalcheck/signalcheck/pkg/report"
)

func NewReportCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:     "report",
		GroupID: gBasic,
		Short:   "Fetch the calibration report of the evaluated session",
		Long: `Fetch the calibration report of the evaluated session.

PDF reports are written to a file (by default calibration_report_<tag>.pdf in
the current directory). Text and JSON reports go to stdout unless -o is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			if f == report.FormatText && output == "" && isTerminal(os.Stdout) {
				// Render locally so pass/fail cells can be coloured.
				doc, err := apiClient.GetReportDocument()
				if err != nil {
					return err
				}
				return report.RenderText(doc, cmd.OutOrStdout(), true)
			}

			b, err := apiClient.GetReport(f)
			if err != nil {
				return err
			}

			if f == report.FormatPDF && output == "" {
				doc, err := apiClient.GetReportDocument()
				if err != nil {
					return err
				}
				output = doc.Filename
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(output, b, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			logrus.Infof("report written to %s", output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "write the report to this file (- for stdout)")
	f.StringVar(&format, "format", "pdf", "report format: pdf, text or json")

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Store the PDF report through the daemon's report sink",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := apiClient.ExportReport()
			if err != nil {
				return err
			}
			logrus.WithField("reportId", res.ReportID).Infof("report exported to %s", res.Location)
			return nil
		},
	})

	return cmd
}
