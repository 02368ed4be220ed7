package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/signalcheck/signalcheck/pkg/calibration"
	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/report"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/workflow"
)

// NewRunCommand evaluates one instrument without a daemon.
func NewRunCommand() *cobra.Command {
	var (
		flags  datasheetFlags
		output string
	)

	cmd := &cobra.Command{
		Use:         "run v0 v1 v2 v3 v4",
		GroupID:     gBasic,
		Short:       "Run a complete check offline, without the daemon",
		Annotations: offline(),
		Example:     `  signalcheck run --tag TT-7 --lrv -50 --urv 150 --tolerance 1 -- -49.8 0.1 50.3 99.6 150.2`,
		Args:        cobra.ExactArgs(calibration.NumPoints),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := calibration.ToleranceAbsolute
			if conf, err := config.NewFile(configPath); err == nil {
				mode = conf.DefaultToleranceMode()
			} else {
				logrus.Debugf("using built-in defaults: %v", err)
			}

			doc, st, err := runOffline(flags.datasheet(), args, mode, time.Now())
			if err != nil {
				return err
			}

			printResults(cmd.OutOrStdout(), st)

			if output == "" {
				return nil
			}
			if output == "auto" {
				output = doc.Filename
			}
			var buf bytes.Buffer
			if err := report.RenderPDF(doc, &buf); err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			logrus.Infof("report written to %s", output)
			return nil
		},
	}

	flags.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("lrv")
	_ = cmd.MarkFlagRequired("urv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the PDF report to this file (auto picks the default name)")

	return cmd
}

func runOffline(ds session.Datasheet, raw []string, mode calibration.ToleranceMode, now time.Time) (*report.Document, *session.State, error) {
	wf := workflow.New(session.NewHolder(), workflow.Options{DefaultToleranceMode: mode})
	if _, err := wf.SubmitDatasheet(ds); err != nil {
		return nil, nil, err
	}
	st, err := wf.SubmitMeasurements(raw)
	if err != nil {
		return nil, nil, err
	}
	doc, err := report.Build(st, now)
	if err != nil {
		return nil, nil, err
	}
	return doc, &st, nil
}
