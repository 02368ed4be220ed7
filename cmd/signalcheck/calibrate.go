package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/signalcheck/signalcheck/pkg/calibration"
)

func NewInstrumentCommand() *cobra.Command {
	var flags datasheetFlags

	cmd := &cobra.Command{
		Use:     "instrument",
		GroupID: gBasic,
		Short:   "Submit the instrument datasheet and start a session",
		Long: `Submit the instrument datasheet and start a session.

The range LRV..URV maps linearly onto 4..20 mA. The ideal setpoints at 0, 25,
50, 75 and 100 % of span are printed so you can drive the calibrator to them.`,
		Example: `  signalcheck instrument --tag PT-101 --lrv 0 --urv 10 --unit bar --tolerance 0.5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.SetDatasheet(flags.datasheet())
			if err != nil {
				return fmt.Errorf("failed to submit datasheet: %w", err)
			}
			logrus.WithField("session", st.ID).Debug("datasheet accepted")

			printPoints(cmd.OutOrStdout(), st)
			cmd.Println()
			cmd.Println("Next: signalcheck measure <v0> <v1> <v2> <v3> <v4>")
			return nil
		},
	}

	flags.register(cmd.Flags())
	_ = cmd.MarkFlagRequired("lrv")
	_ = cmd.MarkFlagRequired("urv")

	return cmd
}

func NewMeasureCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "measure v0 v1 v2 v3 v4",
		GroupID: gBasic,
		Short:   "Submit the five measured readings and evaluate them",
		Long: `Submit the five measured readings and evaluate them.

Readings are in process units, ordered 0 % to 100 % of span. A decimal comma
is accepted.`,
		Args: cobra.ExactArgs(calibration.NumPoints),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := apiClient.SetMeasurements(args)
			if err != nil {
				return fmt.Errorf("failed to submit measurements: %w", err)
			}

			printResults(cmd.OutOrStdout(), st)
			return nil
		},
	}
}
