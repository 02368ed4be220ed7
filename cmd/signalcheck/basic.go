package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/session"
	"github.com/signalcheck/signalcheck/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version",
		Annotations: offline(),
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func NewStatusCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "status",
		GroupID: gBasic,
		Short:   "Show the current calibration session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := apiClient.GetState()
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			printStatus(cmd, st)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")

	return cmd
}

func printStatus(cmd *cobra.Command, st *session.State) {
	w := cmd.OutOrStdout()

	cmd.Println(bold("Session:"))
	cmd.Printf("  ID: %s\n", st.ID)
	cmd.Printf("  Step: %s\n", bold("%s", st.Step))
	if !st.UpdatedAt.IsZero() {
		cmd.Printf("  Updated: %s\n", st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}

	if len(st.Points) == 0 {
		cmd.Println()
		cmd.Println("No datasheet submitted yet. Start with 'signalcheck instrument'.")
		return
	}

	ds := st.Datasheet
	cmd.Println()
	cmd.Println(bold("Instrument:"))
	cmd.Printf("  Tag: %s\n", ds.Tag)
	cmd.Printf("  Range: %v to %v %s\n", ds.LowerRangeValue, ds.UpperRangeValue, ds.Unit)
	cmd.Printf("  Tolerance: %v (%s)\n", ds.Tolerance, ds.ToleranceMode)
	cmd.Println()

	if st.Step == session.StepReport && len(st.Measured) == len(st.Points) {
		printResults(w, st)
		return
	}
	printPoints(w, st)
}

func NewBackCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "back",
		GroupID: gBasic,
		Short:   "Return to the datasheet step, keeping the entered data",
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := apiClient.Back()
			if err != nil {
				return fmt.Errorf("failed to go back: %w", err)
			}
			logrus.Infof("session %s is back at step %s", st.ID, st.Step)
			return nil
		},
	}
}

func NewResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		GroupID: gBasic,
		Short:   "Discard the current session and start over",
		RunE: func(_ *cobra.Command, _ []string) error {
			st, err := apiClient.Reset()
			if err != nil {
				return fmt.Errorf("failed to reset: %w", err)
			}
			logrus.Infof("started new session %s", st.ID)
			return nil
		},
	}
}

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: gAdvanced,
		Short:   "Inspect or create the daemon configuration",
	}

	force := false
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a config file with the default values",
		Annotations: offline(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, pass --force to overwrite it", configPath)
			}
			f := config.NewFileFromConfig(config.DefaultRawFileConfig(), configPath)
			if err := f.Save(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			logrus.WithFields(f.LogrusFields()).Infof("wrote %s", configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration the daemon is using",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := apiClient.GetConfig()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(conf)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
