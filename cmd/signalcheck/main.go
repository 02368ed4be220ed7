package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/signalcheck/signalcheck/pkg/client"
	"github.com/signalcheck/signalcheck/pkg/config"
	"github.com/signalcheck/signalcheck/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/signalcheck.sock"
	configPath     = "/etc/signalcheck.json"
	envFile        = ""
	daemonAddr     = ""
)

var apiClient *client.Client

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func newAPIClient() *client.Client {
	if daemonAddr != "" {
		return client.NewHTTPClient(daemonAddr, nil)
	}
	return client.NewClient(unixSocketPath)
}

func handleCmdError(err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: signalcheck daemon is not running")
		fmt.Fprintln(os.Stderr, "Start it with 'signalcheck daemon', or use 'signalcheck run' to calibrate offline.")
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or restart the daemon with the '--always-allow-non-root-access' flag")
	case errors.Is(err, client.ErrWrongStep):
		fmt.Fprintln(os.Stderr, "\nThe session is not at the right step for this command. Check 'signalcheck status'.")
	case errors.As(err, &apiErr) && apiErr.Field != "":
		fmt.Fprintf(os.Stderr, "\nCheck the value of %q.\n", apiErr.Field)
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signalcheck",
		Short: "signalcheck runs five-point calibration checks on 4-20 mA transmitters",
		Long: `signalcheck runs five-point calibration checks on 4-20 mA transmitters.

Enter the instrument datasheet, take readings at 0, 25, 50, 75 and 100 % of
span, and get a pass/fail verdict, the transfer equation and a PDF report.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := setupLogger()
			if err != nil {
				return err
			}

			if err := config.LoadEnvFile(envFile); err != nil {
				return err
			}

			apiClient = newAPIClient()

			// Commands that do not talk to the daemon skip the version check.
			if cmd.Annotations[annotationOffline] != "" {
				return nil
			}

			if daemonVersion, err := apiClient.GetVersion(); err == nil {
				if daemonVersion != version.Version {
					logrus.WithFields(logrus.Fields{
						"clientVersion": version.Version,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. signalcheck may not work as expected.")
				}
			} else if errors.Is(err, client.ErrNotFound) {
				logrus.Error("signalcheck daemon is too old to report its version.")
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "signalcheck daemon unix socket path")
	globalFlags.StringVar(&daemonAddr, "daemon-addr", "", "talk to the daemon over HTTP instead of the unix socket, e.g. http://127.0.0.1:8765")
	globalFlags.StringVar(&envFile, "env-file", "", "load environment overrides from this .env file")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewInstrumentCommand(),
		NewMeasureCommand(),
		NewStatusCommand(),
		NewBackCommand(),
		NewResetCommand(),
		NewReportCommand(),
		NewRunCommand(),
		NewConfigCommand(),
	)

	return cmd
}
