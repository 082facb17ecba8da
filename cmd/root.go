package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weirdshark/weirdshark/cmd/internal/capture"
	"github.com/weirdshark/weirdshark/cmd/internal/cmderr"
	"github.com/weirdshark/weirdshark/cmd/internal/interfaces"
	"github.com/weirdshark/weirdshark/printer"
	"github.com/weirdshark/weirdshark/util"
	"github.com/weirdshark/weirdshark/version"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:           "weirdshark",
	Short:         "Passive network traffic recorder.",
	Long:          "weirdshark captures packets on a network interface, aggregates byte counts per flow, and periodically writes CSV reports.",
	Version:       version.CLIDisplayString(),
	SilenceErrors: true, // we print our own errors from subcommands in Execute
	SilenceUsage:  true, // see Execute: usage only prints on CLI parsing errors
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		if _, isCLIErr := err.(cmderr.CLIErr); !isCLIErr {
			// Print usage for CLI usage errors (e.g. missing arg) but not for
			// errors already explained to the user (e.g. failed to open the
			// interface).
			cmd.Println(cmd.UsageString())
		}

		exitCode := 1
		var exitErr util.ExitError
		if isExitErr := errors.As(err, &exitErr); isExitErr {
			exitCode = exitErr.ExitCode
		}
		printer.Stderr.Errorf("%s\n", err)
		os.Exit(exitCode)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "If set, outputs detailed information for debugging.")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(interfaces.Cmd)
	rootCmd.AddCommand(capture.Cmd)
}
