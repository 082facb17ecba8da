// Package interfaces implements the `interfaces` subcommand: print the
// host's capturable network interfaces.
package interfaces

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/weirdshark/weirdshark/capture/transport"
	"github.com/weirdshark/weirdshark/cmd/internal/cmderr"
)

var Cmd = &cobra.Command{
	Use:          "interfaces",
	Short:        "List detected network interfaces.",
	Long:         "Print the name, description, and bound addresses of every interface weirdshark can capture on.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ifaces, err := transport.ListInterfaces()
		if err != nil {
			return cmderr.CLIErr{Err: errors.Wrap(err, "failed to list interfaces")}
		}

		for i, iface := range ifaces {
			desc := iface.Description
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s - %s\n", i, iface.Name, desc)
			for _, addr := range iface.Addresses {
				fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", addr)
			}
		}
		return nil
	},
}
