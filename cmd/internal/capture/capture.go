// Package capture implements the `capture` subcommand: parse the
// interface selector and filter flags into a weirdshark.Builder, run the
// capturer, and drive it from an interactive stdin control loop.
package capture

import (
	"bufio"
	"io"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/weirdshark/weirdshark"
	"github.com/weirdshark/weirdshark/cmd/internal/cmderr"
	"github.com/weirdshark/weirdshark/cmd/internal/rangeflag"
	"github.com/weirdshark/weirdshark/filter"
	"github.com/weirdshark/weirdshark/flow"
	"github.com/weirdshark/weirdshark/printer"
)

var (
	interfaceIndexFlag int
	interfaceDescFlag  string

	pathFlag          string
	timeIntervalFlag  uint64
	ipsFlag            []string
	sourceIPsFlag      []string
	destinationIPsFlag []string

	portsFlag            []string
	sourcePortsFlag      []string
	destinationPortsFlag []string

	transportProtocolFlag string

	ipRangeFlag            rangeflag.AddrRange
	sourceIPRangeFlag      rangeflag.AddrRange
	destinationIPRangeFlag rangeflag.AddrRange

	portRangeFlag            rangeflag.PortRange
	sourcePortRangeFlag      rangeflag.PortRange
	destinationPortRangeFlag rangeflag.PortRange
)

var Cmd = &cobra.Command{
	Use:          "capture [interface-name]",
	Short:        "Capture and aggregate network traffic by flow.",
	Long:         "Passively capture packets on one interface, aggregate byte counts per flow, and periodically write CSV reports.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := buildFilterSet()
		if err != nil {
			return cmderr.CLIErr{Err: err}
		}

		b := weirdshark.NewBuilder().
			WithReportDir(pathFlag).
			WithFlushInterval(time.Duration(timeIntervalFlag) * time.Second).
			WithFilters(filters)

		switch {
		case len(args) == 1:
			b = b.WithInterfaceName(args[0])
		case cmd.Flags().Changed("interface-index"):
			b = b.WithInterfaceIndex(interfaceIndexFlag)
		case cmd.Flags().Changed("interface-desc"):
			b = b.WithInterfaceDescription(interfaceDescFlag)
		default:
			return cmderr.CLIErr{Err: errors.New("exactly one of an interface name, --interface-index, or --interface-desc is required")}
		}

		capturer, err := b.Build()
		if err != nil {
			return cmderr.CLIErr{Err: err}
		}

		printer.Infof("Capturing on %s (session %s)\n", capturer.Interface.Name, capturer.SessionID)

		runErrCh := make(chan error, 1)
		go func() { runErrCh <- capturer.Run() }()

		if err := capturer.Start(); err != nil {
			return cmderr.CLIErr{Err: err}
		}

		runControlLoop(cmd.InOrStdin(), capturer)

		if err := <-runErrCh; err != nil {
			return cmderr.CLIErr{Err: err}
		}
		return nil
	},
}

// runControlLoop reads lines from in, matching case-insensitively on
// trimmed content against start/pause/stop/help; anything else prints a
// help hint. stop ends the loop (and, via Capturer.Stop, the capture
// run).
func runControlLoop(in io.Reader, capturer *weirdshark.Capturer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "start":
			if err := capturer.Start(); err != nil {
				printer.Errorf("%s\n", err)
			}
		case "pause":
			if err := capturer.Pause(); err != nil {
				printer.Errorf("%s\n", err)
			}
		case "stop":
			if err := capturer.Stop(); err != nil {
				printer.Errorf("%s\n", err)
			}
			return
		case "help":
			printHelp()
		default:
			printer.Infof("Unrecognized command. Type 'help' for the list of commands.\n")
		}
	}
}

func printHelp() {
	printer.Infof("Commands: start, pause, stop, help\n")
}

func buildFilterSet() (filter.Set, error) {
	var fs filter.Set

	if proto := strings.ToLower(transportProtocolFlag); proto != "" {
		p, err := flow.ParseProtocol(proto)
		if err != nil {
			return fs, errors.Wrap(err, "invalid --transport-protocol")
		}
		fs.Protocol = &p
	}

	addrs, err := parseAddrs(ipsFlag)
	if err != nil {
		return fs, err
	}
	if len(addrs) > 0 {
		fs.Addresses = append(fs.Addresses, filter.NewDirectedFilter(filter.FromList(addrs...), filter.BothDirections))
	}

	srcAddrs, err := parseAddrs(sourceIPsFlag)
	if err != nil {
		return fs, err
	}
	if len(srcAddrs) > 0 {
		fs.Addresses = append(fs.Addresses, filter.NewDirectedFilter(filter.FromList(srcAddrs...), filter.SourceOnly))
	}

	dstAddrs, err := parseAddrs(destinationIPsFlag)
	if err != nil {
		return fs, err
	}
	if len(dstAddrs) > 0 {
		fs.Addresses = append(fs.Addresses, filter.NewDirectedFilter(filter.FromList(dstAddrs...), filter.DestinationOnly))
	}

	fs.Addresses = appendDirected(fs.Addresses, ipRangeFlag.Filters(), filter.BothDirections)
	fs.Addresses = appendDirected(fs.Addresses, sourceIPRangeFlag.Filters(), filter.SourceOnly)
	fs.Addresses = appendDirected(fs.Addresses, destinationIPRangeFlag.Filters(), filter.DestinationOnly)

	ports, err := parsePortList(portsFlag)
	if err != nil {
		return fs, err
	}
	if len(ports) > 0 {
		fs.Ports = append(fs.Ports, filter.NewDirectedFilter(filter.FromList(ports...), filter.BothDirections))
	}

	sourcePorts, err := parsePortList(sourcePortsFlag)
	if err != nil {
		return fs, err
	}
	if len(sourcePorts) > 0 {
		fs.Ports = append(fs.Ports, filter.NewDirectedFilter(filter.FromList(sourcePorts...), filter.SourceOnly))
	}

	destinationPorts, err := parsePortList(destinationPortsFlag)
	if err != nil {
		return fs, err
	}
	if len(destinationPorts) > 0 {
		fs.Ports = append(fs.Ports, filter.NewDirectedFilter(filter.FromList(destinationPorts...), filter.DestinationOnly))
	}

	fs.Ports = appendDirected(fs.Ports, portRangeFlag.Filters(), filter.BothDirections)
	fs.Ports = appendDirected(fs.Ports, sourcePortRangeFlag.Filters(), filter.SourceOnly)
	fs.Ports = appendDirected(fs.Ports, destinationPortRangeFlag.Filters(), filter.DestinationOnly)

	return fs, nil
}

// appendDirected wraps each of filters with dir and appends the results
// to dst, letting a range flag's every occurrence (AddrRange.Filters,
// PortRange.Filters) contribute its own directed filter.
func appendDirected[T comparable](dst []filter.DirectedFilter[T], filters []filter.Filter[T], dir filter.Direction) []filter.DirectedFilter[T] {
	for _, f := range filters {
		dst = append(dst, filter.NewDirectedFilter(f, dir))
	}
	return dst
}

func parseAddrs(raw []string) ([]netip.Addr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]netip.Addr, 0, len(raw))
	for _, s := range raw {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid IP address %q", s)
		}
		out = append(out, addr)
	}
	return out, nil
}

func parsePortList(raw []string) ([]uint16, error) {
	out := make([]uint16, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid port %q", s)
		}
		out = append(out, uint16(n))
	}
	return out, nil
}

func init() {
	Cmd.Flags().IntVarP(&interfaceIndexFlag, "interface-index", "i", 0, "Select the capture interface by its index in 'weirdshark interfaces'.")
	Cmd.Flags().StringVarP(&interfaceDescFlag, "interface-desc", "d", "", "Select the capture interface by (sub)string match on its description.")

	Cmd.Flags().StringVarP(&pathFlag, "path", "o", ".", "Directory to write report files into.")
	Cmd.Flags().Uint64VarP(&timeIntervalFlag, "time-interval", "t", 60, "Seconds between periodic report flushes.")

	Cmd.Flags().StringSliceVar(&ipsFlag, "ips", nil, "Only capture flows touching one of these IP addresses, in either direction.")
	Cmd.Flags().StringSliceVar(&sourceIPsFlag, "source-ips", nil, "Only capture flows whose source IP is one of these.")
	Cmd.Flags().StringSliceVar(&destinationIPsFlag, "destination-ips", nil, "Only capture flows whose destination IP is one of these.")

	Cmd.Flags().Var(&ipRangeFlag, "ip-range", "Only capture flows with an address in this inclusive (a,b) range, in either direction. Repeatable.")
	Cmd.Flags().Var(&sourceIPRangeFlag, "source-ip-range", "Only capture flows whose source IP falls in this inclusive (a,b) range. Repeatable.")
	Cmd.Flags().Var(&destinationIPRangeFlag, "destination-ip-range", "Only capture flows whose destination IP falls in this inclusive (a,b) range. Repeatable.")

	Cmd.Flags().Var(&portRangeFlag, "port-range", "Only capture flows with a port in this inclusive (a,b) range, in either direction. Repeatable.")
	Cmd.Flags().Var(&sourcePortRangeFlag, "source-port-range", "Only capture flows whose source port falls in this inclusive (a,b) range. Repeatable.")
	Cmd.Flags().Var(&destinationPortRangeFlag, "destination-port-range", "Only capture flows whose destination port falls in this inclusive (a,b) range. Repeatable.")

	Cmd.Flags().StringVar(&transportProtocolFlag, "transport-protocol", "", "Only capture flows of this transport protocol (tcp|udp).")

	Cmd.Flags().StringSliceVar(&portsFlag, "ports", nil, "Only capture flows with a port in this list, in either direction.")
	Cmd.Flags().StringSliceVar(&sourcePortsFlag, "source-ports", nil, "Only capture flows whose source port is in this list.")
	Cmd.Flags().StringSliceVar(&destinationPortsFlag, "destination-ports", nil, "Only capture flows whose destination port is in this list.")
}
