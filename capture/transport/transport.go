// Package transport lists host interfaces and hands the capture worker
// whole link-layer frames. It is the one piece of the pipeline
// gopacket/pcap actually touches — the frame parser (package parser)
// stays a dependency-free pure function.
package transport

import (
	"net"
	"net/netip"

	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"
)

// The same default as tcpdump.
const defaultSnapLen = 262144

// FrameSource is a blocking receiver of whole link-layer frames. Next
// blocks until a frame arrives or the underlying handle errors or is
// closed.
type FrameSource interface {
	Next() ([]byte, error)
	Close() error
}

type liveSource struct {
	handle *pcap.Handle
}

// OpenLive opens interfaceName in promiscuous mode with an infinite read
// timeout (pcap.BlockForever). Builder.Build calls it before constructing
// the worker.
func OpenLive(interfaceName string) (FrameSource, error) {
	handle, err := pcap.OpenLive(interfaceName, defaultSnapLen, true, pcap.BlockForever)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture handle on %s", interfaceName)
	}
	return &liveSource{handle: handle}, nil
}

func (s *liveSource) Next() ([]byte, error) {
	data, _, err := s.handle.ReadPacketData()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *liveSource) Close() error {
	s.handle.Close()
	return nil
}

// Interface describes one host network interface, enough to drive both
// the `interfaces` CLI subcommand and the builder's default-interface
// selection.
type Interface struct {
	Name        string
	Description string
	Addresses   []netip.Addr
	Up          bool
	Loopback    bool
	HasMAC      bool
}

// ListInterfaces enumerates capturable devices via pcap.FindAllDevs, then
// enriches each with the administrative/MAC details only net.Interface
// exposes (gopacket/pcap.Interface carries neither).
func ListInterfaces() ([]Interface, error) {
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate network interfaces")
	}

	out := make([]Interface, 0, len(devices))
	for _, d := range devices {
		iface := Interface{
			Name:        d.Name,
			Description: d.Description,
		}

		for _, a := range d.Addresses {
			if addr, ok := netip.AddrFromSlice(a.IP); ok {
				iface.Addresses = append(iface.Addresses, addr.Unmap())
			}
		}

		if ni, err := net.InterfaceByName(d.Name); err == nil {
			iface.Up = ni.Flags&net.FlagUp != 0
			iface.Loopback = ni.Flags&net.FlagLoopback != 0
			iface.HasMAC = len(ni.HardwareAddr) > 0
		}

		out = append(out, iface)
	}
	return out, nil
}
