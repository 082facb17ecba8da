// Package parser implements the pure frame-to-flow translation at the
// heart of the capture pipeline: raw link-layer bytes in, a flow.Key plus
// byte count out, or a typed Rejection.
//
// Parse never retains a reference into the input slice: every field it
// extracts is copied out as a plain Go value before it returns, so the
// caller is free to reuse or discard the buffer immediately.
package parser

import (
	"encoding/binary"
	"net/netip"

	"github.com/weirdshark/weirdshark/flow"
)

// RejectionKind enumerates why a frame did not produce a flow.Key.
type RejectionKind int

const (
	IncompleteEthernet RejectionKind = iota
	IncompleteIP
	IncompleteTCP
	IncompleteUDP
	NonIP
	UnsupportedTransport
)

func (k RejectionKind) String() string {
	switch k {
	case IncompleteEthernet:
		return "IncompleteEthernet"
	case IncompleteIP:
		return "IncompleteIp"
	case IncompleteTCP:
		return "IncompleteTcp"
	case IncompleteUDP:
		return "IncompleteUdp"
	case NonIP:
		return "NonIp"
	case UnsupportedTransport:
		return "UnsupportedTransport"
	default:
		return "UnknownRejection"
	}
}

// Rejection is returned by Parse when a frame cannot be turned into a
// flow.Key. It implements error purely for caller convenience (so it can
// be returned alongside a zero Result in the usual Go (value, error)
// shape); the capture worker drops rejections silently rather than
// wrapping or propagating them as worker-fatal errors.
type Rejection struct {
	Kind RejectionKind
}

func (r Rejection) Error() string { return r.Kind.String() }

const (
	ethernetHeaderLen = 14
	ethTypeIPv4        = 0x0800
	ethTypeIPv6        = 0x86DD

	ipv4MinHeaderLen = 20
	ipv6HeaderLen    = 40

	protoTCP = 6
	protoUDP = 17

	tcpMinHeaderLen = 20
	udpHeaderLen    = 8
)

// Result is everything the worker needs from one accepted frame.
type Result struct {
	Key   flow.Key
	Bytes uint64 // length of the whole input frame, including the link-layer header
}

// Parse walks a complete Ethernet II frame up to the transport header and
// extracts the 5-tuple flow key plus the frame's total length. It rejects
// (rather than errors on) anything it cannot fully interpret: truncated
// headers, non-IP EtherTypes, and transports other than TCP/UDP — none of
// these ever stop the capture worker.
func Parse(data []byte) (Result, error) {
	frameLen := uint64(len(data))

	if len(data) < ethernetHeaderLen {
		return Result{}, Rejection{IncompleteEthernet}
	}
	etherType := binary.BigEndian.Uint16(data[12:14])
	payload := data[ethernetHeaderLen:]

	var srcAddr, dstAddr netip.Addr
	var nextProto uint8
	var transport []byte

	switch etherType {
	case ethTypeIPv4:
		if len(payload) < ipv4MinHeaderLen {
			return Result{}, Rejection{IncompleteIP}
		}
		ihl := int(payload[0]&0x0F) * 4
		if ihl < ipv4MinHeaderLen || len(payload) < ihl {
			return Result{}, Rejection{IncompleteIP}
		}
		srcAddr = netip.AddrFrom4([4]byte(payload[12:16]))
		dstAddr = netip.AddrFrom4([4]byte(payload[16:20]))
		nextProto = payload[9]
		transport = payload[ihl:]
	case ethTypeIPv6:
		if len(payload) < ipv6HeaderLen {
			return Result{}, Rejection{IncompleteIP}
		}
		srcAddr = netip.AddrFrom16([16]byte(payload[8:24]))
		dstAddr = netip.AddrFrom16([16]byte(payload[24:40]))
		nextProto = payload[6]
		transport = payload[ipv6HeaderLen:]
	default:
		return Result{}, Rejection{NonIP}
	}

	var srcPort, dstPort uint16
	var proto flow.Protocol

	switch nextProto {
	case protoTCP:
		if len(transport) < tcpMinHeaderLen {
			return Result{}, Rejection{IncompleteTCP}
		}
		srcPort = binary.BigEndian.Uint16(transport[0:2])
		dstPort = binary.BigEndian.Uint16(transport[2:4])
		proto = flow.TCP
	case protoUDP:
		if len(transport) < udpHeaderLen {
			return Result{}, Rejection{IncompleteUDP}
		}
		srcPort = binary.BigEndian.Uint16(transport[0:2])
		dstPort = binary.BigEndian.Uint16(transport[2:4])
		proto = flow.UDP
	default:
		return Result{}, Rejection{UnsupportedTransport}
	}

	return Result{
		Key: flow.Key{
			SrcAddr:  srcAddr,
			DstAddr:  dstAddr,
			Protocol: proto,
			SrcPort:  srcPort,
			DstPort:  dstPort,
		},
		Bytes: frameLen,
	}, nil
}
