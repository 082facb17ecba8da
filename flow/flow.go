// Package flow defines the 5-tuple key and counters the capture worker
// aggregates packets into.
package flow

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Protocol is a transport-layer protocol that weirdshark understands. The
// capture pipeline never represents any other transport: packets carrying
// anything else are rejected by the parser before a Key is constructed.
type Protocol uint8

const (
	TCP Protocol = iota
	UDP
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return fmt.Sprintf("Protocol(%d)", uint8(p))
	}
}

// ParseProtocol parses the case-insensitive literal used on the CLI
// (--transport-protocol tcp|udp).
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(s) {
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return 0, fmt.Errorf("unknown transport protocol %q, want tcp or udp", s)
	}
}

// Key is the flow-identity 5-tuple: source/destination address, transport
// protocol, and source/destination port. netip.Addr is comparable and
// distinguishes a v4 address from a v6 address that happens to be its
// IPv4-mapped form, which a flow key must not conflate.
type Key struct {
	SrcAddr  netip.Addr
	DstAddr  netip.Addr
	Protocol Protocol
	SrcPort  uint16
	DstPort  uint16
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d/%s", k.SrcAddr, k.SrcPort, k.DstAddr, k.DstPort, k.Protocol)
}

// Value is the monoid a Key accumulates: cumulative byte count and the
// first/last time a packet for the key was observed. Zero Value is never
// valid on its own; Accumulate's first call for a key establishes
// FirstSeen == LastSeen.
type Value struct {
	Bytes     uint64
	FirstSeen time.Time
	LastSeen  time.Time
}

// Accumulate folds one more accepted packet of length bytes, observed at
// t, into v: on first insertion FirstSeen and LastSeen both equal t; on
// every later update only LastSeen and Bytes change.
func (v *Value) Accumulate(bytes uint64, t time.Time) {
	if v.FirstSeen.IsZero() {
		v.FirstSeen = t
	}
	v.LastSeen = t
	v.Bytes += bytes
}

// Map is the aggregation map: unique Key to cumulative Value. The capture
// worker is the map's sole owner and mutator; no locking is needed
// because of that single-writer discipline.
type Map map[Key]*Value

// Accept folds one accepted packet into the map, inserting a new entry
// when the key is first seen.
func (m Map) Accept(k Key, bytes uint64, t time.Time) {
	v, ok := m[k]
	if !ok {
		v = &Value{}
		m[k] = v
	}
	v.Accumulate(bytes, t)
}
