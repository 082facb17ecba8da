package filter

import (
	"net/netip"

	"github.com/weirdshark/weirdshark/flow"
)

// Set is the full filter configuration of a capturer: two ordered
// collections of directed filters plus an optional protocol constraint.
// Order never affects semantics (see Accepts).
type Set struct {
	Addresses []DirectedFilter[netip.Addr]
	Ports     []DirectedFilter[uint16]
	Protocol  *flow.Protocol
}

// Accepts implements the set's composition rule:
//
//	(no address filters  OR any address filter matches) AND
//	(no port filters     OR any port filter matches)     AND
//	(no protocol filter  OR protocol filter == packet protocol)
//
// Filters of the same kind combine disjunctively (OR); filters of
// different kinds combine conjunctively (AND); an empty filter kind is
// unconstrained.
func (s Set) Accepts(k flow.Key) bool {
	if len(s.Addresses) > 0 {
		matched := false
		for _, f := range s.Addresses {
			if f.Accepts(k.SrcAddr, k.DstAddr) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(s.Ports) > 0 {
		matched := false
		for _, f := range s.Ports {
			if f.Accepts(k.SrcPort, k.DstPort) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if s.Protocol != nil && *s.Protocol != k.Protocol {
		return false
	}

	return true
}
