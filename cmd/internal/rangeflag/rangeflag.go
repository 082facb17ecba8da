// Package rangeflag implements a pflag.Value for the "(a,b)" literal
// range syntax the capture subcommand's range flags use: inclusive on
// both ends, order-independent, and repeatable — each occurrence of the
// flag on the command line appends one more range rather than
// overwriting the last.
package rangeflag

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/weirdshark/weirdshark/filter"
)

// AddrRange is a pflag.Value accumulating "(addr,addr)" occurrences into
// a list of filter.Filter[netip.Addr]. The zero value holds none.
type AddrRange struct {
	filters []filter.Filter[netip.Addr]
	text    []string
}

func (r *AddrRange) String() string { return strings.Join(r.text, ",") }

func (r *AddrRange) Type() string { return "ip-range" }

func (r *AddrRange) Set(raw string) error {
	a, b, err := splitPair(raw)
	if err != nil {
		return err
	}

	lo, err := netip.ParseAddr(a)
	if err != nil {
		return errors.Wrapf(err, "invalid address %q", a)
	}
	hi, err := netip.ParseAddr(b)
	if err != nil {
		return errors.Wrapf(err, "invalid address %q", b)
	}

	r.filters = append(r.filters, filter.FromAddrRange(lo, hi))
	r.text = append(r.text, raw)
	return nil
}

// IsSet reports whether Set has been called successfully at least once.
func (r *AddrRange) IsSet() bool { return len(r.filters) > 0 }

// Filters returns every range parsed across all occurrences of the flag,
// in the order given on the command line.
func (r *AddrRange) Filters() []filter.Filter[netip.Addr] { return r.filters }

// PortRange is a pflag.Value accumulating "(port,port)" occurrences into
// a list of filter.Filter[uint16].
type PortRange struct {
	filters []filter.Filter[uint16]
	text    []string
}

func (r *PortRange) String() string { return strings.Join(r.text, ",") }

func (r *PortRange) Type() string { return "port-range" }

func (r *PortRange) Set(raw string) error {
	a, b, err := splitPair(raw)
	if err != nil {
		return err
	}

	lo, err := parsePort(a)
	if err != nil {
		return err
	}
	hi, err := parsePort(b)
	if err != nil {
		return err
	}

	r.filters = append(r.filters, filter.FromRange(lo, hi))
	r.text = append(r.text, raw)
	return nil
}

// IsSet reports whether Set has been called successfully at least once.
func (r *PortRange) IsSet() bool { return len(r.filters) > 0 }

// Filters returns every range parsed across all occurrences of the flag,
// in the order given on the command line.
func (r *PortRange) Filters() []filter.Filter[uint16] { return r.filters }

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid port %q", s)
	}
	return uint16(n), nil
}

// splitPair parses the literal "(x,y)" wrapper shared by both range
// flavors.
func splitPair(raw string) (a, b string, err error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 2 || trimmed[0] != '(' || trimmed[len(trimmed)-1] != ')' {
		return "", "", errors.Errorf("range %q must be of the form (a,b)", raw)
	}
	inner := trimmed[1 : len(trimmed)-1]
	parts := strings.SplitN(inner, ",", 2)
	if len(parts) != 2 {
		return "", "", errors.Errorf("range %q must be of the form (a,b)", raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}
