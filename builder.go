// Package weirdshark is the builder/controller façade: it resolves an
// interface selector to a concrete host interface, opens the capture
// transport, wires it to a capture.Worker, and hands back a Capturer the
// caller drives with Start/Pause/Stop.
//
package weirdshark

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/weirdshark/weirdshark/capture"
	"github.com/weirdshark/weirdshark/capture/transport"
	"github.com/weirdshark/weirdshark/filter"
)

const (
	defaultReportDir     = "."
	defaultPrefix        = "weirdshark_capture"
	defaultFlushInterval = 60 * time.Second
)

// interfaceSelector is set by exactly one of WithInterfaceName,
// WithInterfaceIndex, or WithInterfaceDescription; the last call wins.
type interfaceSelector struct {
	kind string // "", "name", "index", or "description"
	name string
	idx  int
	desc string
}

// Builder accumulates capture configuration before producing a Capturer.
// It is not safe for concurrent use; build one Capturer per Builder.
type Builder struct {
	selector      interfaceSelector
	reportDir     string
	prefix        string
	flushInterval time.Duration
	filters       filter.Set
}

// NewBuilder returns a Builder seeded with sensible defaults: the current
// directory for reports, a 60s flush interval, and an unconstrained
// filter set.
func NewBuilder() *Builder {
	return &Builder{
		reportDir:     defaultReportDir,
		prefix:        defaultPrefix,
		flushInterval: defaultFlushInterval,
	}
}

// WithInterfaceName selects the capture interface by OS device name
// (e.g. "eth0", "en0"). Overrides any previous interface selection.
func (b *Builder) WithInterfaceName(name string) *Builder {
	b.selector = interfaceSelector{kind: "name", name: name}
	return b
}

// WithInterfaceIndex selects the capture interface by its position in
// transport.ListInterfaces' result, as set by the capture subcommand's
// `--interface-index` flag. Overrides any previous interface selection.
func (b *Builder) WithInterfaceIndex(idx int) *Builder {
	b.selector = interfaceSelector{kind: "index", idx: idx}
	return b
}

// WithInterfaceDescription selects the first interface whose pcap
// description contains desc. Overrides any previous interface selection.
func (b *Builder) WithInterfaceDescription(desc string) *Builder {
	b.selector = interfaceSelector{kind: "description", desc: desc}
	return b
}

// WithReportDir sets the directory report files are written into.
func (b *Builder) WithReportDir(dir string) *Builder {
	b.reportDir = dir
	return b
}

// WithPrefix sets the report file name prefix (report.FileName).
func (b *Builder) WithPrefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// WithFlushInterval sets the periodic flush period. Zero disables the
// periodic flusher entirely; Flush is then only triggered by Stop or
// Capturer.Flush.
func (b *Builder) WithFlushInterval(d time.Duration) *Builder {
	b.flushInterval = d
	return b
}

// WithFilters sets the capture filter set.
func (b *Builder) WithFilters(f filter.Set) *Builder {
	b.filters = f
	return b
}

// Build resolves the selected interface, opens its capture transport,
// and constructs the capture.Worker backing the returned Capturer. The
// worker's dispatch loop is not started until the caller calls
// Capturer.Run (typically in its own goroutine).
func (b *Builder) Build() (*Capturer, error) {
	ifaces, err := transport.ListInterfaces()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate interfaces")
	}

	iface, err := b.resolveInterface(ifaces)
	if err != nil {
		return nil, err
	}

	src, err := transport.OpenLive(iface.Name)
	if err != nil {
		return nil, errors.Wrapf(ErrCaptureTransportOpenFailed, "%s: %v", iface.Name, err)
	}

	worker, err := capture.NewWorker(capture.Config{
		ReportDir:     b.reportDir,
		Prefix:        b.prefix,
		FlushInterval: b.flushInterval,
		Filters:       b.filters,
	})
	if err != nil {
		src.Close()
		return nil, err
	}

	return &Capturer{
		worker:    worker,
		src:       src,
		Interface: iface,
		SessionID: uuid.NewString(),
	}, nil
}

func (b *Builder) resolveInterface(ifaces []transport.Interface) (transport.Interface, error) {
	switch b.selector.kind {
	case "name":
		for _, iface := range ifaces {
			if iface.Name == b.selector.name {
				return iface, nil
			}
		}
		return transport.Interface{}, errors.Wrapf(ErrInterfaceNotFound, "name %q", b.selector.name)

	case "index":
		if b.selector.idx < 0 || b.selector.idx >= len(ifaces) {
			return transport.Interface{}, errors.Wrapf(ErrInterfaceNotFound, "index %d", b.selector.idx)
		}
		return ifaces[b.selector.idx], nil

	case "description":
		for _, iface := range ifaces {
			if strings.Contains(iface.Description, b.selector.desc) {
				return iface, nil
			}
		}
		return transport.Interface{}, errors.Wrapf(ErrInterfaceNotFound, "description %q", b.selector.desc)

	default:
		iface, ok := DefaultInterface(ifaces)
		if !ok {
			return transport.Interface{}, ErrInterfaceNotSpecified
		}
		return iface, nil
	}
}

// DefaultInterface picks the obvious interface to capture on when the
// caller names none explicitly: up, non-loopback, carrying a MAC and at
// least one address, preferring whichever candidate has the most
// addresses bound (a proxy for "the interface actually in use").
func DefaultInterface(ifaces []transport.Interface) (transport.Interface, bool) {
	var best transport.Interface
	found := false
	for _, iface := range ifaces {
		if iface.Loopback || !iface.Up || !iface.HasMAC || len(iface.Addresses) == 0 {
			continue
		}
		if !found || len(iface.Addresses) > len(best.Addresses) {
			best = iface
			found = true
		}
	}
	return best, found
}
