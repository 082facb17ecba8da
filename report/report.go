// Package report writes one CSV file per flush of the aggregation map,
// one row per flow key with a fixed column order.
//
// No repo in the example pack imports a third-party CSV/tabular
// serialization library, so this is one of the few places this module
// reaches for the standard library instead of an ecosystem package — see
// DESIGN.md.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/weirdshark/weirdshark/flow"
)

var header = []string{
	"source_ip", "destination_ip", "transport_protocol",
	"source_port", "destination_port", "bytes", "first_seen", "last_seen",
}

// FileName builds the filesystem-safe report file name for a flush
// happening at t: "{prefix}_{local-iso8601-timestamp}.csv", with colons
// and periods in the timestamp substituted so the name is safe on every
// platform this runs on (notably Windows, which rejects ':' in names).
func FileName(prefix string, t time.Time) string {
	ts := t.Format("2006-01-02T15-04-05.000-0700")
	ts = strings.NewReplacer(":", "-", ".", "_").Replace(ts)
	return fmt.Sprintf("%s_%s.csv", prefix, ts)
}

// Write snapshots m into a new file under dir named via FileName, one row
// per flow key in unspecified order. m is not mutated. Returns the full
// path written.
func Write(dir, prefix string, t time.Time, m flow.Map) (string, error) {
	path := filepath.Join(dir, FileName(prefix, t))

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create report file %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", errors.Wrap(err, "failed to write report header")
	}

	for k, v := range m {
		row := []string{
			k.SrcAddr.String(),
			k.DstAddr.String(),
			k.Protocol.String(),
			strconv.FormatUint(uint64(k.SrcPort), 10),
			strconv.FormatUint(uint64(k.DstPort), 10),
			strconv.FormatUint(v.Bytes, 10),
			v.FirstSeen.Format(time.RFC3339),
			v.LastSeen.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", errors.Wrapf(err, "failed to write report row for flow %s", k)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "failed to flush report file")
	}
	return path, nil
}
