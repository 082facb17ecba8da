package capture

import (
	"encoding/binary"
	"encoding/csv"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weirdshark/weirdshark/filter"
	"github.com/weirdshark/weirdshark/flow"
)

func udpFrame(srcIP, dstIP string, srcPort, dstPort uint16, totalLen int) []byte {
	const ethLen, ipLen = 14, 20
	frame := make([]byte, totalLen)
	binary.BigEndian.PutUint16(frame[12:14], 0x0800) // IPv4

	ip := frame[ethLen:]
	ip[0] = 0x45
	ip[9] = 17 // UDP
	copy(ip[12:16], net.ParseIP(srcIP).To4())
	copy(ip[16:20], net.ParseIP(dstIP).To4())

	udp := frame[ethLen+ipLen:]
	binary.BigEndian.PutUint16(udp[0:2], srcPort)
	binary.BigEndian.PutUint16(udp[2:4], dstPort)
	return frame
}

func newTestWorker(t *testing.T, filters filter.Set, flushInterval time.Duration) (*Worker, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := NewWorker(Config{
		ReportDir:     dir,
		Prefix:        "weirdshark_capture",
		FlushInterval: flushInterval,
		Filters:       filters,
	})
	require.NoError(t, err)
	return w, dir
}

// sendFrame enqueues a frame directly on the worker's command queue,
// bypassing the capture adapter goroutine so tests can control enqueue
// order precisely relative to Start/Pause/Flush/Stop — the adapter itself
// is exercised separately in TestCaptureReadErrorTerminatesWorkerFatally.
func sendFrame(w *Worker, data []byte) {
	w.Send(Command{Type: Frame, FrameData: data})
}

func reportsIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func readRows(t *testing.T, dir, name string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

// S1: single DNS query is recorded.
func TestSingleUDPQueryRecorded(t *testing.T) {
	proto := flow.UDP
	filters := filter.Set{
		Addresses: []filter.DirectedFilter[netip.Addr]{
			filter.NewDirectedFilter(filter.FromList(netip.MustParseAddr("172.16.133.251")), filter.SourceOnly),
			filter.NewDirectedFilter(filter.FromList(netip.MustParseAddr("10.96.0.10")), filter.DestinationOnly),
		},
		Ports: []filter.DirectedFilter[uint16]{
			filter.NewDirectedFilter(filter.FromList[uint16](37826), filter.SourceOnly),
			filter.NewDirectedFilter(filter.FromList[uint16](53), filter.DestinationOnly),
		},
		Protocol: &proto,
	}
	w, dir := newTestWorker(t, filters, 0)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	sendFrame(w, udpFrame("172.16.133.251", "10.96.0.10", 37826, 53, 90))

	w.Send(Command{Type: Flush})
	w.Send(Command{Type: Stop})
	require.NoError(t, <-done)

	names := reportsIn(t, dir)
	require.Len(t, names, 1)
	rows := readRows(t, dir, names[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "172.16.133.251", rows[1][0])
	assert.Equal(t, "10.96.0.10", rows[1][1])
	assert.Equal(t, "UDP", rows[1][2])
	assert.Equal(t, "37826", rows[1][3])
	assert.Equal(t, "53", rows[1][4])
	assert.Equal(t, "90", rows[1][5])
}

// S2: filter miss -> zero rows.
func TestNonMatchingFrameIsFiltered(t *testing.T) {
	tcp := flow.TCP
	w, dir := newTestWorker(t, filter.Set{Protocol: &tcp}, 0)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	sendFrame(w, udpFrame("172.16.133.251", "10.96.0.10", 37826, 53, 90))

	w.Send(Command{Type: Flush})
	w.Send(Command{Type: Stop})
	require.NoError(t, <-done)

	names := reportsIn(t, dir)
	require.Len(t, names, 1)
	rows := readRows(t, dir, names[0])
	assert.Len(t, rows, 1) // header only
}

// S3: aggregation of 3 frames with identical 5-tuples.
func TestMatchingFramesAggregateIntoOneFlow(t *testing.T) {
	w, dir := newTestWorker(t, filter.Set{}, 0)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	sendFrame(w, udpFrame("1.2.3.4", "5.6.7.8", 1000, 2000, 100))
	sendFrame(w, udpFrame("1.2.3.4", "5.6.7.8", 1000, 2000, 150))
	sendFrame(w, udpFrame("1.2.3.4", "5.6.7.8", 1000, 2000, 200))

	w.Send(Command{Type: Flush})
	w.Send(Command{Type: Stop})
	require.NoError(t, <-done)

	names := reportsIn(t, dir)
	require.Len(t, names, 1)
	rows := readRows(t, dir, names[0])
	require.Len(t, rows, 2)
	assert.Equal(t, "450", rows[1][5])
}

// S4: pause gating drops frames injected while paused.
func TestPauseDropsFramesWhilePaused(t *testing.T) {
	w, dir := newTestWorker(t, filter.Set{}, 0)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	w.Send(Command{Type: Start})
	sendFrame(w, udpFrame("1.1.1.1", "2.2.2.2", 10, 20, 80)) // A
	w.Send(Command{Type: Pause})
	sendFrame(w, udpFrame("3.3.3.3", "4.4.4.4", 30, 40, 80)) // B, should be dropped
	w.Send(Command{Type: Start})
	sendFrame(w, udpFrame("5.5.5.5", "6.6.6.6", 50, 60, 80)) // C

	w.Send(Command{Type: Flush})
	w.Send(Command{Type: Stop})
	require.NoError(t, <-done)

	names := reportsIn(t, dir)
	require.Len(t, names, 1)
	rows := readRows(t, dir, names[0])
	require.Len(t, rows, 3) // header + A + C
	var srcIPs []string
	for _, r := range rows[1:] {
		srcIPs = append(srcIPs, r[0])
	}
	assert.ElementsMatch(t, []string{"1.1.1.1", "5.5.5.5"}, srcIPs)
}

// S5: periodic flushes add reports of their own; A and B each appear in
// exactly one report.
func TestPeriodicFlushWritesReport(t *testing.T) {
	w, dir := newTestWorker(t, filter.Set{}, 50*time.Millisecond)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	sendFrame(w, udpFrame("1.1.1.1", "2.2.2.2", 10, 20, 80)) // A
	time.Sleep(120 * time.Millisecond)
	sendFrame(w, udpFrame("3.3.3.3", "4.4.4.4", 30, 40, 80)) // B

	w.Send(Command{Type: Flush})
	w.Send(Command{Type: Stop})
	require.NoError(t, <-done)

	names := reportsIn(t, dir)
	require.GreaterOrEqual(t, len(names), 2)

	seen := map[string]bool{}
	for _, n := range names {
		for _, r := range readRows(t, dir, n)[1:] {
			assert.False(t, seen[r[0]], "flow %s appeared in more than one report", r[0])
			seen[r[0]] = true
		}
	}
	assert.True(t, seen["1.1.1.1"])
	assert.True(t, seen["3.3.3.3"])
}

func TestParserRejectionNeverTerminatesWorker(t *testing.T) {
	w, dir := newTestWorker(t, filter.Set{}, 0)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	sendFrame(w, make([]byte, 4)) // IncompleteEthernet
	sendFrame(w, udpFrame("1.1.1.1", "2.2.2.2", 10, 20, 80))

	w.Send(Command{Type: Flush})
	w.Send(Command{Type: Stop})
	require.NoError(t, <-done)

	names := reportsIn(t, dir)
	require.Len(t, names, 1)
	rows := readRows(t, dir, names[0])
	require.Len(t, rows, 2) // header + the one valid frame
}

func TestCaptureReadErrorTerminatesWorkerFatally(t *testing.T) {
	w, _ := newTestWorker(t, filter.Set{}, 0)

	src := newFakeSource()
	done := make(chan error, 1)
	go func() { done <- w.Run(src) }()

	src.fail(errFakeRead)

	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaptureRead)
}
