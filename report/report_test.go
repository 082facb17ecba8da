package report

import (
	"encoding/csv"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weirdshark/weirdshark/flow"
)

func TestFileNameIsFilesystemSafe(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 9, 0, time.UTC)
	name := FileName("weirdshark_capture", ts)

	assert.NotContains(t, name, ":")
	assert.True(t, filepath.Ext(name) == ".csv")
	assert.Contains(t, name, "weirdshark_capture_")
}

func TestWriteProducesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()

	now := time.Now()
	k := flow.Key{
		SrcAddr:  netip.MustParseAddr("172.16.133.251"),
		DstAddr:  netip.MustParseAddr("10.96.0.10"),
		Protocol: flow.UDP,
		SrcPort:  37826,
		DstPort:  53,
	}
	m := flow.Map{k: {Bytes: 90, FirstSeen: now, LastSeen: now}}

	path, err := Write(dir, "weirdshark_capture", now, m)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, "172.16.133.251", rows[1][0])
	assert.Equal(t, "10.96.0.10", rows[1][1])
	assert.Equal(t, "UDP", rows[1][2])
	assert.Equal(t, "37826", rows[1][3])
	assert.Equal(t, "53", rows[1][4])
	assert.Equal(t, "90", rows[1][5])
}

func TestWriteEmptyMapStillProducesHeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "weirdshark_capture", time.Now(), flow.Map{})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
