package rangeflag

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddrRangeParsesInclusiveBounds(t *testing.T) {
	var r AddrRange
	require.NoError(t, r.Set("(10.0.0.1,10.0.0.9)"))
	assert.True(t, r.IsSet())
	require.Len(t, r.Filters(), 1)
	assert.True(t, r.Filters()[0].Matches(netip.MustParseAddr("10.0.0.1")))
	assert.True(t, r.Filters()[0].Matches(netip.MustParseAddr("10.0.0.9")))
	assert.False(t, r.Filters()[0].Matches(netip.MustParseAddr("10.0.0.10")))
}

func TestAddrRangeAccumulatesAcrossRepeatedSet(t *testing.T) {
	var r AddrRange
	require.NoError(t, r.Set("(10.0.0.1,10.0.0.9)"))
	require.NoError(t, r.Set("(192.168.0.1,192.168.0.9)"))
	require.Len(t, r.Filters(), 2)
	assert.True(t, r.Filters()[0].Matches(netip.MustParseAddr("10.0.0.5")))
	assert.False(t, r.Filters()[0].Matches(netip.MustParseAddr("192.168.0.5")))
	assert.True(t, r.Filters()[1].Matches(netip.MustParseAddr("192.168.0.5")))
}

func TestAddrRangeRejectsMalformed(t *testing.T) {
	var r AddrRange
	assert.Error(t, r.Set("10.0.0.1,10.0.0.9"))
	assert.Error(t, r.Set("(not-an-ip,10.0.0.9)"))
	assert.False(t, r.IsSet())
}

func TestPortRangeParsesAndSwapsReversedBounds(t *testing.T) {
	var r PortRange
	require.NoError(t, r.Set("(8080,80)"))
	require.Len(t, r.Filters(), 1)
	assert.True(t, r.Filters()[0].Matches(80))
	assert.True(t, r.Filters()[0].Matches(8080))
	assert.True(t, r.Filters()[0].Matches(443))
	assert.False(t, r.Filters()[0].Matches(79))
}

func TestPortRangeAccumulatesAcrossRepeatedSet(t *testing.T) {
	var r PortRange
	require.NoError(t, r.Set("(20,40)"))
	require.NoError(t, r.Set("(8000,9000)"))
	require.Len(t, r.Filters(), 2)
	assert.True(t, r.Filters()[0].Matches(30))
	assert.False(t, r.Filters()[0].Matches(8500))
	assert.True(t, r.Filters()[1].Matches(8500))
}

func TestPortRangeRejectsOutOfRangeValue(t *testing.T) {
	var r PortRange
	assert.Error(t, r.Set("(0,70000)"))
}
