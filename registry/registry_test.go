package registry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back2basic/linkcollector/model"
)

func TestLoadGroupsByPrefix(t *testing.T) {
	reg := New()
	reg.Load("/ndn/edu/arizona", 1, "10.0.0.1")
	reg.Load("/ndn/edu/wustl", 2, "10.0.0.2")
	reg.Load("/ndn/edu/arizona", 3, "10.0.0.3")

	require.Equal(t, 3, reg.Len())
	assert.Equal(t, []string{"/ndn/edu/arizona", "/ndn/edu/wustl"}, reg.Prefixes())

	links, err := reg.LinksFor("/ndn/edu/arizona")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, 1, links[0].ID)
	assert.Equal(t, 3, links[1].ID)
	assert.Equal(t, model.UnsetTimestamp, links[0].Stats.Timestamp)
	assert.Zero(t, links[0].Stats.TxBytes)
}

func TestLinksForUnknownPrefix(t *testing.T) {
	reg := New()
	reg.Load("/a", 1, "x")

	_, err := reg.LinksFor("/unregistered/prefix")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrefixNotFound))
}

func TestGroupsReachEveryLink(t *testing.T) {
	reg := New()
	type entry struct {
		prefix string
		id     int
		addr   string
	}
	entries := []entry{
		{"/p1", 1, "a"},
		{"/p2", 2, "b"},
		{"/p1", 3, "c"},
		{"/p3", 4, "a"},
		{"/p2", 5, "d"},
	}
	for _, e := range entries {
		reg.Load(e.prefix, e.id, e.addr)
	}

	total := 0
	for _, g := range reg.Groups() {
		total += len(g.Links)
	}
	assert.Equal(t, len(entries), total)

	for _, e := range entries {
		links, err := reg.LinksFor(e.prefix)
		require.NoError(t, err)
		found := false
		for _, l := range links {
			if l.Address == e.addr && l.ID == e.id {
				found = true
			}
		}
		assert.True(t, found, "link %d not reachable under %s", e.id, e.prefix)
	}
}

func TestGroupAddressesKeepOrder(t *testing.T) {
	reg := New()
	reg.Load("/p", 1, "c")
	reg.Load("/p", 2, "a")
	reg.Load("/p", 3, "b")

	assert.Equal(t, []string{"c", "a", "b"}, reg.Groups()[0].Addresses())
}

func TestDuplicateAddresses(t *testing.T) {
	reg := New()
	reg.Load("/p", 1, "a")
	reg.Load("/p", 2, "b")
	reg.Load("/p", 3, "a")
	reg.Load("/q", 4, "a")

	dups := reg.DuplicateAddresses()
	require.Len(t, dups, 1)
	assert.Equal(t, Duplicate{Prefix: "/p", Address: "a", LinkIDs: []int{1, 3}}, dups[0])

	// both entries are kept
	links, err := reg.LinksFor("/p")
	require.NoError(t, err)
	assert.Len(t, links, 3)
}

func TestSnapshotIsDetached(t *testing.T) {
	reg := New()
	l := reg.Load("/p", 1, "a")

	snap := reg.Snapshot()
	l.Stats.Set(5, 6, "T1")

	require.Len(t, snap, 1)
	assert.False(t, snap[0].Updated())
	assert.Zero(t, snap[0].TxBytes)
	assert.True(t, reg.Snapshot()[0].Updated())
}
