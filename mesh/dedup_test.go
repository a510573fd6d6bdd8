package mesh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDedupCacheFirstSeenAdmitsSubsequentRejects(t *testing.T) {
	c := NewDedupCache(10, time.Minute)
	now := time.Now()
	key := DedupKey{SenderID: [32]byte{1}, MessageID: [16]byte{2}}

	require.False(t, c.Seen(key, now))
	require.True(t, c.Seen(key, now))
}

func TestDedupCacheTreatsEachFragmentAsItsOwnSlot(t *testing.T) {
	c := NewDedupCache(10, time.Minute)
	now := time.Now()
	fragment0 := DedupKey{SenderID: [32]byte{1}, MessageID: [16]byte{2}, FragmentIndex: 0}
	fragment1 := DedupKey{SenderID: [32]byte{1}, MessageID: [16]byte{2}, FragmentIndex: 1}

	require.False(t, c.Seen(fragment0, now))
	require.False(t, c.Seen(fragment1, now), "a different fragment of the same message must not collide with fragment 0's slot")
	require.True(t, c.Seen(fragment0, now))
	require.True(t, c.Seen(fragment1, now))
}

func TestDedupCacheAgesOut(t *testing.T) {
	c := NewDedupCache(10, time.Second)
	now := time.Now()
	key := DedupKey{SenderID: [32]byte{1}, MessageID: [16]byte{2}}

	require.False(t, c.Seen(key, now))
	require.False(t, c.Seen(key, now.Add(2*time.Second)), "entry should have aged out")
}

func TestDedupCacheEvictsOldestAtCapacity(t *testing.T) {
	c := NewDedupCache(2, time.Hour)
	now := time.Now()
	k1 := DedupKey{SenderID: [32]byte{1}}
	k2 := DedupKey{SenderID: [32]byte{2}}
	k3 := DedupKey{SenderID: [32]byte{3}}

	require.False(t, c.Seen(k1, now))
	require.False(t, c.Seen(k2, now))
	require.False(t, c.Seen(k3, now)) // evicts k1

	require.Equal(t, 2, c.Size())
	require.False(t, c.Seen(k1, now), "k1 was evicted, so it's seen as new again")
}
