package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Treystu/SC-sub006/persistence"
)

func TestQueueEnqueueIsIdempotent(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()
	now := time.Now()

	item := persistence.QueueItem{ID: "1", PeerID: "peer-a", Priority: 0, FrameBytes: []byte("a"), EnqueuedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, q.Enqueue(ctx, item))
	require.NoError(t, q.Enqueue(ctx, item))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, depth)
}

func TestQueueReplayAllOrdersByPriorityThenInsertion(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()
	now := time.Now()

	low := persistence.QueueItem{ID: "low", Priority: 3, EnqueuedAt: now, ExpiresAt: now.Add(time.Hour)}
	high := persistence.QueueItem{ID: "high", Priority: 0, EnqueuedAt: now.Add(time.Second), ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, q.Enqueue(ctx, low))
	require.NoError(t, q.Enqueue(ctx, high))

	items, err := q.ReplayAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "high", items[0].ID)
	require.Equal(t, "low", items[1].ID)
}

func TestQueueReplayAllSkipsExpired(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()
	now := time.Now()

	expired := persistence.QueueItem{ID: "expired", EnqueuedAt: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, q.Enqueue(ctx, expired))

	items, err := q.ReplayAll(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestQueueReplayForPeerFiltersByPeerAndSkipsExpired(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, persistence.QueueItem{ID: "a-1", PeerID: "peer-a", EnqueuedAt: now, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, q.Enqueue(ctx, persistence.QueueItem{ID: "a-2", PeerID: "peer-a", EnqueuedAt: now, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, q.Enqueue(ctx, persistence.QueueItem{ID: "b-1", PeerID: "peer-b", EnqueuedAt: now, ExpiresAt: now.Add(time.Hour)}))

	items, err := q.ReplayForPeer(ctx, "peer-a")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "a-1", items[0].ID)
}

func TestQueuePurgeExpired(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, q.Enqueue(ctx, persistence.QueueItem{ID: "a", EnqueuedAt: now, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, q.Enqueue(ctx, persistence.QueueItem{ID: "b", EnqueuedAt: now, ExpiresAt: now.Add(time.Hour)}))

	n, err := q.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	depth, _ := q.Depth(ctx)
	require.Equal(t, 1, depth)
}

func TestBlobStorePutIsIdempotentAndReadable(t *testing.T) {
	b := NewBlobStore()
	ctx := context.Background()
	var id [32]byte
	id[0] = 0x42

	require.NoError(t, b.Put(ctx, id, []byte("content")))
	require.NoError(t, b.Put(ctx, id, []byte("content")))

	got, err := b.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []byte("content"), got)

	count, total, err := b.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.EqualValues(t, len("content"), total)
}

func TestBlobStoreGetMissingReturnsNotFound(t *testing.T) {
	b := NewBlobStore()
	_, err := b.Get(context.Background(), [32]byte{})
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestLedgerUpsertPreservesFirstSeenAt(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	firstSeen := time.Now().Add(-time.Hour)

	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "b", LastSeenAt: firstSeen, FirstSeenAt: firstSeen}))
	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "b", LastSeenAt: time.Now()}))

	entry, err := l.Get(ctx, "b")
	require.NoError(t, err)
	require.WithinDuration(t, firstSeen, entry.FirstSeenAt, time.Second)
}

func TestLedgerMostRecentlySeenOrdersDescending(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "old", LastSeenAt: now.Add(-time.Hour)}))
	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "new", LastSeenAt: now}))

	recent, err := l.MostRecentlySeen(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "new", recent[0].PeerID)
}

func TestLedgerPurgeOlderThan(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "stale", LastSeenAt: now.Add(-200 * 24 * time.Hour)}))
	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "fresh", LastSeenAt: now}))

	n, err := l.PurgeOlderThan(ctx, now.Add(-persistence.DefaultLedgerRetention))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	size, _ := l.Size(ctx)
	require.Equal(t, 1, size)
}

func TestLedgerWipe(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "a", LastSeenAt: time.Now()}))

	require.NoError(t, l.Wipe(ctx))
	size, _ := l.Size(ctx)
	require.Equal(t, 0, size)
}

func TestLedgerQueryFiltersByPredicate(t *testing.T) {
	l := NewLedger()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "recent", LastSeenAt: now}))
	require.NoError(t, l.Upsert(ctx, persistence.LedgerEntry{PeerID: "stale", LastSeenAt: now.Add(-100 * time.Hour)}))

	results, err := l.Query(ctx, func(e persistence.LedgerEntry) bool {
		return e.IsRecent(now, persistence.DefaultRecentWindow)
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "recent", results[0].PeerID)
}
