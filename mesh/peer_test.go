package mesh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRegistryHeartbeatRegistersPeer(t *testing.T) {
	r := NewRegistry(time.Minute, time.Hour, nil)
	now := time.Now()

	r.Heartbeat("peer-a", "fp-a", now)

	p, ok := r.Get("peer-a")
	require.True(t, ok)
	require.Equal(t, "peer-a", p.PeerID)
	require.Equal(t, 1, r.Count())
}

func TestRegistrySweepMarksStaleThenRemovesDead(t *testing.T) {
	r := NewRegistry(10*time.Second, 20*time.Second, nil)
	start := time.Now()
	r.Heartbeat("peer-a", "fp-a", start)

	r.Sweep(start.Add(15 * time.Second))
	_, ok := r.Get("peer-a")
	require.True(t, ok, "stale peer should still be tracked")

	r.Sweep(start.Add(25 * time.Second))
	_, ok = r.Get("peer-a")
	require.False(t, ok, "dead peer should be removed")
}

func TestRegistrySweepFiresDisconnectCallback(t *testing.T) {
	var disconnected []string
	r := NewRegistry(time.Second, 2*time.Second, func(ev DisconnectEvent) {
		disconnected = append(disconnected, ev.PeerID)
	})
	start := time.Now()
	r.Heartbeat("peer-a", "fp-a", start)

	r.Sweep(start.Add(5 * time.Second))
	require.Equal(t, []string{"peer-a"}, disconnected)
}

func TestRegistryConnectedExceptExcludesArrivalPeer(t *testing.T) {
	r := NewRegistry(time.Minute, time.Hour, nil)
	now := time.Now()
	r.Heartbeat("peer-a", "fp-a", now)
	r.Heartbeat("peer-b", "fp-b", now)
	r.Heartbeat("peer-c", "fp-c", now)

	others := r.ConnectedExcept("peer-b")
	require.Len(t, others, 2)
	require.NotContains(t, others, "peer-b")
}

func TestRegistrySocialCount(t *testing.T) {
	r := NewRegistry(time.Minute, time.Hour, nil)
	now := time.Now()
	r.Heartbeat("peer-a", "fp-a", now)
	r.Heartbeat("peer-b", "fp-b", now)
	r.SetSocial("peer-a", true)

	require.Equal(t, 1, r.SocialCount())
}
