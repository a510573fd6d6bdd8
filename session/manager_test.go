package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

func TestManagerEncryptDecryptAcrossPeers(t *testing.T) {
	alice, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)

	aliceMgr := NewManager(alice.Private, alice.Public, DefaultConfig())
	bobMgr := NewManager(bob.Private, bob.Public, DefaultConfig())

	aad := []byte("hdr")
	cipher, nonce, err := aliceMgr.Encrypt("bob", bob.Public, aad, []byte("payload"))
	require.NoError(t, err)

	_, err = bobMgr.EnsureSession("alice", alice.Public)
	require.NoError(t, err)

	plain, err := bobMgr.Decrypt("alice", aad, nonce, cipher)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), plain)
}

func TestManagerStatsCountsSessions(t *testing.T) {
	alice, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)

	mgr := NewManager(alice.Private, alice.Public, DefaultConfig())
	_, err = mgr.EnsureSession("bob", bob.Public)
	require.NoError(t, err)

	stats := mgr.Stats()
	require.Equal(t, 1, stats.TotalSessions)
	require.Equal(t, 0, stats.StaleSessions)
}

func TestManagerRunSweepsStaleSessions(t *testing.T) {
	alice, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.IdleTimeout = time.Millisecond

	mgr := NewManager(alice.Private, alice.Public, cfg)
	mgr.sweepInterval = 2 * time.Millisecond
	_, err = mgr.EnsureSession("bob", bob.Public)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = mgr.Run(ctx)

	_, ok := mgr.Get("bob")
	require.False(t, ok)
}

func TestManagerRemove(t *testing.T) {
	alice, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)

	mgr := NewManager(alice.Private, alice.Public, DefaultConfig())
	_, err = mgr.EnsureSession("bob", bob.Public)
	require.NoError(t, err)

	mgr.Remove("bob")
	_, ok := mgr.Get("bob")
	require.False(t, ok)
}
