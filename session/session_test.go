package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

func newPeerPair(t *testing.T) (aliceKP, bobKP meshcrypto.KeyPair) {
	t.Helper()
	alice, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	return alice, bob
}

func TestSessionEncryptDecryptRoundTrip(t *testing.T) {
	alice, bob := newPeerPair(t)

	aliceSess, err := New("bob", alice.Private, alice.Public, bob.Public, DefaultConfig())
	require.NoError(t, err)
	bobSess, err := New("alice", bob.Private, bob.Public, alice.Public, DefaultConfig())
	require.NoError(t, err)

	aad := []byte("frame-header")
	plain := []byte("hello mesh")

	cipher, nonce, err := aliceSess.Seal(aad, plain)
	require.NoError(t, err)

	opened, err := bobSess.Open(aad, nonce, cipher)
	require.NoError(t, err)
	require.Equal(t, plain, opened)
}

func TestSessionDirectionalKeysDiffer(t *testing.T) {
	alice, bob := newPeerPair(t)

	aliceSess, err := New("bob", alice.Private, alice.Public, bob.Public, DefaultConfig())
	require.NoError(t, err)
	bobSess, err := New("alice", bob.Private, bob.Public, alice.Public, DefaultConfig())
	require.NoError(t, err)

	// Alice's send key must equal Bob's recv key and vice versa.
	require.Equal(t, aliceSess.current.sendKey, bobSess.current.recvKey)
	require.Equal(t, bobSess.current.sendKey, aliceSess.current.recvKey)
	require.NotEqual(t, aliceSess.current.sendKey, aliceSess.current.recvKey)
}

func TestSessionRejectsReplayedNonce(t *testing.T) {
	alice, bob := newPeerPair(t)

	aliceSess, err := New("bob", alice.Private, alice.Public, bob.Public, DefaultConfig())
	require.NoError(t, err)
	bobSess, err := New("alice", bob.Private, bob.Public, alice.Public, DefaultConfig())
	require.NoError(t, err)

	aad := []byte("hdr")
	cipher, nonce, err := aliceSess.Seal(aad, []byte("msg-1"))
	require.NoError(t, err)

	_, err = bobSess.Open(aad, nonce, cipher)
	require.NoError(t, err)

	_, err = bobSess.Open(aad, nonce, cipher)
	require.ErrorIs(t, err, ErrNoKeyOpened)
}

func TestSessionRotateRetiresOldKeyForGraceWindow(t *testing.T) {
	alice, bob := newPeerPair(t)

	aliceSess, err := New("bob", alice.Private, alice.Public, bob.Public, DefaultConfig())
	require.NoError(t, err)
	bobSess, err := New("alice", bob.Private, bob.Public, alice.Public, DefaultConfig())
	require.NoError(t, err)

	aad := []byte("hdr")
	staleCipher, staleNonce, err := aliceSess.Seal(aad, []byte("sent-before-rotation"))
	require.NoError(t, err)

	require.NoError(t, aliceSess.Rotate(alice.Private, 1))
	require.NoError(t, bobSess.Rotate(bob.Private, 1))

	// A frame sealed before rotation must still open against the
	// retired generation within the grace window.
	opened, err := bobSess.Open(aad, staleNonce, staleCipher)
	require.NoError(t, err)
	require.Equal(t, []byte("sent-before-rotation"), opened)

	// And fresh frames use the new generation.
	freshCipher, freshNonce, err := aliceSess.Seal(aad, []byte("sent-after-rotation"))
	require.NoError(t, err)
	opened, err = bobSess.Open(aad, freshNonce, freshCipher)
	require.NoError(t, err)
	require.Equal(t, []byte("sent-after-rotation"), opened)
}

func TestSessionNeedsRotationOnByteThreshold(t *testing.T) {
	alice, bob := newPeerPair(t)
	cfg := DefaultConfig()
	cfg.RotateAfterBytes = 4

	sess, err := New("bob", alice.Private, alice.Public, bob.Public, cfg)
	require.NoError(t, err)
	require.False(t, sess.NeedsRotation())

	_, _, err = sess.Seal(nil, []byte("abcdef"))
	require.NoError(t, err)
	require.True(t, sess.NeedsRotation())
}

func TestSessionIsStaleAfterIdleTimeout(t *testing.T) {
	alice, bob := newPeerPair(t)
	cfg := DefaultConfig()
	cfg.IdleTimeout = time.Millisecond

	sess, err := New("bob", alice.Private, alice.Public, bob.Public, cfg)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.True(t, sess.IsStale())
}

func TestSessionCloseZeroesKeys(t *testing.T) {
	alice, bob := newPeerPair(t)
	sess, err := New("bob", alice.Private, alice.Public, bob.Public, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	_, _, err = sess.Seal(nil, []byte("x"))
	require.ErrorIs(t, err, ErrClosed)
}
