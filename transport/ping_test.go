package transport

import (
	"testing"

	"github.com/stretchr/testify/require"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
	"github.com/Treystu/SC-sub006/wire"
)

func TestPingPongRoundTripValidates(t *testing.T) {
	a, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	b, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)

	var msgID [wire.MessageIDSize]byte
	msgID[0] = 1

	ping, challenge, err := NewPing(a.Private, a.Public, msgID, 1000)
	require.NoError(t, err)
	require.True(t, IsPing(ping))
	require.Len(t, challenge, DefaultPingChallengeBytes)

	pong, err := NewPong(b.Private, b.Public, ping, 1001)
	require.NoError(t, err)
	require.True(t, IsPong(pong))

	require.True(t, VerifyPong(ping, pong))
}

func TestVerifyPongRejectsMismatchedChallenge(t *testing.T) {
	a, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	b, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)

	var msgID [wire.MessageIDSize]byte
	ping, _, err := NewPing(a.Private, a.Public, msgID, 1000)
	require.NoError(t, err)

	pong, err := NewPong(b.Private, b.Public, ping, 1001)
	require.NoError(t, err)
	pong.Payload[0] ^= 0xFF

	require.False(t, VerifyPong(ping, pong))
}
