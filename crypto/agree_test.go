package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAgreeIsSymmetric(t *testing.T) {
	alice, _, err := GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := GenerateIdentity()
	require.NoError(t, err)

	aliceShared, err := Agree(alice.Private, bob.Public)
	require.NoError(t, err)
	bobShared, err := Agree(bob.Private, alice.Public)
	require.NoError(t, err)

	require.Equal(t, aliceShared, bobShared)
	require.Len(t, aliceShared, SharedKeySize)
}

func TestAgreeDiffersPerPeer(t *testing.T) {
	alice, _, err := GenerateIdentity()
	require.NoError(t, err)
	bob, _, err := GenerateIdentity()
	require.NoError(t, err)
	carol, _, err := GenerateIdentity()
	require.NoError(t, err)

	withBob, err := Agree(alice.Private, bob.Public)
	require.NoError(t, err)
	withCarol, err := Agree(alice.Private, carol.Public)
	require.NoError(t, err)

	require.NotEqual(t, withBob, withCarol)
}

func TestAgreeRejectsWrongLengthKeys(t *testing.T) {
	alice, _, err := GenerateIdentity()
	require.NoError(t, err)

	_, err = Agree(alice.Private, []byte("too-short"))
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}
