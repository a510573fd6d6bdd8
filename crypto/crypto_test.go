package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateIdentity(t *testing.T) {
	kp, fp, err := GenerateIdentity()
	require.NoError(t, err)
	require.Len(t, kp.Public, PublicKeySize)
	require.Len(t, kp.Private, PrivateKeySize)
	require.Equal(t, Fingerprint(kp.Public), fp)
}

func TestFingerprintFormat(t *testing.T) {
	kp, _, err := GenerateIdentity()
	require.NoError(t, err)

	fp := Fingerprint(kp.Public)
	require.Len(t, fp, 20+4, "10 bytes hex (20 chars) plus 4 group separators")
	require.Equal(t, fp, Fingerprint(kp.Public), "fingerprint must be deterministic")
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, _, err := GenerateIdentity()
	require.NoError(t, err)

	msg := []byte("frame header bytes")
	sig, err := Sign(kp.Private, msg)
	require.NoError(t, err)
	require.True(t, Verify(kp.Public, msg, sig))

	require.False(t, Verify(kp.Public, []byte("tampered"), sig))
}

func TestVerifyRejectsWrongLengthInputs(t *testing.T) {
	kp, _, err := GenerateIdentity()
	require.NoError(t, err)
	require.False(t, Verify(kp.Public, []byte("msg"), []byte("short")))
}

func TestDeriveIsDeterministicAndLabelBound(t *testing.T) {
	shared := []byte("01234567890123456789012345678901")

	a, err := Derive(shared, "send", []byte("ctx"))
	require.NoError(t, err)
	b, err := Derive(shared, "send", []byte("ctx"))
	require.NoError(t, err)
	require.Equal(t, a, b, "same inputs must derive the same key")

	c, err := Derive(shared, "recv", []byte("ctx"))
	require.NoError(t, err)
	require.NotEqual(t, a, c, "different labels must derive different keys")
}

func TestAEADSealOpenRoundTrip(t *testing.T) {
	key, err := Random(AEADKeySize)
	require.NoError(t, err)
	nonce, err := Random(AEADNonceSize)
	require.NoError(t, err)

	plain := []byte("payload bytes")
	aad := []byte("header bytes")

	cipher, err := AEADSeal(key, nonce, aad, plain)
	require.NoError(t, err)

	opened, err := AEADOpen(key, nonce, aad, cipher)
	require.NoError(t, err)
	require.Equal(t, plain, opened)
}

func TestAEADOpenRejectsTamperedAAD(t *testing.T) {
	key, _ := Random(AEADKeySize)
	nonce, _ := Random(AEADNonceSize)
	cipher, err := AEADSeal(key, nonce, []byte("aad-a"), []byte("plain"))
	require.NoError(t, err)

	_, err = AEADOpen(key, nonce, []byte("aad-b"), cipher)
	require.ErrorIs(t, err, ErrAEADOpenFailed)
}

func TestHashIsDeterministic(t *testing.T) {
	a := Hash([]byte("content"))
	b := Hash([]byte("content"))
	require.Equal(t, a, b)
}

func TestRandomProducesRequestedLength(t *testing.T) {
	b, err := Random(32)
	require.NoError(t, err)
	require.Len(t, b, 32)
}
