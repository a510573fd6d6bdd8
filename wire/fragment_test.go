package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
)

func TestFragmentSingleFrameWhenSmall(t *testing.T) {
	kp, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	var senderID [SenderIDSize]byte
	copy(senderID[:], kp.Public)
	var msgID [MessageIDSize]byte

	frames, err := Fragment(TypeText, MaxTTL, 0, 0, senderID, msgID, []byte("small"), MinMTU)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, uint16(1), frames[0].FragmentCount)
}

func TestFragmentSplitsLargePayload(t *testing.T) {
	kp, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	var senderID [SenderIDSize]byte
	copy(senderID[:], kp.Public)
	var msgID [MessageIDSize]byte

	payload := bytes.Repeat([]byte("x"), MinMTU*3+10)
	frames, err := Fragment(TypeFileChunk, MaxTTL, 0, 0, senderID, msgID, payload, MinMTU)
	require.NoError(t, err)
	require.Len(t, frames, 4)

	for i, f := range frames {
		require.Equal(t, uint16(len(frames)), f.FragmentCount)
		require.Equal(t, uint16(i), f.FragmentIndex)
	}
}

func TestReassemblerReconstructsPayload(t *testing.T) {
	kp, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	var senderID [SenderIDSize]byte
	copy(senderID[:], kp.Public)
	var msgID [MessageIDSize]byte

	payload := bytes.Repeat([]byte("y"), MinMTU*2+1)
	frames, err := Fragment(TypeFileChunk, MaxTTL, 0, 0, senderID, msgID, payload, MinMTU)
	require.NoError(t, err)

	r := NewReassembler(time.Minute)
	now := time.Now()

	var got []byte
	var complete bool
	for _, f := range frames {
		got, complete = r.Add(f, now)
	}
	require.True(t, complete)
	require.Equal(t, payload, got)
	require.Equal(t, 0, r.Pending())
}

func TestReassemblerSweepDropsExpired(t *testing.T) {
	kp, _, err := meshcrypto.GenerateIdentity()
	require.NoError(t, err)
	var senderID [SenderIDSize]byte
	copy(senderID[:], kp.Public)
	var msgID [MessageIDSize]byte

	payload := bytes.Repeat([]byte("z"), MinMTU*2+1)
	frames, err := Fragment(TypeFileChunk, MaxTTL, 0, 0, senderID, msgID, payload, MinMTU)
	require.NoError(t, err)

	r := NewReassembler(time.Second)
	now := time.Now()
	_, complete := r.Add(frames[0], now) // only first fragment arrives
	require.False(t, complete)
	require.Equal(t, 1, r.Pending())

	dropped := r.Sweep(now.Add(2 * time.Second))
	require.Equal(t, 1, dropped)
	require.Equal(t, 0, r.Pending())
	require.Equal(t, uint64(1), r.DroppedCount())
}
