// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package transport

import (
	"crypto/ed25519"
	"fmt"

	meshcrypto "github.com/Treystu/SC-sub006/crypto"
	"github.com/Treystu/SC-sub006/wire"
)

// DefaultPingChallengeBytes is the challenge length the light-ping
// protocol exchanges (§6 config default "ping_challenge_bytes").
const DefaultPingChallengeBytes = 16

// Ping/Pong distinguish the two light-ping CONTROL messages via the
// frame's flags byte, since both reuse wire.TypeControl (§4.6
// "Light-ping protocol").
const (
	FlagPing uint8 = 1 << 0
	FlagPong uint8 = 1 << 1
)

// NewPing builds a signed CONTROL/PING frame carrying a fresh
// challenge. The frame's own signature already authenticates the
// sender; the challenge in the payload is what the peer must echo
// back (signed) in its PONG.
func NewPing(localPriv ed25519.PrivateKey, localPub ed25519.PublicKey, messageID [wire.MessageIDSize]byte, timestampMS uint64) (*wire.Frame, []byte, error) {
	challenge, err := meshcrypto.Random(DefaultPingChallengeBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: failed to generate ping challenge: %w", err)
	}

	var senderID [wire.SenderIDSize]byte
	copy(senderID[:], localPub)

	f := wire.NewFrame(wire.TypeControl, wire.MaxTTL, FlagPing, timestampMS, senderID, messageID, 0, 1, challenge)
	if err := f.Sign(localPriv); err != nil {
		return nil, nil, err
	}
	return f, challenge, nil
}

// NewPong builds a signed CONTROL/PONG frame echoing the PING's
// challenge back to its sender.
func NewPong(localPriv ed25519.PrivateKey, localPub ed25519.PublicKey, ping *wire.Frame, timestampMS uint64) (*wire.Frame, error) {
	var senderID [wire.SenderIDSize]byte
	copy(senderID[:], localPub)

	f := wire.NewFrame(wire.TypeControl, wire.MaxTTL, FlagPong, timestampMS, senderID, ping.MessageID, 0, 1, ping.Payload)
	if err := f.Sign(localPriv); err != nil {
		return nil, err
	}
	return f, nil
}

// IsPing reports whether f is a light-ping PING frame.
func IsPing(f *wire.Frame) bool {
	return f.Type == wire.TypeControl && f.Flags&FlagPing != 0
}

// IsPong reports whether f is a light-ping PONG frame.
func IsPong(f *wire.Frame) bool {
	return f.Type == wire.TypeControl && f.Flags&FlagPong != 0
}

// VerifyPong checks that pong is a validly-signed reply to the
// challenge originally sent in ping: pong must be a PONG, its echoed
// challenge must match what was sent, and its frame signature is
// checked again.
func VerifyPong(ping, pong *wire.Frame) bool {
	if !IsPong(pong) {
		return false
	}
	if len(ping.Payload) != len(pong.Payload) {
		return false
	}
	for i := range ping.Payload {
		if ping.Payload[i] != pong.Payload[i] {
			return false
		}
	}
	return pong.Verify()
}
