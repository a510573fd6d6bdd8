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

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Treystu/SC-sub006/persistence"
)

func TestRotateIdentityChangesFingerprintButKeepsLedger(t *testing.T) {
	eng := newTestEngine(t)

	peerID := "some-known-peer-id-32-bytes-long"
	require.NoError(t, eng.ledger.Upsert(context.Background(), persistence.LedgerEntry{
		PeerID:      peerID,
		LastSeenAt:  time.Now(),
		FirstSeenAt: time.Now(),
	}))

	before := eng.Fingerprint()
	beforePeerID := eng.LocalPeerID()

	after, err := eng.RotateIdentity(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	require.Equal(t, after, eng.Fingerprint())
	require.NotEqual(t, beforePeerID, eng.LocalPeerID())

	size, err := eng.ledger.Size(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, size)

	entries, err := eng.QueryLedger(context.Background(), func(persistence.LedgerEntry) bool { return true })
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, peerID, entries[0].PeerID)
}

func TestSocialContacts(t *testing.T) {
	eng := newTestEngine(t)

	peerID := "peer-under-test"
	require.False(t, eng.IsSocialContact(peerID))

	eng.AddSocialContact(peerID)
	require.True(t, eng.IsSocialContact(peerID))

	eng.RemoveSocialContact(peerID)
	require.False(t, eng.IsSocialContact(peerID))
}
