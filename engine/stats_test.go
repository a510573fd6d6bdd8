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

	"github.com/stretchr/testify/require"

	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/wire"
)

func TestStatsReflectsQueueDepthAndLedgerSize(t *testing.T) {
	eng := newTestEngine(t)

	c := eng.Stats(context.Background())
	require.Equal(t, 0, c.QueueDepth)
	require.Equal(t, 0, c.LedgerSize)
	require.Equal(t, 0, c.PeersConnected)

	_, _, err := eng.Submit(context.Background(), "", wire.TypeText, []byte("hi"), SubmitOptions{})
	require.NoError(t, err)

	c = eng.Stats(context.Background())
	require.Equal(t, 1, c.QueueDepth)
	require.EqualValues(t, 1, c.FramesOut)
}

func TestStatsCountsErrorsByKind(t *testing.T) {
	eng := newTestEngine(t)

	_, _, err := eng.Submit(context.Background(), eng.LocalPeerID(), wire.TypeText, []byte("hi"), SubmitOptions{})
	require.Error(t, err)

	c := eng.Stats(context.Background())
	require.EqualValues(t, 1, c.PolicyErrors)

	_ = eng.wrapErr(logger.ErrKindCrypto, "synthetic", nil)
	c = eng.Stats(context.Background())
	require.EqualValues(t, 1, c.CryptoErrors)
}
