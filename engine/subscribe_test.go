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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribeAndUnsubscribe(t *testing.T) {
	eng := newTestEngine(t)

	ch := eng.Subscribe()
	require.Len(t, eng.subs, 1)

	eng.Unsubscribe(ch)
	require.Len(t, eng.subs, 0)

	_, open := <-ch
	require.False(t, open)
}

func TestUnsubscribeUnknownChannelIsNoop(t *testing.T) {
	eng := newTestEngine(t)
	other := make(chan IncomingMessage)
	eng.Unsubscribe(other)
}

func TestMultipleSubscribersEachGetIndependentChannels(t *testing.T) {
	eng := newTestEngine(t)

	a := eng.Subscribe()
	b := eng.Subscribe()
	require.NotEqual(t, a, b)
	require.Len(t, eng.subs, 2)
}
