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

	"github.com/Treystu/SC-sub006/config"
	"github.com/Treystu/SC-sub006/identity"
	"github.com/Treystu/SC-sub006/transport"
	"github.com/Treystu/SC-sub006/wire"
)

// chanLink is a duplex in-memory transport.Link: one end's out channel
// is the other end's in channel, standing in for a real socket the way
// fakeLink stands in for one in the transport package's own tests.
type chanLink struct {
	remotePeerID string
	out          chan<- []byte
	in           <-chan []byte
}

func (c *chanLink) Send(ctx context.Context, frame []byte) error {
	select {
	case c.out <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *chanLink) Recv(ctx context.Context) ([]byte, error) {
	select {
	case f, ok := <-c.in:
		if !ok {
			return nil, context.Canceled
		}
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *chanLink) Close() error                   { return nil }
func (c *chanLink) RemotePeerID() string           { return c.remotePeerID }
func (c *chanLink) MTU() int                       { return wire.DefaultMTU }
func (c *chanLink) CostClass() transport.CostClass { return transport.CostDirectLocal }

func engineIsRunning(e *Engine) bool {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	return e.running
}

func newChanLinkPair(peerA, peerB string) (a, b transport.Link) {
	aToB := make(chan []byte, 32)
	bToA := make(chan []byte, 32)
	return &chanLink{remotePeerID: peerB, out: aToB, in: bToA},
		&chanLink{remotePeerID: peerA, out: bToA, in: aToB}
}

func TestTwoEnginesExchangeAMessageEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engA, err := New(ctx, config.Default(), identity.NewMemoryStore())
	require.NoError(t, err)
	engB, err := New(ctx, config.Default(), identity.NewMemoryStore())
	require.NoError(t, err)

	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() { errA <- engA.Run(ctx) }()
	go func() { errB <- engB.Run(ctx) }()

	linkA, linkB := newChanLinkPair(engA.LocalPeerID(), engB.LocalPeerID())

	require.Eventually(t, func() bool {
		return engineIsRunning(engA) && engineIsRunning(engB)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engA.AttachLink(linkA))
	require.NoError(t, engB.AttachLink(linkB))

	require.Eventually(t, func() bool {
		return engA.peers.Count() == 1 && engB.peers.Count() == 1
	}, 2*time.Second, 10*time.Millisecond, "light-ping handshake should promote both links")

	sub := engB.Subscribe()
	defer engB.Unsubscribe(sub)

	_, status, err := engA.Submit(ctx, engB.LocalPeerID(), wire.TypeText, []byte("hello mesh"), SubmitOptions{})
	require.NoError(t, err)
	require.Equal(t, Sent, status)

	select {
	case msg := <-sub:
		require.Equal(t, engA.LocalPeerID(), msg.SenderPeerID)
		require.Equal(t, wire.TypeText, msg.Type)
		require.Equal(t, []byte("hello mesh"), msg.Payload)
		require.True(t, msg.SessionVerified)
	case <-time.After(2 * time.Second):
		t.Fatal("message was never delivered to engine B's subscriber")
	}

	cancel()
	<-errA
	<-errB
}

func TestTwoEnginesExchangeAMultiFragmentMessageEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engA, err := New(ctx, config.Default(), identity.NewMemoryStore())
	require.NoError(t, err)
	engB, err := New(ctx, config.Default(), identity.NewMemoryStore())
	require.NoError(t, err)

	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() { errA <- engA.Run(ctx) }()
	go func() { errB <- engB.Run(ctx) }()

	linkA, linkB := newChanLinkPair(engA.LocalPeerID(), engB.LocalPeerID())

	require.Eventually(t, func() bool {
		return engineIsRunning(engA) && engineIsRunning(engB)
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engA.AttachLink(linkA))
	require.NoError(t, engB.AttachLink(linkB))

	require.Eventually(t, func() bool {
		return engA.peers.Count() == 1 && engB.peers.Count() == 1
	}, 2*time.Second, 10*time.Millisecond, "light-ping handshake should promote both links")

	sub := engB.Subscribe()
	defer engB.Unsubscribe(sub)

	// Large enough to split into several fragments at the default 64KiB
	// fragment size, exercising per-fragment dedup and reassembly rather
	// than the single-fragment path.
	payload := make([]byte, 200000)
	for i := range payload {
		payload[i] = byte(i)
	}

	_, status, err := engA.Submit(ctx, engB.LocalPeerID(), wire.TypeFileChunk, payload, SubmitOptions{})
	require.NoError(t, err)
	require.Equal(t, Sent, status)

	select {
	case msg := <-sub:
		require.Equal(t, engA.LocalPeerID(), msg.SenderPeerID)
		require.Equal(t, wire.TypeFileChunk, msg.Type)
		require.Equal(t, payload, msg.Payload, "reassembled payload must match the original across all fragments")
		require.True(t, msg.SessionVerified)
	case <-time.After(5 * time.Second):
		t.Fatal("multi-fragment message was never reassembled and delivered to engine B's subscriber")
	}

	cancel()
	<-errA
	<-errB
}
