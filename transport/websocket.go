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
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketLink is an illustrative concrete Link adapter over a
// gorilla/websocket connection, the "direct_internet" cost class
// (§4.6 names transport adapters as out of scope; this is one worked
// example so the Multiplexer has a real implementation to exercise).
type WebSocketLink struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	remotePeerID string
	mtu          int

	closeOnce sync.Once
	closed    chan struct{}
}

var _ Link = (*WebSocketLink)(nil)

// NewWebSocketLink wraps an already-established websocket connection.
// remotePeerID may be empty if not yet known; SetRemotePeerID records
// it later.
func NewWebSocketLink(conn *websocket.Conn, remotePeerID string, mtu int) *WebSocketLink {
	if mtu <= 0 {
		mtu = 64 * 1024
	}
	return &WebSocketLink{
		conn:         conn,
		remotePeerID: remotePeerID,
		mtu:          mtu,
		closed:       make(chan struct{}),
	}
}

func (w *WebSocketLink) Send(ctx context.Context, frame []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := w.conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("transport: failed to set write deadline: %w", err)
		}
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if err := w.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("transport: websocket write failed: %w", err)
	}
	return nil
}

func (w *WebSocketLink) Recv(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		_, data, err := w.conn.ReadMessage()
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.closed:
		return nil, fmt.Errorf("transport: link closed")
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("transport: websocket read failed: %w", r.err)
		}
		return r.data, nil
	}
}

func (w *WebSocketLink) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.conn.Close()
	})
	return err
}

func (w *WebSocketLink) RemotePeerID() string  { return w.remotePeerID }
func (w *WebSocketLink) MTU() int              { return w.mtu }
func (w *WebSocketLink) CostClass() CostClass  { return CostDirectInternet }

// SetRemotePeerID records the peer identity once the caller has
// learned it.
func (w *WebSocketLink) SetRemotePeerID(peerID string) { w.remotePeerID = peerID }
