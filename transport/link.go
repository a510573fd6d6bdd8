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

// Package transport implements the Link abstraction and the
// multiplexer that composes many heterogeneous links into one
// delivery pipeline (§4.6), plus the light-ping liveness protocol and
// an illustrative gorilla/websocket adapter.
package transport

import "context"

// CostClass ranks a link's relative expense, cheapest first. The
// multiplexer prefers the lowest-cost-class active link for each
// outbound fragment (§4.6 "picks the lowest-cost-class link").
type CostClass int

const (
	CostDirectLocal CostClass = iota
	CostRadioShortRange
	CostDirectInternet
)

func (c CostClass) String() string {
	switch c {
	case CostDirectLocal:
		return "direct_local"
	case CostRadioShortRange:
		return "radio_short_range"
	case CostDirectInternet:
		return "direct_internet"
	default:
		return "unknown"
	}
}

// LinkState tracks a link's light-ping promotion status.
type LinkState int

const (
	LinkTentative LinkState = iota
	LinkActive
	LinkClosed
)

// Link is the minimal capability set every transport adapter must
// implement (§4.6, §9 "Dynamic dispatch"): a narrow interface rather
// than an open inheritance hierarchy.
type Link interface {
	// Send writes one fully-encoded frame to the peer. It may block;
	// callers are expected to apply a deadline via ctx.
	Send(ctx context.Context, frame []byte) error

	// Recv blocks until the next inbound frame arrives, ctx is
	// cancelled, or the link closes.
	Recv(ctx context.Context) ([]byte, error)

	// Close releases the link's resources. Recv calls in flight must
	// return promptly with an error.
	Close() error

	// RemotePeerID returns the far side's identity once known by the
	// transport layer (e.g. from a lower-level handshake), or "" if
	// unknown. The light-ping exchange does not fill it in.
	RemotePeerID() string

	// MTU is the maximum frame size (including header) this link can
	// carry without fragmentation.
	MTU() int

	// CostClass reports this link's relative expense for scheduling.
	CostClass() CostClass
}
