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

package wire

import (
	"fmt"
	"sync"
	"time"
)

// DefaultReassemblyTimeout is the deadline a partial reassembly buffer
// is held for before being dropped and counted (§4.3 "default 30 s").
const DefaultReassemblyTimeout = 30 * time.Second

// reassemblyKey identifies one in-flight message by (sender_id,
// message_id), per §4.3's reassembly buffer key.
type reassemblyKey struct {
	senderID  [SenderIDSize]byte
	messageID [MessageIDSize]byte
}

type partial struct {
	fragments map[uint16][]byte
	total     uint16
	typ       Type
	deadline  time.Time
}

// Fragment splits payload into fragment_size-sized fragments and
// returns one Frame per fragment sharing messageID, each carrying its
// fragment_index and fragment_count. If payload fits in a single
// fragment, it returns exactly one Frame with fragment_count=1.
func Fragment(typ Type, ttl, flags uint8, timestampMS uint64, senderID [SenderIDSize]byte, messageID [MessageIDSize]byte, payload []byte, fragmentSize int) ([]*Frame, error) {
	if fragmentSize < MinMTU {
		return nil, fmt.Errorf("wire: fragment size %d below floor %d", fragmentSize, MinMTU)
	}
	if len(payload) == 0 {
		return []*Frame{NewFrame(typ, ttl, flags, timestampMS, senderID, messageID, 0, 1, nil)}, nil
	}

	count := (len(payload) + fragmentSize - 1) / fragmentSize
	if count > int(^uint16(0)) {
		return nil, fmt.Errorf("wire: payload requires %d fragments, exceeds uint16 fragment-count", count)
	}

	frames := make([]*Frame, 0, count)
	for i := 0; i < count; i++ {
		start := i * fragmentSize
		end := start + fragmentSize
		if end > len(payload) {
			end = len(payload)
		}
		frames = append(frames, NewFrame(typ, ttl, flags, timestampMS, senderID, messageID, uint16(i), uint16(count), payload[start:end]))
	}
	return frames, nil
}

// Reassembler buffers fragments keyed by (sender_id, message_id) until
// a full set arrives or the per-message deadline expires.
type Reassembler struct {
	mu      sync.Mutex
	pending map[reassemblyKey]*partial
	timeout time.Duration

	// DroppedCount counts messages whose reassembly deadline expired
	// before all fragments arrived (§7 Counters "reassembly_dropped").
	droppedCount uint64
}

// NewReassembler constructs a Reassembler with the given per-message
// deadline; pass 0 to use DefaultReassemblyTimeout.
func NewReassembler(timeout time.Duration) *Reassembler {
	if timeout <= 0 {
		timeout = DefaultReassemblyTimeout
	}
	return &Reassembler{
		pending: make(map[reassemblyKey]*partial),
		timeout: timeout,
	}
}

// Add feeds one fragment into the reassembler. It returns the fully
// reassembled payload and true once every fragment for that
// (sender_id, message_id) has arrived; otherwise it returns nil, false.
func (r *Reassembler) Add(f *Frame, now time.Time) ([]byte, bool) {
	if f.FragmentCount == 1 {
		return f.Payload, true
	}

	key := reassemblyKey{senderID: f.SenderID, messageID: f.MessageID}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[key]
	if !ok {
		p = &partial{
			fragments: make(map[uint16][]byte),
			total:     f.FragmentCount,
			typ:       f.Type,
			deadline:  now.Add(r.timeout),
		}
		r.pending[key] = p
	}

	p.fragments[f.FragmentIndex] = f.Payload

	if uint16(len(p.fragments)) < p.total {
		return nil, false
	}

	full := make([]byte, 0)
	for i := uint16(0); i < p.total; i++ {
		frag, ok := p.fragments[i]
		if !ok {
			// shouldn't happen given the length check above, but fail
			// safe rather than return a corrupt partial payload.
			return nil, false
		}
		full = append(full, frag...)
	}
	delete(r.pending, key)
	return full, true
}

// Sweep drops any in-flight reassembly whose deadline has passed,
// returning the number dropped so callers can add it to droppedCount
// metrics (§4.3 "On timeout the partial is dropped and counted").
func (r *Reassembler) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for key, p := range r.pending {
		if now.After(p.deadline) {
			delete(r.pending, key)
			dropped++
		}
	}
	r.droppedCount += uint64(dropped)
	return dropped
}

// DroppedCount returns the cumulative count of reassemblies dropped by Sweep.
func (r *Reassembler) DroppedCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.droppedCount
}

// Pending returns the number of in-flight reassembly buffers.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
