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

package mesh

import (
	"sort"
	"sync"
	"time"

	"github.com/Treystu/SC-sub006/wire"
)

const (
	// DefaultBandwidthBytesPerSecond is the scheduler's outbound token
	// bucket fill rate (§4.4 "Priority queue & bandwidth scheduler").
	DefaultBandwidthBytesPerSecond = 1 << 20 // 1 MiB/s

	// StarvationPromoteAfter is the age at which a queued item is
	// promoted one priority band up (once per item), so low-priority
	// traffic is not held back indefinitely behind the band above it
	// (§4.4 "starvation promotion").
	StarvationPromoteAfter = 5 * time.Second
)

// Outbound is one frame waiting to be sent to a specific peer.
type Outbound struct {
	PeerID   string
	Frame    *wire.Frame
	Priority int
	QueuedAt time.Time

	promoted bool
	seq      uint64
}

// levelQueue is one priority band's FIFO, kept sorted ascending by seq
// so promoted items (moved in from another band, §4.4 "starvation
// promotion") slot back into correct arrival order instead of always
// landing at the tail.
type levelQueue struct {
	items []*Outbound
}

func (lq *levelQueue) peek() *Outbound {
	if len(lq.items) == 0 {
		return nil
	}
	return lq.items[0]
}

func (lq *levelQueue) popFront() *Outbound {
	ob := lq.items[0]
	lq.items = lq.items[1:]
	return ob
}

// insert places ob in seq order. Direct enqueues always land at the end
// (their seq is the largest so far); only promotions need the binary
// search.
func (lq *levelQueue) insert(ob *Outbound) {
	i := sort.Search(len(lq.items), func(i int) bool { return lq.items[i].seq >= ob.seq })
	lq.items = append(lq.items, nil)
	copy(lq.items[i+1:], lq.items[i:])
	lq.items[i] = ob
}

// Scheduler is a priority queue plus token-bucket rate limiter feeding
// a single outbound transport. It keeps one FIFO sub-queue per priority
// band (lower Priority value drains first) so Next can walk down bands
// looking for a head item that fits the current token balance, instead
// of stalling behind one oversized item at the very front (§4.4
// "Priority queue & bandwidth scheduler"). Items aged past
// StarvationPromoteAfter are moved up one band, once each.
type Scheduler struct {
	mu sync.Mutex

	levels       map[int]*levelQueue
	activeLevels []int // kept sorted ascending
	count        int
	nextSeq      uint64
	capacity     float64 // bytes/second, token bucket fill rate
	tokens       float64
	lastFill     time.Time
}

// NewScheduler constructs a Scheduler with the given bandwidth cap in
// bytes/second; capacityBPS<=0 uses DefaultBandwidthBytesPerSecond.
func NewScheduler(capacityBPS int, now time.Time) *Scheduler {
	if capacityBPS <= 0 {
		capacityBPS = DefaultBandwidthBytesPerSecond
	}
	return &Scheduler{
		levels:   make(map[int]*levelQueue),
		capacity: float64(capacityBPS),
		tokens:   float64(capacityBPS),
		lastFill: now,
	}
}

// levelAt returns the queue for level, creating and registering it in
// activeLevels if this is the first item at that priority.
func (s *Scheduler) levelAt(level int) *levelQueue {
	lq, ok := s.levels[level]
	if ok {
		return lq
	}
	lq = &levelQueue{}
	s.levels[level] = lq
	i := sort.SearchInts(s.activeLevels, level)
	s.activeLevels = append(s.activeLevels, 0)
	copy(s.activeLevels[i+1:], s.activeLevels[i:])
	s.activeLevels[i] = level
	return lq
}

// dropLevelIfEmpty unregisters level from activeLevels once its queue
// has drained, so Next's walk doesn't keep inspecting dead bands.
func (s *Scheduler) dropLevelIfEmpty(level int) {
	lq, ok := s.levels[level]
	if !ok || len(lq.items) > 0 {
		return
	}
	delete(s.levels, level)
	i := sort.SearchInts(s.activeLevels, level)
	if i < len(s.activeLevels) && s.activeLevels[i] == level {
		s.activeLevels = append(s.activeLevels[:i], s.activeLevels[i+1:]...)
	}
}

// Enqueue adds an outbound frame to the schedule, in its declared
// priority band.
func (s *Scheduler) Enqueue(ob *Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ob.seq = s.nextSeq
	s.nextSeq++
	s.count++
	s.levelAt(ob.Priority).insert(ob)
}

// promoteStarved moves any item older than StarvationPromoteAfter that
// has not been promoted before out of its current band and into the
// band one level more urgent.
func (s *Scheduler) promoteStarved(now time.Time) {
	for _, level := range append([]int(nil), s.activeLevels...) {
		if level == 0 {
			continue
		}
		lq := s.levels[level]
		kept := lq.items[:0]
		for _, ob := range lq.items {
			if !ob.promoted && now.Sub(ob.QueuedAt) >= StarvationPromoteAfter {
				ob.promoted = true
				s.levelAt(level - 1).insert(ob)
				continue
			}
			kept = append(kept, ob)
		}
		lq.items = kept
		s.dropLevelIfEmpty(level)
	}
}

func (s *Scheduler) refill(now time.Time) {
	elapsed := now.Sub(s.lastFill).Seconds()
	if elapsed <= 0 {
		return
	}
	s.tokens += elapsed * s.capacity
	if s.tokens > s.capacity {
		s.tokens = s.capacity
	}
	s.lastFill = now
}

// Next walks priority bands from most to least urgent and returns the
// first band's head item whose frame fits the current token balance
// (§4.4: "the highest-priority non-empty level that has a head item
// whose size fits the current token balance"). A big item stuck at the
// front of a high band no longer stalls smaller items waiting in a
// lower band while tokens accumulate for it.
func (s *Scheduler) Next(now time.Time) (*Outbound, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refill(now)
	s.promoteStarved(now)

	for _, level := range s.activeLevels {
		lq := s.levels[level]
		head := lq.peek()
		if head == nil {
			continue
		}
		cost := float64(len(head.Frame.Encode()))
		if cost > s.tokens {
			continue
		}
		lq.popFront()
		s.dropLevelIfEmpty(level)
		s.count--
		s.tokens -= cost
		return head, true
	}
	return nil, false
}

// Len returns the number of queued items.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
