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
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Treystu/SC-sub006/config"
	"github.com/Treystu/SC-sub006/identity"
	"github.com/Treystu/SC-sub006/internal/logger"
	"github.com/Treystu/SC-sub006/internal/metrics"
	"github.com/Treystu/SC-sub006/mesh"
	"github.com/Treystu/SC-sub006/persistence"
	"github.com/Treystu/SC-sub006/persistence/memory"
	"github.com/Treystu/SC-sub006/persistence/postgres"
	"github.com/Treystu/SC-sub006/session"
	"github.com/Treystu/SC-sub006/transport"
	"github.com/Treystu/SC-sub006/wire"
)

// highWatermarkFrames and lowWatermarkFrames bound the in-memory
// scheduler backlog (§5 "Back-pressure"). Once the backlog crosses the
// high watermark, non-CONTROL submissions divert straight to the
// durable queue until it drains back under the low watermark.
const (
	highWatermarkFrames = 1000
	lowWatermarkFrames  = 700
)

// Engine is the single application-facing handle (§9 "the engine
// exposes exactly one singleton per process: the engine handle"). A
// process constructs exactly one via New and drives it through
// Run/Shutdown; every exported method below is meant to be called
// against that one instance.
type Engine struct {
	cfg *config.Config
	log logger.Logger

	idStore identity.Store

	idMu      sync.RWMutex
	id        *identity.Identity
	localPriv ed25519.PrivateKey
	localPub  []byte

	sessions *session.Manager

	peers  *mesh.Registry
	routes *mesh.RoutingTable
	dedup  *mesh.DedupCache
	relay  *mesh.Relay
	reasm  *wire.Reassembler
	sched  *mesh.Scheduler

	mux *transport.Multiplexer

	queue        persistence.Queue
	blobs        persistence.BlobStore
	ledger       persistence.Ledger
	closePersist func()

	collector *metrics.Collector

	subsMu    sync.Mutex
	subs      map[int]chan IncomingMessage
	nextSubID int

	socialMu sync.RWMutex
	social   map[string]bool

	linksMu sync.Mutex
	links   map[string]transport.Link

	backpressureMu sync.Mutex
	diverting      bool

	errCounts errorCounts

	g      *errgroup.Group
	gctx   context.Context
	cancel context.CancelFunc

	lifecycleMu sync.Mutex
	running     bool
}

// New constructs the engine handle: it loads or generates the local
// identity from idStore, opens the configured persistence backend, and
// wires every subsystem named in §4 together. It does not start the
// background tasks; call Run for that.
func New(ctx context.Context, cfg *config.Config, idStore identity.Store) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, startupErr(logger.ErrKindPersistence, "failed to initialize logger", err)
	}

	id, err := loadOrCreateIdentity(ctx, idStore)
	if err != nil {
		return nil, startupErr(logger.ErrKindCrypto, "failed to load or create identity", err)
	}

	queue, blobs, ledger, closePersist, err := openPersistence(ctx, cfg.Persistence)
	if err != nil {
		return nil, startupErr(logger.ErrKindPersistence, "failed to open persistence backend", err)
	}

	localPub := append([]byte(nil), id.KeyPair.Public...)
	peerID := peerIDFromPub(localPub)

	peers := mesh.NewRegistry(cfg.PeerStale(), cfg.PeerDead(), nil)
	routes := mesh.NewRoutingTable(cfg.RouteTTL())
	dedup := mesh.NewDedupCache(cfg.DedupCapacity, cfg.DedupTTL())
	relay := mesh.NewRelay(peerID, peers, routes, dedup)
	reasm := wire.NewReassembler(cfg.ReassemblyTimeout())
	sched := mesh.NewScheduler(cfg.BandwidthBPS, time.Now())

	sessCfg := session.Config{
		RotateAfter:      cfg.SessionRotateInterval(),
		RotateAfterBytes: uint64(cfg.SessionRotateBytes),
	}
	sessions := session.NewManager(id.KeyPair.Private, localPub, sessCfg)

	e := &Engine{
		cfg:          cfg,
		log:          log,
		idStore:      idStore,
		id:           id,
		localPriv:    id.KeyPair.Private,
		localPub:     localPub,
		sessions:     sessions,
		peers:        peers,
		routes:       routes,
		dedup:        dedup,
		relay:        relay,
		reasm:        reasm,
		sched:        sched,
		queue:        queue,
		blobs:        blobs,
		ledger:       ledger,
		closePersist: closePersist,
		collector:    metrics.GetGlobalCollector(),
		subs:         make(map[int]chan IncomingMessage),
		social:       make(map[string]bool),
		links:        make(map[string]transport.Link),
	}

	e.mux = transport.NewMultiplexer(e.onLinkDisconnect, e.onFrameRevert)

	return e, nil
}

func loadOrCreateIdentity(ctx context.Context, store identity.Store) (*identity.Identity, error) {
	id, err := store.Load(ctx)
	if err == nil {
		return id, nil
	}
	if err != identity.ErrNotFound {
		return nil, err
	}
	id, err = identity.New()
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, id); err != nil {
		return nil, err
	}
	return id, nil
}

func openPersistence(ctx context.Context, cfg config.PersistenceConfig) (persistence.Queue, persistence.BlobStore, persistence.Ledger, func(), error) {
	switch cfg.Driver {
	case "postgres":
		if cfg.Postgres == nil {
			return nil, nil, nil, nil, fmt.Errorf("engine: persistence.driver=postgres requires persistence.postgres config")
		}
		stores, err := postgres.Open(ctx, postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return stores.Queue, stores.Blobs, stores.Ledger, stores.Close, nil
	default:
		return memory.NewQueue(), memory.NewBlobStore(), memory.NewLedger(), func() {}, nil
	}
}

func peerIDFromPub(pub []byte) string { return string(pub) }

// LocalPeerID returns the stable wire identity of the engine's current
// identity (the raw long-term public key, used as the map key every
// other subsystem keys peer state by).
func (e *Engine) LocalPeerID() string {
	e.idMu.RLock()
	defer e.idMu.RUnlock()
	return peerIDFromPub(e.localPub)
}

// Fingerprint returns the current identity's human-displayable fingerprint.
func (e *Engine) Fingerprint() string {
	e.idMu.RLock()
	defer e.idMu.RUnlock()
	return e.id.Fingerprint
}

// Run starts the fixed set of cooperative background tasks (§5): the
// outbound scheduler, the periodic maintenance sweep, the session
// manager's staleness sweep, and the startup queue-replay task. It
// blocks until ctx is cancelled or a task returns a fatal error.
func (e *Engine) Run(ctx context.Context) error {
	e.lifecycleMu.Lock()
	if e.running {
		e.lifecycleMu.Unlock()
		return fmt.Errorf("engine: already running")
	}
	e.running = true
	gctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(gctx)
	e.g = g
	e.gctx = gctx
	e.cancel = cancel
	e.lifecycleMu.Unlock()

	e.log.Info("engine starting", logger.String("peer_id_fp", e.Fingerprint()))

	g.Go(func() error { return e.sessions.Run(gctx) })
	g.Go(func() error { return e.maintenanceLoop(gctx) })
	g.Go(func() error { return e.schedulerLoop(gctx) })
	g.Go(func() error { return e.queueReplay(gctx) })

	err := g.Wait()

	e.lifecycleMu.Lock()
	e.running = false
	e.lifecycleMu.Unlock()

	if err != nil && err != context.Canceled {
		e.log.Error("engine stopped with error", logger.Error(err))
		return err
	}
	return nil
}

// Shutdown signals every background task to stop, gives the outbound
// scheduler up to a grace period to drain, then closes every session
// and the persistence backend (§5 "drains the outbound scheduler for
// up to a grace period (default 5 s), flushes persistent state").
func (e *Engine) Shutdown(ctx context.Context) error {
	e.lifecycleMu.Lock()
	cancel := e.cancel
	g := e.g
	e.lifecycleMu.Unlock()

	if cancel == nil {
		return nil
	}

	grace, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	e.drainScheduler(grace)

	cancel()
	if g != nil {
		_ = g.Wait()
	}

	e.subsMu.Lock()
	for id, ch := range e.subs {
		close(ch)
		delete(e.subs, id)
	}
	e.subsMu.Unlock()

	if e.closePersist != nil {
		e.closePersist()
	}

	e.log.Info("engine stopped")
	return nil
}

func (e *Engine) drainScheduler(ctx context.Context) {
	for e.sched.Len() > 0 {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ob, ok := e.sched.Next(time.Now())
		if !ok {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		e.sendOutbound(ctx, ob)
	}
}
