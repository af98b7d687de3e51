package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type registryEntry struct {
	ws       *Workspace
	lastSeen time.Time
}

// WorkspaceRegistry maps session ids to live workspaces. Idle workspaces
// are saved to the state store and evicted by Run.
type WorkspaceRegistry struct {
	logger   *zap.Logger
	clock    TickerClocker
	store    StateStore
	factory  func(id string) *Workspace
	idle     time.Duration
	interval time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewWorkspaceRegistry provides a registry building new workspaces with factory.
func NewWorkspaceRegistry(logger *zap.Logger, config *SessionConfig, clock TickerClocker, store StateStore, factory func(id string) *Workspace) *WorkspaceRegistry {
	wr := &WorkspaceRegistry{
		logger:   logger,
		clock:    clock,
		store:    store,
		factory:  factory,
		idle:     config.IdleTimeout,
		interval: config.JanitorInterval,
		entries:  make(map[string]*registryEntry),
	}
	if wr.idle <= 0 {
		wr.idle = 30 * time.Minute
	}
	if wr.interval <= 0 {
		wr.interval = time.Minute
	}
	return wr
}

// Get returns the workspace of a session. A new workspace is restored
// from the state store when a saved state exists.
func (wr *WorkspaceRegistry) Get(ctx context.Context, id string) (*Workspace, error) {
	wr.mu.Lock()
	if entry, ok := wr.entries[id]; ok {
		entry.lastSeen = wr.clock.Now()
		wr.mu.Unlock()
		return entry.ws, nil
	}
	wr.mu.Unlock()

	ws := wr.factory(id)
	state, err := wr.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrStateNotFound):
	case err != nil:
		wr.logger.Error("registry: failed to load session state", zap.String("session.id", id), zap.Error(err))
	default:
		if rerr := ws.Restore(state); rerr != nil {
			wr.logger.Warn("registry: discarding unreadable session state", zap.String("session.id", id), zap.Error(rerr))
			ws = wr.factory(id)
		}
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()
	if entry, ok := wr.entries[id]; ok {
		entry.lastSeen = wr.clock.Now()
		return entry.ws, nil
	}
	wr.entries[id] = &registryEntry{ws: ws, lastSeen: wr.clock.Now()}
	return ws, nil
}

// Save writes the workspace state to the store.
func (wr *WorkspaceRegistry) Save(ctx context.Context, ws *Workspace) error {
	state, err := ws.Snapshot()
	if err != nil {
		return err
	}
	return wr.store.Save(ctx, ws.ID, state)
}

// Len returns the number of live workspaces.
func (wr *WorkspaceRegistry) Len() int {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	return len(wr.entries)
}

// Evict saves and drops the workspaces idle for longer than the idle
// timeout, then purges the expired states from the store. It returns
// the number of evicted workspaces. A workspace used again while it was
// being saved stays live.
func (wr *WorkspaceRegistry) Evict(ctx context.Context) int {
	type candidate struct {
		id       string
		entry    *registryEntry
		lastSeen time.Time
	}
	now := wr.clock.Now()
	var idle []candidate
	wr.mu.Lock()
	for id, entry := range wr.entries {
		if now.Sub(entry.lastSeen) >= wr.idle {
			idle = append(idle, candidate{id: id, entry: entry, lastSeen: entry.lastSeen})
		}
	}
	wr.mu.Unlock()

	evicted := 0
	for _, c := range idle {
		if err := wr.Save(ctx, c.entry.ws); err != nil {
			wr.logger.Error("registry: failed to save evicted session", zap.String("session.id", c.id), zap.Error(err))
		}
		wr.mu.Lock()
		if current, ok := wr.entries[c.id]; ok && current == c.entry && current.lastSeen.Equal(c.lastSeen) {
			delete(wr.entries, c.id)
			evicted++
		}
		wr.mu.Unlock()
	}

	purged, err := wr.store.Purge(ctx)
	if err != nil {
		wr.logger.Error("registry: failed to purge expired session states", zap.Error(err))
	} else if purged > 0 {
		wr.logger.Info("registry: purged expired session states", zap.Int("count", purged))
	}
	return evicted
}

// SaveAll writes the state of every live workspace.
func (wr *WorkspaceRegistry) SaveAll(ctx context.Context) {
	wr.mu.Lock()
	all := make([]*Workspace, 0, len(wr.entries))
	for _, entry := range wr.entries {
		all = append(all, entry.ws)
	}
	wr.mu.Unlock()

	for _, ws := range all {
		if err := wr.Save(ctx, ws); err != nil {
			wr.logger.Error("registry: failed to save session", zap.String("session.id", ws.ID), zap.Error(err))
		}
	}
}

// Run evicts idle workspaces on every janitor tick until ctx is done.
// The live workspaces are saved before returning.
func (wr *WorkspaceRegistry) Run(ctx context.Context) error {
	ticker := wr.clock.NewTicker(wr.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			wr.SaveAll(sCtx)
			cancel()
			wr.logger.Info("registry: janitor stopped", zap.Int("sessions", wr.Len()))
			return nil
		case <-ticker.C:
			if n := wr.Evict(ctx); n > 0 {
				wr.logger.Info("registry: evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
