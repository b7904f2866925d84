package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nasermirzaei89/lms/interactions"
)

const (
	// DefaultMaxSessions caps how many session workspaces are kept at once.
	DefaultMaxSessions = 10000

	maxSweepInterval = time.Minute
)

// workspace is the cache and coordinator of one browser session.
type workspace struct {
	// hydrate serializes loading entities into store
	hydrate     sync.Mutex
	store       *interactions.Store
	coordinator *interactions.Coordinator

	// guarded by workspaces.mu
	lastUsed time.Time
}

// workspaces holds one workspace per session. Workspaces idle for longer
// than idleTimeout are evicted, and the least recently used one makes room
// once maxSessions are held.
type workspaces struct {
	gateway     interactions.Gateway
	config      interactions.Config
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time

	mu        sync.Mutex
	bySession map[string]*workspace
	lastSweep time.Time
	retired   sync.WaitGroup
}

func newWorkspaces(
	gateway interactions.Gateway,
	config interactions.Config,
	idleTimeout time.Duration,
	maxSessions int,
) *workspaces {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}

	return &workspaces{
		gateway:     gateway,
		config:      config,
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
		now:         time.Now,
		bySession:   make(map[string]*workspace),
	}
}

func (ws *workspaces) get(sessionID string) *workspace {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	now := ws.now()

	ws.sweep(now)

	space, ok := ws.bySession[sessionID]
	if !ok {
		if len(ws.bySession) >= ws.maxSessions {
			ws.evictLeastRecentlyUsed()
		}

		store := interactions.NewStore()
		space = &workspace{
			store:       store,
			coordinator: interactions.NewCoordinator(store, ws.gateway, ws.config),
		}
		ws.bySession[sessionID] = space
	}

	space.lastUsed = now

	return space
}

// sweep evicts idle workspaces, at most once per sweep interval. The caller
// holds ws.mu.
func (ws *workspaces) sweep(now time.Time) {
	if ws.idleTimeout <= 0 || now.Sub(ws.lastSweep) < min(ws.idleTimeout, maxSweepInterval) {
		return
	}

	ws.lastSweep = now

	for sessionID, space := range ws.bySession {
		if now.Sub(space.lastUsed) >= ws.idleTimeout {
			ws.retire(sessionID, space)
		}
	}
}

func (ws *workspaces) evictLeastRecentlyUsed() {
	var (
		oldestID string
		oldest   *workspace
	)

	for sessionID, space := range ws.bySession {
		if oldest == nil || space.lastUsed.Before(oldest.lastUsed) {
			oldestID, oldest = sessionID, space
		}
	}

	if oldest != nil {
		ws.retire(oldestID, oldest)
	}
}

// retire resets the workspace's store and forgets it. Mutations still in
// flight reconcile against the reset store, which ignores them. The caller
// holds ws.mu.
func (ws *workspaces) retire(sessionID string, space *workspace) {
	delete(ws.bySession, sessionID)

	space.store.Reset()
	ws.retired.Go(space.coordinator.Wait)
}

func (ws *workspaces) drop(sessionID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	space, ok := ws.bySession[sessionID]
	if !ok {
		return
	}

	ws.retire(sessionID, space)
}

func (ws *workspaces) count() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return len(ws.bySession)
}

func (ws *workspaces) close() {
	ws.mu.Lock()

	for sessionID := range ws.bySession {
		space := ws.bySession[sessionID]
		ws.retired.Go(space.coordinator.Wait)
	}

	ws.mu.Unlock()

	ws.retired.Wait()
}

type MissingSessionError struct{}

func (err MissingSessionError) Error() string {
	return "request has no session"
}

func (h *Handler) workspace(ctx context.Context) (*workspace, error) {
	sessionID, ok := sessionIDFromContext(ctx)
	if !ok {
		return nil, MissingSessionError{}
	}

	return h.workspaces.get(sessionID), nil
}

func (h *Handler) hydrateArticle(ctx context.Context, space *workspace, articleID string) error {
	space.hydrate.Lock()
	defer space.hydrate.Unlock()

	if _, ok := space.store.Article(articleID); ok {
		return nil
	}

	article, err := h.backend.LoadArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("failed to load article: %w", err)
	}

	space.store.PutArticle(article)

	return nil
}

func (h *Handler) hydrateDiscussion(ctx context.Context, space *workspace, discussionID string) error {
	space.hydrate.Lock()
	defer space.hydrate.Unlock()

	if space.store.HasDiscussion(discussionID) {
		return nil
	}

	replies, err := h.backend.LoadDiscussion(ctx, discussionID)
	if err != nil {
		return fmt.Errorf("failed to load discussion: %w", err)
	}

	space.store.PutDiscussion(discussionID, replies)

	return nil
}
