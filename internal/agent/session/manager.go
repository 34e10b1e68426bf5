package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to each conversation while letting independent
// conversations proceed in parallel. Unused locks are dropped by reference
// counting.
type Manager struct {
	repo model.ConversationRepository

	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewManager(repo model.ConversationRepository) *Manager {
	return &Manager{
		repo:  repo,
		locks: make(map[string]*lockEntry),
	}
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock runs fn while holding the lock for the conversation. A cancelled
// context is reported before fn runs.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Load retrieves a stored conversation.
func (m *Manager) Load(ctx context.Context, id string) (*model.ConversationState, error) {
	var state *model.ConversationState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.repo.Load(ctx, id)
		return err
	})
	return state, err
}

// LoadOrCreate loads the conversation or initializes and persists a new one
// with the given profile.
func (m *Manager) LoadOrCreate(ctx context.Context, id string, profile model.UserProfile) (*model.ConversationState, error) {
	var state *model.ConversationState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.loadOrCreateLocked(ctx, id, profile)
		return err
	})
	return state, err
}

// loadOrCreateLocked is LoadOrCreate for callers already holding the lock.
func (m *Manager) loadOrCreateLocked(ctx context.Context, id string, profile model.UserProfile) (*model.ConversationState, error) {
	state, err := m.repo.Load(ctx, id)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, errx.ErrConversationNotFound) {
		return nil, fmt.Errorf("check conversation existence: %w", err)
	}

	state = model.NewConversationState(id, profile)
	if err := m.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("initialize conversation: %w", err)
	}
	logx.Debug().Str("conversation_id", state.ConversationID).Msg("Conversation created")
	return state, nil
}

// Update loads (or creates) the conversation, hands it to fn and persists it
// when fn succeeds, all under the conversation lock.
func (m *Manager) Update(ctx context.Context, id string, profile model.UserProfile, fn func(context.Context, *model.ConversationState) error) (*model.ConversationState, error) {
	var state *model.ConversationState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		if state, err = m.loadOrCreateLocked(ctx, id, profile); err != nil {
			return err
		}
		if err := fn(ctx, state); err != nil {
			return err
		}
		return m.repo.Save(ctx, state)
	})
	return state, err
}

// Save persists the state under its conversation lock.
func (m *Manager) Save(ctx context.Context, state *model.ConversationState) error {
	return m.WithLock(ctx, state.ConversationID, func(ctx context.Context) error {
		return m.repo.Save(ctx, state)
	})
}

// Delete removes the conversation.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.repo.Delete(ctx, id)
	})
}

// List delegates to the repository.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.repo.List(ctx)
}

// Repository returns the underlying repository.
func (m *Manager) Repository() model.ConversationRepository {
	return m.repo
}

func (m *Manager) activeLocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
