package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
)

// MemoryConversationRepository keeps encoded states in process memory. States
// are stored as JSON so callers never share memory with the repository.
type MemoryConversationRepository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{data: make(map[string][]byte)}
}

func (r *MemoryConversationRepository) Save(_ context.Context, state *model.ConversationState) error {
	if state == nil {
		return fmt.Errorf("save: nil state")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[state.ConversationID] = b
	return nil
}

func (r *MemoryConversationRepository) Load(_ context.Context, conversationID string) (*model.ConversationState, error) {
	r.mu.RLock()
	b, ok := r.data[conversationID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errx.ErrConversationNotFound, conversationID)
	}
	return decodeState(conversationID, b)
}

func (r *MemoryConversationRepository) Delete(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, conversationID)
	return nil
}

func (r *MemoryConversationRepository) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func decodeState(conversationID string, b []byte) (*model.ConversationState, error) {
	var state model.ConversationState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("unmarshal conversation %s: %w", conversationID, err)
	}
	return &state, nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
