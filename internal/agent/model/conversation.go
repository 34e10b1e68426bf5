package model

import (
	"context"
)

// ConversationRepository persists whole conversation states between steps.
// Load returns an error matching errx.ErrConversationNotFound for unknown ids.
type ConversationRepository interface {
	// Save stores the state, replacing any previous version.
	Save(ctx context.Context, state *ConversationState) error

	// Load retrieves the state for a conversation.
	Load(ctx context.Context, conversationID string) (*ConversationState, error)

	// Delete removes the state. Deleting an unknown id is not an error.
	Delete(ctx context.Context, conversationID string) error

	// List returns the ids of every stored conversation.
	List(ctx context.Context) ([]string, error)
}
