package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/it-worker-club/study-agent/internal/agent/model"
	errx "github.com/it-worker-club/study-agent/internal/core/error"
	logx "github.com/it-worker-club/study-agent/pkg/logger"
)

// conversationRecord is the durable row for one conversation. The full state
// is kept as JSON; the other columns exist for querying.
type conversationRecord struct {
	ID         string `gorm:"primaryKey;size:64"`
	UserID     string `gorm:"index;size:128"`
	State      string `gorm:"type:text;not null"`
	LoopCount  int
	IsComplete bool `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"index"`
}

func (conversationRecord) TableName() string {
	return "conversations"
}

// SQLConversationRepository stores states through gorm.
type SQLConversationRepository struct {
	db *gorm.DB
}

// NewSQLConversationRepository migrates the schema and returns the repository.
func NewSQLConversationRepository(ctx context.Context, db *gorm.DB) (*SQLConversationRepository, error) {
	if err := db.WithContext(ctx).AutoMigrate(&conversationRecord{}); err != nil {
		return nil, fmt.Errorf("migrate conversations: %w", err)
	}
	return &SQLConversationRepository{db: db}, nil
}

func (r *SQLConversationRepository) Save(ctx context.Context, state *model.ConversationState) error {
	if state == nil {
		return fmt.Errorf("save: nil state")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	rec := conversationRecord{
		ID:         state.ConversationID,
		UserID:     state.UserProfile.UserID,
		State:      string(b),
		LoopCount:  state.LoopCount,
		IsComplete: state.IsComplete,
		CreatedAt:  state.CreatedAt,
		UpdatedAt:  state.UpdatedAt,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "state", "loop_count", "is_complete", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		logx.Error().Err(err).Str("conversation_id", state.ConversationID).Msg("failed to save conversation")
		return errx.WrapStore(err)
	}
	return nil
}

func (r *SQLConversationRepository) Load(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	var rec conversationRecord
	if err := r.db.WithContext(ctx).Where("id = ?", conversationID).First(&rec).Error; err != nil {
		return nil, errx.WrapStore(err)
	}
	return decodeState(conversationID, []byte(rec.State))
}

func (r *SQLConversationRepository) Delete(ctx context.Context, conversationID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", conversationID).Delete(&conversationRecord{}).Error; err != nil {
		logx.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to delete conversation")
		return errx.WrapStore(err)
	}
	return nil
}

// List returns ids, most recently updated first.
func (r *SQLConversationRepository) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&conversationRecord{}).Order("updated_at desc").Pluck("id", &ids).Error
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

var _ model.ConversationRepository = (*SQLConversationRepository)(nil)
