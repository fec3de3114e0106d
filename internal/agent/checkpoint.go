package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/silverland/nova/internal/models"
)

// CheckpointStore persists conversation state between turns, one row per
// conversation identifier. It also owns the per-conversation locks that
// serialize turns for the same identifier.
type CheckpointStore struct {
	db *gorm.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCheckpointStore builds a store backed by the given database handle.
func NewCheckpointStore(db *gorm.DB) *CheckpointStore {
	return &CheckpointStore{db: db, locks: map[string]*sync.Mutex{}}
}

// Lock acquires the per-conversation mutex and returns its release
// function. Turns for different conversations proceed concurrently; two
// turns for the same identifier never overlap.
func (s *CheckpointStore) Lock(conversationID string) func() {
	s.mu.Lock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[conversationID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Load returns the persisted state for the identifier, or a fresh empty
// state if none exists yet. Unknown identifiers are the new-conversation
// branch, not an error.
func (s *CheckpointStore) Load(conversationID string) (*State, error) {
	var row models.Checkpoint
	err := s.db.First(&row, "conversation_id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &State{ConversationID: conversationID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("agent: loading checkpoint %s: %w", conversationID, err)
	}

	var st State
	if err := json.Unmarshal([]byte(row.State), &st); err != nil {
		return nil, fmt.Errorf("agent: decoding checkpoint %s: %w", conversationID, err)
	}
	st.ConversationID = conversationID
	return &st, nil
}

// Save upserts the state snapshot for its conversation. Called once per
// turn after the loop reaches its terminal state.
func (s *CheckpointStore) Save(st *State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("agent: encoding checkpoint %s: %w", st.ConversationID, err)
	}

	row := models.Checkpoint{
		ConversationID: st.ConversationID,
		State:          string(payload),
		UpdatedAt:      time.Now(),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("agent: saving checkpoint %s: %w", st.ConversationID, err)
	}
	return nil
}
