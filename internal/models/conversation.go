package models

import "time"

// Conversation is a chat session row in the history table. The table is
// read-only for the agent; only the HTTP layer creates rows here.
type Conversation struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ConversationID string `gorm:"size:255;not null;uniqueIndex"`
	LeadID         *uint  `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName keeps the original history table name.
func (Conversation) TableName() string { return "history" }

// Checkpoint is a persisted conversation-state snapshot, one row per
// conversation. State holds the serialized message log.
type Checkpoint struct {
	ConversationID string `gorm:"primaryKey;size:255"`
	State          string `gorm:"type:json"`
	UpdatedAt      time.Time
}
