package models

import (
	"time"

	"gorm.io/datatypes"
)

type MessageType = string

const (
	MessageTypeText  = MessageType("text")
	MessageTypeImage = MessageType("image")
)

type ChatMessage struct {
	BaseModel

	ThreadID         string                      `json:"thread_id" gorm:"index:idx_messages_thread_recency,priority:1"`
	SenderUserID     string                      `json:"sender_user_id" gorm:"index"`
	Type             MessageType                 `json:"type"`
	Text             *string                     `json:"text"`
	ImageURL         *string                     `json:"image_url"`
	MentionedUserIDs datatypes.JSONSlice[string] `json:"mentioned_user_ids"`
	Reactions        []MessageReaction           `json:"reactions" gorm:"foreignKey:MessageID"`

	Thread ChatThread `json:"-" gorm:"foreignKey:ThreadID"`
}

// MessageReaction holds at most one row per (message, user); re-reacting with
// the same emoji removes the row, a different emoji replaces it in place.
type MessageReaction struct {
	BaseModel

	MessageID string    `json:"message_id" gorm:"uniqueIndex:idx_reaction_per_user"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_reaction_per_user"`
	Emoji     string    `json:"emoji"`
	ReactedAt time.Time `json:"reacted_at"`
}
