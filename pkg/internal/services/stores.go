package services

import (
	"context"
	"errors"

	"github.com/fairwaylink/messaging/pkg/internal/models"
)

// ErrRecordMissing is what stores report for an absent row; the service layer
// translates it into the protocol-facing NotFound.
var ErrRecordMissing = errors.New("record missing")

type ThreadStore interface {
	GetThread(ctx context.Context, id string) (models.ChatThread, error)
	GetDirectThread(ctx context.Context, directKey string) (models.ChatThread, error)
	CreateThread(ctx context.Context, thread *models.ChatThread) error
	AddMembers(ctx context.Context, id string, userIds []string) (models.ChatThread, error)
	RemoveMember(ctx context.Context, id string, userId string) (models.ChatThread, error)
	TouchThread(ctx context.Context, id string) error
	ListThreadsForUser(ctx context.Context, userId string, threadType models.ThreadType) ([]models.ChatThread, error)
	ListGroupsForClub(ctx context.Context, clubId string) ([]models.ChatThread, error)
}

type ReactionAction = string

const (
	ReactionSet     = ReactionAction("set")
	ReactionRemoved = ReactionAction("removed")
)

type MessageStore interface {
	GetMessage(ctx context.Context, id string) (models.ChatMessage, error)
	CreateMessage(ctx context.Context, message *models.ChatMessage) error
	ListMessages(ctx context.Context, threadId string) ([]models.ChatMessage, error)
	LastMessage(ctx context.Context, threadId string) (*models.ChatMessage, error)
	// ToggleReaction applies the single-reaction-per-user rule atomically and
	// returns the action taken plus the message's reaction list afterwards.
	ToggleReaction(ctx context.Context, messageId, userId, emoji string) (ReactionAction, []models.MessageReaction, error)
}
