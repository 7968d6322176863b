package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

type SendMessageInput struct {
	ThreadID string             `json:"thread_id" validate:"required"`
	Type     models.MessageType `json:"type" validate:"required"`
	Text     string             `json:"text"`
	ImageURL string             `json:"image_url"`
}

type SendDirectInput struct {
	ToGolferUserID string             `json:"to_golfer_user_id" validate:"required"`
	Type           models.MessageType `json:"type" validate:"required"`
	Text           string             `json:"text"`
	ImageURL       string             `json:"image_url"`
}

type ReactionResult struct {
	Action  ReactionAction  `json:"action"`
	Message MessageResponse `json:"message"`
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func validateMessagePayload(messageType models.MessageType, text, imageUrl string) error {
	switch messageType {
	case models.MessageTypeText:
		if len(trimmed(text)) == 0 {
			return NewBadRequest("text message requires non-empty text")
		}
	case models.MessageTypeImage:
		if len(trimmed(imageUrl)) == 0 {
			return NewBadRequest("image message requires an image url")
		}
	default:
		return NewBadRequest("message type must be text or image")
	}
	return nil
}

// SendMessageToThread is the single authoritative send path: membership, then
// payload shape, then mentions, then persistence, then the thread recency
// bump. Direct threads re-check DM eligibility so a revoked follow cuts the
// conversation off.
func (v *Chat) SendMessageToThread(ctx context.Context, senderId string, payload SendMessageInput) (MessageResponse, error) {
	thread, err := v.getAvailableThread(ctx, payload.ThreadID, senderId)
	if err != nil {
		return MessageResponse{}, err
	}

	if thread.Type == models.ThreadTypeDirect {
		if err := v.CanDirectMessage(ctx, senderId, thread.DirectPeerID(senderId)); err != nil {
			return MessageResponse{}, err
		}
	}

	if err := validateMessagePayload(payload.Type, payload.Text, payload.ImageURL); err != nil {
		return MessageResponse{}, err
	}

	mentioned, err := ResolveMentions(ctx, payload.Text, thread.MemberUserIDs(), v.Profiles.ResolveHandles)
	if err != nil {
		return MessageResponse{}, err
	}

	message := models.ChatMessage{
		ThreadID:         thread.ID,
		SenderUserID:     senderId,
		Type:             payload.Type,
		MentionedUserIDs: datatypes.NewJSONSlice(mentioned),
	}
	if text := trimmed(payload.Text); len(text) > 0 {
		message.Text = lo.ToPtr(text)
	}
	if imageUrl := trimmed(payload.ImageURL); len(imageUrl) > 0 {
		message.ImageURL = lo.ToPtr(imageUrl)
	}

	if err := v.Messages.CreateMessage(ctx, &message); err != nil {
		return MessageResponse{}, err
	}
	if err := v.Threads.TouchThread(ctx, thread.ID); err != nil {
		return MessageResponse{}, err
	}

	response := v.toMessageResponse(ctx, message)
	v.notifyNewMessage(thread, message, response)

	return response, nil
}

// SendDirectMessage ensures the direct thread and delivers in one step, the
// shape the direct-message composer uses.
func (v *Chat) SendDirectMessage(ctx context.Context, senderId string, payload SendDirectInput) (ThreadSummary, MessageResponse, error) {
	thread, err := v.ensureDirectThread(ctx, senderId, payload.ToGolferUserID)
	if err != nil {
		return ThreadSummary{}, MessageResponse{}, err
	}

	message, err := v.SendMessageToThread(ctx, senderId, SendMessageInput{
		ThreadID: thread.ID,
		Type:     payload.Type,
		Text:     payload.Text,
		ImageURL: payload.ImageURL,
	})
	if err != nil {
		return ThreadSummary{}, MessageResponse{}, err
	}

	// The send just bumped the thread's recency; re-read so the summary
	// reflects it.
	if updated, err := v.Threads.GetThread(ctx, thread.ID); err == nil {
		thread = updated
	}

	return v.toThreadSummary(ctx, thread, nil, senderId), message, nil
}

func (v *Chat) ListMessages(ctx context.Context, userId, threadId string) ([]MessageResponse, error) {
	if _, err := v.getAvailableThread(ctx, threadId, userId); err != nil {
		return nil, err
	}

	messages, err := v.Messages.ListMessages(ctx, threadId)
	if err != nil {
		return nil, err
	}

	return lo.Map(messages, func(message models.ChatMessage, _ int) MessageResponse {
		return v.toMessageResponse(ctx, message)
	}), nil
}

const reactionEmojiLimit = 16

func (v *Chat) ReactToMessage(ctx context.Context, userId, messageId, emoji string) (ReactionResult, error) {
	// Rune count, not bytes: multi-codepoint emoji exceed 16 bytes easily.
	emoji = trimmed(emoji)
	if len(emoji) == 0 || utf8.RuneCountInString(emoji) > reactionEmojiLimit {
		return ReactionResult{}, NewBadRequest("a reaction emoji of at most 16 characters is required")
	}

	message, err := v.Messages.GetMessage(ctx, messageId)
	if err == ErrRecordMissing {
		return ReactionResult{}, NewNotFound("message not found")
	} else if err != nil {
		return ReactionResult{}, err
	}

	if _, err := v.getAvailableThread(ctx, message.ThreadID, userId); err != nil {
		return ReactionResult{}, err
	}

	action, reactions, err := v.Messages.ToggleReaction(ctx, messageId, userId, emoji)
	if err != nil {
		return ReactionResult{}, err
	}
	message.Reactions = reactions

	return ReactionResult{
		Action:  action,
		Message: v.toMessageResponse(ctx, message),
	}, nil
}
