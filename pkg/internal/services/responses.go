package services

import (
	"context"
	"time"

	"github.com/fairwaylink/messaging/pkg/internal/directory"
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/samber/lo"
)

type ReactionView struct {
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	ReactedAt time.Time `json:"reacted_at"`
}

type MessageResponse struct {
	ID               string             `json:"id"`
	ThreadID         string             `json:"thread_id"`
	SenderUserID     string             `json:"sender_user_id"`
	Sender           *directory.Profile `json:"sender"`
	Type             models.MessageType `json:"type"`
	Text             *string            `json:"text"`
	ImageURL         *string            `json:"image_url"`
	MentionedUserIDs []string           `json:"mentioned_user_ids"`
	Reactions        []ReactionView     `json:"reactions"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type ThreadSummary struct {
	ID            string             `json:"id"`
	Type          models.ThreadType  `json:"type"`
	Name          *string            `json:"name"`
	AvatarURL     *string            `json:"avatar_url"`
	OwnerUserID   *string            `json:"owner_user_id"`
	ClubID        *string            `json:"club_id"`
	MemberUserIDs []string           `json:"member_user_ids"`
	MemberCount   int                `json:"member_count"`
	DirectPeer    *directory.Profile `json:"direct_peer"`
	LastMessage   *MessageResponse   `json:"last_message"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// lookupProfile is the best-effort enrichment decorator: a directory outage
// degrades a response field to null instead of failing message delivery.
func (v *Chat) lookupProfile(ctx context.Context, userId string) *directory.Profile {
	profile, err := v.Profiles.GetProfile(ctx, userId)
	if err != nil {
		return nil
	}
	return &profile
}

func (v *Chat) toMessageResponse(ctx context.Context, message models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:               message.ID,
		ThreadID:         message.ThreadID,
		SenderUserID:     message.SenderUserID,
		Sender:           v.lookupProfile(ctx, message.SenderUserID),
		Type:             message.Type,
		Text:             message.Text,
		ImageURL:         message.ImageURL,
		MentionedUserIDs: message.MentionedUserIDs,
		Reactions:        toReactionViews(message.Reactions),
		CreatedAt:        message.CreatedAt,
		UpdatedAt:        message.UpdatedAt,
	}
}

func toReactionViews(reactions []models.MessageReaction) []ReactionView {
	return lo.Map(reactions, func(item models.MessageReaction, _ int) ReactionView {
		return ReactionView{UserID: item.UserID, Emoji: item.Emoji, ReactedAt: item.ReactedAt}
	})
}

// toThreadSummary resolves the direct peer profile for the viewer and the most
// recent message when the caller did not just produce one.
func (v *Chat) toThreadSummary(ctx context.Context, thread models.ChatThread, newMessage *models.ChatMessage, viewerId string) ThreadSummary {
	last := newMessage
	if last == nil {
		last, _ = v.Messages.LastMessage(ctx, thread.ID)
	}

	var lastResponse *MessageResponse
	if last != nil {
		lastResponse = lo.ToPtr(v.toMessageResponse(ctx, *last))
	}

	var directPeer *directory.Profile
	if thread.Type == models.ThreadTypeDirect && len(viewerId) > 0 {
		if peerId := thread.DirectPeerID(viewerId); len(peerId) > 0 {
			directPeer = v.lookupProfile(ctx, peerId)
		}
	}

	return ThreadSummary{
		ID:            thread.ID,
		Type:          thread.Type,
		Name:          thread.Name,
		AvatarURL:     thread.AvatarURL,
		OwnerUserID:   thread.OwnerUserID,
		ClubID:        thread.ClubID,
		MemberUserIDs: thread.MemberUserIDs(),
		MemberCount:   len(thread.Members),
		DirectPeer:    directPeer,
		LastMessage:   lastResponse,
		CreatedAt:     thread.CreatedAt,
		UpdatedAt:     thread.UpdatedAt,
	}
}
