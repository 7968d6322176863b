package gateway

import (
	"testing"

	"github.com/fairwaylink/messaging/pkg/internal/services"
	"github.com/samber/lo"
)

func TestMessageEvent(t *testing.T) {
	message := services.MessageResponse{
		ID:               "message-1",
		ThreadID:         "thread-1",
		SenderUserID:     "user-a",
		Text:             lo.ToPtr("nice approach"),
		ImageURL:         lo.ToPtr("https://cdn.example.com/swing.jpg"),
		MentionedUserIDs: []string{"user-b"},
	}

	event := MessageEvent("thread-1", message, "temp-42")

	if event.ID != "message-1" || event.ConvID != "thread-1" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Text != "nice approach" {
		t.Fatalf("unexpected text %q", event.Text)
	}
	if len(event.MediaURLs) != 1 || event.MediaURLs[0] != "https://cdn.example.com/swing.jpg" {
		t.Fatalf("unexpected media urls %v", event.MediaURLs)
	}
	if event.SenderID != "user-a" {
		t.Fatalf("unexpected sender %q", event.SenderID)
	}
	if event.TempID != "temp-42" {
		t.Fatalf("expected tempId echoed, got %q", event.TempID)
	}
}

func TestReactionEvent(t *testing.T) {
	result := services.ReactionResult{
		Action: services.ReactionSet,
		Message: services.MessageResponse{
			ID:       "message-1",
			ThreadID: "thread-1",
			Reactions: []services.ReactionView{
				{UserID: "user-b", Emoji: "⛳"},
			},
		},
	}

	data := ReactionEvent(result)

	if data["action"] != services.ReactionSet {
		t.Fatalf("unexpected action %v", data["action"])
	}
	if data["messageId"] != "message-1" || data["convId"] != "thread-1" {
		t.Fatalf("unexpected identity fields %v", data)
	}
	reactions, ok := data["reactions"].([]reactionDTO)
	if !ok || len(reactions) != 1 || reactions[0].Emoji != "⛳" {
		t.Fatalf("unexpected reactions %v", data["reactions"])
	}
}
