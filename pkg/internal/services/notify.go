package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fairwaylink/messaging/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

// NotificationEvent is what the external notification service consumes off the
// broker. Delivery is fire-and-forget: a broker outage never blocks a send.
type NotificationEvent struct {
	Topic            string   `json:"topic"`
	ThreadID         string   `json:"thread_id"`
	MessageID        string   `json:"message_id"`
	SenderUserID     string   `json:"sender_user_id"`
	RecipientUserIDs []string `json:"recipient_user_ids"`
	MentionedUserIDs []string `json:"mentioned_user_ids"`
	Preview          string   `json:"preview"`
}

type Notifier interface {
	Notify(event NotificationEvent)
}

type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireNone,
			Async:        true,
		},
	}
}

func (v *KafkaNotifier) Close() error {
	return v.writer.Close()
}

func (v *KafkaNotifier) Notify(event NotificationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, _ := jsoniter.Marshal(event)
	if err := v.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ThreadID),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		log.Warn().Err(err).Str("thread", event.ThreadID).Msg("An error occurred when pushing notification event.")
	}
}

func (v *Chat) notifyNewMessage(thread models.ChatThread, message models.ChatMessage, response MessageResponse) {
	if v.Notifier == nil {
		return
	}

	recipients := lo.Filter(thread.MemberUserIDs(), func(id string, _ int) bool {
		return id != message.SenderUserID
	})
	if len(recipients) == 0 {
		return
	}

	preview := ""
	if message.Text != nil {
		preview = *message.Text
	} else if message.ImageURL != nil {
		preview = "1 attachment"
	}
	if len(response.MentionedUserIDs) > 0 {
		preview = fmt.Sprintf("%s (mentions %d)", preview, len(response.MentionedUserIDs))
	}

	go v.Notifier.Notify(NotificationEvent{
		Topic:            "chat.message",
		ThreadID:         thread.ID,
		MessageID:        message.ID,
		SenderUserID:     message.SenderUserID,
		RecipientUserIDs: recipients,
		MentionedUserIDs: response.MentionedUserIDs,
		Preview:          preview,
	})
}
