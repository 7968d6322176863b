package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/fairwaylink/messaging/pkg/internal/auth"
	"github.com/fairwaylink/messaging/pkg/internal/directory"
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/fairwaylink/messaging/pkg/internal/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ChatBackend is the authoritative slice of the chat service the gateway
// defers to; joins and sends are both re-validated behind it.
type ChatBackend interface {
	CheckThreadAccess(ctx context.Context, threadId, userId string) error
	SendMessageToThread(ctx context.Context, senderId string, payload services.SendMessageInput) (services.MessageResponse, error)
	ReactToMessage(ctx context.Context, userId, messageId, emoji string) (services.ReactionResult, error)
}

type Gateway struct {
	Rooms  *RoomRegistry
	Broker Broker
	Chat   ChatBackend
}

func New(rooms *RoomRegistry, broker Broker, chat ChatBackend) *Gateway {
	return &Gateway{Rooms: rooms, Broker: broker, Chat: chat}
}

func RoomName(convId string) string {
	return "conv:" + convId
}

func UserRoomName(userId string) string {
	return "user:" + userId
}

// AuthenticateUpgrade verifies the handshake token before the connection can
// be promoted; a bad token never reaches the event loop.
func (v *Gateway) AuthenticateUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if len(token) == 0 {
		header := c.Get(fiber.HeaderAuthorization)
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if len(token) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication token required")
	}

	claims, err := auth.VerifyAccessToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func (v *Gateway) Handler() fiber.Handler {
	return websocket.New(v.handle)
}

func (v *Gateway) handle(conn *websocket.Conn) {
	userId := conn.Locals("user_id").(string)
	client := NewClient(userId, conn)

	// Private per-user room, reserved for direct delivery.
	v.Rooms.Join(UserRoomName(userId), client)
	log.Info().Str("user", userId).Msg("Realtime connection established.")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var packet ClientPacket
		if err := jsoniter.Unmarshal(raw, &packet); err != nil {
			_ = client.Write(ServerPacket{
				Event:   "error",
				Payload: errAck("unable to unmarshal your command, requires json request"),
			})
			continue
		}

		v.dealPacket(client, packet)
	}

	v.Rooms.DropClient(client)
	log.Info().Str("user", userId).Msg("Realtime connection closed.")
}

func (v *Gateway) ack(client *Client, packet ClientPacket, payload map[string]any) {
	_ = client.Write(ServerPacket{Event: "ack", AckID: packet.AckID, Payload: payload})
}

func (v *Gateway) dealPacket(client *Client, packet ClientPacket) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch packet.Action {
	case "join":
		var req struct {
			ConvID string `json:"convId"`
		}
		_ = jsoniter.Unmarshal(packet.Payload, &req)

		convId := strings.TrimSpace(req.ConvID)
		if len(convId) == 0 {
			v.ack(client, packet, errAck("convId is required"))
			return
		}
		if err := v.Chat.CheckThreadAccess(ctx, convId, client.UserID); err != nil {
			v.ack(client, packet, errAck(err.Error()))
			return
		}

		// Idempotent; joining twice is a no-op success.
		v.Rooms.Join(RoomName(convId), client)
		v.ack(client, packet, okAck(nil))

	case "send-msg":
		v.dealSendMessage(ctx, client, packet)

	case "react-msg":
		v.dealReactMessage(ctx, client, packet)

	case "ping":
		v.ack(client, packet, okAck(nil))
		_ = client.Write(ServerPacket{Event: "pong"})

	default:
		v.ack(client, packet, errAck("command not found"))
	}
}

// OutgoingMessage mirrors the wire shape the chat clients reconcile against;
// TempID is echoed verbatim so every observer can match its optimistic copy.
type OutgoingMessage struct {
	ID               string             `json:"id"`
	ConvID           string             `json:"convId"`
	Text             string             `json:"text"`
	MediaURLs        []string           `json:"mediaUrls"`
	SenderID         string             `json:"senderId"`
	Sender           *directory.Profile `json:"sender"`
	MentionedUserIDs []string           `json:"mentionedUserIds"`
	Reactions        []reactionDTO      `json:"reactions"`
	SentAt           time.Time          `json:"sentAt"`
	TempID           string             `json:"tempId,omitempty"`
}

type reactionDTO struct {
	UserID    string    `json:"userId"`
	Emoji     string    `json:"emoji"`
	ReactedAt time.Time `json:"reactedAt"`
}

func toReactionDTOs(reactions []services.ReactionView) []reactionDTO {
	return lo.Map(reactions, func(item services.ReactionView, _ int) reactionDTO {
		return reactionDTO{UserID: item.UserID, Emoji: item.Emoji, ReactedAt: item.ReactedAt}
	})
}

// MessageEvent builds the broadcast payload for a delivered message; the REST
// handlers use it too so both transports emit the same shape.
func MessageEvent(convId string, message services.MessageResponse, tempId string) OutgoingMessage {
	var mediaUrls []string
	if message.ImageURL != nil {
		mediaUrls = []string{*message.ImageURL}
	}

	return OutgoingMessage{
		ID:               message.ID,
		ConvID:           convId,
		Text:             lo.FromPtr(message.Text),
		MediaURLs:        mediaUrls,
		SenderID:         message.SenderUserID,
		Sender:           message.Sender,
		MentionedUserIDs: message.MentionedUserIDs,
		Reactions:        toReactionDTOs(message.Reactions),
		SentAt:           message.CreatedAt,
		TempID:           tempId,
	}
}

func ReactionEvent(result services.ReactionResult) map[string]any {
	return map[string]any{
		"action":    result.Action,
		"messageId": result.Message.ID,
		"convId":    result.Message.ThreadID,
		"reactions": toReactionDTOs(result.Message.Reactions),
	}
}

func (v *Gateway) dealSendMessage(ctx context.Context, client *Client, packet ClientPacket) {
	var req struct {
		ConvID    string   `json:"convId"`
		Text      string   `json:"text"`
		MediaURL  string   `json:"mediaUrl"`
		MediaURLs []string `json:"mediaUrls"`
		TempID    string   `json:"tempId"`
	}
	_ = jsoniter.Unmarshal(packet.Payload, &req)

	convId := strings.TrimSpace(req.ConvID)
	text := strings.TrimSpace(req.Text)
	mediaUrls := lo.Filter(req.MediaURLs, func(u string, _ int) bool {
		return len(strings.TrimSpace(u)) > 0
	})
	if len(mediaUrls) == 0 && len(strings.TrimSpace(req.MediaURL)) > 0 {
		mediaUrls = []string{strings.TrimSpace(req.MediaURL)}
	}

	if len(convId) == 0 {
		v.ack(client, packet, errAck("convId is required"))
		return
	}
	if len(text) == 0 && len(mediaUrls) == 0 {
		v.ack(client, packet, errAck("message text or media is required"))
		return
	}

	messageType := models.MessageTypeText
	imageUrl := ""
	if len(mediaUrls) > 0 {
		messageType = models.MessageTypeImage
		imageUrl = mediaUrls[0]
	}

	response, err := v.Chat.SendMessageToThread(ctx, client.UserID, services.SendMessageInput{
		ThreadID: convId,
		Type:     messageType,
		Text:     text,
		ImageURL: imageUrl,
	})
	if err != nil {
		v.ack(client, packet, errAck(err.Error()))
		return
	}

	outgoing := MessageEvent(convId, response, req.TempID)
	if len(mediaUrls) > 0 {
		outgoing.MediaURLs = mediaUrls
	}

	v.Broker.Publish(RoomName(convId), ServerPacket{Event: "new-msg", Payload: outgoing})
	v.ack(client, packet, okAck(map[string]any{"message": outgoing}))
}

func (v *Gateway) dealReactMessage(ctx context.Context, client *Client, packet ClientPacket) {
	var req struct {
		MessageID string `json:"messageId"`
		Emoji     string `json:"emoji"`
	}
	_ = jsoniter.Unmarshal(packet.Payload, &req)

	messageId := strings.TrimSpace(req.MessageID)
	if len(messageId) == 0 {
		v.ack(client, packet, errAck("messageId is required"))
		return
	}

	result, err := v.Chat.ReactToMessage(ctx, client.UserID, messageId, req.Emoji)
	if err != nil {
		v.ack(client, packet, errAck(err.Error()))
		return
	}

	data := ReactionEvent(result)

	v.Broker.Publish(RoomName(result.Message.ThreadID), ServerPacket{Event: "msg-reacted", Payload: data})
	v.ack(client, packet, okAck(map[string]any{"data": data}))
}
