package api

import (
	"github.com/fairwaylink/messaging/pkg/internal/gateway"
	"github.com/fairwaylink/messaging/pkg/internal/http/exts"
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/fairwaylink/messaging/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func listThreadMessages(c *fiber.Ctx) error {
	userId := currentUserId(c)
	threadId := c.Params("threadId")

	messages, err := chat.ListMessages(c.UserContext(), userId, threadId)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(messages)
}

func sendThreadMessage(c *fiber.Ctx) error {
	userId := currentUserId(c)
	threadId := c.Params("threadId")

	var data struct {
		Type     string `json:"type" validate:"required"`
		Text     string `json:"text"`
		ImageURL string `json:"image_url"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	message, err := chat.SendMessageToThread(c.UserContext(), userId, services.SendMessageInput{
		ThreadID: threadId,
		Type:     models.MessageType(data.Type),
		Text:     data.Text,
		ImageURL: data.ImageURL,
	})
	if err != nil {
		return mapServiceError(err)
	}

	broadcastMessage(threadId, message)
	return c.JSON(message)
}

func sendDirectMessage(c *fiber.Ctx) error {
	userId := currentUserId(c)

	var data services.SendDirectInput
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, message, err := chat.SendDirectMessage(c.UserContext(), userId, data)
	if err != nil {
		return mapServiceError(err)
	}

	broadcastMessage(thread.ID, message)
	return c.JSON(fiber.Map{
		"thread":  thread,
		"message": message,
	})
}

func reactToMessage(c *fiber.Ctx) error {
	userId := currentUserId(c)
	messageId := c.Params("messageId")

	var data struct {
		Emoji string `json:"emoji" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	result, err := chat.ReactToMessage(c.UserContext(), userId, messageId, data.Emoji)
	if err != nil {
		return mapServiceError(err)
	}

	gw.Broker.Publish(gateway.RoomName(result.Message.ThreadID), gateway.ServerPacket{
		Event:   "msg-reacted",
		Payload: gateway.ReactionEvent(result),
	})

	return c.JSON(result)
}

// broadcastMessage mirrors a REST-delivered message into the realtime room so
// connected clients see it without polling.
func broadcastMessage(threadId string, message services.MessageResponse) {
	gw.Broker.Publish(gateway.RoomName(threadId), gateway.ServerPacket{
		Event:   "new-msg",
		Payload: gateway.MessageEvent(threadId, message, ""),
	})
}
